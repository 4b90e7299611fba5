// Package graph implements the colored, linked de Bruijn graph
// engine: the open-addressed hash table of canonical k-mers (this
// file), the per-(node,color) edge and coverage arrays, the graph
// builder and the graph cleaner.
package graph

import (
	"runtime"
	"sync/atomic"

	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
)

// Handle is a stable integer index into the hash table's bucket
// array. Handles never move once assigned: the table never rehashes.
type Handle int64

// NotFound is the sentinel Handle returned when a k-mer is absent.
const NotFound Handle = -1

type bucketState int32

const (
	empty bucketState = iota
	busy
	filled
)

// DefaultLoadFactor is the load-factor ceiling past which
// FindOrInsert fails hard with CapacityExceeded rather than growing
// the table.
const DefaultLoadFactor = 0.75

// HashTable is the open-addressed, linear-probed store keyed by
// canonical k-mer. It is sized once, from a user-specified kmer
// capacity, and never rehashes: every Handle it ever returns stays
// valid for the table's lifetime.
type HashTable struct {
	codec    *kmer.Codec
	nWords   int
	capacity int
	maxFill  int64

	keys   []uint64 // capacity*nWords, bucket idx at [idx*nWords:(idx+1)*nWords]
	states []int32  // atomic bucketState per bucket
	count  int64    // atomic, number of filled buckets
}

// NewHashTable allocates a table with room for capacity k-mers at the
// given load-factor ceiling (DefaultLoadFactor if loadFactor <= 0).
// This is the table's one and only allocation: callers must size
// capacity from known input cardinality, per the memory model in
// spec.md §5.
func NewHashTable(codec *kmer.Codec, capacity int, loadFactor float64) *HashTable {
	if loadFactor <= 0 {
		loadFactor = DefaultLoadFactor
	}
	return &HashTable{
		codec:    codec,
		nWords:   codec.NWords(),
		capacity: capacity,
		maxFill:  int64(float64(capacity) * loadFactor),
		keys:     make([]uint64, capacity*codec.NWords()),
		states:   make([]int32, capacity),
	}
}

// Capacity returns the number of buckets the table was sized with.
func (t *HashTable) Capacity() int { return t.capacity }

// Len returns the number of filled buckets.
func (t *HashTable) Len() int { return int(atomic.LoadInt64(&t.count)) }

func (t *HashTable) bucketWords(idx int) []uint64 {
	return t.keys[idx*t.nWords : (idx+1)*t.nWords]
}

func (t *HashTable) writeKey(idx int, km kmer.Kmer) {
	copy(t.bucketWords(idx), km.Words())
}

func (t *HashTable) keyEqual(idx int, km kmer.Kmer) bool {
	words := t.bucketWords(idx)
	for i, w := range km.Words() {
		if words[i] != w {
			return false
		}
	}
	return true
}

// KeyAt reconstructs the canonical k-mer stored at handle h. The
// caller must know h refers to a filled bucket.
func (t *HashTable) KeyAt(h Handle) kmer.Kmer {
	return kmer.FromWords(t.bucketWords(int(h)), t.codec.K())
}

// waitResolved spins while bucket idx is in the transient busy state,
// used by concurrent readers and probers that land on a bucket
// another goroutine is in the middle of claiming. Busy only persists
// for the few instructions between the CAS into busy and the
// release-store into filled, so a tight spin (not a futex wait) is
// the right tool, mirroring the CAS-retry suspension point named in
// spec.md §5.
func (t *HashTable) waitResolved(idx int) bucketState {
	for {
		s := bucketState(atomic.LoadInt32(&t.states[idx]))
		if s != busy {
			return s
		}
		runtime.Gosched()
	}
}

// Find canonicalizes km and probes for it, returning NotFound if
// absent. Concurrent with inserts, Find observes either NotFound or
// the fully-written inserted key, never a torn key: the insert path
// only flips a bucket's state to filled with a release-store after
// the key words are completely written, and Find never reads a
// bucket's key words until its acquire-load of that state has
// already observed filled.
func (t *HashTable) Find(raw kmer.Kmer) Handle {
	canon := t.codec.Canonical(raw)
	h := canon.Hash()
	start := int(h % uint64(t.capacity))
	for probe := 0; probe < t.capacity; probe++ {
		idx := (start + probe) % t.capacity
		switch t.waitResolved(idx) {
		case empty:
			return NotFound
		case filled:
			if t.keyEqual(idx, canon) {
				return Handle(idx)
			}
		}
	}
	return NotFound
}

// FindOrInsert canonicalizes km, probes to an existing or a fresh
// empty bucket, and CASes the key in if it wasn't already present. It
// is safe under concurrent insertion: a bucket's key is claimed by a
// single CAS on its state word (empty -> busy), written non-atomically
// only by the goroutine that won that CAS, then published via an
// atomic store (busy -> filled) that other goroutines' atomic loads
// synchronize with.
//
// If inserting a genuinely new key would push the table's fill count
// past its load-factor ceiling, FindOrInsert fails with
// CapacityExceeded instead of growing the table: the table never
// rehashes, so callers must size it from known input cardinality.
func (t *HashTable) FindOrInsert(raw kmer.Kmer) (Handle, bool, error) {
	canon := t.codec.Canonical(raw)
	h := canon.Hash()
	start := int(h % uint64(t.capacity))
	for probe := 0; probe < t.capacity; probe++ {
		idx := (start + probe) % t.capacity
		switch t.waitResolved(idx) {
		case filled:
			if t.keyEqual(idx, canon) {
				return Handle(idx), false, nil
			}
		case empty:
			if atomic.LoadInt64(&t.count) >= t.maxFill {
				return NotFound, false, internal.Errorf(internal.CapacityExceeded,
					"hash table full: %d/%d buckets filled at load-factor ceiling", t.count, t.capacity)
			}
			if atomic.CompareAndSwapInt32(&t.states[idx], int32(empty), int32(busy)) {
				t.writeKey(idx, canon)
				atomic.AddInt64(&t.count, 1)
				atomic.StoreInt32(&t.states[idx], int32(filled))
				return Handle(idx), true, nil
			}
			// Lost the race for this bucket; whoever won it will
			// resolve to filled (with either our key or a
			// different one that hashed here first), so retry the
			// same index once more instead of advancing the probe.
			probe--
		}
	}
	return NotFound, false, internal.Errorf(internal.CapacityExceeded,
		"hash table full: no empty bucket found after probing all %d buckets", t.capacity)
}

// NeighborLookup shifts h's k-mer by base in direction dir and
// returns the resulting k-mer's handle, or NotFound if it isn't in
// the table.
func (t *HashTable) NeighborLookup(h Handle, dir kmer.Direction, base byte) Handle {
	km := t.KeyAt(h)
	var shifted kmer.Kmer
	if dir == kmer.Forward {
		shifted = t.codec.ShiftLeftAppend(km, base)
	} else {
		shifted = t.codec.ShiftRightPrepend(km, base)
	}
	return t.Find(shifted)
}

// Codec returns the table's k-mer codec.
func (t *HashTable) Codec() *kmer.Codec { return t.codec }

// Occupied reports whether bucket h currently holds a key.
func (t *HashTable) Occupied(h Handle) bool {
	return bucketState(atomic.LoadInt32(&t.states[int(h)])) == filled
}

// Each calls f for every filled bucket's handle, in bucket order. It
// is the building block the binary graph writer and the cleaner's
// unitig scan both use to iterate "all non-empty buckets in bucket
// order" (spec.md §4.6).
func (t *HashTable) Each(f func(h Handle)) {
	for idx := 0; idx < t.capacity; idx++ {
		if t.Occupied(Handle(idx)) {
			f(Handle(idx))
		}
	}
}
