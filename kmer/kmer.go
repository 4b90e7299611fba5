// Package kmer packs DNA strings into fixed-width canonical binary
// k-mers and provides the constant-time (in the k-mer's word count)
// operations the rest of the toolkit builds on: canonicalization,
// reverse-complementation, and the single-base shift used to slide a
// window along a read.
//
// A k-mer of length k is stored as ceil(k/32) 64-bit words, two bits
// per base (A=0, C=1, G=2, T=3), with the first base of the sequence
// occupying the most significant bits of the most significant word.
// That layout makes lexicographic string order and big-endian word
// order coincide, which is what Canonical and the hash table's probe
// order both rely on.
package kmer

import (
	"fmt"
	"strings"
)

// Base codes, matching the 2-bit packing used throughout this
// package.
const (
	A byte = 0
	C byte = 1
	G byte = 2
	T byte = 3
)

var baseSymbol = [4]byte{'A', 'C', 'G', 'T'}

var baseCode [256]int8

func init() {
	for i := range baseCode {
		baseCode[i] = -1
	}
	baseCode['A'], baseCode['a'] = int8(A), int8(A)
	baseCode['C'], baseCode['c'] = int8(C), int8(C)
	baseCode['G'], baseCode['g'] = int8(G), int8(G)
	baseCode['T'], baseCode['t'] = int8(T), int8(T)
}

// IsBase reports whether b is one of A, C, G, T (upper or lower
// case).
func IsBase(b byte) bool {
	return baseCode[b] >= 0
}

// Complement returns the complementary base code: A<->T, C<->G. Bases
// are packed so that complement is simply bitwise NOT on the 2-bit
// group (3-b), which is how ComplementWord below works on a whole
// word at once.
func Complement(b byte) byte {
	return 3 - b
}

// Kmer is an immutable, fixed-width packed k-mer. The zero value is
// not meaningful; construct values with a Codec.
type Kmer struct {
	words []uint64
	k     int
}

// K returns the k-mer's length.
func (km Kmer) K() int { return km.k }

// Words returns the k-mer's packed words, most significant word
// first. Callers must not mutate the returned slice.
func (km Kmer) Words() []uint64 { return km.words }

// Equal reports whether two k-mers of the same length have identical
// packed representations.
func (km Kmer) Equal(other Kmer) bool {
	if km.k != other.k {
		return false
	}
	for i, w := range km.words {
		if w != other.words[i] {
			return false
		}
	}
	return true
}

// Less implements the canonicalization tie-break: compare the two
// variants base-by-base from the 5' end, i.e. lexicographic order on
// the packed word array.
func (km Kmer) Less(other Kmer) bool {
	for i, w := range km.words {
		if w != other.words[i] {
			return w < other.words[i]
		}
	}
	return false
}

// String unpacks the k-mer back into its DNA string.
func (km Kmer) String() string {
	var b strings.Builder
	b.Grow(km.k)
	for i := 0; i < km.k; i++ {
		b.WriteByte(baseSymbol[km.baseAt(i)])
	}
	return b.String()
}

// Hash returns a 64-bit hash of the packed words, combined with a
// DJBX33A-style multiply-and-add applied a word at a time instead of
// a byte at a time.
func (km Kmer) Hash() uint64 {
	var h uint64 = 5381
	for _, w := range km.words {
		h = ((h << 5) + h) + w
	}
	return h
}

// nWords is the number of 64-bit words needed to hold a k-mer of
// length k.
func nWords(k int) int {
	return (2*k + 63) / 64
}

// Codec packs and unpacks k-mers of a single, fixed length k. k must
// be odd (so a k-mer and its reverse complement can never be equal)
// and between 3 and 255 inclusive.
type Codec struct {
	k      int
	nWords int
}

// NewCodec validates k and returns a Codec for k-mers of that length.
func NewCodec(k int) (*Codec, error) {
	if k < 3 || k > 255 {
		return nil, fmt.Errorf("kmer size %d out of range [3,255]", k)
	}
	if k%2 == 0 {
		return nil, fmt.Errorf("kmer size %d must be odd", k)
	}
	return &Codec{k: k, nWords: nWords(k)}, nil
}

// K returns the codec's fixed k-mer length.
func (c *Codec) K() int { return c.k }

// NWords returns ceil(k/32), the number of 64-bit words per k-mer.
func (c *Codec) NWords() int { return c.nWords }

// position maps base index i (0 = 5'-most base) to its bit location:
// the word index (0 = most significant) and the bit offset within
// that word.
func (c *Codec) position(i int) (word int, shift uint) {
	bitFromLSB := 2 * (c.k - 1 - i)
	wordFromLSB := bitFromLSB / 64
	shift = uint(bitFromLSB % 64)
	word = c.nWords - 1 - wordFromLSB
	return
}

func (km Kmer) baseAt(i int) byte {
	// Inverse of Codec.position, recomputed here since Kmer itself
	// does not carry a Codec pointer.
	bitFromLSB := 2 * (km.k - 1 - i)
	wordFromLSB := bitFromLSB / 64
	shift := uint(bitFromLSB % 64)
	word := len(km.words) - 1 - wordFromLSB
	return byte((km.words[word] >> shift) & 3)
}

// Pack encodes seq, which must consist solely of upper- or lower-case
// A/C/G/T and have length exactly k, into a Kmer. It does not
// canonicalize; call Canonical separately.
func (c *Codec) Pack(seq string) (Kmer, error) {
	if len(seq) != c.k {
		return Kmer{}, fmt.Errorf("sequence length %d does not match k=%d", len(seq), c.k)
	}
	words := make([]uint64, c.nWords)
	for i := 0; i < c.k; i++ {
		code := baseCode[seq[i]]
		if code < 0 {
			return Kmer{}, fmt.Errorf("invalid base %q at offset %d", seq[i], i)
		}
		word, shift := c.position(i)
		words[word] |= uint64(code) << shift
	}
	return Kmer{words: words, k: c.k}, nil
}

// Unpack is equivalent to km.String(), provided for symmetry with
// Pack.
func (c *Codec) Unpack(km Kmer) string {
	return km.String()
}

// ReverseComplement returns the reverse complement of km: the
// complement of each base, in reverse order.
func (c *Codec) ReverseComplement(km Kmer) Kmer {
	out := make([]uint64, c.nWords)
	for i := 0; i < c.k; i++ {
		base := Complement(km.baseAt(i))
		word, shift := c.position(c.k - 1 - i)
		out[word] |= uint64(base) << shift
	}
	return Kmer{words: out, k: c.k}
}

// Canonical returns the lexicographically smaller of km and its
// reverse complement.
func (c *Codec) Canonical(km Kmer) Kmer {
	rc := c.ReverseComplement(km)
	if rc.Less(km) {
		return rc
	}
	return km
}

// ShiftLeftAppend drops the leftmost (5'-most) base of km and appends
// base on the right, i.e. slides the k-mer window one position
// forward along a read.
func (c *Codec) ShiftLeftAppend(km Kmer, base byte) Kmer {
	out := make([]uint64, c.nWords)
	for i := 1; i < c.k; i++ {
		word, shift := c.position(i - 1)
		out[word] |= uint64(km.baseAt(i)) << shift
	}
	word, shift := c.position(c.k - 1)
	out[word] |= uint64(base) << shift
	return Kmer{words: out, k: c.k}
}

// ShiftRightPrepend prepends base on the left and drops the
// rightmost (3'-most) base of km, the mirror operation to
// ShiftLeftAppend used when walking a k-mer backwards.
func (c *Codec) ShiftRightPrepend(km Kmer, base byte) Kmer {
	out := make([]uint64, c.nWords)
	word, shift := c.position(0)
	out[word] |= uint64(base) << shift
	for i := 0; i < c.k-1; i++ {
		w, s := c.position(i + 1)
		out[w] |= uint64(km.baseAt(i)) << s
	}
	return Kmer{words: out, k: c.k}
}

// Direction distinguishes the two directions a k-mer can extend in.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// EnumerateNeighbors returns up to 4 k-mers reachable from km in the
// given direction, one per possible next base, in A,C,G,T order.
func (c *Codec) EnumerateNeighbors(km Kmer, dir Direction) []Kmer {
	neighbors := make([]Kmer, 0, 4)
	for _, base := range [4]byte{A, C, G, T} {
		if dir == Forward {
			neighbors = append(neighbors, c.ShiftLeftAppend(km, base))
		} else {
			neighbors = append(neighbors, c.ShiftRightPrepend(km, base))
		}
	}
	return neighbors
}

// FromWords reconstructs a Kmer from its packed word representation,
// as read back from a hash table bucket or a binary graph record. The
// words slice is copied, so the caller's backing array may be reused
// afterwards.
func FromWords(words []uint64, k int) Kmer {
	out := make([]uint64, len(words))
	copy(out, words)
	return Kmer{words: out, k: k}
}

// FirstBase and LastBase return the 5'- and 3'-most bases of km, used
// by the hash table / node store to index edge bits by the base that
// was shifted in or out.
func (km Kmer) FirstBase() byte { return km.baseAt(0) }
func (km Kmer) LastBase() byte  { return km.baseAt(km.k - 1) }
