package graph

import (
	"sync/atomic"

	"github.com/exascience/pargo/parallel"

	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
)

// LoadStats is the load-stats record spec.md §4.4 requires the
// builder to produce: bases read, bases loaded, kmers loaded, kmers
// novel. All four counters are updated with atomic adds so a single
// LoadStats can be shared across the builder's parallel workers.
type LoadStats struct {
	BasesRead   int64
	BasesLoaded int64
	KmersLoaded int64
	KmersNovel  int64
}

func (s *LoadStats) addBasesRead(n int64)   { atomic.AddInt64(&s.BasesRead, n) }
func (s *LoadStats) addBasesLoaded(n int64) { atomic.AddInt64(&s.BasesLoaded, n) }
func (s *LoadStats) addKmersLoaded(n int64) { atomic.AddInt64(&s.KmersLoaded, n) }
func (s *LoadStats) addKmersNovel(n int64)  { atomic.AddInt64(&s.KmersNovel, n) }

// Snapshot returns a consistent-enough copy of the counters for
// reporting; each field is read with its own atomic load.
func (s *LoadStats) Snapshot() LoadStats {
	return LoadStats{
		BasesRead:   atomic.LoadInt64(&s.BasesRead),
		BasesLoaded: atomic.LoadInt64(&s.BasesLoaded),
		KmersLoaded: atomic.LoadInt64(&s.KmersLoaded),
		KmersNovel:  atomic.LoadInt64(&s.KmersNovel),
	}
}

// BuildOptions configures a single builder pass over one color.
type BuildOptions struct {
	Color  int
	Strict bool // if true, an unrecognized base is InvalidInput and aborts the pass; otherwise the current contig simply ends there.
}

// SplitContigs splits seq into maximal runs of in-alphabet (A/C/G/T)
// bases, dropping N's and any other symbol as a contig boundary
// (spec.md §4.4 step 1). It always returns at least the contigs
// present, even if Strict would later reject the input -- Strict
// only changes whether a non-base byte is reported as InvalidInput or
// silently ends the contig.
func SplitContigs(seq []byte) [][]byte {
	var contigs [][]byte
	start := -1
	for i, b := range seq {
		if kmer.IsBase(b) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			contigs = append(contigs, seq[start:i])
			start = -1
		}
	}
	if start >= 0 {
		contigs = append(contigs, seq[start:])
	}
	return contigs
}

// BuildContig loads every k-mer window of contig into the graph under
// the given color, linking consecutive windows with edge bits. Contigs
// shorter than k are discarded without error, per spec.md §4.4.
func BuildContig(g *Graph, contig []byte, opts BuildOptions, stats *LoadStats) error {
	codec := g.Table.Codec()
	k := codec.K()
	stats.addBasesLoaded(int64(len(contig)))
	if len(contig) < k {
		return nil
	}
	if opts.Strict {
		for _, b := range contig {
			if !kmer.IsBase(b) {
				return internal.Errorf(internal.InvalidInput, "invalid base %q in strict mode", b)
			}
		}
	}

	var prev Handle = NotFound
	var prevKm kmer.Kmer
	for i := 0; i+k <= len(contig); i++ {
		km, err := codec.Pack(string(contig[i : i+k]))
		if err != nil {
			return internal.Errorf(internal.InvalidInput, "%v", err)
		}
		h, inserted, err := g.Table.FindOrInsert(km)
		if err != nil {
			return err
		}
		if inserted {
			stats.addKmersNovel(1)
		}
		stats.addKmersLoaded(1)
		g.Nodes.AddCoverage(h, opts.Color, 1)

		if prev != NotFound {
			linkEdge(g, opts.Color, prev, prevKm, h, km)
		}
		prev, prevKm = h, km
	}
	return nil
}

// linkEdge sets the successor bit on prev and the reciprocal
// predecessor bit on next, oriented by each bucket's stored canonical
// form rather than the forward-strand windows that produced them.
func linkEdge(g *Graph, color int, prev Handle, prevWindow kmer.Kmer, next Handle, nextWindow kmer.Kmer) {
	codec := g.Table.Codec()
	prevCanon := g.Table.KeyAt(prev)
	nextCanon := g.Table.KeyAt(next)

	succBase := nextWindow.LastBase()
	if prevWindow.Equal(prevCanon) {
		g.Nodes.SetEdge(prev, color, succDir, succBase)
	} else {
		g.Nodes.SetEdge(prev, color, predDir, kmer.Complement(succBase))
	}

	predBase := prevWindow.FirstBase()
	if nextWindow.Equal(nextCanon) {
		g.Nodes.SetEdge(next, color, predDir, predBase)
	} else {
		g.Nodes.SetEdge(next, color, succDir, kmer.Complement(predBase))
	}
	_ = codec
}

// BuildSequence splits seq into contigs and loads each into the
// graph, accumulating into stats.
func BuildSequence(g *Graph, seq []byte, opts BuildOptions, stats *LoadStats) error {
	stats.addBasesRead(int64(len(seq)))
	if opts.Strict {
		for _, b := range seq {
			if !kmer.IsBase(b) {
				return internal.Errorf(internal.InvalidInput, "invalid base %q in strict mode", b)
			}
		}
	}
	for _, contig := range SplitContigs(seq) {
		if err := BuildContig(g, contig, opts, stats); err != nil {
			return err
		}
	}
	return nil
}

// Load loads every sequence in sequences into the graph under
// opts.Color, splitting the slice into blocks that run across the
// pargo worker pool with parallel.RangeReduce: each block accumulates
// its own LoadStats and the first error it hits, and the blocks are
// merged pairwise into the single LoadStats this function returns.
// The graph's atomic edge/coverage updates and the hash table's CAS
// insert make concurrent blocks touching the same buckets safe,
// matching the worker-pool model in spec.md §5.
func Load(g *Graph, sequences [][]byte, opts BuildOptions) (LoadStats, error) {
	if len(sequences) == 0 {
		return LoadStats{}, nil
	}
	type partial struct {
		stats LoadStats
		err   error
	}
	result := parallel.RangeReduce(0, len(sequences), 0, func(low, high int) interface{} {
		var stats LoadStats
		var firstErr error
		for _, seq := range sequences[low:high] {
			if err := BuildSequence(g, seq, opts, &stats); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return partial{stats: stats, err: firstErr}
	}, func(a, b interface{}) interface{} {
		pa, pb := a.(partial), b.(partial)
		merged := partial{
			stats: LoadStats{
				BasesRead:   pa.stats.BasesRead + pb.stats.BasesRead,
				BasesLoaded: pa.stats.BasesLoaded + pb.stats.BasesLoaded,
				KmersLoaded: pa.stats.KmersLoaded + pb.stats.KmersLoaded,
				KmersNovel:  pa.stats.KmersNovel + pb.stats.KmersNovel,
			},
			err: pa.err,
		}
		if merged.err == nil {
			merged.err = pb.err
		}
		return merged
	}).(partial)
	return result.stats, result.err
}
