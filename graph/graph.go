package graph

import (
	"fmt"

	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
)

// ColorInfo is the per-color metadata carried in a graph file header
// (spec.md §6): the sample name and the cleaning provenance recorded
// against that color.
type ColorInfo struct {
	SampleName      string
	ErrorRate       float64
	CleanedTips     bool
	CleanedUnitigs  bool
	UnitigCutoff    uint32
	UnitigKmerCutoff uint32
}

// Graph is the colored, linked de Bruijn graph engine: a HashTable of
// canonical k-mers plus a NodeStore of per-(handle,color) edges and
// coverage. It is allocated once from a sized memory budget (see
// EstimateCapacity) and never grows.
type Graph struct {
	Table      *HashTable
	Nodes      *NodeStore
	Colors     []ColorInfo
	MeanReadLen uint32
	TotalSeq    uint64
	// RunID is the build invocation's provenance stamp (spec.md §6's
	// per-color cleaning metadata provenance, generalized to the
	// whole file): the cmd layer sets this from a freshly generated
	// github.com/google/uuid before writing a .ctx file. Empty for a
	// graph that hasn't been stamped, e.g. one only ever held in
	// memory by a test.
	RunID string
}

// New allocates a Graph with room for kmerCapacity k-mers across
// numColors colors.
func New(codec *kmer.Codec, kmerCapacity, numColors int, loadFactor float64) *Graph {
	return &Graph{
		Table:  NewHashTable(codec, kmerCapacity, loadFactor),
		Nodes:  NewNodeStore(kmerCapacity, numColors),
		Colors: make([]ColorInfo, numColors),
	}
}

// NumColors returns the color count the graph was allocated with.
func (g *Graph) NumColors() int { return len(g.Colors) }

// BitsPerKmerEntry is the per-bucket memory cost that
// EstimateCapacity divides a memory budget by: the packed key words
// plus one edge uint32 and one coverage uint32 per color, plus the
// hash table's one int32 state word and the node store's one uint32
// deleted word.
func BitsPerKmerEntry(wordsPerKmer, numColors int) int {
	bitsPerWord := 64
	return wordsPerKmer*bitsPerWord + 32 /* state */ + 32 /* deleted */ + numColors*(32+32)
}

// EstimateCapacity computes the largest kmer capacity that fits
// within memoryBudgetBits, for a k-mer codec with the given word
// width and numColors colors. This is the up-front sizing spec.md §5
// and §9 require: the table is sized from a user memory budget and
// never rehashes, so the cost of capacity estimation is paid once,
// here, by the caller.
func EstimateCapacity(memoryBudgetBits uint64, wordsPerKmer, numColors int) int {
	perEntry := BitsPerKmerEntry(wordsPerKmer, numColors)
	if perEntry <= 0 {
		return 0
	}
	return int(memoryBudgetBits / uint64(perEntry))
}

// CapacityError builds a CapacityExceeded error reporting that a
// graph advertising wantKmers k-mers cannot fit in a table sized for
// havKmers.
func CapacityError(wantKmers, havKmers int) error {
	return internal.Errorf(internal.CapacityExceeded,
		"graph requires capacity for at least %d kmers, but table was sized for %d", wantKmers, havKmers)
}

// Validate checks the two invariants that make a Graph well-formed
// (spec.md §8 "Canonicality" and "Edge closure").
func (g *Graph) Validate() error {
	codec := g.Table.Codec()
	var firstErr error
	g.Table.Each(func(h Handle) {
		if firstErr != nil {
			return
		}
		km := g.Table.KeyAt(h)
		if !codec.Canonical(km).Equal(km) {
			firstErr = fmt.Errorf("handle %d: key %v is not canonical", h, km)
			return
		}
		for c := 0; c < g.NumColors(); c++ {
			e := g.Nodes.Edges(h, c)
			for base := byte(0); base < 4; base++ {
				if e&edgeBit(succDir, base) == 0 {
					continue
				}
				next := codec.ShiftLeftAppend(km, base)
				nh := g.Table.Find(next)
				if nh == NotFound {
					firstErr = fmt.Errorf("handle %d color %d: successor base %d not resolvable", h, c, base)
					return
				}
				nextKm := g.Table.KeyAt(nh)
				// The edge leading back to km is a predecessor bit for
				// km's first base when next is stored as is, and a
				// successor bit for its complement when next is stored
				// as its reverse complement.
				backDir, backBase := predDir, km.FirstBase()
				if !next.Equal(nextKm) {
					backDir, backBase = succDir, kmer.Complement(km.FirstBase())
				}
				ne := g.Nodes.Edges(nh, c)
				if ne&edgeBit(backDir, backBase) == 0 {
					firstErr = fmt.Errorf("handle %d color %d: successor %d missing reciprocal edge bit", h, c, nh)
					return
				}
			}
		}
	})
	return firstErr
}
