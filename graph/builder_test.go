package graph

import (
	"strings"
	"testing"

	"github.com/exascience/cortex/kmer"
)

func repeatSeq(unit string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(unit)
	}
	return b.String()
}

func newTestGraph(t *testing.T, k, capacity, numColors int) *Graph {
	t.Helper()
	codec, err := kmer.NewCodec(k)
	if err != nil {
		t.Fatal(err)
	}
	return New(codec, capacity, numColors, DefaultLoadFactor)
}

// TestBuildTwoIdenticalSequences is testable scenario 1 from spec.md
// §8: build k=21 from two identical 100-base sequences and expect
// 100-21+1 = 80 nodes, each with coverage 2, 79 edges in each
// direction.
func TestBuildTwoIdenticalSequences(t *testing.T) {
	const k = 21
	g := newTestGraph(t, k, 1000, 1)
	seq := "CTGTGTCCACCCCATCGGACTGGCATTTTTATTACACTCAGAAACAGAACTCGGGTAATTTTGACAGGTCACGCAGAGGCGCGCCCTCCTGAAGTGCGTG" // 100 bases, in-alphabet throughout

	stats := &LoadStats{}
	for i := 0; i < 2; i++ {
		if err := BuildSequence(g, []byte(seq), BuildOptions{Color: 0}, stats); err != nil {
			t.Fatalf("BuildSequence: %v", err)
		}
	}

	wantNodes := len(seq) - k + 1
	if got := g.Table.Len(); got != wantNodes {
		t.Fatalf("node count = %d, want %d", got, wantNodes)
	}

	codec := g.Table.Codec()
	var succEdges, predEdges int
	g.Table.Each(func(h Handle) {
		if cov := g.Nodes.Coverage(h, 0); cov != 2 {
			t.Errorf("handle %d coverage = %d, want 2", h, cov)
		}
		e := g.Nodes.Edges(h, 0)
		for base := byte(0); base < 4; base++ {
			if e&edgeBit(succDir, base) != 0 {
				succEdges++
			}
			if e&edgeBit(predDir, base) != 0 {
				predEdges++
			}
		}
	})
	if succEdges != wantNodes-1 {
		t.Errorf("successor edge count = %d, want %d", succEdges, wantNodes-1)
	}
	if predEdges != wantNodes-1 {
		t.Errorf("predecessor edge count = %d, want %d", predEdges, wantNodes-1)
	}
	_ = codec
}

func TestSplitContigsDropsNsAndShortRuns(t *testing.T) {
	contigs := SplitContigs([]byte("ACGTNNNACGACGTACGT"))
	if len(contigs) != 2 {
		t.Fatalf("got %d contigs, want 2: %v", len(contigs), contigs)
	}
	if string(contigs[0]) != "ACGT" || string(contigs[1]) != "ACGACGTACGT" {
		t.Errorf("unexpected contigs: %q, %q", contigs[0], contigs[1])
	}
}

func TestBuildContigDiscardsShortContigs(t *testing.T) {
	g := newTestGraph(t, 21, 100, 1)
	stats := &LoadStats{}
	if err := BuildContig(g, []byte("ACGT"), BuildOptions{Color: 0}, stats); err != nil {
		t.Fatalf("BuildContig: %v", err)
	}
	if g.Table.Len() != 0 {
		t.Errorf("expected no nodes loaded from a contig shorter than k, got %d", g.Table.Len())
	}
}

func TestBuildContigStrictRejectsInvalidBase(t *testing.T) {
	g := newTestGraph(t, 5, 100, 1)
	stats := &LoadStats{}
	err := BuildContig(g, []byte("ACGTN"), BuildOptions{Color: 0, Strict: true}, stats)
	if err == nil {
		t.Fatal("expected error for invalid base in strict mode")
	}
}

func TestCapacityExceeded(t *testing.T) {
	const capacity = 8
	g := newTestGraph(t, 5, capacity, 1)
	maxFill := int(float64(capacity) * DefaultLoadFactor)
	stats := &LoadStats{}
	// Build distinct 5-mers (no overlaps) up to maxFill; each must
	// succeed, and the next distinct insert must fail.
	codec := g.Table.Codec()
	inserted := 0
	for _, base := range []byte{kmer.A, kmer.C, kmer.G, kmer.T} {
		for _, base2 := range []byte{kmer.A, kmer.C, kmer.G, kmer.T} {
			if inserted >= maxFill+1 {
				break
			}
			seq := string([]byte{"ACGT"[base], "ACGT"[base2], 'A', 'A', 'A'})
			km, err := codec.Pack(seq)
			if err != nil {
				t.Fatal(err)
			}
			_, _, err = g.Table.FindOrInsert(km)
			if inserted < maxFill {
				if err != nil {
					t.Fatalf("insert %d: unexpected error: %v", inserted, err)
				}
			} else {
				if err == nil {
					t.Fatalf("insert %d: expected CapacityExceeded", inserted)
				}
			}
			inserted++
		}
	}
	_ = stats
}
