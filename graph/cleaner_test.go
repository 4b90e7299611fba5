package graph

import "testing"

// TestRemoveTipsDropsShortDeadEnd is the tip-removal scenario from
// spec.md §8: a 100-base contig with no repeated 5-mer has a short
// "TTTT" tail spliced onto its first 20 bases, forking off a
// four-node dead-end branch. With k=5, that branch is well under the
// default tip_len_threshold (2*k=10) and should be removed entirely,
// leaving only the nodes of the long run.
func TestRemoveTipsDropsShortDeadEnd(t *testing.T) {
	const k = 5
	g := newTestGraph(t, k, 2000, 1)
	stats := &LoadStats{}

	main := "GACACTCGCTATGAATCTCTGATTGACCCACTTCTGCCAAACTCAACCGCGCTGCATGGTCTCGTATCAAAATAAGTAACCCCATCACTGCTTTCGCCCT"
	if err := BuildSequence(g, []byte(main), BuildOptions{Color: 0}, stats); err != nil {
		t.Fatalf("BuildSequence(main): %v", err)
	}
	beforeTips := g.Table.Len()

	// Splice a short branch off the main path: take a prefix of main
	// long enough to seed a few shared k-mers, then diverge with bases
	// that do not occur elsewhere in main, so the divergent tail is a
	// genuine dead end below the tip threshold.
	branch := main[:20] + "TTTT"
	if err := BuildSequence(g, []byte(branch), BuildOptions{Color: 0}, stats); err != nil {
		t.Fatalf("BuildSequence(branch): %v", err)
	}
	afterBranch := g.Table.Len()
	if afterBranch <= beforeTips {
		t.Fatalf("expected the spliced branch to add novel nodes, got %d -> %d", beforeTips, afterBranch)
	}

	mask := AllColors(g.NumColors())
	removed := RemoveTips(g, mask, DefaultTipLenThreshold(k))
	if removed == 0 {
		t.Fatal("expected RemoveTips to remove the spliced dead-end branch")
	}

	var liveNodes int
	g.Table.Each(func(h Handle) {
		if !g.Nodes.IsDeleted(h) {
			liveNodes++
		}
	})
	if liveNodes != beforeTips {
		t.Errorf("live node count after tip removal = %d, want %d (the original main-path count)", liveNodes, beforeTips)
	}
}

func TestDeriveCutoffDefaultsToOneWithoutDiscerniblePeak(t *testing.T) {
	hist := []int{0, 5}
	if got := DeriveCutoff(hist); got != 1 {
		t.Errorf("DeriveCutoff(%v) = %d, want 1", hist, got)
	}
}

func TestDeriveCutoffFindsValleyBetweenErrorAndTruePeaks(t *testing.T) {
	// Error tail around coverage 1, true peak around coverage 10, with
	// a valley at coverage 3.
	hist := []int{0, 40, 10, 2, 5, 15, 30, 45, 50, 40, 20, 5}
	cutoff := DeriveCutoff(hist)
	if cutoff < 2 || cutoff > 4 {
		t.Errorf("DeriveCutoff(%v) = %d, want a cutoff in the valley around 3", hist, cutoff)
	}
}

// buildMonotonicityGraph returns a fresh graph with a well-covered
// unitig and three progressively less-covered ones, giving
// PruneLowCoverageUnitigs distinct cutoffs to separate.
func buildMonotonicityGraph(t *testing.T, k int) *Graph {
	t.Helper()
	g := newTestGraph(t, k, 2000, 1)
	stats := &LoadStats{}

	// A slice, not a map, so repeated calls build in the same order and
	// two independently built graphs end up with identical hash-table
	// layouts -- graphsEqual below relies on that to compare by handle.
	seqs := []struct {
		seq string
		n   int
	}{
		{"ATTGACTACGACGCGATCTATTCCCTTGTCGCAGAGTTAT", 5}, // coverage 5, 40 bases
		{"GGAAAAAGGACGAGGTCTGA", 3},                     // shares no 5-mer with the others, coverage 3
		{"GACTCCAAGACAGATAGTGG", 2},                     // shares no 5-mer with the others, coverage 2
		{"CACACGAACGGCGTTTCGCC", 1},                     // shares no 5-mer with the others, coverage 1
	}
	for _, s := range seqs {
		for i := 0; i < s.n; i++ {
			if err := BuildSequence(g, []byte(s.seq), BuildOptions{Color: 0}, stats); err != nil {
				t.Fatalf("BuildSequence(%q): %v", s.seq, err)
			}
		}
	}
	return g
}

// graphsEqual reports whether a and b (built from identical input, so
// their handles line up 1:1) agree on every handle's deleted state,
// edge bytes and coverage across every color.
func graphsEqual(t *testing.T, a, b *Graph) bool {
	t.Helper()
	if a.Table.Capacity() != b.Table.Capacity() {
		t.Fatalf("graphsEqual: capacities differ (%d vs %d), not comparable", a.Table.Capacity(), b.Table.Capacity())
	}
	equal := true
	a.Table.Each(func(h Handle) {
		if a.Nodes.IsDeleted(h) != b.Nodes.IsDeleted(h) {
			equal = false
			return
		}
		if a.Nodes.IsDeleted(h) {
			return
		}
		for c := 0; c < a.NumColors(); c++ {
			if a.Nodes.Edges(h, c) != b.Nodes.Edges(h, c) {
				equal = false
			}
			if a.Nodes.Coverage(h, c) != b.Nodes.Coverage(h, c) {
				equal = false
			}
		}
	})
	return equal
}

// TestPruneLowCoverageUnitigsIsMonotonic is spec.md §8's "Cleaner
// monotonicity" testable property: cleaning at cutoff c, then again
// at c' > c, must land on the same graph as cleaning once at c'
// directly, since PruneLowCoverageUnitigs always recomputes unitig
// coverage from the live graph rather than a pre-pruning snapshot.
func TestPruneLowCoverageUnitigsIsMonotonic(t *testing.T) {
	const k = 5
	mask := AllColors(1)

	twoStep := buildMonotonicityGraph(t, k)
	if _, removed := PruneLowCoverageUnitigs(twoStep, mask, 2); removed == 0 {
		t.Fatal("expected cutoff 2 to remove at least one unitig")
	}
	if _, removed := PruneLowCoverageUnitigs(twoStep, mask, 4); removed == 0 {
		t.Fatal("expected the second pass at cutoff 4 to remove at least one more unitig")
	}

	direct := buildMonotonicityGraph(t, k)
	if _, removed := PruneLowCoverageUnitigs(direct, mask, 4); removed == 0 {
		t.Fatal("expected a direct prune at cutoff 4 to remove at least one unitig")
	}

	if !graphsEqual(t, twoStep, direct) {
		t.Error("pruning at 2 then 4 does not match pruning once at 4 directly")
	}
}

func TestPruneLowCoverageUnitigsDropsBelowCutoff(t *testing.T) {
	const k = 5
	g := newTestGraph(t, k, 2000, 1)
	stats := &LoadStats{}

	highCov := "ATTGACTACGACGCGATCTATTCCCTTGTCGCAGAGTTAT" // 40 bases, well-covered below
	for i := 0; i < 5; i++ {
		if err := BuildSequence(g, []byte(highCov), BuildOptions{Color: 0}, stats); err != nil {
			t.Fatalf("BuildSequence(highCov): %v", err)
		}
	}
	lowCov := "GGAAAAAGGACGAGGTCTGA" // shares no 5-mer with highCov, coverage 1
	if err := BuildSequence(g, []byte(lowCov), BuildOptions{Color: 0}, stats); err != nil {
		t.Fatalf("BuildSequence(lowCov): %v", err)
	}

	mask := AllColors(g.NumColors())
	_, removed := PruneLowCoverageUnitigs(g, mask, 2)
	if removed == 0 {
		t.Fatal("expected the coverage-1 unitig to be pruned at cutoff 2")
	}

	g.Table.Each(func(h Handle) {
		if g.Nodes.IsDeleted(h) {
			return
		}
		if g.Nodes.Coverage(h, 0) < 2 {
			t.Errorf("handle %d survived pruning with coverage %d < cutoff 2", h, g.Nodes.Coverage(h, 0))
		}
	})
}
