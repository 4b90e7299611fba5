package traversal_test

import (
	"strings"
	"testing"

	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
	"github.com/exascience/cortex/links"
	"github.com/exascience/cortex/traversal"
)

func repeatSeq(unit string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(unit)
	}
	return b.String()
}

func buildGraph(t *testing.T, k int, seqs ...string) *graph.Graph {
	t.Helper()
	codec, err := kmer.NewCodec(k)
	if err != nil {
		t.Fatal(err)
	}
	g := graph.New(codec, 1000, 1, graph.DefaultLoadFactor)
	stats := &graph.LoadStats{}
	for _, seq := range seqs {
		if err := graph.BuildSequence(g, []byte(seq), graph.BuildOptions{Color: 0}, stats); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestWalkDeadEndsAtSequenceTip(t *testing.T) {
	const k = 21
	seq := "CTGTGTCCACCCCATCGGACTGGCATTTTTATTACACTCAGAAACAGAACTCGGGTAATTTTGACAGGTCACGCAGAGGCGCGCCCTCCTGAAGTGCGTG"
	g := buildGraph(t, k, seq)
	mask := graph.ColorMaskOf(0)

	codec := g.Table.Codec()
	first, err := codec.Pack(seq[:k])
	if err != nil {
		t.Fatal(err)
	}
	h := g.Table.Find(first)
	if h == graph.NotFound {
		t.Fatal("leading kmer not found")
	}
	dir := graph.OrientedDir(first, g.Table.KeyAt(h))

	w := traversal.Walk(g, h, dir, mask, links.NewStore(1))
	steps := 0
	for w.Next() {
		steps++
		if steps > len(seq) {
			t.Fatal("walk did not terminate within the sequence length")
		}
	}
	if w.Reason() != internal.DeadEnd {
		t.Errorf("walk terminated with reason %v, want DeadEnd", w.Reason())
	}
	if steps != len(seq)-k {
		t.Errorf("walked %d steps, want %d", steps, len(seq)-k)
	}
}

func TestWalkAmbiguousAtUnlinkedBranch(t *testing.T) {
	const k = 21
	stem := "TTTCCTCATGCAATTCAAAACCAT"
	left := stem + "GGTCCGTAATGTAGGCGAAATA"
	right := stem + "TGTAAACCATTTTACGGAGGAT"
	g := buildGraph(t, k, left, right)
	mask := graph.ColorMaskOf(0)

	codec := g.Table.Codec()
	first, err := codec.Pack(stem[:k])
	if err != nil {
		t.Fatal(err)
	}
	h := g.Table.Find(first)
	if h == graph.NotFound {
		t.Fatal("leading kmer of stem not found")
	}
	dir := graph.OrientedDir(first, g.Table.KeyAt(h))

	// With no link information at all, the walk has nothing to
	// disambiguate the branch with once it reaches it; it must not
	// silently pick a side.
	w := traversal.Walk(g, h, dir, mask, links.NewStore(1))
	for w.Next() {
	}
	if w.Reason() != internal.LinkExhausted && w.Reason() != internal.DeadEnd {
		t.Errorf("walk terminated with reason %v, want LinkExhausted or DeadEnd", w.Reason())
	}
}

func TestWalkFollowsLinkThroughBranch(t *testing.T) {
	const k = 21
	stem := "TTTCCTCATGCAATTCAAAACCAT"
	left := stem + "GGTCCGTAATGTAGGCGAAATA"
	right := stem + "TGTAAACCATTTTACGGAGGAT"
	g := buildGraph(t, k, left, right)
	mask := graph.ColorMaskOf(0)

	store := links.NewStore(1)
	// Thread the left branch many times so its junction choice is well
	// established, giving the walker a cursor that endorses "G" at the
	// branch point.
	for i := 0; i < 5; i++ {
		if err := links.ThreadRead(store, g, mask, 0, []byte(left)); err != nil {
			t.Fatal(err)
		}
	}

	codec := g.Table.Codec()
	first, err := codec.Pack(stem[:k])
	if err != nil {
		t.Fatal(err)
	}
	h := g.Table.Find(first)
	if h == graph.NotFound {
		t.Fatal("leading kmer of stem not found")
	}
	dir := graph.OrientedDir(first, g.Table.KeyAt(h))

	w := traversal.Walk(g, h, dir, mask, store)
	steps := 0
	for w.Next() {
		steps++
		if steps > len(left) {
			t.Fatal("walk did not terminate within the left sequence's length")
		}
	}
	if w.Reason() != internal.DeadEnd {
		t.Errorf("walk terminated with reason %v, want DeadEnd at the end of the followed branch", w.Reason())
	}
}
