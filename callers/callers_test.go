package callers_test

import (
	"strings"
	"testing"

	"github.com/exascience/cortex/callers"
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/kmer"
)

func repeatSeq(unit string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(unit)
	}
	return b.String()
}

func buildGraph(t *testing.T, k, numColors int, seqs ...struct {
	seq   string
	color int
}) *graph.Graph {
	t.Helper()
	codec, err := kmer.NewCodec(k)
	if err != nil {
		t.Fatal(err)
	}
	g := graph.New(codec, 4000, numColors, graph.DefaultLoadFactor)
	stats := &graph.LoadStats{}
	for _, s := range seqs {
		if err := graph.BuildSequence(g, []byte(s.seq), graph.BuildOptions{Color: s.color}, stats); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestFindBubblesDetectsSingleBaseSubstitution(t *testing.T) {
	const k = 21
	prefix := repeatSeq("ACGT", 6)
	suffix := repeatSeq("TGCA", 6)
	seqA := prefix + "G" + suffix
	seqB := prefix + "T" + suffix

	g := buildGraph(t, k, 1,
		struct {
			seq   string
			color int
		}{seqA, 0},
		struct {
			seq   string
			color int
		}{seqB, 0},
	)
	mask := graph.ColorMaskOf(0)

	bubbles := callers.FindBubbles(g, mask, callers.BubbleOptions{MaxLen: 2 * k})
	if len(bubbles) == 0 {
		t.Fatal("expected at least one bubble for the substituted base")
	}

	found := false
	for _, b := range bubbles {
		if len(b.Allele[0]) != len(b.Allele[1]) {
			continue
		}
		if b.Allele[0] == b.Allele[1] {
			t.Errorf("bubble %+v has identical alleles", b)
			continue
		}
		if len(b.Anchor) != k || len(b.Flank) != k {
			t.Errorf("bubble %+v anchor/flank not length k", b)
		}
		found = true
	}
	if !found {
		t.Error("no bubble had two distinct equal-length alleles")
	}
}

func TestFindBreakpointsDetectsNovelInsertion(t *testing.T) {
	const k = 21
	ref := repeatSeq("ACGTT", 12)
	insert := repeatSeq("GGGGG", 4)
	sample := ref[:30] + insert + ref[30:]

	g := buildGraph(t, k, 2,
		struct {
			seq   string
			color int
		}{ref, 0},
		struct {
			seq   string
			color int
		}{sample, 1},
	)

	opts := callers.BreakpointOptions{
		RefColor:   0,
		SampleMask: graph.ColorMaskOf(1),
		MaxLen:     200,
	}
	breakpoints := callers.FindBreakpoints(g, opts)
	if len(breakpoints) == 0 {
		t.Fatal("expected at least one breakpoint around the novel insertion")
	}

	found := false
	for _, bp := range breakpoints {
		if strings.Contains(bp.Novel, "GGGGG") {
			found = true
		}
		if len(bp.Anchor5) != k || len(bp.Anchor3) != k {
			t.Errorf("breakpoint %+v anchors not length k", bp)
		}
	}
	if !found {
		t.Error("no breakpoint's novel interval contained the inserted sequence")
	}
}

func TestSortBubblesIsDeterministic(t *testing.T) {
	bubbles := []callers.Bubble{
		{Anchor: "TTTT", Flank: "AAAA", Allele: [2]string{"G", "C"}},
		{Anchor: "AAAA", Flank: "TTTT", Allele: [2]string{"T", "A"}},
		{Anchor: "AAAA", Flank: "TTTT", Allele: [2]string{"A", "T"}},
	}
	callers.SortBubbles(bubbles)
	for i := 1; i < len(bubbles); i++ {
		if bubbles[i-1].Anchor > bubbles[i].Anchor {
			t.Fatalf("bubbles not sorted by anchor: %+v before %+v", bubbles[i-1], bubbles[i])
		}
	}
	if bubbles[0].Anchor != "AAAA" {
		t.Errorf("first bubble anchor = %q, want AAAA", bubbles[0].Anchor)
	}
}
