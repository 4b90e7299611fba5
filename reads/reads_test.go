package reads_test

import (
	"strings"
	"testing"

	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/kmer"
	"github.com/exascience/cortex/reads"
	"github.com/exascience/cortex/seqio"
)

func repeatSeq(unit string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(unit)
	}
	return b.String()
}

func buildGraph(t *testing.T, k int, seq string) *graph.Graph {
	t.Helper()
	codec, err := kmer.NewCodec(k)
	if err != nil {
		t.Fatal(err)
	}
	g := graph.New(codec, 4000, 1, graph.DefaultLoadFactor)
	stats := &graph.LoadStats{}
	if err := graph.BuildSequence(g, []byte(seq), graph.BuildOptions{Color: 0}, stats); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestTouchesGraphDetectsPresentKmer(t *testing.T) {
	const k = 21
	seq := repeatSeq("ACGT", 10)
	g := buildGraph(t, k, seq)

	present := seqio.Record{Name: "r1", Seq: []byte(seq[:30])}
	if !reads.TouchesGraph(g, present) {
		t.Error("expected a read drawn from the built sequence to touch the graph")
	}

	absent := seqio.Record{Name: "r2", Seq: []byte(repeatSeq("TTTT", 10))}
	if reads.TouchesGraph(g, absent) {
		t.Error("expected an unrelated read not to touch the graph")
	}
}

func TestFilterKeepsTouchingPairs(t *testing.T) {
	const k = 21
	seq := repeatSeq("ACGT", 10)
	g := buildGraph(t, k, seq)

	touching := seqio.Record{Name: "touching", Seq: []byte(seq[:30])}
	other := seqio.Record{Name: "touching-mate", Seq: []byte(repeatSeq("TTTT", 10))}
	neither1 := seqio.Record{Name: "neither1", Seq: []byte(repeatSeq("TTTT", 10))}
	neither2 := seqio.Record{Name: "neither2", Seq: []byte(repeatSeq("GGGG", 10))}

	pairs, err := reads.PairsPairedEnd(
		[]seqio.Record{touching, neither1},
		[]seqio.Record{other, neither2},
	)
	if err != nil {
		t.Fatal(err)
	}

	var out1, out2 strings.Builder
	w := reads.NewPairedEndWriter(&out1, &out2, false)
	stats, err := reads.Filter(g, pairs, w, reads.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Reads != 4 {
		t.Errorf("stats.Reads = %d, want 4", stats.Reads)
	}
	if stats.ReadsPrinted != 2 {
		t.Errorf("stats.ReadsPrinted = %d, want 2 (one kept pair)", stats.ReadsPrinted)
	}
	if !strings.Contains(out1.String(), ">touching\n") {
		t.Errorf("out1 = %q, want the touching pair's first mate", out1.String())
	}
	if !strings.Contains(out2.String(), ">touching-mate\n") {
		t.Errorf("out2 = %q, want the touching pair's second mate", out2.String())
	}
	if strings.Contains(out1.String(), "neither1") {
		t.Errorf("out1 = %q, should not contain the non-touching pair", out1.String())
	}
}

func TestFilterInvertKeepsNonTouchingPairs(t *testing.T) {
	const k = 21
	seq := repeatSeq("ACGT", 10)
	g := buildGraph(t, k, seq)

	touching := seqio.Record{Name: "touching", Seq: []byte(seq[:30])}
	neither := seqio.Record{Name: "neither", Seq: []byte(repeatSeq("TTTT", 10))}
	pairs := reads.PairsSingleEnd([]seqio.Record{touching, neither})

	var out strings.Builder
	w := reads.NewSingleEndWriter(&out, true)
	stats, err := reads.Filter(g, pairs, w, reads.Options{Invert: true})
	if err != nil {
		t.Fatal(err)
	}
	if stats.ReadsPrinted != 1 {
		t.Errorf("stats.ReadsPrinted = %d, want 1", stats.ReadsPrinted)
	}
	if !strings.Contains(out.String(), "@neither\n") {
		t.Errorf("out = %q, want the non-touching read under --invert", out.String())
	}
	if strings.Contains(out.String(), "@touching\n") {
		t.Errorf("out = %q, should not contain the touching read under --invert", out.String())
	}
}

func TestPairsPairedEndRejectsMismatchedLengths(t *testing.T) {
	_, err := reads.PairsPairedEnd(
		[]seqio.Record{{Name: "a"}},
		[]seqio.Record{{Name: "b"}, {Name: "c"}},
	)
	if err == nil {
		t.Fatal("expected an error for mismatched mate file lengths")
	}
}

func TestSplitInterleavedRejectsOddCount(t *testing.T) {
	_, err := reads.SplitInterleaved([]seqio.Record{{Name: "a"}, {Name: "b"}, {Name: "c"}})
	if err == nil {
		t.Fatal("expected an error for an odd number of interleaved records")
	}
}

func TestFormatFastqUsesPlaceholderQualityWhenMissing(t *testing.T) {
	const k = 21
	seq := repeatSeq("ACGT", 10)
	g := buildGraph(t, k, seq)

	rec := seqio.Record{Name: "r1", Seq: []byte(seq[:30])}
	pairs := reads.PairsSingleEnd([]seqio.Record{rec})

	var out strings.Builder
	w := reads.NewSingleEndWriter(&out, true)
	if _, err := reads.Filter(g, pairs, w, reads.Options{}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d FASTQ lines, want 4", len(lines))
	}
	if len(lines[3]) != len(rec.Seq) {
		t.Errorf("placeholder quality length = %d, want %d", len(lines[3]), len(rec.Seq))
	}
}
