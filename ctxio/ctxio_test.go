package ctxio_test

import (
	"bytes"
	"testing"

	"github.com/exascience/cortex/ctxio"
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/kmer"
)

func buildTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	codec, err := kmer.NewCodec(5)
	if err != nil {
		t.Fatal(err)
	}
	g := graph.New(codec, 64, 1, graph.DefaultLoadFactor)
	stats := &graph.LoadStats{}
	if err := graph.BuildSequence(g, []byte("ACGTACGTACGT"), graph.BuildOptions{Color: 0}, stats); err != nil {
		t.Fatal(err)
	}
	g.Colors[0] = graph.ColorInfo{SampleName: "sample0", ErrorRate: 0.01}
	return g
}

func TestRoundTrip(t *testing.T) {
	g := buildTestGraph(t)

	var buf bytes.Buffer
	if err := ctxio.Write(&buf, g, 100, 12); err != nil {
		t.Fatalf("Write: %v", err)
	}

	codec, _ := kmer.NewCodec(5)
	loaded := graph.New(codec, 64, 1, graph.DefaultLoadFactor)
	hdr, err := ctxio.Read(bytes.NewReader(buf.Bytes()), loaded, ctxio.IdentityFilters(1))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if hdr.K != 5 || hdr.Colors != 1 {
		t.Errorf("header = %+v, want k=5 colors=1", hdr)
	}
	if hdr.ColorInfo[0].SampleName != "sample0" {
		t.Errorf("sample name = %q, want sample0", hdr.ColorInfo[0].SampleName)
	}

	if loaded.Table.Len() != g.Table.Len() {
		t.Fatalf("loaded %d nodes, want %d", loaded.Table.Len(), g.Table.Len())
	}
	g.Table.Each(func(h graph.Handle) {
		km := g.Table.KeyAt(h)
		lh := loaded.Table.Find(km)
		if lh == graph.NotFound {
			t.Fatalf("kmer %v missing after round trip", km)
		}
		if loaded.Nodes.Coverage(lh, 0) != g.Nodes.Coverage(h, 0) {
			t.Errorf("coverage mismatch for %v: got %d want %d", km, loaded.Nodes.Coverage(lh, 0), g.Nodes.Coverage(h, 0))
		}
		if loaded.Nodes.Edges(lh, 0) != g.Nodes.Edges(h, 0) {
			t.Errorf("edges mismatch for %v: got %08b want %08b", km, loaded.Nodes.Edges(lh, 0), g.Nodes.Edges(h, 0))
		}
	})

	var buf2 bytes.Buffer
	if err := ctxio.Write(&buf2, loaded, 100, 12); err != nil {
		t.Fatalf("second Write: %v", err)
	}
	// Bodies may differ in record order (bucket order depends on hash
	// placement, which can differ between the two tables), but the
	// byte lengths and headers must agree exactly.
	if buf.Len() != buf2.Len() {
		t.Errorf("round-tripped file length = %d, want %d", buf2.Len(), buf.Len())
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	codec, _ := kmer.NewCodec(5)
	g := graph.New(codec, 16, 1, graph.DefaultLoadFactor)
	if _, err := ctxio.Read(bytes.NewReader([]byte("NOTCTX and some junk after it")), g, nil); err == nil {
		t.Fatal("expected an error for a non-.ctx stream")
	}
}

func TestLoadFilterMergesTwoFileColors(t *testing.T) {
	codec, _ := kmer.NewCodec(5)
	src := graph.New(codec, 64, 2, graph.DefaultLoadFactor)
	stats := &graph.LoadStats{}
	if err := graph.BuildSequence(src, []byte("ACGTACGTACGT"), graph.BuildOptions{Color: 0}, stats); err != nil {
		t.Fatal(err)
	}
	if err := graph.BuildSequence(src, []byte("ACGTACGTACGT"), graph.BuildOptions{Color: 1}, stats); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := ctxio.Write(&buf, src, 0, 0); err != nil {
		t.Fatal(err)
	}

	dst := graph.New(codec, 64, 1, graph.DefaultLoadFactor)
	filters := []ctxio.LoadFilter{
		{SourceColor: 0, TargetColor: 0, EmptyColours: true},
		{SourceColor: 1, TargetColor: 0, EmptyColours: false},
	}
	if _, err := ctxio.Read(bytes.NewReader(buf.Bytes()), dst, filters); err != nil {
		t.Fatal(err)
	}

	src.Table.Each(func(h graph.Handle) {
		km := src.Table.KeyAt(h)
		dh := dst.Table.Find(km)
		if dh == graph.NotFound {
			t.Fatalf("kmer %v missing from merged graph", km)
		}
		wantCov := src.Nodes.Coverage(h, 0) + src.Nodes.Coverage(h, 1)
		if dst.Nodes.Coverage(dh, 0) != wantCov {
			t.Errorf("merged coverage = %d, want %d", dst.Nodes.Coverage(dh, 0), wantCov)
		}
		wantEdges := src.Nodes.Edges(h, 0) | src.Nodes.Edges(h, 1)
		if dst.Nodes.Edges(dh, 0) != wantEdges {
			t.Errorf("merged edges = %08b, want %08b", dst.Nodes.Edges(dh, 0), wantEdges)
		}
	})
}
