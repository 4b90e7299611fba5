package vcfio_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/kmer"
	"github.com/exascience/cortex/vcfio"
)

func TestReaderWriterRoundTrip(t *testing.T) {
	data := "##fileformat=VCFv4.3\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"chr1\t100\t.\tA\tG\t.\tPASS\t.\n" +
		"chr1\t200\trs1\tAC\tA,ATT\t30\tPASS\tDP=10\n"

	r, err := vcfio.NewReader(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Header()) != 2 {
		t.Fatalf("got %d header lines, want 2", len(r.Header()))
	}

	var records []vcfio.Record
	for {
		rec, ok, err := r.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		records = append(records, rec)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Pos != 100 || records[0].Ref != "A" || len(records[0].Alt) != 1 || records[0].Alt[0] != "G" {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[1].Pos != 200 || len(records[1].Alt) != 2 || records[1].Alt[1] != "ATT" {
		t.Errorf("records[1] = %+v", records[1])
	}

	var out strings.Builder
	w := vcfio.NewWriter(&out)
	if err := w.WriteHeader(r.Header()); err != nil {
		t.Fatal(err)
	}
	for _, rec := range records {
		if err := w.WriteRecord(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if out.String() != data {
		t.Errorf("round trip:\ngot  %q\nwant %q", out.String(), data)
	}
}

func TestAnnotateAddsMissingGroupForShortAlleles(t *testing.T) {
	codec, err := kmer.NewCodec(21)
	if err != nil {
		t.Fatal(err)
	}
	g := graph.New(codec, 100, 1, graph.DefaultLoadFactor)

	data := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"chr1\t1\t.\tA\tG\t.\tPASS\t.\n"
	r, err := vcfio.NewReader(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	w := vcfio.NewWriter(&out)
	opts := vcfio.AnnotateOptions{MaxNVars: 1, Colors: []int{0}}
	if err := vcfio.Annotate(g, r, w, opts); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out.String(), "KCOV=.,.") {
		t.Errorf("expected missing-value KCOV annotation for single-base alleles, got %q", out.String())
	}
}

func TestAnnotatePreservesRecordOrderAcrossBufferEviction(t *testing.T) {
	codec, err := kmer.NewCodec(21)
	if err != nil {
		t.Fatal(err)
	}
	g := graph.New(codec, 100, 1, graph.DefaultLoadFactor)

	var lines []string
	lines = append(lines, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO")
	for i := 1; i <= 5; i++ {
		lines = append(lines, strings.Join([]string{"chr1", strconv.Itoa(i), ".", "A", "G", ".", "PASS", "."}, "\t"))
	}
	data := strings.Join(lines, "\n") + "\n"

	r, err := vcfio.NewReader(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	var out strings.Builder
	w := vcfio.NewWriter(&out)
	if err := vcfio.Annotate(g, r, w, vcfio.AnnotateOptions{MaxNVars: 1, Colors: []int{0}}); err != nil {
		t.Fatal(err)
	}

	outLines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(outLines) != 6 {
		t.Fatalf("got %d output lines, want 6 (1 header + 5 records)", len(outLines))
	}
	for i := 1; i <= 5; i++ {
		if !strings.HasPrefix(outLines[i], "chr1\t"+strconv.Itoa(i)+"\t") {
			t.Errorf("output line %d = %q, want position %d first", i, outLines[i], i)
		}
	}
}
