package seqio_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/exascience/cortex/seqio"
)

func TestReadFastaMultiRecord(t *testing.T) {
	data := ">chr1 description\nACGT\nACGT\n>chr2\nNNNNACGT\n"
	records, err := seqio.ReadFasta(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Name != "chr1" {
		t.Errorf("records[0].Name = %q, want chr1", records[0].Name)
	}
	if string(records[0].Seq) != "ACGTACGT" {
		t.Errorf("records[0].Seq = %q, want ACGTACGT", records[0].Seq)
	}
	if records[1].Name != "chr2" {
		t.Errorf("records[1].Name = %q, want chr2", records[1].Name)
	}
	if string(records[1].Seq) != "NNNNACGT" {
		t.Errorf("records[1].Seq = %q, want NNNNACGT", records[1].Seq)
	}
}

func TestReadFastaRejectsDataBeforeHeader(t *testing.T) {
	if _, err := seqio.ReadFasta(strings.NewReader("ACGT\n>chr1\nACGT\n")); err == nil {
		t.Fatal("expected an error for fasta data preceding the first header")
	}
}

func TestReadFastqDecodesSequenceLines(t *testing.T) {
	data := "@read1\nACGTACGT\n+\nIIIIIIII\n@read2 extra\nTTTT\n+read2 extra\nIIII\n"
	records, err := seqio.ReadFastq(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Name != "read1" || string(records[0].Seq) != "ACGTACGT" {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[1].Name != "read2" || string(records[1].Seq) != "TTTT" {
		t.Errorf("records[1] = %+v", records[1])
	}
}

func TestReadFastqRejectsMissingSeparator(t *testing.T) {
	data := "@read1\nACGT\nACGT\nIIII\n"
	if _, err := seqio.ReadFastq(strings.NewReader(data)); err == nil {
		t.Fatal("expected an error for a fastq record missing its '+' separator")
	}
}

func TestDecodeFileGuessesFormatFromExtension(t *testing.T) {
	dir := t.TempDir()

	fastaPath := filepath.Join(dir, "contigs.fasta")
	if err := os.WriteFile(fastaPath, []byte(">c1\nACGT\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	records, err := seqio.DecodeFile(fastaPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || string(records[0].Seq) != "ACGT" {
		t.Errorf("fasta decode got %+v", records)
	}

	fastqPath := filepath.Join(dir, "reads.fastq")
	if err := os.WriteFile(fastqPath, []byte("@r1\nTTTT\n+\nIIII\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	records, err = seqio.DecodeFile(fastqPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || string(records[0].Seq) != "TTTT" {
		t.Errorf("fastq decode got %+v", records)
	}
}

func TestSequencesExtractsSeqField(t *testing.T) {
	records := []seqio.Record{{Name: "a", Seq: []byte("ACGT")}, {Name: "b", Seq: []byte("TTTT")}}
	seqs := seqio.Sequences(records)
	if len(seqs) != 2 || string(seqs[0]) != "ACGT" || string(seqs[1]) != "TTTT" {
		t.Errorf("Sequences(%+v) = %v", records, seqs)
	}
}
