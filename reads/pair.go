// Package reads is the read filter front-end named in spec.md §1/§8:
// given one or more colored graphs already loaded into memory, it
// classifies FASTA/FASTQ reads by whether they touch the graph and
// writes the kept ones back out, compressed. It reproduces
// `original_source/src/commands/ctx_reads.c`'s touches/invert pairing
// semantics (a pair is kept as a unit, not mate-by-mate) rather than
// spec.md's bare single-read description, per SPEC_FULL.md §4.
package reads

import (
	"fmt"

	"github.com/exascience/cortex/seqio"
)

// Pair is one single-end read (R2 nil) or one read pair (R1, R2 both
// set). ctx_reads.c keeps a pair together: it is printed, or not, as
// a unit.
type Pair struct {
	R1, R2 *seqio.Record
}

// PairsSingleEnd wraps each record of a single-end file as its own Pair.
func PairsSingleEnd(records []seqio.Record) []Pair {
	pairs := make([]Pair, len(records))
	for i := range records {
		pairs[i] = Pair{R1: &records[i]}
	}
	return pairs
}

// PairsPairedEnd zips two equal-length mate files into Pairs, the
// shape `--seq2 <in1>:<in2>:<O>` and the de-interleaved half of
// `--seqi <in>:<O>` both need.
func PairsPairedEnd(r1, r2 []seqio.Record) ([]Pair, error) {
	if len(r1) != len(r2) {
		return nil, fmt.Errorf("reads: mate files have %d and %d reads, want equal counts", len(r1), len(r2))
	}
	pairs := make([]Pair, len(r1))
	for i := range r1 {
		pairs[i] = Pair{R1: &r1[i], R2: &r2[i]}
	}
	return pairs, nil
}

// SplitInterleaved splits one interleaved FASTA/FASTQ file (the
// `--seqi` form: mate 1, mate 2, mate 1, mate 2, ...) into its two
// mate streams.
func SplitInterleaved(records []seqio.Record) ([]Pair, error) {
	if len(records)%2 != 0 {
		return nil, fmt.Errorf("reads: interleaved file has an odd number of records (%d)", len(records))
	}
	pairs := make([]Pair, len(records)/2)
	for i := range pairs {
		pairs[i] = Pair{R1: &records[2*i], R2: &records[2*i+1]}
	}
	return pairs, nil
}
