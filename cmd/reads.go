package cmd

import (
	"compress/gzip"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/exascience/cortex/ctxio"
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
	"github.com/exascience/cortex/reads"
	"github.com/exascience/cortex/seqio"
)

// ReadsHelp is the help string for the reads command.
const ReadsHelp = "\nreads parameters:\n" +
	"cortex reads [options] <in.ctx> [in2.ctx ...]\n" +
	"[-f] output gzipped FASTA, [-q] output gzipped FASTQ (default)\n" +
	"[-v] print reads/read pairs with no kmer in the graph, instead\n" +
	"[--seq in:out] (repeatable) single-end: writes out.fq.gz/out.fa.gz\n" +
	"[--seq2 in1:in2:out] (repeatable) paired-end: writes out.1/out.2\n" +
	"[--seqi in:out] (repeatable) interleaved input, paired-end output\n" +
	"[--timed]\n"

// Reads implements the reads command (spec.md §4.9/§6, grounded on
// ctx_reads.c): a read is kept (or, with -v, dropped) according to
// whether any of its k-mer windows is present in the union of the
// supplied graphs, and kept pairs are written together.
func Reads() error {
	var (
		fasta, fastq, invert bool
		timed                bool
	)
	var seqSE, seqPE, seqI stringList

	fs := flag.NewFlagSet("reads", flag.ExitOnError)
	fs.BoolVar(&fasta, "f", false, "output gzipped FASTA")
	fs.BoolVar(&fastq, "q", false, "output gzipped FASTQ (default)")
	fs.BoolVar(&invert, "v", false, "print reads/read pairs with no kmer in the graph")
	fs.Var(&seqSE, "seq", "single-end in:out (repeatable)")
	fs.Var(&seqPE, "seq2", "paired-end in1:in2:out (repeatable)")
	fs.Var(&seqI, "seqi", "interleaved in:out (repeatable)")
	fs.BoolVar(&timed, "timed", false, "measure the runtime")
	fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		return internal.Errorf(internal.InvalidInput, "expected at least one input graph file")
	}
	if len(seqSE) == 0 && len(seqPE) == 0 && len(seqI) == 0 {
		return internal.Errorf(internal.InvalidInput, "at least one of --seq/--seq2/--seqi is required")
	}
	if fasta && fastq {
		return internal.Errorf(internal.InvalidInput, "-f and -q are mutually exclusive")
	}
	inputs := fs.Args()
	for _, in := range inputs {
		if !checkExist("", in) {
			return internal.Errorf(internal.InvalidInput, "input sanity check failed")
		}
	}

	graphs := make([]*graph.Graph, 0, len(inputs))
	for _, path := range inputs {
		hdr, err := ctxio.PeekHeader(path)
		if err != nil {
			return err
		}
		capacity, err := graphFileCapacity(path, hdr)
		if err != nil {
			return err
		}
		codec, err := kmer.NewCodec(int(hdr.K))
		if err != nil {
			return err
		}
		g := graph.New(codec, capacity, int(hdr.Colors), graph.DefaultLoadFactor)
		g.RunID = hdr.RunID
		f, err := os.Open(path)
		if err != nil {
			return internal.Wrap(internal.IoError, err)
		}
		_, err = ctxio.Read(f, g, ctxio.IdentityFilters(int(hdr.Colors)))
		f.Close()
		if err != nil {
			return err
		}
		graphs = append(graphs, g)
	}

	return timedRun(timed, "Filtering reads against "+strings.Join(inputs, ","), func() (err error) {
		var totalStats reads.Stats

		for _, spec := range seqSE {
			parts := strings.SplitN(spec, ":", 2)
			if len(parts) != 2 {
				return internal.Errorf(internal.InvalidInput, "malformed --seq %q, want in:out", spec)
			}
			stats, err := filterSingleEnd(graphs, parts[0], parts[1], fasta, invert)
			if err != nil {
				return err
			}
			totalStats.Reads += stats.Reads
			totalStats.ReadsPrinted += stats.ReadsPrinted
		}

		for _, spec := range seqPE {
			parts := strings.SplitN(spec, ":", 3)
			if len(parts) != 3 {
				return internal.Errorf(internal.InvalidInput, "malformed --seq2 %q, want in1:in2:out", spec)
			}
			stats, err := filterPairedEnd(graphs, parts[0], parts[1], parts[2], fasta, invert)
			if err != nil {
				return err
			}
			totalStats.Reads += stats.Reads
			totalStats.ReadsPrinted += stats.ReadsPrinted
		}

		for _, spec := range seqI {
			parts := strings.SplitN(spec, ":", 2)
			if len(parts) != 2 {
				return internal.Errorf(internal.InvalidInput, "malformed --seqi %q, want in:out", spec)
			}
			stats, err := filterInterleaved(graphs, parts[0], parts[1], fasta, invert)
			if err != nil {
				return err
			}
			totalStats.Reads += stats.Reads
			totalStats.ReadsPrinted += stats.ReadsPrinted
		}

		log.Printf("Total printed %d / %d.\n", totalStats.ReadsPrinted, totalStats.Reads)
		return nil
	})
}

// runFilter classifies every pair against the union of graphs (kept
// iff any graph's TouchesGraph matches, per `in.ctx [in2.ctx ...]`'s
// own "one or more graphs" usage) and writes the kept ones to w, in
// input order. With exactly one graph this is the same decision
// reads.Filter's own pipeline would make; it's reimplemented directly
// here (skipping the pipeline) so the multi-graph union never needs a
// throwaway merged *graph.Graph just to satisfy Filter's signature.
func runFilter(graphs []*graph.Graph, pairs []reads.Pair, w *reads.Writer, invert bool) (reads.Stats, error) {
	var stats reads.Stats
	for _, p := range pairs {
		n := int64(1)
		if p.R2 != nil {
			n = 2
		}
		stats.Reads += n

		touches := false
		for _, g := range graphs {
			if reads.TouchesGraph(g, *p.R1) || (p.R2 != nil && reads.TouchesGraph(g, *p.R2)) {
				touches = true
				break
			}
		}
		if touches == invert {
			continue
		}
		if err := w.Write(p); err != nil {
			return stats, err
		}
		stats.ReadsPrinted += n
	}
	return stats, nil
}

func outSuffix(fasta bool) string {
	if fasta {
		return ".fa.gz"
	}
	return ".fq.gz"
}

func gzCreate(path string) (*os.File, *gzip.Writer, error) {
	f, err := checkCreateOpen(path)
	if err != nil {
		return nil, nil, err
	}
	return f, gzip.NewWriter(f), nil
}

func checkCreateOpen(path string) (*os.File, error) {
	if !checkCreate("", path) {
		return nil, internal.Errorf(internal.InvalidInput, "cannot create %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, internal.Wrap(internal.IoError, err)
	}
	return f, nil
}

func filterSingleEnd(graphs []*graph.Graph, in, outBase string, fasta, invert bool) (reads.Stats, error) {
	records, err := seqio.DecodeFile(in)
	if err != nil {
		return reads.Stats{}, err
	}
	pairs := reads.PairsSingleEnd(records)

	f, gz, err := gzCreate(outBase + outSuffix(fasta))
	if err != nil {
		return reads.Stats{}, err
	}
	defer f.Close()
	defer gz.Close()

	w := reads.NewSingleEndWriter(gz, !fasta)
	stats, err := runFilter(graphs, pairs, w, invert)
	if err != nil {
		return reads.Stats{}, err
	}
	return stats, gz.Flush()
}

func filterPairedEnd(graphs []*graph.Graph, in1, in2, outBase string, fasta, invert bool) (reads.Stats, error) {
	r1, err := seqio.DecodeFile(in1)
	if err != nil {
		return reads.Stats{}, err
	}
	r2, err := seqio.DecodeFile(in2)
	if err != nil {
		return reads.Stats{}, err
	}
	pairs, err := reads.PairsPairedEnd(r1, r2)
	if err != nil {
		return reads.Stats{}, err
	}

	suffix := outSuffix(fasta)
	f1, gz1, err := gzCreate(outBase + ".1" + suffix)
	if err != nil {
		return reads.Stats{}, err
	}
	defer f1.Close()
	defer gz1.Close()
	f2, gz2, err := gzCreate(outBase + ".2" + suffix)
	if err != nil {
		return reads.Stats{}, err
	}
	defer f2.Close()
	defer gz2.Close()

	w := reads.NewPairedEndWriter(gz1, gz2, !fasta)
	stats, err := runFilter(graphs, pairs, w, invert)
	if err != nil {
		return reads.Stats{}, err
	}
	if err := gz1.Flush(); err != nil {
		return reads.Stats{}, err
	}
	return stats, gz2.Flush()
}

func filterInterleaved(graphs []*graph.Graph, in, outBase string, fasta, invert bool) (reads.Stats, error) {
	records, err := seqio.DecodeFile(in)
	if err != nil {
		return reads.Stats{}, err
	}
	pairs, err := reads.SplitInterleaved(records)
	if err != nil {
		return reads.Stats{}, err
	}

	suffix := outSuffix(fasta)
	f1, gz1, err := gzCreate(outBase + ".1" + suffix)
	if err != nil {
		return reads.Stats{}, err
	}
	defer f1.Close()
	defer gz1.Close()
	f2, gz2, err := gzCreate(outBase + ".2" + suffix)
	if err != nil {
		return reads.Stats{}, err
	}
	defer f2.Close()
	defer gz2.Close()

	w := reads.NewPairedEndWriter(gz1, gz2, !fasta)
	stats, err := runFilter(graphs, pairs, w, invert)
	if err != nil {
		return reads.Stats{}, err
	}
	if err := gz1.Flush(); err != nil {
		return reads.Stats{}, err
	}
	return stats, gz2.Flush()
}
