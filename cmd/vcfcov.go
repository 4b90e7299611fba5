package cmd

import (
	"flag"
	"log"
	"os"

	"github.com/exascience/cortex/ctxio"
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
	"github.com/exascience/cortex/vcfio"
)

// VCFCovHelp is the help string for the vcfcov command.
const VCFCovHelp = "\nvcfcov parameters:\n" +
	"cortex vcfcov -o out.vcf -g graph.ctx in.vcf\n" +
	"[-c color] (repeatable, default: all colors)\n" +
	"[-m n] (max in-flight records, default: 1000)\n" +
	"[--timed]\n"

// VCFCov implements the vcfcov command (spec.md §4.10, §6): annotate
// every record of a sorted input VCF with per-color median k-mer
// coverage, streaming through at most -m records at once.
func VCFCov() error {
	var (
		output, graphPath string
		maxNVars          int
		timed             bool
	)
	var colors intList

	fs := flag.NewFlagSet("vcfcov", flag.ExitOnError)
	fs.StringVar(&output, "o", "", "output VCF file")
	fs.StringVar(&graphPath, "g", "", "graph file (.ctx) to annotate coverage from")
	fs.IntVar(&maxNVars, "m", 1000, "maximum in-flight VCF records")
	fs.BoolVar(&timed, "timed", false, "measure the runtime")
	fs.Var(&colors, "c", "color to report coverage for (repeatable, default: all colors)")
	fs.Parse(os.Args[2:])

	if output == "" {
		return internal.Errorf(internal.InvalidInput, "-o is required")
	}
	if graphPath == "" {
		return internal.Errorf(internal.InvalidInput, "-g is required")
	}
	if fs.NArg() != 1 {
		return internal.Errorf(internal.InvalidInput, "expected exactly one input VCF file, got %d", fs.NArg())
	}
	input := fs.Arg(0)
	if !checkExist("", input) || !checkExist("-g", graphPath) || !checkCreate("-o", output) {
		return internal.Errorf(internal.InvalidInput, "input/output sanity check failed")
	}

	logFile, err := setLogOutput(output)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	hdr, err := ctxio.PeekHeader(graphPath)
	if err != nil {
		return err
	}
	capacity, err := graphFileCapacity(graphPath, hdr)
	if err != nil {
		return err
	}
	codec, err := kmer.NewCodec(int(hdr.K))
	if err != nil {
		return err
	}
	g := graph.New(codec, capacity, int(hdr.Colors), graph.DefaultLoadFactor)
	g.RunID = hdr.RunID

	gf, err := os.Open(graphPath)
	if err != nil {
		return internal.Wrap(internal.IoError, err)
	}
	if _, err := ctxio.Read(gf, g, ctxio.IdentityFilters(int(hdr.Colors))); err != nil {
		gf.Close()
		return err
	}
	gf.Close()

	reportColors := colors
	if len(reportColors) == 0 {
		for c := 0; c < int(hdr.Colors); c++ {
			reportColors = append(reportColors, c)
		}
	}

	return timedRun(timed, "Annotating "+input+" with coverage from "+graphPath, func() (err error) {
		defer deleteOnError(output, &err)

		in, err := os.Open(input)
		if err != nil {
			return internal.Wrap(internal.IoError, err)
		}
		defer in.Close()
		r, err := vcfio.NewReader(in)
		if err != nil {
			return err
		}

		out, err := openOutput(output)
		if err != nil {
			return err
		}
		defer out.Close()
		w := vcfio.NewWriter(out)

		if err := vcfio.Annotate(g, r, w, vcfio.AnnotateOptions{
			MaxNVars: maxNVars,
			Colors:   reportColors,
		}); err != nil {
			return err
		}

		log.Printf("Annotated %s with coverage from %s.\n", input, graphPath)
		return nil
	})
}
