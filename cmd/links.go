package cmd

import (
	"flag"
	"log"
	"os"

	"github.com/exascience/cortex/ctxio"
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
	"github.com/exascience/cortex/links"
)

// LinksHelp is the help string for the links command.
const LinksHelp = "\nlinks parameters:\n" +
	"cortex links -o out.ctp.gz -g graph.ctx in.ctp.gz\n" +
	"[--fpr p] (default: 0.001)\n" +
	"[--max-threshold n] (default: uncapped)\n" +
	"[--timed]\n"

// Links implements the links command (spec.md §4.7's "Cleaning",
// §4.8, §6): derive a single global coverage threshold from an
// existing link store and prune every trie below it.
func Links() error {
	var (
		output, graphPath string
		fpr               float64
		maxThreshold      int
		timed             bool
	)

	fs := flag.NewFlagSet("links", flag.ExitOnError)
	fs.StringVar(&output, "o", "", "output link file (.ctp.gz)")
	fs.StringVar(&graphPath, "g", "", "graph file (.ctx) the link file was built against")
	fs.Float64Var(&fpr, "fpr", 0, "target false positive rate (default: 0.001)")
	fs.IntVar(&maxThreshold, "max-threshold", 0, "cap on the selected threshold (default: uncapped)")
	fs.BoolVar(&timed, "timed", false, "measure the runtime")
	fs.Parse(os.Args[2:])

	if output == "" {
		return internal.Errorf(internal.InvalidInput, "-o is required")
	}
	if graphPath == "" {
		return internal.Errorf(internal.InvalidInput, "-g is required")
	}
	if fs.NArg() != 1 {
		return internal.Errorf(internal.InvalidInput, "expected exactly one input link file, got %d", fs.NArg())
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

	store := links.NewStore(int(hdr.Colors))
	lf, err := os.Open(input)
	if err != nil {
		return internal.Wrap(internal.IoError, err)
	}
	linkHdr, err := links.Read(lf, store, codec, g.Table)
	lf.Close()
	if err != nil {
		return err
	}

	return timedRun(timed, "Cleaning link file "+output, func() (err error) {
		defer deleteOnError(output, &err)

		threshold := links.Clean(store, links.CleanOptions{
			FalsePositiveRate: fpr,
			MaxThreshold:      maxThreshold,
		})

		if err := links.ValidatePaths(store, g); err != nil {
			return err
		}

		out, err := openOutput(output)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := links.Write(out, store, g, linkHdr.KmerSize, linkHdr.NumColors); err != nil {
			return err
		}

		log.Printf("Cleaned link file: threshold %d.\n", threshold)
		return nil
	})
}
