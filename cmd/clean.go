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

// CleanHelp is the help string for the clean command.
const CleanHelp = "\nclean parameters:\n" +
	"cortex clean -o output.ctx input.ctx\n" +
	"[-c color] (repeatable, default: all colors)\n" +
	"[--tip-len n] (default: 2k)\n" +
	"[--cutoff n] (default: derived from the coverage histogram)\n" +
	"[--hist path] (coverage-before histogram CSV)\n" +
	"[-p links.ctp.gz] (sanity-check an existing link file against the cleaned graph)\n" +
	"[--timed]\n"

// Clean implements the clean command (spec.md §4.5, §6): tip removal
// followed by coverage-histogram-driven unitig pruning, over the
// union of edges across the selected colors.
func Clean() error {
	var (
		output, hist, linksPath string
		tipLen                  int
		cutoff                  int
		timed                   bool
	)
	var colors intList

	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	fs.StringVar(&output, "o", "", "output graph file (.ctx)")
	fs.IntVar(&tipLen, "tip-len", 0, "tip length threshold (default: 2k)")
	fs.IntVar(&cutoff, "cutoff", 0, "coverage cutoff (default: derive from the histogram)")
	fs.StringVar(&hist, "hist", "", "write the coverage-before histogram as CSV to this path")
	fs.StringVar(&linksPath, "p", "", "existing link file (.ctp.gz) to sanity-check against the cleaned graph")
	fs.BoolVar(&timed, "timed", false, "measure the runtime")
	fs.Var(&colors, "c", "color to clean (repeatable, default: all colors)")
	fs.Parse(os.Args[2:])

	if output == "" {
		return internal.Errorf(internal.InvalidInput, "-o is required")
	}
	if fs.NArg() != 1 {
		return internal.Errorf(internal.InvalidInput, "expected exactly one input graph file, got %d", fs.NArg())
	}
	input := fs.Arg(0)
	if !checkExist("", input) || !checkCreate("-o", output) {
		return internal.Errorf(internal.InvalidInput, "input/output sanity check failed")
	}
	if linksPath != "" && !checkExist("-p", linksPath) {
		return internal.Errorf(internal.InvalidInput, "input/output sanity check failed")
	}

	logFile, err := setLogOutput(output)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	hdr, err := ctxio.PeekHeader(input)
	if err != nil {
		return err
	}
	capacity, err := graphFileCapacity(input, hdr)
	if err != nil {
		return err
	}
	codec, err := kmer.NewCodec(int(hdr.K))
	if err != nil {
		return err
	}
	g := graph.New(codec, capacity, int(hdr.Colors), graph.DefaultLoadFactor)
	g.RunID = hdr.RunID

	f, err := os.Open(input)
	if err != nil {
		return internal.Wrap(internal.IoError, err)
	}
	if _, err := ctxio.Read(f, g, ctxio.IdentityFilters(int(hdr.Colors))); err != nil {
		f.Close()
		return err
	}
	f.Close()

	mask := graph.AllColors(g.NumColors())
	if len(colors) > 0 {
		mask = graph.ColorMaskOf(colors...)
	}
	if tipLen <= 0 {
		tipLen = graph.DefaultTipLenThreshold(int(hdr.K))
	}

	return timedRun(timed, "Cleaning graph "+output, func() (err error) {
		defer deleteOnError(output, &err)

		removedTips := graph.RemoveTips(g, mask, tipLen)

		// A cutoff of 0 never satisfies "average < cutoff" for a
		// non-negative coverage average, so this first pass only
		// measures the histogram: nothing is removed by it.
		histValues, _ := graph.PruneLowCoverageUnitigs(g, mask, 0)

		effectiveCutoff := cutoff
		if effectiveCutoff <= 0 {
			effectiveCutoff = graph.DeriveCutoff(histValues)
		}
		_, removedUnitigs := graph.PruneLowCoverageUnitigs(g, mask, effectiveCutoff)

		if hist != "" {
			hf, err := openOutput(hist)
			if err != nil {
				return err
			}
			defer hf.Close()
			if err := graph.WriteCoverageHistogram(hf, histValues); err != nil {
				return err
			}
		}

		for c := 0; c < g.NumColors(); c++ {
			if mask.Has(c) {
				g.Colors[c].CleanedTips = true
				g.Colors[c].CleanedUnitigs = true
				g.Colors[c].UnitigCutoff = uint32(effectiveCutoff)
			}
		}

		out, err := openOutput(output)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := ctxio.Write(out, g, g.MeanReadLen, g.TotalSeq); err != nil {
			return err
		}

		log.Printf("Cleaned graph: removed %d tip unitigs, %d low-coverage unitigs (cutoff %d).\n",
			removedTips, removedUnitigs, effectiveCutoff)

		if linksPath != "" {
			if err := validateLinksAgainstGraph(linksPath, g); err != nil {
				return err
			}
			log.Println("Link prefix soundness check passed for", linksPath)
		}
		return nil
	})
}

// validateLinksAgainstGraph loads the link file at linksPath and
// replays every one of its junction paths against g, the post-pass
// sanity check spec.md §8's "Link prefix soundness" testable property
// names: a link file built before this clean pass can reference edges
// that tip removal or unitig pruning have since deleted, and
// links.ValidatePaths is exactly the gpath_checks_all_paths-style
// replay that catches it.
func validateLinksAgainstGraph(linksPath string, g *graph.Graph) error {
	lf, err := os.Open(linksPath)
	if err != nil {
		return internal.Wrap(internal.IoError, err)
	}
	store := links.NewStore(g.NumColors())
	_, err = links.Read(lf, store, g.Table.Codec(), g.Table)
	lf.Close()
	if err != nil {
		return err
	}
	return links.ValidatePaths(store, g)
}
