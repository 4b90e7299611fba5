package cmd

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/exascience/cortex/callers"
	"github.com/exascience/cortex/ctxio"
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
)

// BreakpointsHelp is the help string for the breakpoints command.
const BreakpointsHelp = "\nbreakpoints parameters:\n" +
	"cortex breakpoints -o out.calls --ref-color n in.ctx\n" +
	"[-c color] (repeatable sample color, default: all but --ref-color)\n" +
	"[--max-len n] (default: 1000)\n" +
	"[--timed]\n"

// Breakpoints implements the breakpoints command (spec.md §4.10): walk
// from a designated reference color's anchors until the walk leaves
// the reference, emitting each novel interval as sorted raw calls for
// `calls2vcf` to translate into VCF.
func Breakpoints() error {
	var (
		output   string
		refColor int
		maxLen   int
		timed    bool
	)
	var sampleColors intList

	fs := flag.NewFlagSet("breakpoints", flag.ExitOnError)
	fs.StringVar(&output, "o", "", "output raw calls file")
	fs.IntVar(&refColor, "ref-color", 0, "reference color")
	fs.IntVar(&maxLen, "max-len", 1000, "maximum novel interval length")
	fs.BoolVar(&timed, "timed", false, "measure the runtime")
	fs.Var(&sampleColors, "c", "sample color to walk (repeatable, default: all but --ref-color)")
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
	if refColor < 0 || refColor >= int(hdr.Colors) {
		return internal.Errorf(internal.InvalidInput, "--ref-color %d out of range [0,%d)", refColor, hdr.Colors)
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

	sampleMask := allColorsExcept(g.NumColors(), refColor)
	if len(sampleColors) > 0 {
		sampleMask = graph.ColorMaskOf(sampleColors...)
	}

	return timedRun(timed, "Calling breakpoints in "+input, func() (err error) {
		defer deleteOnError(output, &err)

		breakpoints := callers.FindBreakpoints(g, callers.BreakpointOptions{
			RefColor:   refColor,
			SampleMask: sampleMask,
			MaxLen:     maxLen,
		})
		callers.SortBreakpoints(breakpoints)

		out, err := openOutput(output)
		if err != nil {
			return err
		}
		defer out.Close()
		bw := bufio.NewWriter(out)
		for _, bp := range breakpoints {
			fmt.Fprintf(bw, "BREAKPOINT\t%s\t%s\t%s\n", bp.Anchor5, bp.Novel, bp.Anchor3)
		}
		if err := bw.Flush(); err != nil {
			return internal.Wrap(internal.IoError, err)
		}

		log.Printf("Called %d breakpoints in %s.\n", len(breakpoints), input)
		return nil
	})
}

func allColorsExcept(numColors, exclude int) graph.ColorMask {
	mask := graph.NewColorMask()
	for c := 0; c < numColors; c++ {
		if c != exclude {
			mask = mask.Set(c)
		}
	}
	return mask
}
