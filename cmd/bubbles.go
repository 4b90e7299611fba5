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

// BubblesHelp is the help string for the bubbles command.
const BubblesHelp = "\nbubbles parameters:\n" +
	"cortex bubbles -o out.calls in.ctx\n" +
	"[-c color] (repeatable, default: all colors)\n" +
	"[--max-len n] (default: 1000)\n" +
	"[--timed]\n"

// Bubbles implements the bubbles command (spec.md §4.10): find every
// bubble (a pair of paths diverging from and reconverging to a shared
// node) in the selected colors and emit the sorted raw calls, one per
// line, for `calls2vcf` to translate into VCF.
func Bubbles() error {
	var (
		output string
		maxLen int
		timed  bool
	)
	var colors intList

	fs := flag.NewFlagSet("bubbles", flag.ExitOnError)
	fs.StringVar(&output, "o", "", "output raw calls file")
	fs.IntVar(&maxLen, "max-len", 1000, "maximum bubble reconvergence length")
	fs.BoolVar(&timed, "timed", false, "measure the runtime")
	fs.Var(&colors, "c", "color to call bubbles in (repeatable, default: all colors)")
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

	return timedRun(timed, "Calling bubbles in "+input, func() (err error) {
		defer deleteOnError(output, &err)

		bubbles := callers.FindBubbles(g, mask, callers.BubbleOptions{MaxLen: maxLen})
		callers.SortBubbles(bubbles)

		out, err := openOutput(output)
		if err != nil {
			return err
		}
		defer out.Close()
		bw := bufio.NewWriter(out)
		for _, b := range bubbles {
			fmt.Fprintf(bw, "BUBBLE\t%s\t%s\t%s\t%s\n", b.Anchor, b.Flank, b.Allele[0], b.Allele[1])
		}
		if err := bw.Flush(); err != nil {
			return internal.Wrap(internal.IoError, err)
		}

		log.Printf("Called %d bubbles in %s.\n", len(bubbles), input)
		return nil
	})
}
