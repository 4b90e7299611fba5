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
	"github.com/exascience/cortex/seqio"
)

// ThreadHelp is the help string for the thread command.
const ThreadHelp = "\nthread parameters:\n" +
	"cortex thread -o out.ctp -c color in.ctx\n" +
	"[--seq in.fa] (repeatable, reads to thread through the graph)\n" +
	"[-p in.ctp] (repeatable, load existing link files first)\n" +
	"[--timed]\n"

// Thread implements the thread command (spec.md §4.7, §6): thread a
// set of reads through one color of a graph, recording the junction
// choices into a link store, optionally seeded from existing .ctp.gz
// files, and write the result out.
func Thread() error {
	var (
		output string
		color  int
		timed  bool
	)
	var seqFiles stringList
	var linkFiles stringList

	fs := flag.NewFlagSet("thread", flag.ExitOnError)
	fs.StringVar(&output, "o", "", "output link file (.ctp.gz)")
	fs.IntVar(&color, "c", 0, "color to thread reads through")
	fs.BoolVar(&timed, "timed", false, "measure the runtime")
	fs.Var(&seqFiles, "seq", "read file to thread through the graph (repeatable)")
	fs.Var(&linkFiles, "p", "existing link file to load first (repeatable)")
	fs.Parse(os.Args[2:])

	if output == "" {
		return internal.Errorf(internal.InvalidInput, "-o is required")
	}
	if fs.NArg() != 1 {
		return internal.Errorf(internal.InvalidInput, "expected exactly one input graph file, got %d", fs.NArg())
	}
	if len(seqFiles) == 0 {
		return internal.Errorf(internal.InvalidInput, "at least one --seq file is required")
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
	if color < 0 || color >= int(hdr.Colors) {
		return internal.Errorf(internal.InvalidInput, "color %d out of range [0,%d)", color, hdr.Colors)
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

	store := links.NewStore(int(hdr.Colors))
	for _, path := range linkFiles {
		lf, err := os.Open(path)
		if err != nil {
			return internal.Wrap(internal.IoError, err)
		}
		_, err = links.Read(lf, store, codec, g.Table)
		lf.Close()
		if err != nil {
			return err
		}
	}

	mask := graph.ColorMaskOf(color)

	return timedRun(timed, "Threading reads through "+input, func() (err error) {
		defer deleteOnError(output, &err)

		var readCount int64
		for _, path := range seqFiles {
			records, err := seqio.DecodeFile(path)
			if err != nil {
				return err
			}
			for _, rec := range records {
				if err := links.ThreadRead(store, g, mask, color, rec.Seq); err != nil {
					return err
				}
				readCount++
			}
		}

		out, err := openOutput(output)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := links.Write(out, store, g, int(hdr.K), int(hdr.Colors)); err != nil {
			return err
		}

		log.Printf("Threaded %d reads through color %d of %s.\n", readCount, color, input)
		return nil
	})
}
