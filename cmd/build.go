package cmd

import (
	"flag"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/exascience/cortex/ctxio"
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
	"github.com/exascience/cortex/seqio"
)

// BuildHelp is the help string for the build command.
const BuildHelp = "\nbuild parameters:\n" +
	"cortex build -k k -o output.ctx [-m mem | -n kmers]\n" +
	"[-s name:file1,file2,...] (repeatable, one color per -s)\n" +
	"[-g file:srccol:targetcol] (repeatable, merge an existing graph's color in)\n" +
	"[--strict]\n" +
	"[--timed]\n"

// Build implements the build command (spec.md §4.4, §6): load one or
// more colors of FASTA/FASTQ reads and/or merge in colors from
// existing .ctx graphs, into a single output graph.
func Build() error {
	var (
		k               int
		memStr          string
		numKmers        int
		output          string
		timed, strict   bool
	)
	var samples sampleList
	var merges graphInputList

	fs := flag.NewFlagSet("build", flag.ExitOnError)
	fs.IntVar(&k, "k", 0, "kmer size")
	fs.StringVar(&memStr, "m", "", "memory budget, e.g. 1G, 500M (alternative to -n)")
	fs.IntVar(&numKmers, "n", 0, "expected number of distinct kmers (alternative to -m)")
	fs.StringVar(&output, "o", "", "output graph file (.ctx)")
	fs.BoolVar(&timed, "timed", false, "measure the runtime")
	fs.BoolVar(&strict, "strict", false, "abort on an unrecognized base instead of ending the contig there")
	fs.Var(&samples, "s", "name:file1,file2,... one color of input reads (repeatable)")
	fs.Var(&merges, "g", "file:srccol:targetcol merge an existing graph's color into the output (repeatable)")
	fs.Parse(os.Args[2:])

	if k <= 0 {
		return internal.Errorf(internal.InvalidInput, "-k is required and must be positive")
	}
	if output == "" {
		return internal.Errorf(internal.InvalidInput, "-o is required")
	}
	if len(samples) == 0 && len(merges) == 0 {
		return internal.Errorf(internal.InvalidInput, "at least one -s or -g input is required")
	}
	if !checkCreate("-o", output) {
		return internal.Errorf(internal.InvalidInput, "cannot create %v", output)
	}

	logFile, err := setLogOutput(output)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	codec, err := kmer.NewCodec(k)
	if err != nil {
		return err
	}

	numColors := len(samples)
	for _, m := range merges {
		if m.DstColor+1 > numColors {
			numColors = m.DstColor + 1
		}
	}
	if numColors == 0 {
		numColors = 1
	}

	capacity := numKmers
	if capacity <= 0 {
		bits, err := parseMemory(memStr)
		if err != nil {
			return internal.Errorf(internal.InvalidInput, "need -m or -n: %v", err)
		}
		capacity = graph.EstimateCapacity(bits, codec.NWords(), numColors)
	}
	if capacity <= 0 {
		return internal.Errorf(internal.InvalidInput, "memory budget too small to hold any kmers")
	}

	g := graph.New(codec, capacity, numColors, graph.DefaultLoadFactor)
	g.RunID = uuid.New().String()

	return timedRun(timed, "Building graph "+output, func() (err error) {
		defer deleteOnError(output, &err)

		var stats graph.LoadStats
		var totalBases uint64
		var readCount int64

		for color, s := range samples {
			g.Colors[color].SampleName = s.Name
			for _, file := range s.Files {
				records, err := seqio.DecodeFile(file)
				if err != nil {
					return err
				}
				seqs := seqio.Sequences(records)
				for _, seq := range seqs {
					totalBases += uint64(len(seq))
				}
				readCount += int64(len(seqs))
				ls, err := graph.Load(g, seqs, graph.BuildOptions{Color: color, Strict: strict})
				if err != nil {
					return err
				}
				stats.BasesRead += ls.BasesRead
				stats.BasesLoaded += ls.BasesLoaded
				stats.KmersLoaded += ls.KmersLoaded
				stats.KmersNovel += ls.KmersNovel
			}
		}

		byFile := make(map[string][]ctxio.LoadFilter)
		for _, m := range merges {
			byFile[m.File] = append(byFile[m.File], ctxio.LoadFilter{
				SourceColor:  m.SrcColor,
				TargetColor:  m.DstColor,
				EmptyColours: false, // see DESIGN.md: merge with zero equals set, so this is always safe
			})
		}
		for file, filters := range byFile {
			if err := mergeGraphFile(file, g, filters); err != nil {
				return err
			}
		}

		var meanReadLength uint32
		if readCount > 0 {
			meanReadLength = uint32(totalBases / uint64(readCount))
		}
		g.MeanReadLen = meanReadLength
		g.TotalSeq = totalBases

		out, err := openOutput(output)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := ctxio.Write(out, g, meanReadLength, totalBases); err != nil {
			return err
		}

		log.Printf("Built graph: %d colors, %d kmers loaded (%d novel), %d bases read, run %s.\n",
			numColors, stats.KmersLoaded, stats.KmersNovel, stats.BasesRead, g.RunID)
		return nil
	})
}

func mergeGraphFile(file string, g *graph.Graph, filters []ctxio.LoadFilter) error {
	f, err := os.Open(file)
	if err != nil {
		return internal.Wrap(internal.IoError, err)
	}
	defer f.Close()
	_, err = ctxio.Read(f, g, filters)
	return err
}
