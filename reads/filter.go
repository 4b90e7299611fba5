package reads

import (
	"sync/atomic"

	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/cortex/graph"
)

// Options configures Filter. Invert flips the kept set from "touches
// the graph" to "touches none of the graph" (ctx_reads.c's
// `-v/--invert`).
type Options struct {
	Invert bool
}

// Stats summarizes one Filter call: how many reads were classified
// and how many were written out, mirroring ctx_reads.c's final
// "Total printed X / Y" status line.
type Stats struct {
	Reads        int64
	ReadsPrinted int64
}

// Filter classifies every Pair in pairs against g (kept iff
// pairTouchesGraph(g, pair) != opts.Invert) and writes the kept ones
// to w, in input order. It runs as a pargo pipeline -- a parallel
// classification stage feeding a strictly-ordered write stage -- the
// "classify → format → write" shape SPEC_FULL.md §3 calls for,
// grounded on `sam.Sam.RunPipeline`'s in-memory filter-then-write
// pipeline in `sam/filter-pipeline.go`.
func Filter(g *graph.Graph, pairs []Pair, w *Writer, opts Options) (Stats, error) {
	var stats Stats

	var p pipeline.Pipeline
	p.Source(pairs)
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		batch := data.([]Pair)
		kept := batch[:0]
		for _, pr := range batch {
			n := int64(1)
			if pr.R2 != nil {
				n = 2
			}
			atomic.AddInt64(&stats.Reads, n)
			if pairTouchesGraph(g, pr) != opts.Invert {
				kept = append(kept, pr)
			}
		}
		return kept
	})))
	p.Add(pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
		batch := data.([]Pair)
		for _, pr := range batch {
			if err := w.Write(pr); err != nil {
				p.SetErr(err)
				return batch
			}
			if pr.R2 != nil {
				stats.ReadsPrinted += 2
			} else {
				stats.ReadsPrinted++
			}
		}
		return batch
	})))
	p.Run()
	return stats, p.Err()
}
