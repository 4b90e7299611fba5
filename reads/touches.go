package reads

import (
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/seqio"
)

// TouchesGraph reports whether any k-mer window of rec's sequence is
// present in g, scanning contig by contig (graph.SplitContigs, which
// drops N's and other non-ACGT runs exactly as a builder load would)
// and returning as soon as one window hits, the same short-circuiting
// scan `read_touches_graph` performs in ctx_reads.c.
func TouchesGraph(g *graph.Graph, rec seqio.Record) bool {
	codec := g.Table.Codec()
	k := codec.K()
	for _, contig := range graph.SplitContigs(rec.Seq) {
		if len(contig) < k {
			continue
		}
		for i := 0; i+k <= len(contig); i++ {
			km, err := codec.Pack(string(contig[i : i+k]))
			if err != nil {
				continue
			}
			if g.Table.Find(km) != graph.NotFound {
				return true
			}
		}
	}
	return false
}

// pairTouchesGraph reports whether either mate of p touches g
// (ctx_reads.c's `read_touches_graph(r1, ...) || (r2 != NULL &&
// read_touches_graph(r2, ...))`).
func pairTouchesGraph(g *graph.Graph, p Pair) bool {
	if TouchesGraph(g, *p.R1) {
		return true
	}
	return p.R2 != nil && TouchesGraph(g, *p.R2)
}
