// Package callers implements the bubble and breakpoint variant callers
// (spec.md §4.10), both built as thin, link-free consumers of the
// graph package's topology primitives: a bubble is two sole-edge paths
// that share a branching anchor and reconverge within a bounded
// length, a breakpoint is a sole-edge path that leaves a designated
// reference color and re-enters it. Neither caller walks with link
// endorsement (traversal.Walker); they only need the graph's own
// degree-1 "unambiguous so far" structure, matching the teacher's
// separation between the assembly engine and its downstream callers.
package callers

import (
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/kmer"
)

// baseLetters mirrors links.baseLetters; kept as its own package-local
// copy rather than exported from kmer, the same choice links/format.go
// makes for its own junction-string encoding.
var baseLetters = [4]byte{'A', 'C', 'G', 'T'}

func decodeBases(bases []byte) string {
	out := make([]byte, len(bases))
	for i, b := range bases {
		out[i] = baseLetters[b]
	}
	return string(out)
}

// literal returns the literal (read-strand) sequence of a node's
// canonical k-mer, given the direction a walk is leaving it in:
// dir == kmer.Forward means the canonical form already is the literal
// form, kmer.Reverse means the literal form is its reverse complement
// -- the same convention graph.OrientedDir/StepDirection establish.
func literal(codec *kmer.Codec, km kmer.Kmer, dir kmer.Direction) string {
	if dir == kmer.Reverse {
		km = codec.ReverseComplement(km)
	}
	return km.String()
}

func inColor(g *graph.Graph, h graph.Handle, color int) bool {
	return g.Nodes.Coverage(h, color) > 0
}

// literalBase converts a step base, indexed in a node's canonical
// frame when the node is walked in direction dir, into the read-strand
// base under the same convention as literal.
func literalBase(b byte, dir kmer.Direction) byte {
	if dir == kmer.Reverse {
		return kmer.Complement(b)
	}
	return b
}
