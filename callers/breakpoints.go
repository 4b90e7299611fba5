package callers

import (
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/kmer"
)

// Breakpoint is one candidate variant from FindBreakpoints: a novel
// interval bounded by two reference-color anchors (spec.md §4.10:
// "walk from anchors in a designated reference color until the walk
// leaves the reference, emit the novel interval with reference
// anchors"). Novel includes the base that steps into Anchor3, the
// same k-1 overlap convention Bubble.Allele uses.
type Breakpoint struct {
	Anchor5 string
	Novel   string
	Anchor3 string
}

// BreakpointOptions configures FindBreakpoints: RefColor is the
// designated reference color, SampleMask selects which colors' edges
// the novel walk follows, and MaxLen bounds how far it looks for
// re-entry into the reference before giving up.
type BreakpointOptions struct {
	RefColor   int
	SampleMask graph.ColorMask
	MaxLen     int
}

// FindBreakpoints scans every node present in opts.RefColor for a
// candidate successor, under opts.SampleMask, that leads to a node
// absent from opts.RefColor -- the point a sample path diverges from
// the reference -- then walks the novel path forward as long as it
// stays a sole edge, looking for re-entry into opts.RefColor within
// opts.MaxLen bases. Divergences that dead-end, branch, or never
// re-enter the reference within the bound are not emitted: a
// breakpoint call needs both anchors, not just the exit point.
func FindBreakpoints(g *graph.Graph, opts BreakpointOptions) []Breakpoint {
	var out []Breakpoint
	g.Table.Each(func(h graph.Handle) {
		if g.Nodes.IsDeleted(h) || !inColor(g, h, opts.RefColor) {
			return
		}
		for _, dir := range [2]kmer.Direction{kmer.Forward, kmer.Reverse} {
			for _, b := range g.CandidateBases(h, opts.SampleMask, dir) {
				next, nextDir, ok := g.Step(h, dir, b)
				if !ok || g.Nodes.IsDeleted(next) || inColor(g, next, opts.RefColor) {
					continue
				}
				if bp, ok := walkNovel(g, opts, h, dir, b, next, nextDir); ok {
					out = append(out, bp)
				}
			}
		}
	})
	return out
}

// walkNovel walks the non-reference path that begins with base first
// at anchor's node, looking for the first node back in opts.RefColor.
func walkNovel(g *graph.Graph, opts BreakpointOptions, anchor graph.Handle, anchorDir kmer.Direction, first byte, start graph.Handle, startDir kmer.Direction) (Breakpoint, bool) {
	bases := []byte{literalBase(first, anchorDir)}
	cur, curDir := start, startDir
	for len(bases) <= opts.MaxLen {
		if inColor(g, cur, opts.RefColor) {
			codec := g.Table.Codec()
			return Breakpoint{
				Anchor5: literal(codec, g.Table.KeyAt(anchor), anchorDir),
				Novel:   decodeBases(bases),
				Anchor3: literal(codec, g.Table.KeyAt(cur), curDir),
			}, true
		}
		candidates := g.CandidateBases(cur, opts.SampleMask, curDir)
		if len(candidates) != 1 {
			return Breakpoint{}, false
		}
		next, nextDir, ok := g.Step(cur, curDir, candidates[0])
		if !ok || g.Nodes.IsDeleted(next) {
			return Breakpoint{}, false
		}
		bases = append(bases, literalBase(candidates[0], curDir))
		cur, curDir = next, nextDir
	}
	return Breakpoint{}, false
}
