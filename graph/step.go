package graph

import "github.com/exascience/cortex/kmer"

// StepDirection reports, relative to the canonical orientation stored
// in the hash table bucket, whether moving from the literal
// read-oriented k-mer fromWindow to toWindow is a successor step
// (kmer.Forward) or a predecessor step (kmer.Reverse) from fromCanon's
// perspective, together with the base that fromCanon's own edge bits
// index that step by. Buckets always store the canonical form, so a
// literal forward-strand extension can land on either side of a
// bucket's edge byte depending on whether that bucket's canonical form
// happens to be the reverse complement of the window that produced
// it; this is the same orientation bookkeeping the builder's linkEdge
// performs when it wires edge bits during a build pass.
func StepDirection(fromWindow, fromCanon, toWindow, toCanon kmer.Kmer) (dir kmer.Direction, base byte) {
	succBase := toWindow.LastBase()
	if fromWindow.Equal(fromCanon) {
		return kmer.Forward, succBase
	}
	return kmer.Reverse, kmer.Complement(succBase)
}

// OrientedDir reports which of a bucket's own two directions a literal
// read-oriented window corresponds to: kmer.Forward if window already
// is its own canonical form, kmer.Reverse if window is the reverse
// complement of its canonical form. This is the direction a read
// continues in from window's node, from that node's own perspective.
func OrientedDir(window, canon kmer.Kmer) kmer.Direction {
	if window.Equal(canon) {
		return kmer.Forward
	}
	return kmer.Reverse
}

func edgeDirFor(dir kmer.Direction) edgeDir {
	if dir == kmer.Forward {
		return succDir
	}
	return predDir
}

// Degree returns h's out-degree (number of distinct bases reachable)
// in direction dir, unioned across mask's colors -- the branching test
// the link builder and traversal engine both need, exposed in terms of
// kmer.Direction so packages outside graph never need edgeDir itself.
func (g *Graph) Degree(h Handle, mask ColorMask, dir kmer.Direction) int {
	return g.Nodes.Degree(h, g.NumColors(), mask, edgeDirFor(dir))
}

// CandidateBases returns the bases with an edge set in direction dir,
// unioned across mask's colors -- the traversal engine's "gather the
// set of candidate successor bases from E[H][color_mask]" step
// (spec.md §4.9).
func (g *Graph) CandidateBases(h Handle, mask ColorMask, dir kmer.Direction) []byte {
	union := g.Nodes.UnionEdges(h, g.NumColors(), mask, edgeDirFor(dir))
	var out []byte
	for b := byte(0); b < 4; b++ {
		if union&(1<<b) != 0 {
			out = append(out, b)
		}
	}
	return out
}

// Step follows h's edge for base in direction dir and returns the
// neighbor handle together with the direction that continues a walk in
// the same spatial direction from there -- the neighbor's own
// canonical form may be the reverse complement of the literal shifted
// k-mer, which flips the direction a continuing walk must query next
// (see shiftedNeighbor). ok is false if the shift lands outside the
// table or on a soft-deleted node.
func (g *Graph) Step(h Handle, dir kmer.Direction, base byte) (next Handle, nextDir kmer.Direction, ok bool) {
	nh, ed, ok := shiftedNeighbor(g, h, edgeDirFor(dir), base)
	if !ok || g.Nodes.IsDeleted(nh) {
		return NotFound, 0, false
	}
	return nh, kmerDirFor(ed), true
}

