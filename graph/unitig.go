package graph

import "github.com/exascience/cortex/kmer"

func oppositeDir(dir edgeDir) edgeDir {
	if dir == succDir {
		return predDir
	}
	return succDir
}

func kmerDirFor(dir edgeDir) kmer.Direction {
	if dir == succDir {
		return kmer.Forward
	}
	return kmer.Reverse
}

func edgeNibble(e uint8, dir edgeDir) uint8 {
	if dir == succDir {
		return (e >> succShift) & 0xF
	}
	return (e >> predShift) & 0xF
}

// shiftedNeighbor shifts h's canonical k-mer by base in direction dir,
// finds the resulting k-mer's bucket, and reports the edgeDir that
// continues the walk in the same spatial direction from there -- the
// canonical form stored at that bucket may be the reverse complement
// of the literal shifted k-mer, in which case continuing the same
// physical direction means querying the opposite edgeDir from here on,
// exactly the orientation flip StepDirection accounts for when
// threading a read. ok is false if the shifted k-mer isn't in the
// table.
func shiftedNeighbor(g *Graph, h Handle, dir edgeDir, base byte) (next Handle, nextDir edgeDir, ok bool) {
	codec := g.Table.Codec()
	km := g.Table.KeyAt(h)
	var shifted kmer.Kmer
	if dir == succDir {
		shifted = codec.ShiftLeftAppend(km, base)
	} else {
		shifted = codec.ShiftRightPrepend(km, base)
	}
	next = g.Table.Find(shifted)
	if next == NotFound {
		return NotFound, 0, false
	}
	canon := g.Table.KeyAt(next)
	if shifted.Equal(canon) {
		return next, dir, true
	}
	return next, oppositeDir(dir), true
}

// soleNeighbor returns h's single neighbor in direction dir under
// mask, or ok=false if h has zero or more than one edge that
// direction, or if the neighbor has since been soft-deleted. nextDir
// is the edgeDir that continues the walk from next in the same
// spatial direction (see shiftedNeighbor).
func soleNeighbor(g *Graph, h Handle, mask ColorMask, dir edgeDir) (next Handle, nextDir edgeDir, base byte, ok bool) {
	union := g.Nodes.UnionEdges(h, g.NumColors(), mask, dir)
	if popcount4(union) != 1 {
		return NotFound, 0, 0, false
	}
	for b := byte(0); b < 4; b++ {
		if union&(1<<b) != 0 {
			base = b
			break
		}
	}
	next, nextDir, ok = shiftedNeighbor(g, h, dir, base)
	if !ok || g.Nodes.IsDeleted(next) {
		return NotFound, 0, 0, false
	}
	return next, nextDir, base, true
}

// extend walks from start in direction dir for as long as each step
// is a sole edge whose target's reciprocal edge back is also sole --
// i.e. as long as the walk stays inside a single non-branching unitig
// -- and returns the handles visited, in walk order, excluding start
// itself. The walked direction is re-derived at every step (see
// shiftedNeighbor) rather than held fixed, since a path's canonical
// orientation can flip from node to node. A cycle guard stops the walk
// if it ever revisits start.
func extend(g *Graph, mask ColorMask, start Handle, dir edgeDir) []Handle {
	var path []Handle
	cur, curDir := start, dir
	for {
		next, nextDir, _, ok := soleNeighbor(g, cur, mask, curDir)
		if !ok {
			break
		}
		if g.Nodes.Degree(next, g.NumColors(), mask, oppositeDir(nextDir)) != 1 {
			break
		}
		if next == start {
			break
		}
		path = append(path, next)
		cur, curDir = next, nextDir
	}
	return path
}

// unitigOf returns the full maximal non-branching walk (spec.md §4.5)
// containing h, as an ordered slice of handles.
func unitigOf(g *Graph, mask ColorMask, h Handle) []Handle {
	before := extend(g, mask, h, predDir)
	after := extend(g, mask, h, succDir)

	path := make([]Handle, 0, len(before)+1+len(after))
	for i := len(before) - 1; i >= 0; i-- {
		path = append(path, before[i])
	}
	path = append(path, h)
	path = append(path, after...)
	return path
}

// severBoundary clears every edge leaving node in direction dir,
// together with each target's reciprocal edge back to node. It leaves
// node's own edge nibble in dir untouched; callers that are about to
// delete node entirely clear it separately via NodeStore.ClearEdges.
func severBoundary(g *Graph, mask ColorMask, node Handle, dir edgeDir) {
	opp := oppositeDir(dir)
	for c := 0; c < g.NumColors(); c++ {
		if !mask.Has(c) {
			continue
		}
		nib := edgeNibble(g.Nodes.Edges(node, c), dir)
		for b := byte(0); b < 4; b++ {
			if nib&(1<<b) == 0 {
				continue
			}
			nbr := g.Table.NeighborLookup(node, kmerDirFor(dir), b)
			if nbr == NotFound {
				continue
			}
			clearEdgesPointingTo(g, mask, nbr, opp, node)
		}
	}
}

// clearEdgesPointingTo clears every edge bit at external, in
// direction dir, whose target is target.
func clearEdgesPointingTo(g *Graph, mask ColorMask, external Handle, dir edgeDir, target Handle) {
	for c := 0; c < g.NumColors(); c++ {
		if !mask.Has(c) {
			continue
		}
		nib := edgeNibble(g.Nodes.Edges(external, c), dir)
		for b := byte(0); b < 4; b++ {
			if nib&(1<<b) == 0 {
				continue
			}
			if g.Table.NeighborLookup(external, kmerDirFor(dir), b) == target {
				g.Nodes.ClearEdgeBit(external, c, dir, b)
			}
		}
	}
}
