package callers

import (
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/kmer"
)

// Bubble is one candidate variant from FindBubbles: two allele
// sequences that diverge from a shared Anchor k-mer and reconverge at
// a shared Flank k-mer (spec.md §4.10's "candidate variant with
// flanking sequences"). Allele sequences include the base that steps
// into Flank, so Allele[i] and Flank overlap by k-1 bases -- the same
// overlap convention a sliding k-mer window always has with the node
// it lands on.
type Bubble struct {
	Anchor string
	Flank  string
	Allele [2]string
}

// BubbleOptions bounds how far FindBubbles looks for a reconvergence
// point before giving up on a branch pair.
type BubbleOptions struct {
	MaxLen int
}

// FindBubbles scans every node in g for a branching point under mask
// with two or more candidate successor bases, and for every pair of
// those bases tries to walk both single-edge paths back together
// within opts.MaxLen bases (spec.md §4.10). Branch pairs that never
// reconverge, or that reconverge with identical allele sequences (no
// actual variant), are skipped.
func FindBubbles(g *graph.Graph, mask graph.ColorMask, opts BubbleOptions) []Bubble {
	var out []Bubble
	g.Table.Each(func(h graph.Handle) {
		if g.Nodes.IsDeleted(h) {
			return
		}
		for _, dir := range [2]kmer.Direction{kmer.Forward, kmer.Reverse} {
			candidates := g.CandidateBases(h, mask, dir)
			if len(candidates) < 2 {
				continue
			}
			for i := 0; i < len(candidates); i++ {
				for j := i + 1; j < len(candidates); j++ {
					if b, ok := tryBubble(g, mask, h, dir, candidates[i], candidates[j], opts.MaxLen); ok {
						out = append(out, b)
					}
				}
			}
		}
	})
	return out
}

// branchWalk is one single-edge path walked out of a bubble's anchor:
// the literal bases walked so far, and the handle/direction of every
// node visited, in walk order -- kept so a second branch's walk can
// test each of its own steps for reconvergence against this one.
type branchWalk struct {
	bases []byte
	path  []graph.Handle
	dirs  []kmer.Direction // dirs[i] continues the walk onward from path[i]
}

// walkSoleEdges walks from h in direction dir, first stepping on
// first, then continuing for as long as the node just arrived at has
// exactly one candidate successor base under mask, up to maxLen bases
// total. It stops (without error) at a dead end, an ambiguous branch,
// or a soft-deleted node; the caller decides whether the resulting
// (possibly short) walk reconverges with another branch.
func walkSoleEdges(g *graph.Graph, mask graph.ColorMask, h graph.Handle, dir kmer.Direction, first byte, maxLen int) branchWalk {
	next, nextDir, ok := g.Step(h, dir, first)
	if !ok || g.Nodes.IsDeleted(next) {
		return branchWalk{}
	}
	w := branchWalk{bases: []byte{literalBase(first, dir)}, path: []graph.Handle{next}, dirs: []kmer.Direction{nextDir}}
	cur, curDir := next, nextDir
	for len(w.bases) < maxLen {
		candidates := g.CandidateBases(cur, mask, curDir)
		if len(candidates) != 1 {
			break
		}
		nh, nd, ok := g.Step(cur, curDir, candidates[0])
		if !ok || g.Nodes.IsDeleted(nh) {
			break
		}
		w.bases = append(w.bases, literalBase(candidates[0], curDir))
		w.path = append(w.path, nh)
		w.dirs = append(w.dirs, nd)
		cur, curDir = nh, nd
	}
	return w
}

// tryBubble walks the two branches leaving h on bases b1 and b2, and
// reports the shortest pair of prefixes that reconverge at a shared
// node, as a Bubble anchored at h. It reports ok=false if the
// branches never meet within maxLen, or meet with identical allele
// sequences.
func tryBubble(g *graph.Graph, mask graph.ColorMask, h graph.Handle, dir kmer.Direction, b1, b2 byte, maxLen int) (Bubble, bool) {
	w1 := walkSoleEdges(g, mask, h, dir, b1, maxLen)
	w2 := walkSoleEdges(g, mask, h, dir, b2, maxLen)
	if len(w1.path) == 0 || len(w2.path) == 0 {
		return Bubble{}, false
	}

	firstIndex := make(map[graph.Handle]int, len(w2.path))
	for i, hd := range w2.path {
		if _, exists := firstIndex[hd]; !exists {
			firstIndex[hd] = i
		}
	}

	for i1, hd := range w1.path {
		i2, found := firstIndex[hd]
		if !found {
			continue
		}
		allele1 := decodeBases(w1.bases[:i1+1])
		allele2 := decodeBases(w2.bases[:i2+1])
		if allele1 == allele2 {
			continue
		}
		codec := g.Table.Codec()
		return Bubble{
			Anchor: literal(codec, g.Table.KeyAt(h), dir),
			Flank:  literal(codec, g.Table.KeyAt(hd), w1.dirs[i1]),
			Allele: [2]string{allele1, allele2},
		}, true
	}
	return Bubble{}, false
}
