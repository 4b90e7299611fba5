// Package traversal implements the graph walker (spec.md §4.9): a
// pull-style iterator over nodes that restricts its candidate
// successor bases to those endorsed by at least one active link trie
// cursor, and terminates with a typed reason (internal.WalkReason)
// rather than an error when the walk simply runs out of road.
package traversal

import (
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
	"github.com/exascience/cortex/links"
)

// maxCycleLen is the ring buffer size of the walk's cycle guard,
// spec.md §4.9's "e.g. 1024".
const maxCycleLen = 1024

// linkCursor is one active link trie cursor: a position inside a
// (H, dir) trie that advances by one base every time its host
// branching node is encountered again.
type linkCursor struct {
	node int32
}

// Walker is a plain, externally pull-style state struct advanced one
// node per Next call, matching spec.md §9's "traversal engine as
// coroutine-like iterator... internally a plain state struct advanced
// on each pull" design note.
type Walker struct {
	g    *graph.Graph
	mask graph.ColorMask
	s    *links.Store

	handle graph.Handle
	dir    kmer.Direction

	cursors []linkCursor
	ring    [maxCycleLen]graph.Handle
	ringLen int
	ringPos int

	done   bool
	reason internal.WalkReason
}

// Walk returns a Walker starting at start in direction dir, restricted
// to mask's colors and endorsed by s's link cursors. If start already
// has a built trie root for (start, dir), that root becomes the first
// active cursor.
func Walk(g *graph.Graph, start graph.Handle, dir kmer.Direction, mask graph.ColorMask, s *links.Store) *Walker {
	w := &Walker{g: g, mask: mask, s: s, handle: start, dir: dir}
	w.noteVisit(start)
	if root, ok := s.FindRoot(start, dir); ok {
		w.cursors = append(w.cursors, linkCursor{node: root})
	}
	return w
}

func (w *Walker) noteVisit(h graph.Handle) bool {
	for i := 0; i < w.ringLen; i++ {
		if w.ring[i] == h {
			return false
		}
	}
	w.ring[w.ringPos] = h
	w.ringPos = (w.ringPos + 1) % maxCycleLen
	if w.ringLen < maxCycleLen {
		w.ringLen++
	}
	return true
}

// Reason returns the termination reason once Next has returned false.
// It panics if the walk has not terminated yet.
func (w *Walker) Reason() internal.WalkReason {
	if !w.done {
		panic("traversal: Reason called before the walk terminated")
	}
	return w.reason
}

// Handle returns the walker's current node.
func (w *Walker) Handle() graph.Handle { return w.handle }

// Err returns the walk's termination as an *internal.WalkTerminated,
// the non-fatal signal callers are expected to recover per spec.md
// §7's error propagation model ("callers locally recover
// WalkTerminated to continue scanning"). It returns nil until the walk
// has terminated.
func (w *Walker) Err() error {
	if !w.done {
		return nil
	}
	return &internal.WalkTerminated{Reason: w.reason}
}

// Next advances the walk by one node, returning false once the walk
// has terminated (dead end, ambiguous branch, cycle, or link
// exhaustion -- query Reason for which).
func (w *Walker) Next() bool {
	if w.done {
		return false
	}

	candidates := w.g.CandidateBases(w.handle, w.mask, w.dir)
	if len(candidates) == 0 {
		return w.terminate(internal.DeadEnd)
	}
	if len(candidates) == 1 {
		return w.step(candidates[0])
	}
	if len(w.cursors) == 0 {
		// The graph genuinely branches here and every link cursor that
		// might have disambiguated it has already run out -- distinct
		// from Ambiguous (cursors still active but split) and DeadEnd
		// (no cursor endorses anything): there is simply no link
		// information left to consult.
		return w.terminate(internal.LinkExhausted)
	}

	endorsed := w.endorsedBases(candidates)
	switch len(endorsed) {
	case 0:
		return w.terminate(internal.DeadEnd)
	case 1:
		return w.step(endorsed[0])
	default:
		return w.terminate(internal.Ambiguous)
	}
}

func (w *Walker) terminate(reason internal.WalkReason) bool {
	w.done = true
	w.reason = reason
	return false
}

// endorsedBases restricts candidates to those at least one active
// cursor's trie endorses; a cursor that endorses nothing at this node
// is dropped (its trie path has run out, matching §4.9's implicit
// per-cursor exhaustion). Callers only reach here with a non-empty
// cursor set -- Next handles the no-cursors-left case itself, since
// that terminates as LinkExhausted rather than being resolved here.
func (w *Walker) endorsedBases(candidates []byte) []byte {
	var endorsed []byte
	seen := [4]bool{}
	var alive []linkCursor
	for _, c := range w.cursors {
		for _, b := range candidates {
			if child, ok := w.s.Follow(c.node, b); ok {
				alive = append(alive, linkCursor{node: child})
				if !seen[b] {
					seen[b] = true
					endorsed = append(endorsed, b)
				}
			}
		}
	}
	w.cursors = alive
	return endorsed
}

// step moves the walk across the edge for base, spawning a new active
// cursor if the node just arrived at is itself branching (a fresh
// trie root), then runs the cycle guard.
func (w *Walker) step(base byte) bool {
	next, nextDir, ok := w.g.Step(w.handle, w.dir, base)
	if !ok {
		return w.terminate(internal.DeadEnd)
	}

	if !w.noteVisit(next) {
		return w.terminate(internal.Cycle)
	}
	if root, ok := w.s.FindRoot(next, nextDir); ok {
		w.cursors = append(w.cursors, linkCursor{node: root})
	}
	w.handle = next
	w.dir = nextDir
	return true
}
