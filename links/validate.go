package links

import (
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
)

// ValidatePaths replays every junction path currently in s against g's
// own edges, the spec.md §8 "Link prefix soundness" testable property:
// every link path walks a real edge path. Grounded on
// original_source/src/graph_paths/gpath_checks.h's gpath_checks_path /
// gpath_checks_all_paths shape -- (1) the node a root sits at must
// itself branch (out-degree >1 in the root's own direction, "Fresh
// tries always start at a branching kmer", store.go's root doc), then
// (2) each subsequent junction base must land on a real edge, walked
// one base at a time with graph.Step exactly as ThreadRead itself
// walks reads. Unlike gpath_checks_path_col's per-sample-color check,
// this store carries no record of which color built each root, so the
// edge membership test below is done against every color at once
// (graph.AllColors): sound is "some color's edge exists here", the
// least a persisted path can promise.
//
// ValidatePaths returns the first unsound path it finds, wrapped as an
// internal.FormatError, or nil once every root's every leaf has been
// replayed successfully -- gpath_checks_path's "returns false on first
// error" generalized to an error carrying which root/path failed.
func ValidatePaths(s *Store, g *graph.Graph) error {
	mask := graph.AllColors(g.NumColors())
	var failure error
	s.Roots(func(h graph.Handle, dir kmer.Direction, root int32) {
		if failure != nil {
			return
		}
		if g.Degree(h, mask, dir) < 2 {
			failure = internal.Errorf(internal.FormatError,
				"links: root at handle %d dir %v is not a branching node", h, dir)
			return
		}
		for _, j := range s.Leaves(root) {
			if err := validateJunction(g, mask, h, dir, j); err != nil {
				failure = err
				return
			}
		}
	})
	return failure
}

// validateJunction replays one junction's base sequence from (h, dir),
// failing as soon as a base has no corresponding edge to step through.
func validateJunction(g *graph.Graph, mask graph.ColorMask, h graph.Handle, dir kmer.Direction, j Junction) error {
	cur, curDir := h, dir
	for i, base := range j.Bases {
		candidates := g.CandidateBases(cur, mask, curDir)
		if !containsBase(candidates, base) {
			return internal.Errorf(internal.FormatError,
				"links: junction path from handle %d dir %v has no edge for base %d at step %d", h, dir, base, i)
		}
		next, nextDir, ok := g.Step(cur, curDir, base)
		if !ok {
			return internal.Errorf(internal.FormatError,
				"links: junction path from handle %d dir %v stepped off the graph at base %d, step %d", h, dir, base, i)
		}
		cur, curDir = next, nextDir
	}
	return nil
}

func containsBase(candidates []byte, base byte) bool {
	for _, c := range candidates {
		if c == base {
			return true
		}
	}
	return false
}
