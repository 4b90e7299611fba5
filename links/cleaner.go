package links

import (
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/kmer"
)

// CleanOptions configures Clean's threshold selection (spec.md §4.8).
type CleanOptions struct {
	// FalsePositiveRate is the target per-kmer false-positive rate; 0
	// selects DefaultFalsePositiveRate.
	FalsePositiveRate float64
	// MaxThreshold caps the selected threshold; 0 means uncapped.
	MaxThreshold int
}

// Clean derives a single global threshold from the median effective
// coverage across every (H, dir) trie currently in s, then prunes every
// trie's low-coverage subtrees against it (spec.md §4.7's "Cleaning").
// It returns the threshold it applied.
func Clean(s *Store, opts CleanOptions) int {
	var lambdas []float64
	s.Roots(func(_ graph.Handle, _ kmer.Direction, root int32) {
		if lambda := RootLambda(s, root); lambda > 0 {
			lambdas = append(lambdas, lambda)
		}
	})
	threshold := EstimateThreshold(lambdas, opts.FalsePositiveRate, opts.MaxThreshold)
	s.Roots(func(_ graph.Handle, _ kmer.Direction, root int32) {
		s.PruneBelow(root, uint32(threshold))
	})
	return threshold
}
