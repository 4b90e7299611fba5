package links

import (
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultFalsePositiveRate is the target per-kmer false-positive rate
// used when none is supplied (spec.md §4.8).
const DefaultFalsePositiveRate = 0.001

// EstimateThreshold picks the smallest integer threshold t such that
// P(X >= t | X ~ Poisson(lambda)) <= p, where lambda is the median of
// the per-(H,dir) coverage estimates in lambdas -- spec.md §4.8's
// "implementer may use a median of per-kmer lambda estimates as the
// central value". The search is capped at max (0 means uncapped).
func EstimateThreshold(lambdas []float64, p float64, max int) int {
	if len(lambdas) == 0 {
		return 1
	}
	if p <= 0 {
		p = DefaultFalsePositiveRate
	}
	sorted := append([]float64(nil), lambdas...)
	sort.Float64s(sorted)
	lambda := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if lambda <= 0 {
		return 1
	}
	pois := distuv.Poisson{Lambda: lambda}
	for t := 1; max == 0 || t <= max; t++ {
		// P(X >= t) = 1 - P(X <= t-1) = 1 - CDF(t-1)
		tail := 1 - pois.CDF(float64(t-1))
		if tail <= p {
			return t
		}
	}
	if max > 0 {
		return max
	}
	return 1
}

// RootLambda estimates the effective per-read coverage at a trie root:
// the mean, over the leaves of the trie below root, of each leaf's
// coverage summed across colors, the per-kmer lambda estimate §4.8
// calls for.
func RootLambda(s *Store, root int32) float64 {
	leaves := s.Leaves(root)
	if len(leaves) == 0 {
		return 0
	}
	covs := make([]float64, len(leaves))
	for i, l := range leaves {
		var total uint32
		for _, c := range l.Coverage {
			total += c
		}
		covs[i] = float64(total)
	}
	return stat.Mean(covs, nil)
}
