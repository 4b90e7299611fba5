package graph

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultTipLenThreshold returns spec.md §4.5's default tip-length
// threshold, 2*k, for a codec of the given k-mer length.
func DefaultTipLenThreshold(k int) int {
	return 2 * k
}

// RemoveTips implements the cleaner's first phase (spec.md §4.5): a
// tip is a unitig, below tipLenThreshold nodes long, with at least one
// end that has no neighbors at all in the outward direction. Tips are
// removed by severing the edge(s) into them from the rest of the graph
// and soft-deleting their nodes. It returns the number of unitigs
// removed.
func RemoveTips(g *Graph, mask ColorMask, tipLenThreshold int) int {
	visited := make([]bool, g.Table.Capacity())
	removed := 0
	g.Table.Each(func(h Handle) {
		if visited[h] || g.Nodes.IsDeleted(h) {
			return
		}
		path := unitigOf(g, mask, h)
		for _, x := range path {
			visited[x] = true
		}
		if len(path) > tipLenThreshold {
			return
		}
		head, tail := path[0], path[len(path)-1]
		headDeadEnd := g.Nodes.Degree(head, g.NumColors(), mask, predDir) == 0
		tailDeadEnd := g.Nodes.Degree(tail, g.NumColors(), mask, succDir) == 0
		if !headDeadEnd && !tailDeadEnd {
			// Both ends branch or connect elsewhere: not a tip, leave
			// it for the coverage-pruning phase to judge.
			return
		}
		removeUnitig(g, mask, path)
		removed++
	})
	return removed
}

func removeUnitig(g *Graph, mask ColorMask, path []Handle) {
	severBoundary(g, mask, path[0], predDir)
	severBoundary(g, mask, path[len(path)-1], succDir)
	for _, h := range path {
		for c := 0; c < g.NumColors(); c++ {
			if mask.Has(c) {
				g.Nodes.ClearEdges(h, c)
			}
		}
		g.Nodes.MarkDeleted(h)
	}
}

// UnitigCoverage is one row of the cleaner's coverage-before histogram
// and pruning pass: a single maximal non-branching walk together with
// its average per-node coverage, summed across mask's colors.
type UnitigCoverage struct {
	Nodes   []Handle
	Average float64
}

// unitigCoverages enumerates every unitig in the graph once (skipping
// already-deleted nodes) and computes each one's average coverage,
// the sum of the mask-selected colors' coverage at each node divided
// by the unitig's node count (spec.md §4.5).
func unitigCoverages(g *Graph, mask ColorMask) []UnitigCoverage {
	visited := make([]bool, g.Table.Capacity())
	var out []UnitigCoverage
	g.Table.Each(func(h Handle) {
		if visited[h] || g.Nodes.IsDeleted(h) {
			return
		}
		path := unitigOf(g, mask, h)
		for _, x := range path {
			visited[x] = true
		}
		var total int
		for _, x := range path {
			for c := 0; c < g.NumColors(); c++ {
				if mask.Has(c) {
					total += int(g.Nodes.Coverage(x, c))
				}
			}
		}
		out = append(out, UnitigCoverage{
			Nodes:   path,
			Average: float64(total) / float64(len(path)),
		})
	})
	return out
}

// CoverageHistogram buckets a set of unitig coverages by
// round(average), one count per integer coverage value from 0 up to
// the highest observed value.
func CoverageHistogram(unitigs []UnitigCoverage) []int {
	max := 0
	for _, u := range unitigs {
		if bin := int(math.Round(u.Average)); bin > max {
			max = bin
		}
	}
	hist := make([]int, max+1)
	for _, u := range unitigs {
		hist[int(math.Round(u.Average))]++
	}
	return hist
}

// DeriveCutoff implements spec.md §4.5's automatic cutoff selection
// when the user does not supply one: fit the coverage histogram to a
// two-component model (an error tail at low coverage, a true-coverage
// peak above it), and pick the lower of (a) the first local minimum
// above the error tail and (b) the coverage value below which 99% of
// the error tail's mass falls. Ties go to the lower cutoff. If the
// histogram has no discernible peak -- no local minimum above coverage
// 0, or a degenerate (zero-variance) distribution --
// default to cutoff 1, dropping only singleton unitigs.
func DeriveCutoff(hist []int) int {
	total := 0
	for _, c := range hist {
		total += c
	}
	if total == 0 {
		return 1
	}

	xs := make([]float64, len(hist))
	ws := make([]float64, len(hist))
	for i, c := range hist {
		xs[i] = float64(i)
		ws[i] = float64(c)
	}
	sd := stat.StdDev(xs, ws)
	if sd == 0 {
		return 1
	}

	searchFrom := 1
	minIdx := -1
	for i := searchFrom; i < len(hist)-1; i++ {
		if hist[i] < hist[i-1] && hist[i] <= hist[i+1] {
			minIdx = i
			break
		}
	}
	if minIdx < 0 {
		return 1
	}

	errTotal := 0
	for i := 0; i < minIdx; i++ {
		errTotal += hist[i]
	}
	pctCutoff := minIdx
	cum := 0
	for i := 0; i < minIdx; i++ {
		cum += hist[i]
		if float64(cum) >= 0.99*float64(errTotal) {
			pctCutoff = i + 1
			break
		}
	}

	cutoff := minIdx
	if pctCutoff < cutoff {
		cutoff = pctCutoff
	}
	if cutoff < 1 {
		cutoff = 1
	}
	return cutoff
}

// PruneLowCoverageUnitigs implements the cleaner's second phase: drop
// every unitig whose average coverage is strictly below cutoff,
// severing it from the rest of the graph and soft-deleting its nodes.
// It returns the pre-pruning histogram (for the diagnostics CSV) and
// the number of unitigs dropped.
func PruneLowCoverageUnitigs(g *Graph, mask ColorMask, cutoff int) (hist []int, removed int) {
	unitigs := unitigCoverages(g, mask)
	hist = CoverageHistogram(unitigs)
	for _, u := range unitigs {
		if u.Average < float64(cutoff) {
			removeUnitig(g, mask, u.Nodes)
			removed++
		}
	}
	return hist, removed
}
