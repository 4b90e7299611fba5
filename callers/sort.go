package callers

import (
	"sort"

	psort "github.com/exascience/pargo/sort"
)

// The graph has no genomic coordinate system of its own -- k-mers, not
// positions -- so the anchor k-mer's lexicographic order stands in
// for "position" as the sort key spec.md §5 requires a downstream
// pass to establish before variant calls are written out ("variant
// callers that must emit sorted output rely on an explicit sort pass
// downstream").

// bubbleSorter implements psort.StableSorter for []Bubble, the same
// shape intervals.stableIntervalSorter implements for []Interval in
// the teacher codebase.
type bubbleSorter []Bubble

func bubbleLess(a, b Bubble) bool {
	if a.Anchor != b.Anchor {
		return a.Anchor < b.Anchor
	}
	if a.Allele[0] != b.Allele[0] {
		return a.Allele[0] < b.Allele[0]
	}
	return a.Allele[1] < b.Allele[1]
}

func (s bubbleSorter) SequentialSort(i, j int) {
	sub := s[i:j]
	sort.SliceStable(sub, func(a, b int) bool { return bubbleLess(sub[a], sub[b]) })
}

func (s bubbleSorter) NewTemp() psort.StableSorter {
	return make(bubbleSorter, len(s))
}

func (s bubbleSorter) Len() int { return len(s) }

func (s bubbleSorter) Less(i, j int) bool { return bubbleLess(s[i], s[j]) }

func (s bubbleSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(bubbleSorter)
	return func(i, j, length int) {
		copy(dst[i:i+length], src[j:j+length])
	}
}

// SortBubbles sorts bubbles in place by anchor k-mer, then by allele
// sequence.
func SortBubbles(bubbles []Bubble) {
	psort.StableSort(bubbleSorter(bubbles))
}

// breakpointSorter implements psort.StableSorter for []Breakpoint,
// the same interface bubbleSorter implements above.
type breakpointSorter []Breakpoint

func breakpointLess(a, b Breakpoint) bool {
	if a.Anchor5 != b.Anchor5 {
		return a.Anchor5 < b.Anchor5
	}
	if a.Anchor3 != b.Anchor3 {
		return a.Anchor3 < b.Anchor3
	}
	return a.Novel < b.Novel
}

func (s breakpointSorter) SequentialSort(i, j int) {
	sub := s[i:j]
	sort.SliceStable(sub, func(a, b int) bool { return breakpointLess(sub[a], sub[b]) })
}

func (s breakpointSorter) NewTemp() psort.StableSorter {
	return make(breakpointSorter, len(s))
}

func (s breakpointSorter) Len() int { return len(s) }

func (s breakpointSorter) Less(i, j int) bool { return breakpointLess(s[i], s[j]) }

func (s breakpointSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(breakpointSorter)
	return func(i, j, length int) {
		copy(dst[i:i+length], src[j:j+length])
	}
}

// SortBreakpoints sorts breakpoints in place by 5' anchor k-mer, then
// by 3' anchor k-mer, then by novel sequence.
func SortBreakpoints(breakpoints []Breakpoint) {
	psort.StableSort(breakpointSorter(breakpoints))
}
