package graph

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCoverageHistogram writes hist as the two-column
// "coverage,count" CSV the cleaner emits before pruning (spec.md
// §4.5's diagnostic "coverage-before histogram"), one row per coverage
// bin in hist, skipping bins with a zero count.
func WriteCoverageHistogram(w io.Writer, hist []int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"coverage", "count"}); err != nil {
		return err
	}
	for coverage, count := range hist {
		if count == 0 {
			continue
		}
		row := []string{strconv.Itoa(coverage), strconv.Itoa(count)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
