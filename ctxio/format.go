// Package ctxio implements the binary graph file format (spec.md
// §4.6, §6): header, flat record body, and magic-repeated footer, plus
// a color-projecting filter applied while loading and a
// memory-mapped, read-only loader for large graphs.
package ctxio

import "github.com/exascience/cortex/graph"

// Magic is the 6-byte sequence every .ctx file starts and ends with.
var Magic = [6]byte{'C', 'O', 'R', 'T', 'E', 'X'}

// FormatVersion is the version this package reads and writes.
const FormatVersion = uint32(1)

// Header mirrors spec.md §6's on-disk header: magic and version are
// implicit in Write/Read, the remaining fields are carried here.
type Header struct {
	K               uint32
	WordsPerKmer    uint32
	Colors          uint32
	MeanReadLength  uint32
	TotalSequence   uint64
	RunID           string
	ColorInfo       []graph.ColorInfo
}

// errorRateScale is the fixed-point scale spec.md §6 specifies for the
// per-color error_rate field (uint32 error_rate×1e16).
const errorRateScale = 1e16
