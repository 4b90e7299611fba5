package graph

import "github.com/willf/bitset"

// maxFastColors is the number of colors a ColorMask can represent
// with a single native word before it falls back to a general
// bitset.BitSet, per the design note that up to 64 colors fit a
// single word and a fixed-length bitset covers the rest.
const maxFastColors = 64

// ColorMask is a set of color indices. Most graphs are built with a
// handful of colors, so ColorMask keeps a uint64 fast path and only
// allocates a bitset.BitSet once a color index at or above 64 is
// touched.
type ColorMask struct {
	fast uint64
	bits *bitset.BitSet
}

// NewColorMask returns an empty ColorMask.
func NewColorMask() ColorMask {
	return ColorMask{}
}

// ColorMaskOf returns a ColorMask containing exactly the given
// colors.
func ColorMaskOf(colors ...int) ColorMask {
	var m ColorMask
	for _, c := range colors {
		m = m.Set(c)
	}
	return m
}

// Set returns a copy of m with color c added.
func (m ColorMask) Set(c int) ColorMask {
	if c < maxFastColors {
		m.fast |= 1 << uint(c)
		return m
	}
	if m.bits == nil {
		m.bits = bitset.New(uint(c) + 1)
	}
	m.bits.Set(uint(c))
	return m
}

// Has reports whether c is a member of m.
func (m ColorMask) Has(c int) bool {
	if c < maxFastColors {
		return m.fast&(1<<uint(c)) != 0
	}
	return m.bits != nil && m.bits.Test(uint(c))
}

// Union returns the union of m and other.
func (m ColorMask) Union(other ColorMask) ColorMask {
	out := ColorMask{fast: m.fast | other.fast}
	switch {
	case m.bits == nil:
		out.bits = other.bits
	case other.bits == nil:
		out.bits = m.bits
	default:
		out.bits = m.bits.Union(other.bits)
	}
	return out
}

// Each calls f for every color present in m, across the full color
// count range [0, numColors).
func (m ColorMask) Each(numColors int, f func(c int)) {
	for c := 0; c < numColors && c < maxFastColors; c++ {
		if m.fast&(1<<uint(c)) != 0 {
			f(c)
		}
	}
	if m.bits == nil {
		return
	}
	for c := maxFastColors; c < numColors; c++ {
		if m.bits.Test(uint(c)) {
			f(c)
		}
	}
}

// Empty reports whether m has no colors set.
func (m ColorMask) Empty() bool {
	return m.fast == 0 && (m.bits == nil || m.bits.None())
}

// AllColors returns a ColorMask selecting every color in [0,
// numColors).
func AllColors(numColors int) ColorMask {
	var m ColorMask
	for c := 0; c < numColors; c++ {
		m = m.Set(c)
	}
	return m
}
