package ctxio

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
)

// LoadFilter projects one file color into one in-memory color
// (spec.md §4.6). When EmptyColours is true the target color is
// overwritten by the source record (the file's "zeroed before load"
// case); otherwise the source is merged into whatever the target
// already holds: edges are OR'd in, coverage is added with
// saturation.
type LoadFilter struct {
	SourceColor  int
	TargetColor  int
	EmptyColours bool
}

func readHeader(r io.Reader) (Header, error) {
	var hdr Header
	var magic [6]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return hdr, internal.Wrap(internal.IoError, err)
	}
	if magic != Magic {
		return hdr, internal.Errorf(internal.FormatError, "bad header magic %q", magic)
	}

	var version, k, wordsPerKmer, colors uint32
	fields := []interface{}{&version, &k, &wordsPerKmer, &colors, &hdr.MeanReadLength, &hdr.TotalSequence}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return hdr, internal.Wrap(internal.FormatError, err)
		}
	}
	if version != FormatVersion {
		return hdr, internal.Errorf(internal.FormatError, "unsupported graph file version %d", version)
	}
	hdr.K, hdr.WordsPerKmer, hdr.Colors = k, wordsPerKmer, colors

	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	runID, err := br.ReadString(0)
	if err != nil {
		return hdr, internal.Wrap(internal.FormatError, err)
	}
	hdr.RunID = runID[:len(runID)-1]

	hdr.ColorInfo = make([]graph.ColorInfo, colors)
	for c := range hdr.ColorInfo {
		name, err := br.ReadString(0)
		if err != nil {
			return hdr, internal.Wrap(internal.FormatError, err)
		}
		name = name[:len(name)-1] // drop the trailing NUL ReadString includes
		var scaled, cutoff, kmerCutoff uint32
		var cleanedTips, cleanedUnitigs uint8
		for _, f := range []interface{}{&scaled, &cleanedTips, &cleanedUnitigs, &cutoff, &kmerCutoff} {
			if err := binary.Read(br, binary.LittleEndian, f); err != nil {
				return hdr, internal.Wrap(internal.FormatError, err)
			}
		}
		hdr.ColorInfo[c] = graph.ColorInfo{
			SampleName:       name,
			ErrorRate:        float64(scaled) / errorRateScale,
			CleanedTips:      cleanedTips != 0,
			CleanedUnitigs:   cleanedUnitigs != 0,
			UnitigCutoff:     cutoff,
			UnitigKmerCutoff: kmerCutoff,
		}
	}
	return hdr, nil
}

// PeekHeader opens filename and reads just its header, for the first
// pass a caller needs to size a target Graph (k, word width, color
// count) before allocating it and making the second, real Read pass.
func PeekHeader(filename string) (Header, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Header{}, internal.Wrap(internal.IoError, err)
	}
	defer f.Close()
	return readHeader(bufio.NewReader(f))
}

// Read parses a complete .ctx stream from r, applying filters to
// project each file color into target's colors, and returns the
// file's header. target must already be allocated with enough
// capacity and the same k as the file (callers typically size it from
// Header.K via a first pass, or from a known upper bound).
func Read(r io.Reader, target *graph.Graph, filters []LoadFilter) (Header, error) {
	br := bufio.NewReader(r)
	hdr, err := readHeader(br)
	if err != nil {
		return hdr, err
	}
	if int(hdr.K) != target.Table.Codec().K() {
		return hdr, internal.Errorf(internal.InvalidInput,
			"graph file k=%d does not match target graph k=%d", hdr.K, target.Table.Codec().K())
	}

	recordSize := int(hdr.WordsPerKmer)*8 + int(hdr.Colors)*4 + int(hdr.Colors)
	body, err := io.ReadAll(br)
	if err != nil {
		return hdr, internal.Wrap(internal.IoError, err)
	}
	if len(body) < len(Magic) {
		return hdr, internal.Errorf(internal.FormatError, "truncated file: missing footer")
	}
	footer := body[len(body)-len(Magic):]
	for i, b := range Magic {
		if footer[i] != b {
			return hdr, internal.Errorf(internal.FormatError, "bad footer magic %q", footer)
		}
	}
	body = body[:len(body)-len(Magic)]
	if recordSize == 0 || len(body)%recordSize != 0 {
		return hdr, internal.Errorf(internal.FormatError, "body length %d is not a multiple of record size %d", len(body), recordSize)
	}

	for _, f := range filters {
		if f.EmptyColours {
			target.Colors[f.TargetColor] = hdr.ColorInfo[f.SourceColor]
		}
	}

	words := make([]uint64, hdr.WordsPerKmer)
	cov := make([]uint32, hdr.Colors)
	for off := 0; off < len(body); off += recordSize {
		rec := body[off : off+recordSize]
		for i := range words {
			words[i] = binary.LittleEndian.Uint64(rec[i*8 : i*8+8])
		}
		covOff := int(hdr.WordsPerKmer) * 8
		for i := range cov {
			cov[i] = binary.LittleEndian.Uint32(rec[covOff+i*4 : covOff+i*4+4])
		}
		edgeOff := covOff + int(hdr.Colors)*4
		edges := rec[edgeOff : edgeOff+int(hdr.Colors)]

		km := kmer.FromWords(words, int(hdr.K))
		h, _, err := target.Table.FindOrInsert(km)
		if err != nil {
			return hdr, err
		}
		for _, f := range filters {
			if f.EmptyColours {
				target.Nodes.SetCoverage(h, f.TargetColor, cov[f.SourceColor])
				target.Nodes.SetEdges(h, f.TargetColor, edges[f.SourceColor])
			} else {
				target.Nodes.AddCoverage(h, f.TargetColor, int(cov[f.SourceColor]))
				target.Nodes.OrEdges(h, f.TargetColor, edges[f.SourceColor])
			}
		}
	}
	return hdr, nil
}

// IdentityFilters builds the []LoadFilter that copies every file color
// into the same-numbered in-memory color without merging, the common
// case of loading a freshly-allocated graph.
func IdentityFilters(numColors int) []LoadFilter {
	filters := make([]LoadFilter, numColors)
	for c := range filters {
		filters[c] = LoadFilter{SourceColor: c, TargetColor: c, EmptyColours: true}
	}
	return filters
}
