package ctxio

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/internal"
)

// Write emits g as a complete .ctx file to w: header, one record per
// filled, non-deleted bucket in bucket order (spec.md §4.6's "writer
// emits records for all non-empty buckets in bucket order"), then the
// magic footer.
func Write(w io.Writer, g *graph.Graph, meanReadLength uint32, totalSequence uint64) error {
	bw := bufio.NewWriter(w)

	if err := writeHeader(bw, g, meanReadLength, totalSequence); err != nil {
		return internal.Wrap(internal.IoError, err)
	}

	codec := g.Table.Codec()
	wordsPerKmer := codec.NWords()
	numColors := g.NumColors()
	covBuf := make([]uint32, numColors)
	edgeBuf := make([]byte, numColors)

	var writeErr error
	g.Table.Each(func(h graph.Handle) {
		if writeErr != nil || g.Nodes.IsDeleted(h) {
			return
		}
		km := g.Table.KeyAt(h)
		for _, word := range km.Words() {
			if err := binary.Write(bw, binary.LittleEndian, word); err != nil {
				writeErr = err
				return
			}
		}
		for c := 0; c < numColors; c++ {
			covBuf[c] = uint32(g.Nodes.Coverage(h, c))
		}
		for _, v := range covBuf {
			if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
				writeErr = err
				return
			}
		}
		for c := 0; c < numColors; c++ {
			edgeBuf[c] = g.Nodes.Edges(h, c)
		}
		if _, err := bw.Write(edgeBuf); err != nil {
			writeErr = err
			return
		}
	})
	if writeErr != nil {
		return internal.Wrap(internal.IoError, writeErr)
	}
	_ = wordsPerKmer

	if _, err := bw.Write(Magic[:]); err != nil {
		return internal.Wrap(internal.IoError, err)
	}
	if err := bw.Flush(); err != nil {
		return internal.Wrap(internal.IoError, err)
	}
	return nil
}

func writeHeader(w io.Writer, g *graph.Graph, meanReadLength uint32, totalSequence uint64) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	codec := g.Table.Codec()
	fields := []interface{}{
		FormatVersion,
		uint32(codec.K()),
		uint32(codec.NWords()),
		uint32(g.NumColors()),
		meanReadLength,
		totalSequence,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, g.RunID); err != nil {
		return err
	}
	if _, err := w.Write([]byte{0}); err != nil {
		return err
	}
	for _, ci := range g.Colors {
		if _, err := io.WriteString(w, ci.SampleName); err != nil {
			return err
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
		scaled := uint32(ci.ErrorRate * errorRateScale)
		if err := binary.Write(w, binary.LittleEndian, scaled); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, boolByte(ci.CleanedTips)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, boolByte(ci.CleanedUnitigs)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, ci.UnitigCutoff); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, ci.UnitigKmerCutoff); err != nil {
			return err
		}
	}
	return nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
