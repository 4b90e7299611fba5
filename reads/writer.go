package reads

import (
	"fmt"
	"io"
	"sync"

	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/seqio"
)

// Writer writes kept Pairs to one (single-end) or two (paired-end)
// output streams, under one mutex per Writer -- ctx_reads.c's
// per-input-group `outlock` around its gzout/gzout1/gzout2 writers.
// Filter's own write stage already runs single-threaded (it's a
// pipeline.StrictOrd node), so the mutex only matters if a caller
// shares one Writer across more than one Filter call; it's kept so
// that remains safe rather than an accident of the current pipeline
// shape.
type Writer struct {
	mu       sync.Mutex
	se       io.Writer
	r1, r2   io.Writer
	fastq    bool
}

// NewSingleEndWriter wraps w for `-1/--seq` single-end output.
func NewSingleEndWriter(w io.Writer, fastq bool) *Writer {
	return &Writer{se: w, fastq: fastq}
}

// NewPairedEndWriter wraps w1, w2 for `-2/--seq2` and `-i/--seqi`
// paired-end output.
func NewPairedEndWriter(w1, w2 io.Writer, fastq bool) *Writer {
	return &Writer{r1: w1, r2: w2, fastq: fastq}
}

func (w *Writer) format(rec *seqio.Record) []byte {
	if w.fastq {
		return formatFastq(rec)
	}
	return formatFasta(rec)
}

// Write writes one kept Pair: both mates for a pair (mate 1 to the r1
// stream, mate 2 to the r2 stream), or the single read to the se
// stream.
func (w *Writer) Write(p Pair) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p.R2 != nil {
		if w.r1 == nil || w.r2 == nil {
			return fmt.Errorf("reads: paired read %q but writer has no paired-end outputs configured", p.R1.Name)
		}
		buf1 := w.format(p.R1)
		_, err := w.r1.Write(buf1)
		internal.ReleaseByteBuffer(buf1)
		if err != nil {
			return err
		}
		buf2 := w.format(p.R2)
		_, err = w.r2.Write(buf2)
		internal.ReleaseByteBuffer(buf2)
		return err
	}

	if w.se == nil {
		return fmt.Errorf("reads: single-end read %q but writer has no single-end output configured", p.R1.Name)
	}
	buf := w.format(p.R1)
	_, err := w.se.Write(buf)
	internal.ReleaseByteBuffer(buf)
	return err
}
