package vcfio

import (
	"bufio"
	"io"
)

const maxLineSize = 16 * 1024 * 1024

// Reader streams a sorted VCF's data records in file order, after
// collecting every `#`-prefixed header line up front.
type Reader struct {
	scanner *bufio.Scanner
	header  []string
	pending string
	hasMore bool
}

// NewReader reads and stores r's header block (every leading line
// starting with '#'), leaving the scanner positioned to stream data
// records one at a time via Next.
func NewReader(r io.Reader) (*Reader, error) {
	rd := &Reader{scanner: bufio.NewScanner(r)}
	rd.scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for rd.scanner.Scan() {
		line := rd.scanner.Text()
		if len(line) > 0 && line[0] == '#' {
			rd.header = append(rd.header, line)
			continue
		}
		rd.pending = line
		rd.hasMore = true
		break
	}
	if err := rd.scanner.Err(); err != nil {
		return nil, err
	}
	return rd, nil
}

// Header returns the VCF's header lines, verbatim, in file order.
func (r *Reader) Header() []string { return r.header }

// Next returns the next data record, or ok=false once the stream is
// exhausted.
func (r *Reader) Next() (rec Record, ok bool, err error) {
	if !r.hasMore {
		return Record{}, false, nil
	}
	line := r.pending
	r.hasMore = r.scanner.Scan()
	if r.hasMore {
		r.pending = r.scanner.Text()
	} else if err := r.scanner.Err(); err != nil {
		return Record{}, false, err
	}
	rec, err = parseRecord(line)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Writer writes a VCF header block followed by data records, in the
// order WriteRecord is called.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w for buffered line-oriented VCF output.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes every header line verbatim, one per line.
func (w *Writer) WriteHeader(lines []string) error {
	for _, line := range lines {
		if _, err := w.w.WriteString(line); err != nil {
			return err
		}
		if err := w.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// WriteRecord writes one data record.
func (w *Writer) WriteRecord(r Record) error {
	if _, err := w.w.WriteString(r.line()); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush flushes buffered output to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
