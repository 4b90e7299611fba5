package seqio

import (
	"compress/gzip"
	"io"
	"os"
	"strings"
)

// Open opens filename for streaming sequence decoding, transparently
// gunzipping if the name ends in .gz -- the same convention
// links.Write/links.Read use for .ctp.gz link files (spec.md §6).
func Open(filename string) (io.ReadCloser, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(filename, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &gzipFile{gz: gz, f: f}, nil
}

type gzipFile struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipFile) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipFile) Close() error {
	gerr := g.gz.Close()
	ferr := g.f.Close()
	if gerr != nil {
		return gerr
	}
	return ferr
}

// DecodeFile opens filename and decodes it as FASTA or FASTQ,
// guessing the format from the extension (after stripping a trailing
// .gz): .fq/.fastq is read as FASTQ, anything else as FASTA.
func DecodeFile(filename string) ([]Record, error) {
	r, err := Open(filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	name := strings.TrimSuffix(filename, ".gz")
	if strings.HasSuffix(name, ".fq") || strings.HasSuffix(name, ".fastq") {
		return ReadFastq(r)
	}
	return ReadFasta(r)
}
