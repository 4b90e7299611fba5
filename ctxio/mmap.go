package ctxio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"log"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
)

// MappedGraph is a read-only, memory-mapped view of a .ctx file,
// mirroring fasta.MappedFasta's open-in-background-goroutine shape:
// the file is mmap'd once and its records are read directly out of
// the mapping rather than copied into a buffer, which keeps `load`
// cheap on graphs too large to comfortably read into a []byte twice.
type MappedGraph struct {
	wait   sync.WaitGroup
	Header Header
	data   []byte
	body   []byte // data between the header and the footer magic
	file   *os.File
}

// OpenMapped opens filename, memory-maps it read-only, and parses its
// header; the mapping stays live until Close. As with
// fasta.OpenElfasta, header/body validation happens in a background
// goroutine and Load/Close block until it completes.
func OpenMapped(filename string) (result *MappedGraph) {
	result = new(MappedGraph)
	result.wait.Add(1)
	go func() {
		defer result.wait.Done()
		file := internal.FileOpen(filename)
		stat, err := file.Stat()
		if err != nil {
			_ = file.Close()
			log.Panic(err)
		}
		data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
		if err != nil {
			_ = file.Close()
			log.Panic(err)
		}
		hdr, headerLen, err := parseHeaderBytes(data)
		if err != nil {
			_ = unix.Munmap(data)
			_ = file.Close()
			log.Panicf("%v is not a valid .ctx file: %v", filename, err)
		}
		if !bytes.Equal(data[len(data)-len(Magic):], Magic[:]) {
			_ = unix.Munmap(data)
			_ = file.Close()
			log.Panicf("%v is not a .ctx file: missing footer magic", filename)
		}
		result.Header = hdr
		result.data = data
		result.body = data[headerLen : len(data)-len(Magic)]
		result.file = file
	}()
	return result
}

// parseHeaderBytes re-reads the header via the buffered-reader parser
// so the wire format is decoded in exactly one place; it reports how
// many leading bytes of data the header consumed.
func parseHeaderBytes(data []byte) (Header, int, error) {
	r := bytes.NewReader(data)
	br := bufio.NewReader(r)
	hdr, err := readHeader(br)
	if err != nil {
		return hdr, 0, err
	}
	return hdr, len(data) - r.Len() - br.Buffered(), nil
}

// Close unmaps the file and closes it.
func (m *MappedGraph) Close() {
	m.wait.Wait()
	err := unix.Munmap(m.data)
	m.data = nil
	if nerr := m.file.Close(); err == nil {
		err = nerr
	}
	m.file = nil
	if err != nil {
		log.Panic(err)
	}
}

// Load replays every record in the mapping into target, applying
// filters exactly as Read does.
func (m *MappedGraph) Load(target *graph.Graph, filters []LoadFilter) error {
	m.wait.Wait()
	recordSize := int(m.Header.WordsPerKmer)*8 + int(m.Header.Colors)*4 + int(m.Header.Colors)
	if recordSize == 0 || len(m.body)%recordSize != 0 {
		return internal.Errorf(internal.FormatError, "mapped body length %d is not a multiple of record size %d", len(m.body), recordSize)
	}
	if int(m.Header.K) != target.Table.Codec().K() {
		return internal.Errorf(internal.InvalidInput,
			"graph file k=%d does not match target graph k=%d", m.Header.K, target.Table.Codec().K())
	}

	for _, f := range filters {
		if f.EmptyColours {
			target.Colors[f.TargetColor] = m.Header.ColorInfo[f.SourceColor]
		}
	}

	words := make([]uint64, m.Header.WordsPerKmer)
	for off := 0; off < len(m.body); off += recordSize {
		rec := m.body[off : off+recordSize]
		for i := range words {
			words[i] = binary.LittleEndian.Uint64(rec[i*8 : i*8+8])
		}
		covOff := int(m.Header.WordsPerKmer) * 8
		edgeOff := covOff + int(m.Header.Colors)*4
		edges := rec[edgeOff : edgeOff+int(m.Header.Colors)]

		km := kmer.FromWords(words, int(m.Header.K))
		h, _, err := target.Table.FindOrInsert(km)
		if err != nil {
			return err
		}
		for _, f := range filters {
			cov := binary.LittleEndian.Uint32(rec[covOff+f.SourceColor*4 : covOff+f.SourceColor*4+4])
			if f.EmptyColours {
				target.Nodes.SetCoverage(h, f.TargetColor, cov)
				target.Nodes.SetEdges(h, f.TargetColor, edges[f.SourceColor])
			} else {
				target.Nodes.AddCoverage(h, f.TargetColor, int(cov))
				target.Nodes.OrEdges(h, f.TargetColor, edges[f.SourceColor])
			}
		}
	}
	return nil
}
