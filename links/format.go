package links

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
)

// dirLetter/dirFromLetter translate kmer.Direction to and from the
// single-character F/R code spec.md §6's per-kmer block lines use.
func dirLetter(dir kmer.Direction) byte {
	if dir == kmer.Forward {
		return 'F'
	}
	return 'R'
}

func dirFromLetter(b byte) (kmer.Direction, error) {
	switch b {
	case 'F':
		return kmer.Forward, nil
	case 'R':
		return kmer.Reverse, nil
	default:
		return 0, internal.Errorf(internal.FormatError, "unknown link direction letter %q", b)
	}
}

// baseLetters/baseFromLetter translate the 2-bit junction bases stored
// in a trie path to and from the ACGT bytes the junction_string field
// uses.
var baseLetters = [4]byte{'A', 'C', 'G', 'T'}

func baseFromLetter(b byte) (byte, error) {
	switch b {
	case 'A':
		return 0, nil
	case 'C':
		return 1, nil
	case 'G':
		return 2, nil
	case 'T':
		return 3, nil
	default:
		return 0, internal.Errorf(internal.FormatError, "unknown junction base %q", b)
	}
}

// Write emits store's link tries as a gzip-compressed text stream in
// spec.md §6's .ctp.gz format: a key:value header block, then one
// per-kmer block per (H, dir) root, each a "<kmer> <num_paths>" line
// followed by one "<F|R> <num_juncs> <counts_per_color> <junction>"
// line per leaf, written in trie preorder (Leaves already walks
// depth-first, base-ascending).
func Write(w io.Writer, s *Store, g *graph.Graph, k, numColors int) error {
	gz := gzip.NewWriter(w)
	bw := bufio.NewWriter(gz)

	type block struct {
		kmer  string
		dir   kmer.Direction
		leaves []Junction
	}
	var blocks []block
	numPaths := 0
	pathBytes := 0
	s.Roots(func(h graph.Handle, dir kmer.Direction, root int32) {
		leaves := s.Leaves(root)
		if len(leaves) == 0 {
			return
		}
		numPaths += len(leaves)
		for _, l := range leaves {
			pathBytes += len(l.Bases)
		}
		blocks = append(blocks, block{kmer: g.Table.KeyAt(h).String(), dir: dir, leaves: leaves})
	})

	fmt.Fprintf(bw, "run_id:%s\n", g.RunID)
	fmt.Fprintf(bw, "kmer_size:%d\n", k)
	fmt.Fprintf(bw, "num_colors:%d\n", numColors)
	fmt.Fprintf(bw, "num_kmers_with_paths:%d\n", len(blocks))
	fmt.Fprintf(bw, "num_paths:%d\n", numPaths)
	fmt.Fprintf(bw, "path_bytes:%d\n", pathBytes)

	for _, b := range blocks {
		fmt.Fprintf(bw, "%s %d\n", b.kmer, len(b.leaves))
		for _, l := range b.leaves {
			counts := make([]string, len(l.Coverage))
			for i, c := range l.Coverage {
				counts[i] = strconv.FormatUint(uint64(c), 10)
			}
			junction := make([]byte, len(l.Bases))
			for i, base := range l.Bases {
				junction[i] = baseLetters[base]
			}
			fmt.Fprintf(bw, "%c %d %s %s\n", dirLetter(b.dir), len(l.Bases), strings.Join(counts, ","), junction)
		}
	}

	if err := bw.Flush(); err != nil {
		return internal.Wrap(internal.IoError, err)
	}
	if err := gz.Close(); err != nil {
		return internal.Wrap(internal.IoError, err)
	}
	return nil
}

// FileHeader carries the key:value fields of a .ctp.gz header block.
type FileHeader struct {
	KmerSize          int
	NumColors         int
	NumKmersWithPaths int
	NumPaths          int
	PathBytes         int
	RunID             string
}

// Read parses a .ctp.gz stream written by Write, threading every
// stored junction into store via a fresh root for each (kmer, dir)
// block -- reusing Store's own trie, exactly as if each junction had
// just been built by ThreadRead, so a loaded store supports PruneBelow
// and Leaves identically to a freshly-built one.
func Read(r io.Reader, store *Store, codec *kmer.Codec, table *graph.HashTable) (FileHeader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return FileHeader{}, internal.Wrap(internal.FormatError, err)
	}
	defer gz.Close()
	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var hdr FileHeader
	fields := map[string]*int{
		"kmer_size":            &hdr.KmerSize,
		"num_colors":           &hdr.NumColors,
		"num_kmers_with_paths": &hdr.NumKmersWithPaths,
		"num_paths":            &hdr.NumPaths,
		"path_bytes":           &hdr.PathBytes,
	}
	for len(fields) > 0 {
		if !sc.Scan() {
			return hdr, internal.Errorf(internal.FormatError, "truncated .ctp.gz header")
		}
		line := sc.Text()
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return hdr, internal.Errorf(internal.FormatError, "malformed header line %q", line)
		}
		if k == "run_id" {
			hdr.RunID = v
			continue
		}
		dst, known := fields[k]
		if !known {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return hdr, internal.Errorf(internal.FormatError, "bad value for %s: %v", k, err)
		}
		*dst = n
		delete(fields, k)
	}

	for sc.Scan() {
		headLine := sc.Text()
		if headLine == "" {
			continue
		}
		parts := strings.Fields(headLine)
		if len(parts) != 2 {
			return hdr, internal.Errorf(internal.FormatError, "malformed per-kmer header %q", headLine)
		}
		km, err := codec.Pack(parts[0])
		if err != nil {
			return hdr, internal.Errorf(internal.FormatError, "bad kmer %q: %v", parts[0], err)
		}
		numPathsHere, err := strconv.Atoi(parts[1])
		if err != nil {
			return hdr, internal.Errorf(internal.FormatError, "bad path count in %q: %v", headLine, err)
		}
		h := table.Find(km)
		if h == graph.NotFound {
			return hdr, internal.Errorf(internal.FormatError, "link file references kmer %v not present in graph", km)
		}

		for i := 0; i < numPathsHere; i++ {
			if !sc.Scan() {
				return hdr, internal.Errorf(internal.FormatError, "truncated path list for %q", parts[0])
			}
			if err := readPathLine(store, h, sc.Text()); err != nil {
				return hdr, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return hdr, internal.Wrap(internal.IoError, err)
	}
	return hdr, nil
}

func readPathLine(store *Store, h graph.Handle, line string) error {
	parts := strings.Fields(line)
	if len(parts) != 4 {
		return internal.Errorf(internal.FormatError, "malformed path line %q", line)
	}
	dir, err := dirFromLetter(parts[0][0])
	if err != nil {
		return err
	}
	numJuncs, err := strconv.Atoi(parts[1])
	if err != nil {
		return internal.Errorf(internal.FormatError, "bad junction count in %q: %v", line, err)
	}
	countStrs := strings.Split(parts[2], ",")
	counts := make([]uint32, len(countStrs))
	for i, cs := range countStrs {
		c, err := strconv.ParseUint(cs, 10, 32)
		if err != nil {
			return internal.Errorf(internal.FormatError, "bad count %q in %q: %v", cs, line, err)
		}
		counts[i] = uint32(c)
	}
	junction := parts[3]
	if len(junction) != numJuncs {
		return internal.Errorf(internal.FormatError, "junction string length %d does not match declared length %d in %q", len(junction), numJuncs, line)
	}

	root := store.root(h, dir)
	node := root
	for i := 0; i < len(junction); i++ {
		base, err := baseFromLetter(junction[i])
		if err != nil {
			return err
		}
		node = store.advanceCounts(node, base, counts)
	}
	return nil
}
