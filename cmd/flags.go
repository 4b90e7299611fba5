package cmd

import (
	"fmt"
	"strconv"
	"strings"
)

// colorFile is one `-p col:file` occurrence: attach the link file at
// File for graph color Color, spec.md §6's "-p col:file attach links
// for color" common flag.
type colorFile struct {
	Color int
	File  string
}

// colorFileList implements flag.Value so `-p` can be repeated, once
// per color, the same repeatable-flag idiom the stdlib flag package
// itself documents (flag.Value.Set is called once per occurrence).
type colorFileList []colorFile

func (l *colorFileList) String() string {
	parts := make([]string, len(*l))
	for i, cf := range *l {
		parts[i] = fmt.Sprintf("%d:%s", cf.Color, cf.File)
	}
	return strings.Join(parts, ",")
}

func (l *colorFileList) Set(s string) error {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return fmt.Errorf("expected col:file, got %q", s)
	}
	color, err := strconv.Atoi(s[:idx])
	if err != nil {
		return fmt.Errorf("invalid color in %q: %w", s, err)
	}
	*l = append(*l, colorFile{Color: color, File: s[idx+1:]})
	return nil
}

// graphInput is one `-g file:srccol:targetcol` occurrence: load
// file's srccol into the output graph's targetcol, merging with
// whatever targetcol already holds rather than overwriting it (the
// "project colors into color 0" operation spec.md §8 scenario 3
// exercises -- build's merge support, since spec.md names no separate
// merge command).
type graphInput struct {
	File      string
	SrcColor  int
	DstColor  int
}

type graphInputList []graphInput

func (l *graphInputList) String() string {
	parts := make([]string, len(*l))
	for i, g := range *l {
		parts[i] = fmt.Sprintf("%s:%d:%d", g.File, g.SrcColor, g.DstColor)
	}
	return strings.Join(parts, ",")
}

func (l *graphInputList) Set(s string) error {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return fmt.Errorf("expected file:srccol:targetcol, got %q", s)
	}
	srcColor, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("invalid srccol in %q: %w", s, err)
	}
	dstColor, err := strconv.Atoi(parts[2])
	if err != nil {
		return fmt.Errorf("invalid targetcol in %q: %w", s, err)
	}
	*l = append(*l, graphInput{File: parts[0], SrcColor: srcColor, DstColor: dstColor})
	return nil
}

// sample is one `-s name:file1,file2,...` occurrence: build's
// per-color input group, mirroring mccortex's repeatable `--sample`
// build flag -- one sample name, one color, one or more read files
// loaded into it.
type sample struct {
	Name  string
	Files []string
}

type sampleList []sample

func (l *sampleList) String() string {
	parts := make([]string, len(*l))
	for i, s := range *l {
		parts[i] = s.Name + ":" + strings.Join(s.Files, ",")
	}
	return strings.Join(parts, " ")
}

func (l *sampleList) Set(s string) error {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return fmt.Errorf("expected name:file1,file2,..., got %q", s)
	}
	files := strings.Split(s[idx+1:], ",")
	*l = append(*l, sample{Name: s[:idx], Files: files})
	return nil
}

// intList implements flag.Value for a repeatable `-c color` flag (the
// set of colors an operation should consider), used by the `-c` flag
// of clean, bubbles, breakpoints and vcfcov.
type intList []int

func (l *intList) String() string {
	parts := make([]string, len(*l))
	for i, c := range *l {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", s, err)
	}
	*l = append(*l, n)
	return nil
}

// stringList implements flag.Value for a repeatable plain-path flag
// (thread's `-p in.ctp`, reads' input file list), the simplest of the
// repeatable-flag idioms the others specialize.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(s string) error {
	*l = append(*l, s)
	return nil
}
