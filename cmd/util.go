// elPrep: a high-performance tool for preparing SAM/BAM files.
// Copyright (c) 2017, 2018 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

// Package cmd implements the CLI commands named in spec.md §6: build,
// clean, thread, links, bubbles, breakpoints, calls2vcf, vcfcov,
// reads. This file carries the ambient scaffolding every command
// shares, adapted from the teacher's own cmd/util.go (parseFlags,
// checkExist/checkCreate, setLogOutput, timedRun, ProgramMessage):
// unlike elprep's fixed "N positional args before flags" convention
// (parseFlags(flags, requiredArgs, help) slicing os.Args), cortex's
// commands take a variable number of positional graph/read files
// after their flags (the `reads [options] <in.ctx> [in2.ctx ...]`
// shape spec.md §6 and ctx_reads.c both show), so flag parsing here
// uses the stdlib flag.FlagSet directly: flags first, then
// fs.Args() for positionals.
package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/exascience/cortex/ctxio"
	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/utils"
)

// ProgramMessage is the first line printed when the binary is called,
// named from utils.ProgramName/utils.ProgramVersion rather than
// redefined here.
var ProgramMessage = fmt.Sprintf(
	"\n%s version %s (%s) compiled with %s - a colored, linked de Bruijn graph toolkit.\n",
	utils.ProgramName, utils.ProgramVersion, utils.ProgramURL, runtime.Version(),
)

func logCheckFile(parameter, format string, v ...interface{}) {
	if parameter != "" {
		log.Printf(format+" for command line parameter %v.\n", append(v, parameter)...)
	} else {
		log.Printf(format+".\n", v...)
	}
}

// checkExist reports (and logs) whether filename exists and is
// readable.
func checkExist(parameter, filename string) bool {
	if len(filename) == 0 {
		logCheckFile(parameter, "Error: Missing filename")
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		return true
	} else if os.IsNotExist(err) {
		logCheckFile(parameter, "Error: File %v does not exist", filename)
		return false
	} else if os.IsPermission(err) {
		logCheckFile(parameter, "Error: No permission to read file %v", filename)
		return false
	} else {
		logCheckFile(parameter, "Error %v when trying to access file %v", err, filename)
		return false
	}
}

// checkCreate reports (and logs) whether filename is non-empty and its
// parent directory can be created; it does not open or create the file
// itself.
func checkCreate(parameter, filename string) bool {
	if len(filename) == 0 {
		logCheckFile(parameter, "Error: Missing filename")
		return false
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		logCheckFile(parameter, "Error %v when trying to create directory for file %v", err, filename)
		return false
	}
	return true
}

// setLogOutput duplicates log output to <output>.log, spec.md §6's
// "log files are emitted as <output>.log".
func setLogOutput(output string) (*os.File, error) {
	if output == "" || output == "-" {
		return nil, nil
	}
	logPath := output + ".log"
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, err
	}
	f, err := os.Create(logPath)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(f, os.Stderr))
	log.Println(ProgramMessage)
	log.Println("Command line:", os.Args)
	return f, nil
}

// timedRun runs f, logging msg before it starts and the elapsed time
// after it returns, when timed is set -- the teacher's own
// timedRun(timed, profile, msg, phase, f) shape, trimmed of the
// pprof/profile-file parameter: no command here is long-running
// enough on its own machine to need CPU profiling support the
// teacher's BQSR/sorting phases do.
func timedRun(timed bool, msg string, f func() error) error {
	if timed {
		log.Println(msg)
		start := time.Now()
		defer func() {
			log.Println("Elapsed time:", time.Since(start))
		}()
	}
	return f()
}

// parseMemory parses a memory budget like "1G", "500M", "2GB" into a
// bit count, the input EstimateCapacity needs. Accepts a bare byte
// count with no suffix.
func parseMemory(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty memory argument")
	}
	mult := uint64(1)
	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "GB"):
		mult, s = 1<<30, s[:len(s)-2]
	case strings.HasSuffix(upper, "MB"):
		mult, s = 1<<20, s[:len(s)-2]
	case strings.HasSuffix(upper, "KB"):
		mult, s = 1<<10, s[:len(s)-2]
	case strings.HasSuffix(upper, "G"):
		mult, s = 1<<30, s[:len(s)-1]
	case strings.HasSuffix(upper, "M"):
		mult, s = 1<<20, s[:len(s)-1]
	case strings.HasSuffix(upper, "K"):
		mult, s = 1<<10, s[:len(s)-1]
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory argument %q: %w", s, err)
	}
	return n * mult * 8, nil // bytes -> bits
}

// deleteOnError removes path if err is non-nil, the DELETE_ON_ERROR
// discipline spec.md §7 requires of every command that writes an
// output file. Call it deferred around the function that opens and
// writes path, with a named error return.
func deleteOnError(path string, err *error) {
	if *err != nil && path != "" && path != "-" {
		internal.RemoveIfExists(path)
	}
}

// openOutput opens path for writing, or os.Stdout for "-" (spec.md
// §6: "nothing to stdout unless -o - is specified").
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// graphFileCapacity upper-bounds the number of k-mer records an
// existing .ctx file can hold, from its on-disk size and the
// per-record width its header advertises -- the sizing every command
// that loads a whole graph (clean, thread, links, bubbles,
// breakpoints, vcfcov, reads) needs before it can allocate a
// target Graph to read into (spec.md §5/§9: the table is sized once,
// up front, never rehashed).
func graphFileCapacity(filename string, hdr ctxio.Header) (int, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return 0, internal.Wrap(internal.IoError, err)
	}
	recordSize := int64(hdr.WordsPerKmer)*8 + int64(hdr.Colors)*4 + int64(hdr.Colors)
	if recordSize <= 0 {
		return 0, internal.Errorf(internal.FormatError, "invalid record size in header")
	}
	capacity := info.Size() / recordSize
	if capacity <= 0 {
		return 0, internal.Errorf(internal.FormatError, "%v: file too small to contain any records", filename)
	}
	return int(capacity), nil
}
