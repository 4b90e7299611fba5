package internal

import (
	"log"
	"os"
	"path/filepath"
)

func Directory(file string) (files []string, err error) {
	info, err := os.Stat(file)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{filepath.Base(file)}, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer func() {
		nerr := f.Close()
		if err == nil {
			err = nerr
		}
	}()
	return f.Readdirnames(0)
}

func FullPathname(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	wd, err := os.Getwd()
	return filepath.Join(wd, filename), err
}

// FileOpen is os.Open with panics in place of errors, for call sites
// where the file was already checked to exist.
func FileOpen(filename string) *os.File {
	f, err := os.Open(filename)
	if err != nil {
		log.Panic(err)
	}
	return f
}

// FileCreate is os.Create with panics in place of errors.
func FileCreate(filename string) *os.File {
	f, err := os.Create(filename)
	if err != nil {
		log.Panic(err)
	}
	return f
}

// Close is f.Close() with panics in place of errors.
func Close(f *os.File) {
	if err := f.Close(); err != nil {
		log.Panic(err)
	}
}

// MkdirAll is os.MkdirAll with panics in place of errors.
func MkdirAll(path string, perm os.FileMode) {
	if err := os.MkdirAll(path, perm); err != nil {
		log.Panic(err)
	}
}

// RemoveIfExists deletes path, ignoring a not-exist error. It backs the
// DELETE_ON_ERROR discipline commands use to avoid leaving partial
// outputs behind after a fatal error.
func RemoveIfExists(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not remove partial output %v: %v", path, err)
	}
}
