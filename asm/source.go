package asm

import (
	"bufio"
	"io"
	"io/fs"
	"path"
	"strings"
)

const (
	SOURCE_LIMIT = 8 // Maximum simultaneously open source files.
)

// SourceFile is one input file on the include stack.
type SourceFile struct {
	Name   string // Name as written by the user.
	Path   string // Path inside the source filesystem.
	Dir    string // Base directory for relative includes.
	Index  int    // Stable file index for listings and debug output.
	LineNo int    // Line most recently read.

	condDepth int // Conditional depth when the file was entered.
	open      bool
	closer    io.Closer
	scanner   *bufio.Scanner
}

// Location of the line most recently read.
func (file *SourceFile) Location() Location {
	return Location{File: file.Name, LineNo: file.LineNo}
}

// readLine returns the next raw line.
func (file *SourceFile) readLine() (line string, ok bool, err error) {
	if !file.scanner.Scan() {
		err = file.scanner.Err()
		return
	}
	file.LineNo++
	line = file.scanner.Text()
	ok = true
	return
}

// sourcePool is the bounded set of source file slots.
type sourcePool struct {
	fsys  fs.FS
	files []*SourceFile
}

func newSourcePool(fsys fs.FS) *sourcePool {
	return &sourcePool{fsys: fsys}
}

// resolve returns the filesystem path for name, relative to the parent's
// directory for quoted includes.
func (pool *sourcePool) resolve(parent *SourceFile, name string, system bool) string {
	if parent == nil || system || path.IsAbs(name) {
		return path.Clean(strings.TrimPrefix(name, "/"))
	}
	return path.Join(parent.Dir, name)
}

// Open opens name, reusing a closed slot with the same name and base
// directory so the file index stays stable.
func (pool *sourcePool) Open(parent *SourceFile, name string, system bool) (file *SourceFile, err error) {
	fullpath := pool.resolve(parent, name, system)
	dir := path.Dir(fullpath)

	count := 0
	for _, slot := range pool.files {
		if slot.open {
			count++
		}
	}
	if count >= SOURCE_LIMIT {
		err = fatal(ErrIncludeDepth)
		return
	}

	for _, slot := range pool.files {
		if !slot.open && slot.Name == name && slot.Dir == dir {
			file = slot
			break
		}
	}

	handle, err := pool.fsys.Open(fullpath)
	if err != nil {
		err = &ErrOpen{Name: name, Err: err}
		file = nil
		return
	}

	if file == nil {
		file = &SourceFile{
			Name:  name,
			Path:  fullpath,
			Dir:   dir,
			Index: len(pool.files),
		}
		pool.files = append(pool.files, file)
	}

	file.LineNo = 0
	file.open = true
	file.closer = handle
	file.scanner = bufio.NewScanner(handle)
	return
}

// Close releases the file; its slot may be reused.
func (pool *sourcePool) Close(file *SourceFile) {
	if !file.open {
		return
	}
	file.open = false
	file.closer.Close()
	file.closer = nil
	file.scanner = nil
}

// CloseAll releases every open slot.
func (pool *sourcePool) CloseAll() {
	for _, file := range pool.files {
		pool.Close(file)
	}
}

// Files lists every file slot in index order.
func (pool *sourcePool) Files() (files []SourceInfo) {
	for _, file := range pool.files {
		files = append(files, SourceInfo{Name: file.Name, Path: file.Path})
	}
	return
}
