package output

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CreateFS is a file system that output files can be created in.
type CreateFS interface {
	// Create creates or truncates a file for writing.
	Create(name string) (file io.WriteCloser, err error)
}

// DirFS is a CreateFS rooted at a host directory.
type DirFS string

func (dir DirFS) Create(name string) (file io.WriteCloser, err error) {
	if !fs.ValidPath(name) {
		err = &fs.PathError{Op: "create", Path: name, Err: ErrPathInvalid}
		return
	}

	file, err = os.Create(filepath.Join(string(dir), filepath.FromSlash(name)))
	return
}
