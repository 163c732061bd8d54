package output

import (
	"errors"

	"github.com/ezrec/pasm/translate"
)

var f = translate.From

var (
	ErrNoCode      = errors.New(f("no code to write"))
	ErrArtifact    = errors.New(f("unknown output artifact"))
	ErrPathInvalid = errors.New(f("invalid output path"))
)

// ErrSource reports a source file that could not be replayed into the
// annotated listing.
type ErrSource struct {
	Path string
	Err  error
}

func (err *ErrSource) Error() string {
	return f("source '%v': %v", err.Path, err.Err)
}

func (err *ErrSource) Unwrap() error {
	return err.Err
}

// ErrWrite reports a failure writing an output file.
type ErrWrite struct {
	Name string
	Err  error
}

func (err *ErrWrite) Error() string {
	return f("unable to write '%v': %v", err.Name, err.Err)
}

func (err *ErrWrite) Unwrap() error {
	return err.Err
}
