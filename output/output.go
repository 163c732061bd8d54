// Package output writes assembled programs as header, binary, image,
// debug and listing files.
package output

import (
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"log"

	"github.com/ezrec/pasm/asm"
)

// Artifact selects output files.
type Artifact uint

const (
	ARTIFACT_HEADER     = Artifact(1 << iota) // <base>_bin.h
	ARTIFACT_BINARY                           // <base>.bin, little-endian
	ARTIFACT_BINARY_BE                        // <base>.bin, big-endian
	ARTIFACT_IMAGE                            // <base>.img
	ARTIFACT_DEBUG                            // <base>.dbg
	ARTIFACT_LISTING                          // <base>.lst
	ARTIFACT_SOURCE                           // <base>.txt

	ARTIFACT_NONE = Artifact(0)

	// Artifacts that need a successful assembly.
	ARTIFACT_CODE = ARTIFACT_HEADER | ARTIFACT_BINARY | ARTIFACT_BINARY_BE |
		ARTIFACT_IMAGE | ARTIFACT_DEBUG | ARTIFACT_LISTING
)

// Writer writes output files next to a base name.
type Writer struct {
	Sink      CreateFS // Output files are created here.
	Source    fs.FS    // Source tree, for the annotated listing.
	Base      string   // Output name without suffix.
	ArrayName string   // Hex header array name.
	Verbose   bool     // If set, logs each file written.
}

type generator struct {
	artifact Artifact
	suffix   string
	write    func(w *Writer, out io.Writer, prog *asm.Program) error
}

var generators = []generator{
	{ARTIFACT_HEADER, "_bin.h", func(w *Writer, out io.Writer, prog *asm.Program) error {
		return WriteHeader(out, prog, w.ArrayName)
	}},
	{ARTIFACT_BINARY, ".bin", func(w *Writer, out io.Writer, prog *asm.Program) error {
		return WriteBinary(out, prog, binary.LittleEndian)
	}},
	{ARTIFACT_BINARY_BE, ".bin", func(w *Writer, out io.Writer, prog *asm.Program) error {
		return WriteBinary(out, prog, binary.BigEndian)
	}},
	{ARTIFACT_IMAGE, ".img", func(w *Writer, out io.Writer, prog *asm.Program) error {
		return WriteImage(out, prog)
	}},
	{ARTIFACT_DEBUG, ".dbg", func(w *Writer, out io.Writer, prog *asm.Program) error {
		return WriteDebug(out, prog)
	}},
	{ARTIFACT_LISTING, ".lst", func(w *Writer, out io.Writer, prog *asm.Program) error {
		return WriteListing(out, prog)
	}},
	{ARTIFACT_SOURCE, ".txt", func(w *Writer, out io.Writer, prog *asm.Program) error {
		return WriteSource(out, prog, w.Source)
	}},
}

// Name returns the file name used for an artifact.
func (w *Writer) Name(artifact Artifact) (name string, err error) {
	for _, gen := range generators {
		if gen.artifact == artifact {
			name = w.Base + gen.suffix
			return
		}
	}

	err = ErrArtifact
	return
}

// Write writes every selected artifact. When both binary byte orders are
// selected the big-endian file wins.
func (w *Writer) Write(prog *asm.Program, artifacts Artifact) (err error) {
	if artifacts&ARTIFACT_CODE != 0 && prog.Length == 0 {
		err = ErrNoCode
		return
	}

	if artifacts&ARTIFACT_BINARY_BE != 0 {
		artifacts &^= ARTIFACT_BINARY
	}

	for _, gen := range generators {
		if artifacts&gen.artifact == 0 {
			continue
		}
		name := w.Base + gen.suffix
		if w.Verbose {
			log.Printf("writing %v", name)
		}
		err = w.create(name, func(out io.Writer) error {
			return gen.write(w, out, prog)
		})
		if err != nil {
			return
		}
	}

	return
}

func (w *Writer) create(name string, write func(out io.Writer) error) (err error) {
	file, err := w.Sink.Create(name)
	if err != nil {
		err = &ErrWrite{Name: name, Err: err}
		return
	}

	err = errors.Join(write(file), file.Close())
	if err != nil {
		err = &ErrWrite{Name: name, Err: err}
	}
	return
}
