// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"io"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/ezrec/pasm/pru"
)

// Define is a command line equate.
type Define struct {
	Name  string
	Value string // Empty means "1".
}

// ParseDefine parses a NAME or NAME=VALUE equate.
func ParseDefine(text string) (def Define, err error) {
	name, value, _ := strings.Cut(text, "=")
	name = strings.TrimSpace(name)
	if !isIdentifier(name) || len(name) > IDENT_LIMIT {
		err = &ErrDefineName{Name: name}
		return
	}

	def = Define{Name: name, Value: strings.TrimSpace(value)}
	return
}

// Options configure an Assembler.
type Options struct {
	Core      pru.Core  // Target core revision.
	BigEndian bool      // Register byte order.
	Verbose   bool      // If set, verbosely logs the assembler actions.
	Defines   []Define  // Equates defined before the first line.
	FS        fs.FS     // Source tree; the working directory if nil.
	Diag      io.Writer // Diagnostic output; nil discards.
	Name      string    // Display name of the main file, if not its path.
}

// Assembler is a two pass macro assembler for the PRU.
type Assembler struct {
	Options

	labels *labelTable
	diag   *Reporter
}

// NewAssembler returns an assembler for the options.
func NewAssembler(opts Options) (asm *Assembler) {
	if opts.FS == nil {
		opts.FS = os.DirFS(".")
	}
	asm = &Assembler{Options: opts}
	return
}

// Assemble assembles the named file from the source tree. The program is
// returned even on failure so that a listing can still be produced.
func (asm *Assembler) Assemble(name string) (prog *Program, err error) {
	asm.labels = newLabelTable()
	asm.diag = NewReporter(asm.Diag)

	first := asm.newSession(1)
	first.run(name)
	asm.diag.Summary()
	prog = first.program()
	if asm.diag.Errors > 0 {
		err = &ErrAssembly{Pass: 1, Errors: asm.diag.Errors, Err: asm.diag.First}
		return
	}

	if asm.Verbose {
		log.Printf("pass 1: %d word(s), %d label(s)", first.length(), len(prog.Labels))
	}

	second := asm.newSession(2)
	second.run(name)
	if !asm.diag.Stopped() && asm.diag.Errors == 0 && second.length() != first.length() {
		asm.diag.Report(SEVERITY_ERROR, Location{File: second.displayName(name)}, ErrPassMismatch)
	}
	asm.diag.Summary()
	prog = second.program()
	if asm.diag.Errors > 0 {
		err = &ErrAssembly{Pass: 2, Errors: asm.diag.Errors, Err: asm.diag.First}
		return
	}

	if len(prog.Opcodes) == 0 || prog.Length == 0 {
		err = ErrEmpty
		return
	}

	return
}
