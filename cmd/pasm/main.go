// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ezrec/pasm/asm"
	"github.com/ezrec/pasm/output"
	"github.com/ezrec/pasm/pru"
)

type flags struct {
	binary    bool
	binaryBE  bool
	header    bool
	image     bool
	source    bool
	listing   bool
	debug     bool
	verbose   bool
	bigEndian bool
	core      string
	defines   []string
	arrayName string
}

func (fl *flags) artifacts() (artifacts output.Artifact) {
	for _, sel := range []struct {
		set      bool
		artifact output.Artifact
	}{
		{fl.binary, output.ARTIFACT_BINARY},
		{fl.binaryBE, output.ARTIFACT_BINARY_BE},
		{fl.header, output.ARTIFACT_HEADER},
		{fl.image, output.ARTIFACT_IMAGE},
		{fl.source, output.ARTIFACT_SOURCE},
		{fl.listing, output.ARTIFACT_LISTING},
		{fl.debug, output.ARTIFACT_DEBUG},
	} {
		if sel.set {
			artifacts |= sel.artifact
		}
	}

	if artifacts == output.ARTIFACT_NONE {
		artifacts = output.ARTIFACT_HEADER
	}
	return
}

func (fl *flags) options() (opts asm.Options, err error) {
	opts.Core = pru.CORE_DEFAULT
	if len(fl.core) != 0 {
		opts.Core, err = pru.ParseCore(fl.core)
		if err != nil {
			return
		}
	}
	opts.BigEndian = fl.bigEndian
	opts.Verbose = fl.verbose

	for _, text := range fl.defines {
		var def asm.Define
		def, err = asm.ParseDefine(text)
		if err != nil {
			return
		}
		opts.Defines = append(opts.Defines, def)
	}
	return
}

// errFailed is returned after the diagnostics have already been printed.
var errFailed = errors.New("assembly failed")

func run(fl *flags, args []string) (err error) {
	input := args[0]
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if len(args) > 1 {
		base = args[1]
	}

	opts, err := fl.options()
	if err != nil {
		return
	}
	src := os.DirFS(filepath.Dir(input))
	opts.FS = src
	opts.Diag = os.Stderr
	opts.Name = input

	prog, asmErr := asm.NewAssembler(opts).Assemble(filepath.Base(input))

	if fl.verbose {
		for name, value := range prog.Symbols() {
			log.Printf("%-24s %v", name, value)
		}
	}

	artifacts := fl.artifacts()
	if asmErr != nil {
		// Only the annotated listing is written for a failed assembly.
		artifacts &^= output.ARTIFACT_CODE
	}

	w := &output.Writer{
		Sink:      output.DirFS(filepath.Dir(base)),
		Source:    src,
		Base:      filepath.Base(base),
		ArrayName: fl.arrayName,
		Verbose:   fl.verbose,
	}
	err = w.Write(prog, artifacts)
	if err != nil {
		return
	}

	if asmErr != nil {
		if errors.Is(asmErr, asm.ErrEmpty) {
			log.Printf("%v: %v", input, asmErr)
		}
		err = errFailed
	}
	return
}

func main() {
	log.SetFlags(0)

	fl := &flags{}

	cmd := &cobra.Command{
		Use:   "pasm [-bBcmLldzE] [-V<core>] [-Dname[=value]]... [-Cname] inputFile [outputBase]",
		Short: "PRU cross-assembler",
		Long: `Pasm assembles a PRU source file into a code image.

The output base defaults to the input name without its extension. When
no output flag is given, a C header (<base>_bin.h) is written.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(fl, args)
		},
	}

	flagset := cmd.Flags()
	flagset.BoolVarP(&fl.binary, "binary", "b", false, "write a little-endian binary image (.bin)")
	flagset.BoolVarP(&fl.binaryBE, "binary-be", "B", false, "write a big-endian binary image (.bin)")
	flagset.BoolVarP(&fl.header, "header", "c", false, "write a C array header (_bin.h)")
	flagset.BoolVarP(&fl.image, "image", "m", false, "write a hexadecimal memory image (.img)")
	flagset.BoolVarP(&fl.source, "source-listing", "L", false, "write a source annotated listing (.txt)")
	flagset.BoolVarP(&fl.listing, "listing", "l", false, "write an instruction listing (.lst)")
	flagset.BoolVarP(&fl.debug, "debug", "d", false, "write a debug symbol file (.dbg)")
	flagset.BoolVarP(&fl.verbose, "verbose", "z", false, "verbose trace")
	flagset.BoolVarP(&fl.bigEndian, "big-endian", "E", false, "assemble for big-endian register layout")
	flagset.StringVarP(&fl.core, "core", "V", "", "target core revision (0 to 3, default 2)")
	flagset.StringArrayVarP(&fl.defines, "define", "D", nil, "define an equate, name[=value]")
	flagset.StringVarP(&fl.arrayName, "array", "C", "", "C header array name (default PRUcode)")

	err := cmd.Execute()
	if err != nil {
		if !errors.Is(err, errFailed) {
			log.Printf("pasm: %v", err)
		}
		os.Exit(1)
	}
}
