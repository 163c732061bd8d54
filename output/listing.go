package output

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/ezrec/pasm/asm"
	"github.com/ezrec/pasm/translate"
)

// WriteListing writes one line per code word:
//
//	file(line) : 0xADDR = 0xWORD : text
func WriteListing(w io.Writer, prog *asm.Program) (err error) {
	bw := bufio.NewWriter(w)
	for _, op := range prog.Opcodes {
		where := "-"
		if op.HasFile() {
			where = asm.Location{File: prog.FileName(op.File), LineNo: op.LineNo}.String()
		}
		for n, code := range op.Codes {
			fmt.Fprintf(bw, "%s : %s = %s : %s\n",
				where,
				translate.Hex(4, op.Address+uint32(n)),
				translate.Hex(8, code),
				op.Text)
		}
	}

	err = bw.Flush()
	return
}

type sourceKey struct {
	file   int
	lineNo int
}

type sourceWord struct {
	address uint32
	code    uint32
}

// annotation is the blank column printed for lines without code.
var annotation = strings.Repeat(" ", len("0x0000 0x00000000"))

// WriteSource replays every source file of the program, prefixing each
// line with the address and word of the code it produced.
func WriteSource(w io.Writer, prog *asm.Program, fsys fs.FS) (err error) {
	words := map[sourceKey][]sourceWord{}
	for _, op := range prog.Opcodes {
		if !op.HasFile() {
			continue
		}
		key := sourceKey{file: op.File, lineNo: op.LineNo}
		for n, code := range op.Codes {
			words[key] = append(words[key], sourceWord{address: op.Address + uint32(n), code: code})
		}
	}

	bw := bufio.NewWriter(w)
	for index, file := range prog.Files {
		translate.Fprintf(bw, "Source File %d : '%v'\n\n", index+1, file.Name)
		err = replay(fsys, file.Path, func(lineNo int, text string) {
			list := words[sourceKey{file: index, lineNo: lineNo}]
			if len(list) == 0 {
				fmt.Fprintf(bw, "%5d : %s  %s\n", lineNo, annotation, text)
				return
			}
			for n, word := range list {
				if n > 0 {
					text = ""
				}
				fmt.Fprintf(bw, "%5d : %s %s  %s\n", lineNo,
					translate.Hex(4, word.address),
					translate.Hex(8, word.code),
					text)
			}
		})
		if err != nil {
			return
		}
		fmt.Fprintln(bw)
	}

	err = bw.Flush()
	return
}

// replay calls line for every line of a source file.
func replay(fsys fs.FS, path string, line func(lineNo int, text string)) (err error) {
	file, err := fsys.Open(path)
	if err != nil {
		err = &ErrSource{Path: path, Err: err}
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line(lineNo, strings.TrimRight(scanner.Text(), "\r"))
	}

	err = scanner.Err()
	if err != nil {
		err = &ErrSource{Path: path, Err: err}
	}
	return
}
