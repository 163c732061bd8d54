package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ezrec/pasm/asm"
)

const (
	ARRAY_NAME = "PRUcode" // Default hex header array name.
)

// WriteHeader writes the code image as a C array declaration.
func WriteHeader(w io.Writer, prog *asm.Program, name string) (err error) {
	if len(name) == 0 {
		name = ARRAY_NAME
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "\n\n")
	fmt.Fprintf(bw, "const unsigned int %s[] =  {\n", name)
	for _, code := range prog.Image() {
		fmt.Fprintf(bw, "     0x%08x,\n", code)
	}
	fmt.Fprintf(bw, "};\n\n")

	err = bw.Flush()
	return
}
