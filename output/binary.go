package output

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ezrec/pasm/asm"
)

// WriteBinary writes the code image as raw words in the given byte order.
func WriteBinary(w io.Writer, prog *asm.Program, order binary.ByteOrder) (err error) {
	image := prog.Image()
	buf := make([]byte, 0, 4*len(image))
	var word [4]byte
	for _, code := range image {
		order.PutUint32(word[:], code)
		buf = append(buf, word[:]...)
	}

	_, err = w.Write(buf)
	return
}

// WriteImage writes the code image as one hexadecimal word per line.
func WriteImage(w io.Writer, prog *asm.Program) (err error) {
	bw := bufio.NewWriter(w)
	for _, code := range prog.Image() {
		fmt.Fprintf(bw, "%08x\n", code)
	}

	err = bw.Flush()
	return
}
