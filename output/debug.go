package output

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/ezrec/pasm/asm"
)

const (
	DEBUG_MAGIC     = 0x10150001 // Debug file magic and version.
	DEBUG_NAME_SIZE = 64         // Fixed width of label and file names.

	DEBUG_FLAG_BIG_ENDIAN = 1 << 0 // Header flag: records are big-endian.

	DEBUG_CODE_FILE    = 1 << 0 // Code record carries file and line.
	DEBUG_CODE_ADDRESS = 1 << 1 // Code record is an instruction, not .codeword data.
)

// DebugHeader is the fixed header at the start of a debug file. Offsets
// are in bytes from the start of the file.
type DebugHeader struct {
	Magic       uint32
	LabelCount  uint32
	LabelOffset uint32
	FileCount   uint32
	FileOffset  uint32
	CodeCount   uint32
	CodeOffset  uint32
	EntryPoint  uint32
	Flags       uint32
}

// DebugLabel is a label record.
type DebugLabel struct {
	Address uint32
	Name    [DEBUG_NAME_SIZE]byte
}

// DebugFile is a source file record.
type DebugFile struct {
	Path [DEBUG_NAME_SIZE]byte
}

// DebugCode is a record for one code word.
type DebugCode struct {
	Flags    uint8
	Reserved uint8
	File     uint16
	LineNo   uint32
	Address  uint32
	Code     uint32
}

// debugName copies a name into a fixed width, NUL terminated field.
func debugName(name string) (field [DEBUG_NAME_SIZE]byte) {
	if len(name) >= DEBUG_NAME_SIZE {
		name = name[:DEBUG_NAME_SIZE-1]
	}
	copy(field[:], name)
	return
}

// DebugOrder is the byte order of a program's debug file.
func DebugOrder(prog *asm.Program) binary.ByteOrder {
	if prog.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// WriteDebug writes the structured debug symbol file.
func WriteDebug(w io.Writer, prog *asm.Program) (err error) {
	order := DebugOrder(prog)

	codes := 0
	for _, op := range prog.Opcodes {
		codes += len(op.Codes)
	}

	header := DebugHeader{
		Magic:      DEBUG_MAGIC,
		LabelCount: uint32(len(prog.Labels)),
		FileCount:  uint32(len(prog.Files)),
		CodeCount:  uint32(codes),
		EntryPoint: prog.EntryPoint,
	}
	header.LabelOffset = uint32(binary.Size(header))
	header.FileOffset = header.LabelOffset + header.LabelCount*uint32(binary.Size(DebugLabel{}))
	header.CodeOffset = header.FileOffset + header.FileCount*uint32(binary.Size(DebugFile{}))
	if prog.BigEndian {
		header.Flags |= DEBUG_FLAG_BIG_ENDIAN
	}

	bw := bufio.NewWriter(w)
	err = binary.Write(bw, order, &header)
	if err != nil {
		return
	}

	for _, label := range prog.Labels {
		record := DebugLabel{
			Address: label.Address,
			Name:    debugName(label.Name),
		}
		err = binary.Write(bw, order, &record)
		if err != nil {
			return
		}
	}

	for _, file := range prog.Files {
		record := DebugFile{Path: debugName(file.Path)}
		err = binary.Write(bw, order, &record)
		if err != nil {
			return
		}
	}

	for _, op := range prog.Opcodes {
		for n, code := range op.Codes {
			record := DebugCode{
				Address: op.Address + uint32(n),
				Code:    code,
			}
			if !op.Data {
				record.Flags |= DEBUG_CODE_ADDRESS
			}
			if op.HasFile() {
				record.Flags |= DEBUG_CODE_FILE
				record.File = uint16(op.File)
				record.LineNo = uint32(op.LineNo)
			}
			err = binary.Write(bw, order, &record)
			if err != nil {
				return
			}
		}
	}

	err = bw.Flush()
	return
}
