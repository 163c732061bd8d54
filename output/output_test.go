package output

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/pasm/asm"
	"github.com/ezrec/pasm/pru"
)

// memFS is an in-memory CreateFS.
type memFS map[string]*bytes.Buffer

type memFile struct {
	*bytes.Buffer
}

func (memFile) Close() error {
	return nil
}

func (mfs memFS) Create(name string) (file io.WriteCloser, err error) {
	buf := &bytes.Buffer{}
	mfs[name] = buf
	file = memFile{buf}
	return
}

const testSource = `; test program
.origin 0
start:
    LDI r1, 1

    MOV r2, 0x12345678
    HALT
`

func testAssemble(t *testing.T, bigEndian bool) (prog *asm.Program, src fstest.MapFS) {
	src = fstest.MapFS{
		"main.p": &fstest.MapFile{Data: []byte(testSource)},
	}

	prog, err := asm.NewAssembler(asm.Options{
		Core:      pru.CORE_V2,
		BigEndian: bigEndian,
		FS:        src,
	}).Assemble("main.p")
	if err != nil {
		t.Fatal(err)
	}
	return
}

func TestWriter_Write(t *testing.T) {
	assert := assert.New(t)

	prog, src := testAssemble(t, false)
	sink := memFS{}

	w := &Writer{Sink: sink, Source: src, Base: "out/test"}
	err := w.Write(prog, ARTIFACT_CODE|ARTIFACT_SOURCE)
	assert.NoError(err)

	for _, name := range []string{"out/test_bin.h", "out/test.bin", "out/test.img", "out/test.dbg", "out/test.lst", "out/test.txt"} {
		assert.Contains(sink, name)
	}

	// Big-endian wins over little-endian.
	assert.Equal([]byte{0x24, 0x00, 0x01, 0xe1}, sink["out/test.bin"].Bytes()[:4])
}

func TestWriter_Name(t *testing.T) {
	assert := assert.New(t)

	w := &Writer{Base: "prog"}
	name, err := w.Name(ARTIFACT_HEADER)
	assert.NoError(err)
	assert.Equal("prog_bin.h", name)

	name, err = w.Name(ARTIFACT_SOURCE)
	assert.NoError(err)
	assert.Equal("prog.txt", name)

	_, err = w.Name(ARTIFACT_NONE)
	assert.ErrorIs(err, ErrArtifact)
}

func TestWriter_NoCode(t *testing.T) {
	assert := assert.New(t)

	sink := memFS{}
	w := &Writer{Sink: sink, Base: "empty"}

	err := w.Write(&asm.Program{}, ARTIFACT_HEADER)
	assert.ErrorIs(err, ErrNoCode)
	assert.Empty(sink)

	// The annotated listing is still written for a failed program.
	err = w.Write(&asm.Program{}, ARTIFACT_SOURCE)
	assert.NoError(err)
	assert.Contains(sink, "empty.txt")
}

func TestWriter_SourceMissing(t *testing.T) {
	assert := assert.New(t)

	prog := &asm.Program{Files: []asm.SourceInfo{{Name: "gone.p", Path: "gone.p"}}}
	w := &Writer{Sink: memFS{}, Source: fstest.MapFS{}, Base: "x"}

	err := w.Write(prog, ARTIFACT_SOURCE)
	var ew *ErrWrite
	assert.ErrorAs(err, &ew)
	var es *ErrSource
	assert.ErrorAs(err, &es)
	assert.Equal("gone.p", es.Path)
}

func TestDirFS(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	sink := DirFS(dir)

	file, err := sink.Create("code.img")
	assert.NoError(err)
	_, err = file.Write([]byte("00000000\n"))
	assert.NoError(err)
	assert.NoError(file.Close())

	data, err := os.ReadFile(filepath.Join(dir, "code.img"))
	assert.NoError(err)
	assert.Equal("00000000\n", string(data))

	_, err = sink.Create("../escape")
	assert.ErrorIs(err, ErrPathInvalid)
}

func TestWriteBinary(t *testing.T) {
	assert := assert.New(t)

	prog, _ := testAssemble(t, false)

	var le, be bytes.Buffer
	assert.NoError(WriteBinary(&le, prog, binary.LittleEndian))
	assert.NoError(WriteBinary(&be, prog, binary.BigEndian))

	assert.Equal(4*int(prog.Length), le.Len())
	assert.Equal([]byte{0xe1, 0x01, 0x00, 0x24}, le.Bytes()[:4])
	assert.Equal([]byte{0x24, 0x00, 0x01, 0xe1}, be.Bytes()[:4])

	for n, code := range prog.Image() {
		assert.Equal(code, binary.LittleEndian.Uint32(le.Bytes()[4*n:]))
		assert.Equal(code, binary.BigEndian.Uint32(be.Bytes()[4*n:]))
	}
}

func TestWriteImage(t *testing.T) {
	assert := assert.New(t)

	prog := &asm.Program{
		Length: 3,
		Opcodes: []asm.Opcode{
			{Address: 0, Codes: []uint32{0x240001e1}},
			{Address: 2, Codes: []uint32{0x2a000000}},
		},
	}

	var buf bytes.Buffer
	assert.NoError(WriteImage(&buf, prog))
	assert.Equal("240001e1\n00000000\n2a000000\n", buf.String())
}
