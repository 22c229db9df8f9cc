package memory

import (
	"strings"
	"unicode/utf16"

	wasmconsole "github.com/wippyai/wasm-console"
	"github.com/wippyai/wasm-console/errors"
)

const (
	// WordSize is the alignment unit for strings written into guest memory.
	WordSize = 4

	// PadByte fills the gap after a written string.
	PadByte = ' '
)

// Padding returns the number of pad bytes written after a string of n characters.
// The result is always in [1, WordSize].
func Padding(n int) int {
	return WordSize - n%WordSize
}

// Encode returns the bytes written for s: one byte per UTF-16 code unit,
// truncated to its low eight bits, followed by Padding(len) spaces. A
// character outside the Basic Multilingual Plane takes two bytes, one per
// surrogate.
func Encode(s string) []byte {
	units := utf16.Encode([]rune(s))
	pad := Padding(len(units))

	buf := make([]byte, len(units)+pad)
	for i, u := range units {
		buf[i] = byte(u)
	}
	for i := len(units); i < len(buf); i++ {
		buf[i] = PadByte
	}
	return buf
}

// Decode interprets data as character codes up to the first zero byte.
// Data without a zero byte is decoded in full.
func Decode(data []byte) string {
	var b strings.Builder
	for _, c := range data {
		if c == 0 {
			break
		}
		b.WriteRune(rune(c))
	}
	return b.String()
}

// Region marshals strings over a guest linear memory.
type Region struct {
	mem wasmconsole.Memory
}

// NewRegion wraps mem. It returns nil for a nil memory.
func NewRegion(mem wasmconsole.Memory) *Region {
	if mem == nil {
		return nil
	}
	return &Region{mem: mem}
}

// Size returns the current memory size in bytes.
func (r *Region) Size() uint32 {
	return r.mem.Size()
}

// ReadString decodes the NUL-terminated string starting at offset.
func (r *Region) ReadString(offset uint32) (string, error) {
	size := r.mem.Size()
	if offset >= size {
		return "", errors.OutOfBounds(offset, 1, size)
	}

	var b strings.Builder
	for i := offset; ; i++ {
		c, ok := r.mem.ReadByte(i)
		if !ok {
			return "", errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
				Value(offset).
				Detail("no terminator between offset %d and end of memory %d", offset, size).
				Build()
		}
		if c == 0 {
			return b.String(), nil
		}
		b.WriteRune(rune(c))
	}
}

// WriteString stores s at offset using the padded encoding and returns the
// offset immediately after the last pad byte.
func (r *Region) WriteString(offset uint32, s string) (uint32, error) {
	buf := Encode(s)
	size := r.mem.Size()
	end := uint64(offset) + uint64(len(buf))
	if end > uint64(size) {
		return 0, errors.OutOfBounds(offset, len(buf), size)
	}
	if !r.mem.Write(offset, buf) {
		return 0, errors.OutOfBounds(offset, len(buf), size)
	}
	return uint32(end), nil
}
