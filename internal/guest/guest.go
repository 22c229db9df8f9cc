// Package guest builds guest modules that import the console namespace.
// Every guest imports the memory and all four host functions in a fixed order,
// so function indices below are the same for all of them.
package guest

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-console/internal/wasm"
)

// Function indices of the console imports inside a guest.
const (
	PrintInt uint32 = iota
	PrintString
	ReadInt
	ReadString0
)

var (
	i32 = []api.ValueType{api.ValueTypeI32}
	i64 = []api.ValueType{api.ValueTypeI64}
)

// Module is a guest under construction.
type Module struct {
	b     *wasm.Builder
	entry string
}

// New starts a guest importing namespace ns with memory import mem of pages
// pages and exporting entry.
func New(ns, mem string, pages uint32, entry string) *Module {
	b := wasm.NewBuilder()
	b.ImportFunc(ns, "printInt", i32, nil)
	b.ImportFunc(ns, "printString", i32, nil)
	b.ImportFunc(ns, "readInt", nil, i32)
	b.ImportFunc(ns, "readString0", i32, i32)
	b.ImportMemory(ns, mem, pages)
	return &Module{b: b, entry: entry}
}

// Data places bytes at offset when the guest is instantiated.
func (m *Module) Data(offset int32, data []byte) *Module {
	m.b.Data(offset, data)
	return m
}

// Main sets the entry point body and returns the module bytes.
func (m *Module) Main(body ...[]byte) []byte {
	idx := m.b.AddFunc(nil, nil, wasm.Seq(body...))
	m.b.Export(m.entry, wasm.KindFunc, idx)
	return m.b.Build()
}

// Double reads an integer, doubles it and prints the result.
func Double(ns, entry string) []byte {
	return New(ns, "mem", 100, entry).Main(
		wasm.Call(ReadInt),
		wasm.I32Const(2),
		[]byte{wasm.OpI32Mul},
		wasm.Call(PrintInt),
	)
}

// Echo reads a string into memory at offset, prints the next free offset and
// then prints the stored string.
func Echo(ns, entry string, offset int32) []byte {
	return New(ns, "mem", 100, entry).Main(
		wasm.I32Const(offset),
		wasm.Call(ReadString0),
		wasm.Call(PrintInt),
		wasm.I32Const(offset),
		wasm.Call(PrintString),
	)
}

// Greeting prints the NUL-terminated text placed at offset.
func Greeting(ns, entry string, offset int32, text string) []byte {
	return New(ns, "mem", 100, entry).
		Data(offset, append([]byte(text), 0)).
		Main(wasm.I32Const(offset), wasm.Call(PrintString))
}

// Trap executes unreachable.
func Trap(ns, entry string) []byte {
	return New(ns, "mem", 100, entry).Main([]byte{wasm.OpUnreachable})
}

// WithExtraImport imports one more function, ns#name, that the host does not
// provide.
func WithExtraImport(ns, name, entry string) []byte {
	b := wasm.NewBuilder()
	b.ImportFunc(ns, "printInt", i32, nil)
	b.ImportFunc(ns, name, nil, nil)
	b.ImportMemory(ns, "mem", 100)
	idx := b.AddFunc(nil, nil, nil)
	b.Export(entry, wasm.KindFunc, idx)
	return b.Build()
}

// WithWrongSignature imports printInt with an i64 parameter.
func WithWrongSignature(ns, entry string) []byte {
	b := wasm.NewBuilder()
	b.ImportFunc(ns, "printInt", i64, nil)
	b.ImportMemory(ns, "mem", 100)
	idx := b.AddFunc(nil, nil, nil)
	b.Export(entry, wasm.KindFunc, idx)
	return b.Build()
}

// WithMemory imports only the memory, requiring pages pages, under name mem.
func WithMemory(ns, mem string, pages uint32, entry string) []byte {
	b := wasm.NewBuilder()
	b.ImportMemory(ns, mem, pages)
	idx := b.AddFunc(nil, nil, nil)
	b.Export(entry, wasm.KindFunc, idx)
	return b.Build()
}
