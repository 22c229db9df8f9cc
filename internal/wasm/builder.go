package wasm

import (
	"github.com/tetratelabs/wazero/api"
)

// External kinds used in import and export entries.
const (
	KindFunc   byte = 0x00
	KindTable  byte = 0x01
	KindMemory byte = 0x02
	KindGlobal byte = 0x03
)

const (
	sectionType   = 0x01
	sectionImport = 0x02
	sectionFunc   = 0x03
	sectionMemory = 0x05
	sectionExport = 0x07
	sectionCode   = 0x0a
	sectionData   = 0x0b
)

type funcType struct {
	params  []api.ValueType
	results []api.ValueType
}

type funcImport struct {
	module string
	name   string
	typ    uint32
}

type memoryImport struct {
	module  string
	name    string
	limits  limits
	present bool
}

type limits struct {
	min    uint32
	max    uint32
	hasMax bool
}

type funcBody struct {
	typ  uint32
	body []byte
}

type export struct {
	name  string
	kind  byte
	index uint32
}

type dataSegment struct {
	data   []byte
	offset int32
}

// Builder assembles a module. Function imports must be added before local
// functions so that function indices stay stable.
type Builder struct {
	types       []funcType
	funcImports []funcImport
	memImport   memoryImport
	memory      *limits
	funcs       []funcBody
	exports     []export
	data        []dataSegment
}

// NewBuilder creates an empty module builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) addType(params, results []api.ValueType) uint32 {
	b.types = append(b.types, funcType{params: params, results: results})
	return uint32(len(b.types) - 1)
}

// ImportFunc declares a function import and returns its function index.
func (b *Builder) ImportFunc(module, name string, params, results []api.ValueType) uint32 {
	if len(b.funcs) > 0 {
		panic("wasm: ImportFunc after AddFunc")
	}
	typ := b.addType(params, results)
	b.funcImports = append(b.funcImports, funcImport{module: module, name: name, typ: typ})
	return uint32(len(b.funcImports) - 1)
}

// ImportMemory declares the module's memory as imported with the given
// minimum page count.
func (b *Builder) ImportMemory(module, name string, minPages uint32) {
	b.memImport = memoryImport{module: module, name: name, limits: limits{min: minPages}, present: true}
}

// DefineMemory declares a local memory of minPages. maxPages of zero means
// no maximum.
func (b *Builder) DefineMemory(minPages, maxPages uint32) {
	b.memory = &limits{min: minPages, max: maxPages, hasMax: maxPages > 0}
}

// AddFunc defines a local function and returns its function index. body is
// the instruction sequence without the final end opcode.
func (b *Builder) AddFunc(params, results []api.ValueType, body []byte) uint32 {
	typ := b.addType(params, results)
	b.funcs = append(b.funcs, funcBody{typ: typ, body: body})
	return uint32(len(b.funcImports) + len(b.funcs) - 1)
}

// Export exports the entity of kind at index under name.
func (b *Builder) Export(name string, kind byte, index uint32) {
	b.exports = append(b.exports, export{name: name, kind: kind, index: index})
}

// Data adds an active data segment for memory 0 at offset.
func (b *Builder) Data(offset int32, data []byte) {
	b.data = append(b.data, dataSegment{offset: offset, data: data})
}

// Build generates the WASM module bytes.
func (b *Builder) Build() []byte {
	wasm := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	if len(b.types) > 0 {
		wasm = appendSection(wasm, sectionType, b.buildTypeSection())
	}
	if len(b.funcImports) > 0 || b.memImport.present {
		wasm = appendSection(wasm, sectionImport, b.buildImportSection())
	}
	if len(b.funcs) > 0 {
		wasm = appendSection(wasm, sectionFunc, b.buildFuncSection())
	}
	if b.memory != nil {
		wasm = appendSection(wasm, sectionMemory, encodeVec([][]byte{encodeLimits(*b.memory)}))
	}
	if len(b.exports) > 0 {
		wasm = appendSection(wasm, sectionExport, b.buildExportSection())
	}
	if len(b.funcs) > 0 {
		wasm = appendSection(wasm, sectionCode, b.buildCodeSection())
	}
	if len(b.data) > 0 {
		wasm = appendSection(wasm, sectionData, b.buildDataSection())
	}
	return wasm
}

func appendSection(wasm []byte, id byte, payload []byte) []byte {
	wasm = append(wasm, id)
	wasm = append(wasm, EncodeULEB128(uint32(len(payload)))...)
	return append(wasm, payload...)
}

func encodeLimits(l limits) []byte {
	if l.hasMax {
		out := []byte{0x01}
		out = append(out, EncodeULEB128(l.min)...)
		return append(out, EncodeULEB128(l.max)...)
	}
	return append([]byte{0x00}, EncodeULEB128(l.min)...)
}

func (b *Builder) buildTypeSection() []byte {
	entries := make([][]byte, 0, len(b.types))
	for _, t := range b.types {
		e := []byte{0x60}
		e = append(e, EncodeULEB128(uint32(len(t.params)))...)
		for _, p := range t.params {
			e = append(e, ValTypeToWasm(p))
		}
		e = append(e, EncodeULEB128(uint32(len(t.results)))...)
		for _, r := range t.results {
			e = append(e, ValTypeToWasm(r))
		}
		entries = append(entries, e)
	}
	return encodeVec(entries)
}

func (b *Builder) buildImportSection() []byte {
	var entries [][]byte
	for _, imp := range b.funcImports {
		e := encodeName(imp.module)
		e = append(e, encodeName(imp.name)...)
		e = append(e, KindFunc)
		e = append(e, EncodeULEB128(imp.typ)...)
		entries = append(entries, e)
	}
	if b.memImport.present {
		e := encodeName(b.memImport.module)
		e = append(e, encodeName(b.memImport.name)...)
		e = append(e, KindMemory)
		e = append(e, encodeLimits(b.memImport.limits)...)
		entries = append(entries, e)
	}
	return encodeVec(entries)
}

func (b *Builder) buildFuncSection() []byte {
	entries := make([][]byte, 0, len(b.funcs))
	for _, f := range b.funcs {
		entries = append(entries, EncodeULEB128(f.typ))
	}
	return encodeVec(entries)
}

func (b *Builder) buildExportSection() []byte {
	entries := make([][]byte, 0, len(b.exports))
	for _, ex := range b.exports {
		e := encodeName(ex.name)
		e = append(e, ex.kind)
		e = append(e, EncodeULEB128(ex.index)...)
		entries = append(entries, e)
	}
	return encodeVec(entries)
}

func (b *Builder) buildCodeSection() []byte {
	entries := make([][]byte, 0, len(b.funcs))
	for _, f := range b.funcs {
		// No local declarations.
		body := []byte{0x00}
		body = append(body, f.body...)
		body = append(body, OpEnd)
		e := EncodeULEB128(uint32(len(body)))
		entries = append(entries, append(e, body...))
	}
	return encodeVec(entries)
}

func (b *Builder) buildDataSection() []byte {
	entries := make([][]byte, 0, len(b.data))
	for _, d := range b.data {
		e := []byte{0x00}
		e = append(e, I32Const(d.offset)...)
		e = append(e, OpEnd)
		e = append(e, EncodeULEB128(uint32(len(d.data)))...)
		e = append(e, d.data...)
		entries = append(entries, e)
	}
	return encodeVec(entries)
}
