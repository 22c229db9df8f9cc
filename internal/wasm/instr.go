package wasm

// Opcodes used by synthesized and test function bodies.
const (
	OpUnreachable byte = 0x00
	OpDrop        byte = 0x1a
	OpEnd         byte = 0x0b
	OpCall        byte = 0x10
	OpLocalGet    byte = 0x20
	OpI32Const    byte = 0x41
	OpI32Add      byte = 0x6a
	OpI32Mul      byte = 0x6c
)

// Call encodes a call to function index idx.
func Call(idx uint32) []byte {
	return append([]byte{OpCall}, EncodeULEB128(idx)...)
}

// LocalGet encodes local.get idx.
func LocalGet(idx uint32) []byte {
	return append([]byte{OpLocalGet}, EncodeULEB128(idx)...)
}

// I32Const encodes i32.const v.
func I32Const(v int32) []byte {
	return append([]byte{OpI32Const}, EncodeSLEB128(v)...)
}

// Seq concatenates instruction fragments.
func Seq(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Forward returns a body that passes its n parameters to function idx and
// returns its results.
func Forward(idx uint32, n int) []byte {
	var out []byte
	for i := 0; i < n; i++ {
		out = append(out, LocalGet(uint32(i))...)
	}
	return append(out, Call(idx)...)
}
