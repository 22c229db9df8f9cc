package wasmconsole

// PageSize is the size of one WebAssembly memory page in bytes.
const PageSize = 65536

// Memory is the host view of the guest's linear memory.
// wazero's api.Memory satisfies it.
type Memory interface {
	ReadByte(offset uint32) (byte, bool)
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, data []byte) bool
	Size() uint32
}
