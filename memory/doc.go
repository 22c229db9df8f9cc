// Package memory implements the string marshaling protocol between the host
// and the guest's linear memory.
//
// # Print direction (guest to host)
//
// The guest passes an offset. Bytes are read one at a time until a zero byte;
// each byte is one character code:
//
//	text, err := region.ReadString(offset)
//
// # Read direction (host to guest)
//
// The host writes one byte per UTF-16 code unit at the offset, so a character
// outside the Basic Multilingual Plane takes two bytes, then pads with spaces
// so the written length is a multiple of four. The padding is 4 - n%4 bytes and
// is never zero: an aligned string still gets four spaces. The next free offset
// is returned so the guest can chain writes:
//
//	next, err := region.WriteString(1000, "hi") // "hi  " at 1000..1003, next == 1004
//
// Offsets outside the memory fail with errors.ErrOutOfBounds instead of
// touching memory.
//
// A Region is not synchronized. Guest and host take turns on a single
// goroutine; sharing a Region across concurrent instances is unsupported.
package memory
