// Package bridge implements the console host functions a guest calls.
//
//	printInt(value i32)           print the decimal value on its own line
//	printString(offset i32)       print the NUL-terminated string at offset
//	readInt() i32                 wait for a line and parse its leading integer
//	readString0(offset i32) i32   wait for a line, store it space-padded at
//	                              offset, return the next free offset
//
// Reads block the guest's call until a full line is available. Any failure is
// fatal to the run: the bridge records the first one, and the handler panics
// so wazero unwinds the guest. Err reports the recorded failure.
package bridge
