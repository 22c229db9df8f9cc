// Package wasm builds small core WebAssembly binaries.
//
// It covers what the runner synthesizes at link time (a namespace module that
// owns the shared memory and re-exports host functions) and what tests need to
// express guest programs: types, function and memory imports, a locally
// defined memory, function bodies, exports and active data segments.
package wasm
