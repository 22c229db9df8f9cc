// Package wasmconsole runs a compiled WebAssembly module against a fixed set of
// console host functions.
//
// The guest imports one linear memory and four functions from a single
// namespace (default "system"):
//
//	mem / memory   shared linear memory, 100 pages by default
//	printInt       (i32) -> ()       print an integer on its own line
//	printString    (i32) -> ()       print the NUL-terminated string at offset
//	readInt        () -> i32         block for a line, parse it as an integer
//	readString0    (i32) -> i32      block for a line, store it space-padded at
//	                                 offset, return the next free offset
//
// # Architecture Overview
//
//	wasmconsole/        Root package with the Memory interface
//	├── runtime/        Config, loader and entry point invocation
//	├── engine/         wazero runtime wrapper
//	├── linker/         Import table: host module plus synthesized namespace module
//	├── bridge/         The four host functions
//	├── memory/         String marshaling over linear memory
//	├── console/        Blocking line reads over an asynchronous line source
//	└── errors/         Structured error types
//
// # Quick Start
//
//	cfg := runtime.DefaultConfig()
//	cfg.ModulePath = "wasmout/Std.wasm"
//	if err := runtime.Run(ctx, cfg); err != nil {
//	    fmt.Fprintf(os.Stderr, "Error: %v\n", err)
//	    os.Exit(runtime.ExitCode(err))
//	}
//
// # Thread Safety
//
// A Runtime hosts exactly one module instance. Host functions run on the
// goroutine that called the entry point, and the linear memory is accessed
// without locks. Neither is safe to share across concurrent instances.
package wasmconsole
