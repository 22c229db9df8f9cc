// Package runtime provides the high-level API for running a console guest.
//
// # Quick Start
//
//	ctx := context.Background()
//	if err := runtime.Run(ctx, runtime.DefaultConfig()); err != nil {
//	    fmt.Fprintf(os.Stderr, "Error: %v\n", err)
//	    os.Exit(runtime.ExitCode(err))
//	}
//
// Or step by step:
//
//	rt, err := runtime.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	inst, err := rt.Load(ctx, "wasmout/Std.wasm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	err = inst.Run(ctx)
//
// # Import Table
//
// The guest imports everything from one namespace (default "system"):
//
//	Name          Signature          Behavior
//	──────────────────────────────────────────────────────────────
//	mem, memory   memory, 100 pages  shared linear memory
//	printInt      (i32) -> ()        print decimal value, one line
//	printString   (i32) -> ()        print NUL-terminated string
//	readInt       () -> i32          block for a line, parse i32
//	readString0   (i32) -> i32       block for a line, store padded
//
// Load compiles the module, verifies every import against this table and
// checks that the entry point is exported before instantiating it.
//
// # Errors
//
// Every failure is fatal to the run. Host function failures, such as an
// unparsable readInt line or end of input, are returned from Instance.Run
// as the underlying error rather than the trap they caused. ExitCode maps any
// error to 1.
//
// # Thread Safety
//
// A Runtime hosts a single Instance. The shared memory has no locking; only
// the guest and the host functions running on its call stack touch it.
package runtime
