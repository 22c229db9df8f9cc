package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasm-console/runtime"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run parses args, runs the guest on the given streams and returns the exit
// status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	defaults := runtime.DefaultConfig()

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		wasmFile    = fs.String("wasm", defaults.ModulePath, "Path to module wasm file")
		entry       = fs.String("entry", defaults.EntryPoint, "Exported function to invoke")
		namespace   = fs.String("ns", defaults.Namespace, "Import namespace the module links against")
		pages       = fs.Uint("pages", uint(defaults.MemoryPages), "Initial shared memory size in 64KB pages")
		maxPages    = fs.Uint("max-pages", 0, "Memory limit per instance in pages (0 for engine default)")
		interactive = fs.Bool("i", false, "Interactive mode with TUI")
		verbose     = fs.Bool("v", false, "Debug logging to stderr")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: run [-wasm wasmout/Std.wasm] [-entry Printing_main] [-ns system]")
		fmt.Fprintln(stderr, "       run -wasm <file.wasm> -i  (interactive mode)")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if *verbose {
		logger := newDebugLogger(stderr)
		defer func() { _ = logger.Sync() }()
		runtime.SetLogger(logger)
	}

	cfg := defaults
	cfg.Stdin = stdin
	cfg.Stdout = stdout
	cfg.ModulePath = *wasmFile
	cfg.EntryPoint = *entry
	cfg.Namespace = *namespace
	cfg.MemoryPages = uint32(*pages)
	cfg.MemoryLimitPages = uint32(*maxPages)

	var err error
	if *interactive {
		err = runInteractive(cfg)
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = runtime.Run(ctx, cfg)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return runtime.ExitCode(err)
}

// newDebugLogger writes human-readable debug logs to w, keeping the guest's
// stdout clean.
func newDebugLogger(w io.Writer) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return zap.New(core, zap.Development())
}
