package runtime

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	wasmerrors "github.com/wippyai/wasm-console/errors"
	"github.com/wippyai/wasm-console/internal/guest"
	"github.com/wippyai/wasm-console/internal/wasm"
)

// writeModule stores wasm bytes in a temp file and returns its path.
func writeModule(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Std.wasm")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write module: %v", err)
	}
	return path
}

func testConfig(path, input string, out io.Writer) Config {
	cfg := DefaultConfig()
	cfg.ModulePath = path
	cfg.Stdin = strings.NewReader(input)
	cfg.Stdout = out
	return cfg
}

func runModule(t *testing.T, data []byte, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Run(context.Background(), testConfig(writeModule(t, data), input, &out))
	return out.String(), err
}

func TestRun_Double(t *testing.T) {
	out, err := runModule(t, guest.Double(DefaultNamespace, DefaultEntryPoint), "5\n")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "10\n" {
		t.Errorf("output = %q, want %q", out, "10\n")
	}
	if ExitCode(err) != 0 {
		t.Errorf("ExitCode = %d, want 0", ExitCode(err))
	}
}

func TestRun_DoubleNegative(t *testing.T) {
	out, err := runModule(t, guest.Double(DefaultNamespace, DefaultEntryPoint), "-21\n")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "-42\n" {
		t.Errorf("output = %q, want %q", out, "-42\n")
	}
}

func TestRun_DoubleLeadingInteger(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"7 apples\n", "14\n"},
		{"0x10\n", "32\n"},
		{"2147483648\n", "0\n"},
	}
	for _, tt := range tests {
		out, err := runModule(t, guest.Double(DefaultNamespace, DefaultEntryPoint), tt.input)
		if err != nil {
			t.Errorf("Run(%q): %v", tt.input, err)
			continue
		}
		if out != tt.want {
			t.Errorf("Run(%q) output = %q, want %q", tt.input, out, tt.want)
		}
	}
}

func TestRun_Echo(t *testing.T) {
	out, err := runModule(t, guest.Echo(DefaultNamespace, DefaultEntryPoint, 1000), "hi\n")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "1004\nhi  \n" {
		t.Errorf("output = %q, want %q", out, "1004\nhi  \n")
	}
}

func TestRun_Greeting(t *testing.T) {
	out, err := runModule(t, guest.Greeting(DefaultNamespace, DefaultEntryPoint, 64, "hello"), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "hello\n" {
		t.Errorf("output = %q, want %q", out, "hello\n")
	}
}

func TestRun_ParseFailure(t *testing.T) {
	out, err := runModule(t, guest.Double(DefaultNamespace, DefaultEntryPoint), "abc\n")
	if !errors.Is(err, wasmerrors.ErrInputParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if !strings.Contains(err.Error(), "could not parse int") {
		t.Errorf("diagnostic should mention parse failure: %v", err)
	}
	if ExitCode(err) != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode(err))
	}
	if out != "" {
		t.Errorf("no output expected, got %q", out)
	}
}

func TestRun_EndOfInput(t *testing.T) {
	_, err := runModule(t, guest.Double(DefaultNamespace, DefaultEntryPoint), "")
	if !errors.Is(err, wasmerrors.ErrEndOfInput) {
		t.Fatalf("expected end of input, got %v", err)
	}
	if ExitCode(err) != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode(err))
	}
}

func TestRun_Trap(t *testing.T) {
	_, err := runModule(t, guest.Trap(DefaultNamespace, DefaultEntryPoint), "")
	if !errors.Is(err, wasmerrors.ErrTrap) {
		t.Fatalf("expected trap, got %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		entry  string
		target error
	}{
		{"garbage", []byte("definitely not wasm"), DefaultEntryPoint, wasmerrors.ErrCompile},
		{"missing entry", guest.Double(DefaultNamespace, "main"), DefaultEntryPoint, wasmerrors.ErrEntryNotFound},
		{"missing import", guest.WithExtraImport(DefaultNamespace, "readFloat", DefaultEntryPoint), DefaultEntryPoint, wasmerrors.ErrInstantiation},
		{"wrong namespace", guest.Double("env", DefaultEntryPoint), DefaultEntryPoint, wasmerrors.ErrInstantiation},
		{"signature", guest.WithWrongSignature(DefaultNamespace, DefaultEntryPoint), DefaultEntryPoint, wasmerrors.ErrTypeMismatch},
		{"memory too large", guest.WithMemory(DefaultNamespace, "mem", 200, DefaultEntryPoint), DefaultEntryPoint, wasmerrors.ErrTypeMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(writeModule(t, tc.data), "", io.Discard)
			cfg.EntryPoint = tc.entry
			err := Run(context.Background(), cfg)
			if !errors.Is(err, tc.target) {
				t.Errorf("expected %v, got %v", tc.target, err)
			}
			if ExitCode(err) != 1 {
				t.Errorf("ExitCode = %d, want 1", ExitCode(err))
			}
		})
	}
}

func TestLoad_MissingImportsListed(t *testing.T) {
	cfg := testConfig(writeModule(t, guest.WithExtraImport(DefaultNamespace, "readFloat", DefaultEntryPoint)), "", io.Discard)
	err := Run(context.Background(), cfg)

	var missing *wasmerrors.MissingImportsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingImportsError, got %v", err)
	}
	if !strings.Contains(err.Error(), "readFloat") {
		t.Errorf("message should name the import: %v", err)
	}
}

func TestLoad_UnreadableFile(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing.wasm"), "", io.Discard)
	err := Run(context.Background(), cfg)
	if !errors.Is(err, wasmerrors.ErrReadModule) {
		t.Fatalf("expected read error, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("cause should be preserved: %v", err)
	}
}

func TestRuntime_SingleInstance(t *testing.T) {
	ctx := context.Background()
	path := writeModule(t, guest.Greeting(DefaultNamespace, DefaultEntryPoint, 0, "x"))

	rt, err := New(ctx, testConfig(path, "", io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rt.Close(ctx)

	inst, err := rt.Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer inst.Close(ctx)

	_, err = rt.Load(ctx, path)
	var werr *wasmerrors.Error
	if !errors.As(err, &werr) || werr.Kind != wasmerrors.KindUnsupported {
		t.Errorf("second Load should be rejected, got %v", err)
	}
}

func TestRuntime_FailedInstantiateFreesSlot(t *testing.T) {
	ctx := context.Background()
	// The data segment ends past the shared memory, so instantiation fails.
	bad := writeModule(t, guest.New(DefaultNamespace, "mem", DefaultMemoryPages, DefaultEntryPoint).
		Data(int32(DefaultMemoryPages*65536-2), []byte("xyz")).
		Main())
	good := writeModule(t, guest.Greeting(DefaultNamespace, DefaultEntryPoint, 0, "x"))

	rt, err := New(ctx, testConfig(good, "", io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rt.Close(ctx)

	for i := 0; i < 2; i++ {
		_, err := rt.Load(ctx, bad)
		if err == nil {
			t.Fatal("expected load of out of range data to fail")
		}
		var werr *wasmerrors.Error
		if errors.As(err, &werr) && werr.Kind == wasmerrors.KindUnsupported {
			t.Fatalf("attempt %d reported the slot as taken: %v", i+1, err)
		}
	}

	inst, err := rt.Load(ctx, good)
	if err != nil {
		t.Fatalf("Load after failures: %v", err)
	}
	defer inst.Close(ctx)
}

func TestRuntime_ClaimRelease(t *testing.T) {
	rt := &Runtime{}
	if err := rt.claim(); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	var werr *wasmerrors.Error
	if err := rt.claim(); !errors.As(err, &werr) || werr.Kind != wasmerrors.KindUnsupported {
		t.Errorf("second claim should be rejected, got %v", err)
	}
	rt.release()
	if err := rt.claim(); err != nil {
		t.Errorf("claim after release: %v", err)
	}
}

func TestRuntime_Memory(t *testing.T) {
	ctx := context.Background()
	rt, err := New(ctx, testConfig("unused.wasm", "", io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rt.Close(ctx)

	if got := rt.Memory().Size(); got != DefaultMemoryPages*65536 {
		t.Errorf("memory size = %d, want %d", got, DefaultMemoryPages*65536)
	}
	if rt.Config().Namespace != DefaultNamespace {
		t.Errorf("Namespace = %q", rt.Config().Namespace)
	}
}

func TestRuntime_MemoryIsShared(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	path := writeModule(t, guest.New(DefaultNamespace, "memory", DefaultMemoryPages, DefaultEntryPoint).
		Main(wasm.I32Const(2000), wasm.Call(guest.PrintString)))

	rt, err := New(ctx, testConfig(path, "", &out))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rt.Close(ctx)

	if !rt.Memory().Write(2000, []byte("host\x00")) {
		t.Fatal("host write failed")
	}

	inst, err := rt.Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer inst.Close(ctx)

	if err := inst.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "host\n" {
		t.Errorf("output = %q, want %q", out.String(), "host\n")
	}
}

func TestRun_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	cfg := testConfig(writeModule(t, guest.Double(DefaultNamespace, DefaultEntryPoint)), "", io.Discard)
	cfg.Stdin = pr

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := Run(ctx, cfg)
	if err == nil {
		t.Fatal("expected error when context expires during a read")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded in chain, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"defaults", func(*Config) {}, nil},
		{"no path", func(c *Config) { c.ModulePath = "" }, wasmerrors.ErrInvalidConfig},
		{"no entry", func(c *Config) { c.EntryPoint = "" }, wasmerrors.ErrInvalidConfig},
		{"no namespace", func(c *Config) { c.Namespace = "" }, wasmerrors.ErrInvalidConfig},
		{"reserved namespace", func(c *Config) { c.Namespace = "sys$host" }, wasmerrors.ErrInvalidConfig},
		{"zero pages", func(c *Config) { c.MemoryPages = 0 }, wasmerrors.ErrInvalidConfig},
		{"too many pages", func(c *Config) { c.MemoryPages = 70000 }, wasmerrors.ErrInvalidConfig},
		{"limit below pages", func(c *Config) { c.MemoryLimitPages = 10 }, wasmerrors.ErrInvalidConfig},
		{"limit above pages", func(c *Config) { c.MemoryLimitPages = 256 }, nil},
		{"no stdin", func(c *Config) { c.Stdin = nil }, wasmerrors.ErrUnavailable},
		{"no stdout", func(c *Config) { c.Stdout = nil }, wasmerrors.ErrUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.target == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.target) {
				t.Errorf("expected %v, got %v", tc.target, err)
			}
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MemoryPages = 0
	if _, err := New(context.Background(), cfg); !errors.Is(err, wasmerrors.ErrInvalidConfig) {
		t.Errorf("expected invalid config, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Error("nil error should exit 0")
	}
	for _, err := range []error{wasmerrors.EndOfInput(), wasmerrors.Compile(nil), io.EOF} {
		if ExitCode(err) != 1 {
			t.Errorf("ExitCode(%v) = %d, want 1", err, ExitCode(err))
		}
	}
}
