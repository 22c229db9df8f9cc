package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero/api"

	wasmerrors "github.com/wippyai/wasm-console/errors"
	"github.com/wippyai/wasm-console/internal/guest"
	"github.com/wippyai/wasm-console/linker"
)

var i32 = []api.ValueType{api.ValueTypeI32}

func TestConfig_Defaults(t *testing.T) {
	cfg := &Config{}
	if cfg.MemoryLimitPages != 0 {
		t.Errorf("expected default MemoryLimitPages 0, got %d", cfg.MemoryLimitPages)
	}
	if cfg.CloseOnContextDone {
		t.Error("expected CloseOnContextDone off by default")
	}
}

func TestNewWazeroEngineWithConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		cfg  *Config
		name string
	}{
		{nil, "nil config"},
		{&Config{}, "default config"},
		{&Config{MemoryLimitPages: 256}, "16MB limit"},
		{&Config{CloseOnContextDone: true}, "close on context done"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine, err := NewWazeroEngineWithConfig(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("NewWazeroEngineWithConfig failed: %v", err)
			}
			defer engine.Close(ctx)

			if engine.Runtime() == nil {
				t.Error("engine runtime should not be nil")
			}
		})
	}
}

func TestLoadModule_Invalid(t *testing.T) {
	ctx := context.Background()
	engine, err := NewWazeroEngine(ctx)
	if err != nil {
		t.Fatalf("NewWazeroEngine failed: %v", err)
	}
	defer engine.Close(ctx)

	for _, data := range [][]byte{nil, []byte("not wasm"), {0x00, 0x61, 0x73, 0x6d}} {
		if _, err := engine.LoadModule(ctx, data); !errors.Is(err, wasmerrors.ErrCompile) {
			t.Errorf("LoadModule(%q): expected compile error, got %v", data, err)
		}
	}
}

func TestLoadModule_Exports(t *testing.T) {
	ctx := context.Background()
	engine, err := NewWazeroEngine(ctx)
	if err != nil {
		t.Fatalf("NewWazeroEngine failed: %v", err)
	}
	defer engine.Close(ctx)

	mod, err := engine.LoadModule(ctx, guest.Double("system", "Printing_main"))
	if err != nil {
		t.Fatalf("LoadModule failed: %v", err)
	}
	defer mod.Close(ctx)

	if names := mod.ExportNames(); strings.Join(names, ",") != "Printing_main" {
		t.Errorf("ExportNames = %v", names)
	}
	if !mod.HasExport("Printing_main") {
		t.Error("HasExport(Printing_main) should be true")
	}
	if mod.HasExport("main") {
		t.Error("HasExport(main) should be false")
	}
	if got := len(mod.Compiled().ImportedFunctions()); got != 4 {
		t.Errorf("imported functions = %d, want 4", got)
	}
}

// instantiateSystem links a minimal system namespace whose printInt appends
// to printed and whose readInt always returns 21.
func instantiateSystem(t *testing.T, ctx context.Context, engine *WazeroEngine, printed *[]int32) *linker.ImportTable {
	t.Helper()
	l := linker.New(engine.Runtime(), "system")
	defs := []linker.FuncDef{
		{
			Name: "printInt",
			Handler: func(_ context.Context, _ api.Module, stack []uint64) {
				*printed = append(*printed, api.DecodeI32(stack[0]))
			},
			ParamTypes: i32,
		},
		{Name: "printString", Handler: func(context.Context, api.Module, []uint64) {}, ParamTypes: i32},
		{
			Name: "readInt",
			Handler: func(_ context.Context, _ api.Module, stack []uint64) {
				stack[0] = api.EncodeI32(21)
			},
			ResultTypes: i32,
		},
		{
			Name:        "readString0",
			Handler:     func(context.Context, api.Module, []uint64) {},
			ParamTypes:  i32,
			ResultTypes: i32,
		},
	}
	for _, d := range defs {
		if err := l.DefineFunc(d); err != nil {
			t.Fatalf("DefineFunc(%s): %v", d.Name, err)
		}
	}
	if err := l.DefineMemory(100, 0, "mem", "memory"); err != nil {
		t.Fatalf("DefineMemory: %v", err)
	}
	table, err := l.Instantiate(ctx)
	if err != nil {
		t.Fatalf("Instantiate import table: %v", err)
	}
	return table
}

func TestInstance_Call(t *testing.T) {
	ctx := context.Background()
	engine, err := NewWazeroEngine(ctx)
	if err != nil {
		t.Fatalf("NewWazeroEngine failed: %v", err)
	}
	defer engine.Close(ctx)

	var printed []int32
	table := instantiateSystem(t, ctx, engine, &printed)
	defer table.Close(ctx)

	mod, err := engine.LoadModule(ctx, guest.Double("system", "Printing_main"))
	if err != nil {
		t.Fatalf("LoadModule failed: %v", err)
	}
	inst, err := mod.InstantiateWithConfig(ctx, &InstanceConfig{Name: "guest"})
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	defer inst.Close(ctx)

	if inst.MemorySize() != 100*65536 {
		t.Errorf("MemorySize = %d, want imported memory size", inst.MemorySize())
	}
	if inst.GetExportedFunction("Printing_main") == nil {
		t.Fatal("entry point should be exported")
	}
	if _, err := inst.Call(ctx, "Printing_main"); err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if len(printed) != 1 || printed[0] != 42 {
		t.Errorf("printed = %v, want [42]", printed)
	}

	if _, err := inst.Call(ctx, "main"); !errors.Is(err, wasmerrors.ErrEntryNotFound) {
		t.Errorf("expected entry not found, got %v", err)
	}
}

func TestInstance_Trap(t *testing.T) {
	ctx := context.Background()
	engine, err := NewWazeroEngine(ctx)
	if err != nil {
		t.Fatalf("NewWazeroEngine failed: %v", err)
	}
	defer engine.Close(ctx)

	var printed []int32
	table := instantiateSystem(t, ctx, engine, &printed)
	defer table.Close(ctx)

	mod, err := engine.LoadModule(ctx, guest.Trap("system", "Printing_main"))
	if err != nil {
		t.Fatalf("LoadModule failed: %v", err)
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	defer inst.Close(ctx)

	_, err = inst.Call(ctx, "Printing_main")
	if !errors.Is(err, wasmerrors.ErrTrap) {
		t.Fatalf("expected trap, got %v", err)
	}
	if !strings.Contains(err.Error(), "unreachable") {
		t.Errorf("trap should carry the wazero cause: %v", err)
	}
}

func TestInstantiate_Unlinked(t *testing.T) {
	ctx := context.Background()
	engine, err := NewWazeroEngine(ctx)
	if err != nil {
		t.Fatalf("NewWazeroEngine failed: %v", err)
	}
	defer engine.Close(ctx)

	mod, err := engine.LoadModule(ctx, guest.Double("system", "Printing_main"))
	if err != nil {
		t.Fatalf("LoadModule failed: %v", err)
	}
	if _, err := mod.Instantiate(ctx); !errors.Is(err, wasmerrors.ErrInstantiation) {
		t.Errorf("expected instantiation error without import table, got %v", err)
	}
}

func TestInstance_CloseTwice(t *testing.T) {
	ctx := context.Background()
	engine, err := NewWazeroEngine(ctx)
	if err != nil {
		t.Fatalf("NewWazeroEngine failed: %v", err)
	}
	defer engine.Close(ctx)

	var printed []int32
	table := instantiateSystem(t, ctx, engine, &printed)
	defer table.Close(ctx)

	mod, err := engine.LoadModule(ctx, guest.Greeting("system", "Printing_main", 0, "x"))
	if err != nil {
		t.Fatalf("LoadModule failed: %v", err)
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	if err := inst.Close(ctx); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := inst.Close(ctx); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
