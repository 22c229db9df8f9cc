package engine

import (
	"context"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-console/errors"
)

// WazeroEngine owns the wazero runtime every module and import table lives in.
type WazeroEngine struct {
	runtime wazero.Runtime
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// CloseOnContextDone makes running guests stop when the call context is
	// cancelled. A guest spinning without host calls is only interruptible
	// this way.
	CloseOnContextDone bool
}

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.CloseOnContextDone {
			runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
		}
	}

	return &WazeroEngine{runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg)}, nil
}

// Runtime exposes the underlying wazero runtime for import table construction.
func (e *WazeroEngine) Runtime() wazero.Runtime {
	return e.runtime
}

// LoadModule compiles wasmBytes. Bytes that are not a valid core module fail
// with errors.ErrCompile.
func (e *WazeroEngine) LoadModule(ctx context.Context, wasmBytes []byte) (*WazeroModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Compile(err)
	}

	Logger().Debug("module compiled",
		zap.Int("bytes", len(wasmBytes)),
		zap.Int("imports", len(compiled.ImportedFunctions())),
		zap.Int("exports", len(compiled.ExportedFunctions())))

	return &WazeroModule{engine: e, compiled: compiled}, nil
}

func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// WazeroModule is a compiled WASM module
type WazeroModule struct {
	engine   *WazeroEngine
	compiled wazero.CompiledModule
}

// InstanceConfig holds configuration for module instantiation
type InstanceConfig struct {
	Name string
}

// Compiled returns the wazero compiled module, used for import verification.
func (m *WazeroModule) Compiled() wazero.CompiledModule {
	return m.compiled
}

// ExportNames returns the names of all exported functions in sorted order.
func (m *WazeroModule) ExportNames() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasExport reports whether the module exports a function called name.
func (m *WazeroModule) HasExport(name string) bool {
	_, ok := m.compiled.ExportedFunctions()[name]
	return ok
}

func (m *WazeroModule) Instantiate(ctx context.Context) (*WazeroInstance, error) {
	return m.InstantiateWithConfig(ctx, nil)
}

// InstantiateWithConfig creates an instance with custom configuration.
// Start functions are not run; the caller invokes the entry point explicitly.
func (m *WazeroModule) InstantiateWithConfig(ctx context.Context, cfg *InstanceConfig) (*WazeroInstance, error) {
	name := ""
	if cfg != nil {
		name = cfg.Name
	}
	modConfig := wazero.NewModuleConfig().WithName(name).WithStartFunctions()

	instance, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modConfig)
	if err != nil {
		return nil, errors.Instantiation(name, err)
	}

	Logger().Debug("instance created", zap.String("name", name))
	return &WazeroInstance{module: m, instance: instance}, nil
}

// Close releases the compiled code. Instances created from it must be closed
// first.
func (m *WazeroModule) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// WazeroInstance is a running guest.
type WazeroInstance struct {
	module   *WazeroModule
	instance api.Module
}

// GetExportedFunction returns an exported function by name, or nil.
func (i *WazeroInstance) GetExportedFunction(name string) api.Function {
	return i.instance.ExportedFunction(name)
}

// Call invokes the exported function name with no arguments. A missing
// export fails with errors.ErrEntryNotFound; any failure inside the guest,
// including a host function that unwound it, is returned as errors.ErrTrap.
func (i *WazeroInstance) Call(ctx context.Context, name string) ([]uint64, error) {
	fn := i.GetExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseLoad, "entry point", name)
	}
	results, err := fn.Call(ctx)
	if err != nil {
		return nil, errors.Trap(name, err)
	}
	return results, nil
}

// MemorySize returns the current linear memory size in bytes, or 0 if no memory.
func (i *WazeroInstance) MemorySize() uint32 {
	mem := i.instance.Memory()
	if mem == nil {
		return 0
	}
	return mem.Size()
}

func (i *WazeroInstance) Close(ctx context.Context) error {
	if i.instance == nil {
		return nil
	}
	err := i.instance.Close(ctx)
	i.instance = nil
	return err
}
