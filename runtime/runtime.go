package runtime

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"

	wasmconsole "github.com/wippyai/wasm-console"
	"github.com/wippyai/wasm-console/bridge"
	"github.com/wippyai/wasm-console/console"
	"github.com/wippyai/wasm-console/engine"
	"github.com/wippyai/wasm-console/errors"
	"github.com/wippyai/wasm-console/linker"
)

// Runtime is the host a single guest runs in: the wazero engine, the console,
// and the import table carrying the shared memory and the four host functions.
type Runtime struct {
	engine       *engine.WazeroEngine
	console      *console.Console
	bridge       *bridge.Bridge
	table        *linker.ImportTable
	cfg          Config
	mu           sync.Mutex
	instantiated bool
}

// New builds the import table described by cfg. The memory is allocated here
// and lives until Close.
func New(ctx context.Context, cfg Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eng, err := engine.NewWazeroEngineWithConfig(ctx, &engine.Config{
		MemoryLimitPages:   cfg.MemoryLimitPages,
		CloseOnContextDone: true,
	})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLink, errors.KindInstantiation, err, "create engine")
	}

	cons := console.New(cfg.Stdin, cfg.Stdout)
	br := bridge.New(cons)

	table, err := buildTable(ctx, eng, br, cfg)
	if err != nil {
		cons.Close()
		if closeErr := eng.Close(ctx); closeErr != nil {
			Logger().Warn("failed to close engine during cleanup", zap.Error(closeErr))
		}
		return nil, err
	}
	br.Bind(table.Memory())

	return &Runtime{
		cfg:     cfg,
		engine:  eng,
		console: cons,
		bridge:  br,
		table:   table,
	}, nil
}

func buildTable(ctx context.Context, eng *engine.WazeroEngine, br *bridge.Bridge, cfg Config) (*linker.ImportTable, error) {
	l := linker.New(eng.Runtime(), cfg.Namespace)
	for _, f := range br.Funcs() {
		if err := l.DefineFunc(f); err != nil {
			return nil, err
		}
	}
	if err := l.DefineMemory(cfg.MemoryPages, 0, "mem", "memory"); err != nil {
		return nil, err
	}
	return l.Instantiate(ctx)
}

// Config returns the validated configuration the runtime was built with.
func (r *Runtime) Config() Config {
	return r.cfg
}

// Memory returns the shared linear memory.
func (r *Runtime) Memory() wasmconsole.Memory {
	return r.table.Memory()
}

// Load reads the module at path, compiles it, checks its imports against the
// table and instantiates it. The entry point is not invoked.
func (r *Runtime) Load(ctx context.Context, path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ReadModule(path, err)
	}
	mod, err := r.LoadModule(ctx, data)
	if err != nil {
		return nil, err
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		if closeErr := mod.Close(ctx); closeErr != nil {
			Logger().Warn("failed to close module during cleanup", zap.Error(closeErr))
		}
		return nil, err
	}
	return inst, nil
}

// LoadModule compiles data and verifies it against the import table and the
// configured entry point.
func (r *Runtime) LoadModule(ctx context.Context, data []byte) (*Module, error) {
	compiled, err := r.engine.LoadModule(ctx, data)
	if err != nil {
		return nil, err
	}

	if err := r.table.Verify(compiled.Compiled()); err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}
	if !compiled.HasExport(r.cfg.EntryPoint) {
		_ = compiled.Close(ctx)
		return nil, errors.NotFound(errors.PhaseLoad, "entry point", r.cfg.EntryPoint)
	}

	Logger().Debug("module loaded",
		zap.String("entry", r.cfg.EntryPoint),
		zap.Strings("exports", compiled.ExportNames()))

	return &Module{runtime: r, compiled: compiled}, nil
}

// Close releases the console reader, the import table and the engine.
// Instances must be closed first.
func (r *Runtime) Close(ctx context.Context) error {
	var first error
	if err := r.console.Close(); err != nil {
		first = err
	}
	if err := r.table.Close(ctx); err != nil && first == nil {
		first = err
	}
	if err := r.engine.Close(ctx); err != nil && first == nil {
		first = err
	}
	return first
}

// claim marks the runtime's single instance slot as taken.
func (r *Runtime) claim() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instantiated {
		return errors.Unsupported(errors.PhaseInstantiate, "only one module instance per runtime")
	}
	r.instantiated = true
	return nil
}

// release frees the instance slot after a failed instantiation.
func (r *Runtime) release() {
	r.mu.Lock()
	r.instantiated = false
	r.mu.Unlock()
}

// Run loads the module named by cfg, invokes its entry point and releases
// everything. The returned error is the first fatal condition encountered.
func Run(ctx context.Context, cfg Config) error {
	rt, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(ctx); err != nil {
			Logger().Warn("failed to close runtime", zap.Error(err))
		}
	}()

	inst, err := rt.Load(ctx, cfg.ModulePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := inst.Close(ctx); err != nil {
			Logger().Warn("failed to close instance", zap.Error(err))
		}
	}()

	return inst.Run(ctx)
}

// ExitCode maps a Run result to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
