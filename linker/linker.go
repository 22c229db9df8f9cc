package linker

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-console/errors"
	"github.com/wippyai/wasm-console/internal/wasm"
)

// hostSuffix is appended to the namespace to name the module that carries the
// Go functions.
const hostSuffix = "$host"

// FuncDef defines a host function
type FuncDef struct {
	Name        string
	Handler     api.GoModuleFunc
	ParamTypes  []api.ValueType
	ResultTypes []api.ValueType
}

// memoryDef describes the shared memory owned by the namespace module.
type memoryDef struct {
	names    []string
	minPages uint32
	maxPages uint32
}

// Linker collects host definitions for a single namespace.
type Linker struct {
	runtime   wazero.Runtime
	memory    *memoryDef
	funcs     []FuncDef
	namespace string
	mu        sync.Mutex
	built     bool
}

// New creates a Linker that instantiates into rt under namespace.
func New(rt wazero.Runtime, namespace string) *Linker {
	return &Linker{
		runtime:   rt,
		namespace: namespace,
	}
}

// Namespace returns the module name guests import from.
func (l *Linker) Namespace() string {
	return l.namespace
}

// DefineFunc registers a host function under the namespace.
func (l *Linker) DefineFunc(def FuncDef) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.built {
		return errors.Unsupported(errors.PhaseLink, "define after instantiate")
	}
	if def.Handler == nil {
		return errors.New(errors.PhaseLink, errors.KindNotFound).
			Name(l.namespace + "#" + def.Name).
			Detail("nil handler").
			Build()
	}
	for _, f := range l.funcs {
		if f.Name == def.Name {
			return errors.Duplicate(errors.PhaseLink, "function", l.namespace+"#"+def.Name)
		}
	}
	l.funcs = append(l.funcs, def)
	return nil
}

// DefineMemory declares the shared memory: minPages initial pages, maxPages
// maximum (zero for none), exported under each of names.
func (l *Linker) DefineMemory(minPages, maxPages uint32, names ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.built {
		return errors.Unsupported(errors.PhaseLink, "define after instantiate")
	}
	if l.memory != nil {
		return errors.Duplicate(errors.PhaseLink, "memory", l.namespace)
	}
	if len(names) == 0 {
		return errors.New(errors.PhaseLink, errors.KindNotFound).
			Name(l.namespace).
			Detail("memory needs at least one export name").
			Build()
	}
	l.memory = &memoryDef{minPages: minPages, maxPages: maxPages, names: names}
	return nil
}

// Instantiate builds the host module and the namespace module. It can only be
// called once.
func (l *Linker) Instantiate(ctx context.Context) (*ImportTable, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.built {
		return nil, errors.Unsupported(errors.PhaseLink, "import table already instantiated")
	}
	if l.memory == nil {
		return nil, errors.NotFound(errors.PhaseLink, "memory definition", l.namespace)
	}

	hostName := l.namespace + hostSuffix
	builder := l.runtime.NewHostModuleBuilder(hostName)
	for _, f := range l.funcs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.Handler, f.ParamTypes, f.ResultTypes).
			WithName(f.Name).
			Export(f.Name)
	}
	host, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLink, errors.KindInstantiation, err, "instantiate host module "+hostName)
	}

	system, err := l.runtime.InstantiateWithConfig(ctx, l.synthesize(hostName),
		wazero.NewModuleConfig().WithName(l.namespace).WithStartFunctions())
	if err != nil {
		if closeErr := host.Close(ctx); closeErr != nil {
			Logger().Warn("failed to close host module during cleanup",
				zap.String("module", hostName),
				zap.Error(closeErr))
		}
		return nil, errors.Wrap(errors.PhaseLink, errors.KindInstantiation, err, "instantiate namespace module "+l.namespace)
	}

	mem := system.ExportedMemory(l.memory.names[0])
	l.built = true

	Logger().Debug("import table instantiated",
		zap.String("namespace", l.namespace),
		zap.Int("functions", len(l.funcs)),
		zap.Uint32("memory_pages", l.memory.minPages))

	funcs := make(map[string]FuncDef, len(l.funcs))
	for _, f := range l.funcs {
		funcs[f.Name] = f
	}
	memNames := make(map[string]bool, len(l.memory.names))
	for _, n := range l.memory.names {
		memNames[n] = true
	}

	return &ImportTable{
		namespace: l.namespace,
		host:      host,
		system:    system,
		memory:    mem,
		funcs:     funcs,
		memNames:  memNames,
	}, nil
}

// synthesize builds the namespace module: it imports every host function
// from hostName, defines the memory, and exports a forwarding stub per
// function plus the memory under each name.
func (l *Linker) synthesize(hostName string) []byte {
	b := wasm.NewBuilder()

	imported := make([]uint32, len(l.funcs))
	for i, f := range l.funcs {
		imported[i] = b.ImportFunc(hostName, f.Name, f.ParamTypes, f.ResultTypes)
	}
	b.DefineMemory(l.memory.minPages, l.memory.maxPages)

	for i, f := range l.funcs {
		stub := b.AddFunc(f.ParamTypes, f.ResultTypes, wasm.Forward(imported[i], len(f.ParamTypes)))
		b.Export(f.Name, wasm.KindFunc, stub)
	}
	for _, name := range l.memory.names {
		b.Export(name, wasm.KindMemory, 0)
	}
	return b.Build()
}
