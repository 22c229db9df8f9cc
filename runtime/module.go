package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-console/engine"
)

// Module is a compiled guest whose imports resolve against the runtime's
// import table.
type Module struct {
	runtime  *Runtime
	compiled *engine.WazeroModule
}

// Exports returns the names of the module's exported functions.
func (m *Module) Exports() []string {
	return m.compiled.ExportNames()
}

// Instantiate binds the module to the import table. A runtime hosts at most
// one instance.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	if err := m.runtime.claim(); err != nil {
		return nil, err
	}
	inst, err := m.compiled.Instantiate(ctx)
	if err != nil {
		m.runtime.release()
		return nil, err
	}
	Logger().Debug("module instantiated", zap.Uint32("memory_bytes", inst.MemorySize()))
	return &Instance{module: m, instance: inst}, nil
}

// Close releases the compiled code.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}
