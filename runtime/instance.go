package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-console/engine"
)

type Instance struct {
	module   *Module
	instance *engine.WazeroInstance
}

// Entry returns the name of the entry point Run invokes.
func (i *Instance) Entry() string {
	return i.module.runtime.cfg.EntryPoint
}

// Run invokes the entry point and waits for it to return. When a host
// function failed, its error is returned instead of the resulting trap.
func (i *Instance) Run(ctx context.Context) error {
	entry := i.Entry()
	Logger().Debug("invoking entry point", zap.String("entry", entry))

	_, err := i.instance.Call(ctx, entry)
	if err == nil {
		return nil
	}
	if fatal := i.module.runtime.bridge.Err(); fatal != nil {
		return fatal
	}
	return err
}

// Close releases the instance and its compiled module.
func (i *Instance) Close(ctx context.Context) error {
	err := i.instance.Close(ctx)
	if closeErr := i.module.Close(ctx); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
