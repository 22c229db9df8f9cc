package runtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-console/bridge"
	"github.com/wippyai/wasm-console/console"
	"github.com/wippyai/wasm-console/engine"
	"github.com/wippyai/wasm-console/linker"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the runtime package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the logger for the runtime and every package it
// drives. This must be called before New.
func SetLogger(l *zap.Logger) {
	logger = l
	engine.SetLogger(l.Named("engine"))
	linker.SetLogger(l.Named("linker"))
	bridge.SetLogger(l.Named("bridge"))
	console.SetLogger(l.Named("console"))
}
