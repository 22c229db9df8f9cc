package runtime

import (
	"io"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/wippyai/wasm-console/errors"
)

// validate is shared; building a validator per call re-parses struct tags.
var validate = validator.New()

const (
	DefaultModulePath  = "wasmout/Std.wasm"
	DefaultEntryPoint  = "Printing_main"
	DefaultNamespace   = "system"
	DefaultMemoryPages = 100
)

// Config holds runner configuration
type Config struct {
	Stdin  io.Reader `validate:"-"`
	Stdout io.Writer `validate:"-"`

	ModulePath string `validate:"required"`
	EntryPoint string `validate:"required"`
	Namespace  string `validate:"required,excludes=$"`

	// MemoryPages is the initial size of the shared memory, in 64KB pages.
	MemoryPages uint32 `validate:"gte=1,lte=65536"`

	// MemoryLimitPages caps memory per instance. 0 uses the engine default.
	MemoryLimitPages uint32 `validate:"omitempty,gtefield=MemoryPages,lte=65536"`
}

// DefaultConfig returns the configuration for the standard compiler output
// on the process console.
func DefaultConfig() Config {
	return Config{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		ModulePath:  DefaultModulePath,
		EntryPoint:  DefaultEntryPoint,
		Namespace:   DefaultNamespace,
		MemoryPages: DefaultMemoryPages,
	}
}

// Validate checks field constraints and that both console streams are set.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.InvalidConfig(err)
	}
	if c.Stdin == nil || c.Stdout == nil {
		return errors.Environment("console streams are not available")
	}
	return nil
}
