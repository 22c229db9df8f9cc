package bridge

import (
	"context"
	"strconv"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	wasmconsole "github.com/wippyai/wasm-console"
	"github.com/wippyai/wasm-console/errors"
	"github.com/wippyai/wasm-console/linker"
	"github.com/wippyai/wasm-console/memory"
)

// Host function names as the guest imports them.
const (
	FuncPrintInt    = "printInt"
	FuncPrintString = "printString"
	FuncReadInt     = "readInt"
	FuncReadString0 = "readString0"
)

var i32 = []api.ValueType{api.ValueTypeI32}

// Console is the line-oriented text console the host functions talk to.
type Console interface {
	WriteLine(s string) error
	ReadLine(ctx context.Context) (string, error)
}

// Bridge carries host function state for one guest instance.
type Bridge struct {
	console Console
	region  *memory.Region
	fatal   error
	mu      sync.Mutex
}

// New creates a bridge over console. Bind must be called before any string
// function runs.
func New(console Console) *Bridge {
	return &Bridge{console: console}
}

// Bind attaches the shared linear memory.
func (b *Bridge) Bind(mem wasmconsole.Memory) {
	b.region = memory.NewRegion(mem)
}

// Region returns the bound memory region, or nil before Bind.
func (b *Bridge) Region() *memory.Region {
	return b.region
}

// PrintInt writes the decimal form of v as one console line.
func (b *Bridge) PrintInt(v int32) error {
	return b.console.WriteLine(strconv.FormatInt(int64(v), 10))
}

// PrintString writes the NUL-terminated string at offset as one console line.
func (b *Bridge) PrintString(offset uint32) error {
	if b.region == nil {
		return errors.NotFound(errors.PhaseMemory, "memory", FuncPrintString)
	}
	s, err := b.region.ReadString(offset)
	if err != nil {
		return err
	}
	return b.console.WriteLine(s)
}

// ReadInt waits for the next console line and returns its leading integer.
// Trailing text is ignored, hex needs a 0x prefix and out of range values
// wrap to 32 bits. A line without a leading digit fails with
// errors.ErrInputParse.
func (b *Bridge) ReadInt(ctx context.Context) (int32, error) {
	line, err := b.console.ReadLine(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := parseInt(line)
	if !ok {
		return 0, errors.ParseInt(line, nil)
	}
	return v, nil
}

// ReadString0 waits for the next console line, stores it at offset with the
// padded encoding and returns the next free offset.
func (b *Bridge) ReadString0(ctx context.Context, offset uint32) (uint32, error) {
	if b.region == nil {
		return 0, errors.NotFound(errors.PhaseMemory, "memory", FuncReadString0)
	}
	line, err := b.console.ReadLine(ctx)
	if err != nil {
		return 0, err
	}
	return b.region.WriteString(offset, line)
}

// Err returns the first fatal error raised by a host function, if any.
func (b *Bridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fatal
}

// fail records err as the run's fatal error unless one is already recorded,
// then unwinds the guest.
func (b *Bridge) fail(name string, err error) {
	b.mu.Lock()
	if b.fatal == nil {
		b.fatal = err
	}
	b.mu.Unlock()

	Logger().Error("host function failed", zap.String("func", name), zap.Error(err))
	panic(err)
}

// Funcs returns the wazero definitions of the four host functions.
func (b *Bridge) Funcs() []linker.FuncDef {
	return []linker.FuncDef{
		{
			Name: FuncPrintInt,
			Handler: func(_ context.Context, _ api.Module, stack []uint64) {
				v := api.DecodeI32(stack[0])
				Logger().Debug("host call", zap.String("func", FuncPrintInt), zap.Int32("value", v))
				if err := b.PrintInt(v); err != nil {
					b.fail(FuncPrintInt, err)
				}
			},
			ParamTypes: i32,
		},
		{
			Name: FuncPrintString,
			Handler: func(_ context.Context, _ api.Module, stack []uint64) {
				offset := api.DecodeU32(stack[0])
				Logger().Debug("host call", zap.String("func", FuncPrintString), zap.Uint32("offset", offset))
				if err := b.PrintString(offset); err != nil {
					b.fail(FuncPrintString, err)
				}
			},
			ParamTypes: i32,
		},
		{
			Name: FuncReadInt,
			Handler: func(ctx context.Context, _ api.Module, stack []uint64) {
				Logger().Debug("host call", zap.String("func", FuncReadInt))
				v, err := b.ReadInt(ctx)
				if err != nil {
					b.fail(FuncReadInt, err)
				}
				stack[0] = api.EncodeI32(v)
			},
			ResultTypes: i32,
		},
		{
			Name: FuncReadString0,
			Handler: func(ctx context.Context, _ api.Module, stack []uint64) {
				offset := api.DecodeU32(stack[0])
				Logger().Debug("host call", zap.String("func", FuncReadString0), zap.Uint32("offset", offset))
				next, err := b.ReadString0(ctx, offset)
				if err != nil {
					b.fail(FuncReadString0, err)
				}
				stack[0] = api.EncodeU32(next)
			},
			ParamTypes:  i32,
			ResultTypes: i32,
		},
	}
}
