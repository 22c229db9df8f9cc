package linker

import (
	"context"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	wasmconsole "github.com/wippyai/wasm-console"
	"github.com/wippyai/wasm-console/errors"
)

// ImportTable is the instantiated namespace a guest binds to.
type ImportTable struct {
	host      api.Module
	system    api.Module
	memory    api.Memory
	funcs     map[string]FuncDef
	memNames  map[string]bool
	namespace string
}

// Namespace returns the module name guests import from.
func (t *ImportTable) Namespace() string {
	return t.namespace
}

// Memory returns the shared linear memory.
func (t *ImportTable) Memory() api.Memory {
	return t.memory
}

// Names returns the exported function names in sorted order.
func (t *ImportTable) Names() []string {
	names := make([]string, 0, len(t.funcs))
	for name := range t.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Verify checks every import of compiled against the table. Unresolved imports
// are reported together as an *errors.MissingImportsError; an import with a
// signature that differs from the host definition fails with
// errors.ErrTypeMismatch.
func (t *ImportTable) Verify(compiled wazero.CompiledModule) error {
	var missing []string

	for _, def := range compiled.ImportedFunctions() {
		module, name, _ := def.Import()
		f, ok := t.funcs[name]
		if module != t.namespace || !ok {
			missing = append(missing, module+"#"+name)
			continue
		}
		want := signature(f.ParamTypes, f.ResultTypes)
		got := signature(def.ParamTypes(), def.ResultTypes())
		if want != got {
			return errors.TypeMismatch(module+"#"+name, want, got)
		}
	}

	for _, def := range compiled.ImportedMemories() {
		module, name, _ := def.Import()
		if module != t.namespace || !t.memNames[name] {
			missing = append(missing, module+"#"+name)
			continue
		}
		if pages := t.memory.Size() / wasmconsole.PageSize; def.Min() > pages {
			return errors.New(errors.PhaseInstantiate, errors.KindTypeMismatch).
				Name(module + "#" + name).
				Detail("module requires %d memory pages, host provides %d", def.Min(), pages).
				Build()
		}
	}

	if len(missing) > 0 {
		Logger().Debug("unresolved imports", zap.Strings("imports", missing))
		return errors.NewMissingImportsError(missing)
	}
	return nil
}

// Close releases the namespace and host modules.
func (t *ImportTable) Close(ctx context.Context) error {
	var first error
	if err := t.system.Close(ctx); err != nil {
		first = err
	}
	if err := t.host.Close(ctx); err != nil && first == nil {
		first = err
	}
	return first
}

func signature(params, results []api.ValueType) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(api.ValueTypeName(p))
	}
	b.WriteString(") -> (")
	for i, r := range results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(api.ValueTypeName(r))
	}
	b.WriteByte(')')
	return b.String()
}
