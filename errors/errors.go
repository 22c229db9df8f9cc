package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEnvironment Phase = "environment" // host capability checks
	PhaseConfig      Phase = "config"      // runner configuration
	PhaseLoad        Phase = "load"        // reading the module file
	PhaseCompile     Phase = "compile"     // module compilation
	PhaseInstantiate Phase = "instantiate" // import binding
	PhaseLink        Phase = "link"        // import table construction
	PhaseMemory      Phase = "memory"      // linear memory marshaling
	PhaseInput       Phase = "input"       // console reads
	PhaseOutput      Phase = "output"      // console writes
	PhaseRuntime     Phase = "runtime"     // guest execution
)

// Kind categorizes the error
type Kind string

const (
	KindUnavailable   Kind = "unavailable"
	KindInvalidConfig Kind = "invalid_config"
	KindIO            Kind = "io"
	KindInvalidModule Kind = "invalid_module"
	KindInstantiation Kind = "instantiation"
	KindMissingImport Kind = "missing_import"
	KindTypeMismatch  Kind = "type_mismatch"
	KindDuplicate     Kind = "duplicate"
	KindNotFound      Kind = "not_found"
	KindOutOfBounds   Kind = "out_of_bounds"
	KindParse         Kind = "parse"
	KindEndOfInput    Kind = "end_of_input"
	KindBusy          Kind = "busy"
	KindUnsupported   Kind = "unsupported"
	KindTrap          Kind = "trap"
)

// Error is the structured error type used throughout the runner
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Name   string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Name != "" {
		b.WriteString(" at ")
		b.WriteString(e.Name)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is checks. Only Phase and Kind are compared.
var (
	ErrUnavailable   = &Error{Phase: PhaseEnvironment, Kind: KindUnavailable}
	ErrInvalidConfig = &Error{Phase: PhaseConfig, Kind: KindInvalidConfig}
	ErrReadModule    = &Error{Phase: PhaseLoad, Kind: KindIO}
	ErrCompile       = &Error{Phase: PhaseCompile, Kind: KindInvalidModule}
	ErrInstantiation = &Error{Phase: PhaseInstantiate, Kind: KindInstantiation}
	ErrTypeMismatch  = &Error{Phase: PhaseInstantiate, Kind: KindTypeMismatch}
	ErrEntryNotFound = &Error{Phase: PhaseLoad, Kind: KindNotFound}
	ErrOutOfBounds   = &Error{Phase: PhaseMemory, Kind: KindOutOfBounds}
	ErrInputParse    = &Error{Phase: PhaseInput, Kind: KindParse}
	ErrEndOfInput    = &Error{Phase: PhaseInput, Kind: KindEndOfInput}
	ErrBusy          = &Error{Phase: PhaseInput, Kind: KindBusy}
	ErrTrap          = &Error{Phase: PhaseRuntime, Kind: KindTrap}
)

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Name sets the import, export or file the error refers to
func (b *Builder) Name(name string) *Builder {
	b.err.Name = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Environment creates an error for a host capability that is not available
func Environment(detail string) *Error {
	return &Error{
		Phase:  PhaseEnvironment,
		Kind:   KindUnavailable,
		Detail: detail,
	}
}

// InvalidConfig creates a configuration validation error
func InvalidConfig(cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidConfig,
		Detail: "validate config",
		Cause:  cause,
	}
}

// ReadModule creates an error for a module file that cannot be read
func ReadModule(path string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindIO,
		Name:   path,
		Detail: "read module",
		Cause:  cause,
	}
}

// Compile creates an error for bytes that are not a valid module
func Compile(cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindInvalidModule,
		Detail: "compile module",
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseInstantiate,
		Kind:   KindInstantiation,
		Name:   name,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// TypeMismatch creates an error for an import whose declared signature differs
// from the host definition
func TypeMismatch(name, want, got string) *Error {
	return &Error{
		Phase:  PhaseInstantiate,
		Kind:   KindTypeMismatch,
		Name:   name,
		Detail: fmt.Sprintf("host provides %s, module declares %s", want, got),
	}
}

// Duplicate creates an error for a name defined twice
func Duplicate(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicate,
		Name:   name,
		Detail: fmt.Sprintf("%s already defined", what),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Name:   name,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// OutOfBounds creates a linear memory bounds error
func OutOfBounds(offset uint32, length int, size uint32) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("offset %d length %d exceeds memory size %d", offset, length, size),
		Value:  offset,
	}
}

// ParseInt creates an error for a console line that is not an integer
func ParseInt(line string, cause error) *Error {
	return &Error{
		Phase:  PhaseInput,
		Kind:   KindParse,
		Detail: fmt.Sprintf("could not parse int from %q", line),
		Value:  line,
		Cause:  cause,
	}
}

// EndOfInput creates an error for a read issued after the input closed
func EndOfInput() *Error {
	return &Error{
		Phase:  PhaseInput,
		Kind:   KindEndOfInput,
		Detail: "console input closed",
	}
}

// Busy creates an error for a read issued while another read is outstanding
func Busy() *Error {
	return &Error{
		Phase:  PhaseInput,
		Kind:   KindBusy,
		Detail: "a read is already outstanding",
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Trap creates an error for a guest call that failed
func Trap(entry string, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindTrap,
		Name:   entry,
		Detail: "guest call failed",
		Cause:  cause,
	}
}

// MissingImport represents a single unresolved import
type MissingImport struct {
	Namespace string // e.g., "system"
	Name      string // e.g., "readInt"
}

// MissingImportsError is returned when the module declares imports the host
// does not provide
type MissingImportsError struct {
	Imports []MissingImport
}

// NewMissingImportsError creates an error from a list of "namespace#name" strings
func NewMissingImportsError(imports []string) *MissingImportsError {
	result := &MissingImportsError{
		Imports: make([]MissingImport, 0, len(imports)),
	}
	for _, imp := range imports {
		ns, name := parseImportKey(imp)
		result.Imports = append(result.Imports, MissingImport{
			Namespace: ns,
			Name:      name,
		})
	}
	return result
}

func parseImportKey(key string) (namespace, name string) {
	ns, n, found := strings.Cut(key, "#")
	if found {
		return ns, n
	}
	return key, ""
}

func (e *MissingImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "[instantiate] missing_import: no imports specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("missing %d host import(s):\n", len(e.Imports)))

	// Group by namespace for cleaner output
	byNS := make(map[string][]string)
	var nsOrder []string
	for _, imp := range e.Imports {
		if _, exists := byNS[imp.Namespace]; !exists {
			nsOrder = append(nsOrder, imp.Namespace)
		}
		byNS[imp.Namespace] = append(byNS[imp.Namespace], imp.Name)
	}

	for _, ns := range nsOrder {
		b.WriteString("\n  ")
		b.WriteString(ns)
		b.WriteString(":\n")
		for _, name := range byNS[ns] {
			b.WriteString("    - ")
			b.WriteString(name)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type. Any instantiation
// sentinel also matches, so callers can treat both as "cannot instantiate".
func (e *MissingImportsError) Is(target error) bool {
	switch t := target.(type) {
	case *MissingImportsError:
		return true
	case *Error:
		return t.Phase == PhaseInstantiate && (t.Kind == KindMissingImport || t.Kind == KindInstantiation)
	}
	return false
}
