// Package errors provides structured error types for the console runner.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the offending name, a detail message and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
//		Name("printString").
//		Value(offset).
//		Detail("no terminator before end of memory").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ParseInt(line, cause)
//	err := errors.ReadModule(path, cause)
//
// Sentinels such as ErrInputParse compare by Phase and Kind only, so
// errors.Is(err, errors.ErrInputParse) matches any parse failure.
package errors
