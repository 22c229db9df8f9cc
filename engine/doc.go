// Package engine wraps wazero for the console runner.
//
// The engine package provides three main types:
//
//	WazeroEngine   - Owns the wazero runtime and compiles module bytes
//	WazeroModule   - A compiled core module, inspected before instantiation
//	WazeroInstance - A running guest with callable exports
//
// # Instantiation Flow
//
//  1. WazeroEngine.LoadModule() compiles the binary
//  2. The import table (see package linker) verifies the module's imports
//  3. WazeroModule.Instantiate() binds the imports and creates a WazeroInstance
//  4. WazeroInstance.Call() invokes the entry point
//
// Import tables must be instantiated into the same runtime, obtained with
// WazeroEngine.Runtime(), before any guest that imports them.
//
// # Errors
//
// Compile failures map to errors.ErrCompile, instantiation failures to
// errors.ErrInstantiation and failures inside a guest call to errors.ErrTrap.
//
// # Thread Safety
//
// WazeroEngine and WazeroModule are safe for concurrent use.
// WazeroInstance is NOT thread-safe and should be used by a single goroutine.
//
// Most users should use the runtime package for a simpler API.
package engine
