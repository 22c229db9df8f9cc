// Package linker builds the import table a guest is instantiated against.
//
// wazero host modules cannot define memory, so the table is two modules:
//
//	<namespace>$host   host module carrying the Go functions
//	<namespace>        synthesized module that owns the linear memory and
//	                   re-exports each host function through a forwarding stub
//
// The guest only sees <namespace>. After Instantiate the table is immutable.
//
// # Example
//
//	l := linker.New(rt, "system")
//	l.DefineFunc(linker.FuncDef{Name: "printInt", Handler: h, ParamTypes: i32})
//	l.DefineMemory(100, 0, "mem", "memory")
//	table, err := l.Instantiate(ctx)
//	if err != nil {
//	    return err
//	}
//	defer table.Close(ctx)
//
//	if err := table.Verify(compiled); err != nil {
//	    return err // missing or mismatched imports
//	}
package linker
