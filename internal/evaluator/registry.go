package evaluator

import "strconv"

// The native registry maps module name to symbol to implementation. It is
// built per Runtime so embedders can add process-boundary modules without
// touching the core set.

func defaultModules() map[string]map[string]*Builtin {
	return map[string]map[string]*Builtin{
		"mem":      memModule(),
		"task":     taskModule(),
		"serde":    serdeModule(),
		"structs":  structsModule(),
		"math":     mathModule(),
		"nats":     natsModule(),
		"fraction": fractionModule(),
		"os":       osModule(),
		"fs":       fsModule(),
		"net":      netModule(),
		"signal":   signalModule(),
	}
}

// RegisterModule adds or replaces a native module. Qualified names inside
// the table are rewritten so error messages carry the module prefix.
func (rt *Runtime) RegisterModule(name string, functions map[string]*Builtin) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.modules[name] = functions
}

func (rt *Runtime) lookupNative(module, symbol string) (*Builtin, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	functions, ok := rt.modules[module]
	if !ok {
		return nil, false
	}
	fn, ok := functions[symbol]
	return fn, ok
}

func (rt *Runtime) hasModule(module string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, ok := rt.modules[module]
	return ok
}

// checkArity runs before every native invocation, so individual builtins
// never re-validate argument counts.
func checkArity(b *Builtin, got int) *Error {
	if b.Variadic {
		if got < b.Arity {
			return newArityError(b.Name, "at least "+strconv.Itoa(b.Arity), got)
		}
		return nil
	}
	if got != b.Arity {
		return newArityError(b.Name, strconv.Itoa(b.Arity), got)
	}
	return nil
}
