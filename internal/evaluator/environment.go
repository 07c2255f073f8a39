package evaluator

type binding struct {
	value   Object
	mutable bool
}

// Environment is a chain of lexical scopes. Function bodies get a fresh
// environment whose outer scope is the module scope, and nothing else:
// there are no closures over call frames.
type Environment struct {
	store map[string]*binding
	outer *Environment
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]*binding)}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

func (e *Environment) Get(name string) (Object, bool) {
	if b, ok := e.store[name]; ok {
		return b.value, true
	}
	if e.outer != nil {
		return e.outer.Get(name)
	}
	return nil, false
}

// Define introduces a new binding in this scope, shadowing any outer
// binding of the same name.
func (e *Environment) Define(name string, val Object, mutable bool) {
	e.store[name] = &binding{value: val, mutable: mutable}
}

// Assign updates the nearest binding. It fails for unknown names and for
// bindings declared with let.
func (e *Environment) Assign(name string, val Object) *Error {
	for env := e; env != nil; env = env.outer {
		if b, ok := env.store[name]; ok {
			if !b.mutable {
				return newRuntimeError("cannot assign to immutable binding %q", name)
			}
			b.value = val
			return nil
		}
	}
	return newError(ERR_UNRESOLVED_NAME, "assignment to undeclared variable %q", name)
}
