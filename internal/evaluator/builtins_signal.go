package evaluator

func signalModule() map[string]*Builtin {
	return map[string]*Builtin{
		"register": {Name: "signal.register", Arity: 1, Fn: signalRegister},
		"emit":     {Name: "signal.emit", Arity: 1, Fn: signalEmitFn},
		"count":    {Name: "signal.count", Arity: 1, Fn: signalCountFn},
		"tracked":  {Name: "signal.tracked", Arity: 0, Fn: signalTracked},
		"reset":    {Name: "signal.reset", Arity: 1, Fn: signalResetFn},
	}
}

func signalRegister(rt *Runtime, args []Object) Object {
	name, err := argText("signal.register", args, 0)
	if err != nil {
		return err
	}
	return nativeBoolToBooleanObject(rt.signalRegister(name))
}

// emit registers the signal on first use and returns the updated count.
func signalEmitFn(rt *Runtime, args []Object) Object {
	name, err := argText("signal.emit", args, 0)
	if err != nil {
		return err
	}
	return NewInteger(rt.signalEmit(name))
}

func signalCountFn(rt *Runtime, args []Object) Object {
	name, err := argText("signal.count", args, 0)
	if err != nil {
		return err
	}
	return NewInteger(rt.signalCount(name))
}

func signalTracked(rt *Runtime, _ []Object) Object {
	return NewInteger(rt.signalTracked())
}

func signalResetFn(rt *Runtime, args []Object) Object {
	name, err := argText("signal.reset", args, 0)
	if err != nil {
		return err
	}
	return nativeBoolToBooleanObject(rt.signalReset(name))
}
