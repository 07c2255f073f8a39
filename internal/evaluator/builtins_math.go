package evaluator

import (
	"math"
	"math/big"
)

func mathModule() map[string]*Builtin {
	return map[string]*Builtin{
		"pi":    {Name: "math.pi", Arity: 0, Fn: mathPi},
		"e":     {Name: "math.e", Arity: 0, Fn: mathE},
		"abs":   {Name: "math.abs", Arity: 1, Fn: mathAbs},
		"sqrt":  {Name: "math.sqrt", Arity: 1, Fn: mathSqrt},
		"cbrt":  {Name: "math.cbrt", Arity: 1, Fn: mathCbrt},
		"hypot": {Name: "math.hypot", Arity: 2, Fn: mathHypot},
		"pow":   {Name: "math.pow", Arity: 2, Fn: mathPow},
		"exp":   {Name: "math.exp", Arity: 1, Fn: mathExp},
		"ln":    {Name: "math.ln", Arity: 1, Fn: mathLn},
		"log":   {Name: "math.log", Arity: 2, Fn: mathLog},
		"sin":   {Name: "math.sin", Arity: 1, Fn: mathSin},
		"cos":   {Name: "math.cos", Arity: 1, Fn: mathCos},
		"tan":   {Name: "math.tan", Arity: 1, Fn: mathTan},
	}
}

func mathPi(_ *Runtime, _ []Object) Object {
	return &Float{Value: math.Pi}
}

func mathE(_ *Runtime, _ []Object) Object {
	return &Float{Value: math.E}
}

// abs is the one operation here that keeps integers exact instead of going
// through float64.
func mathAbs(_ *Runtime, args []Object) Object {
	switch v := args[0].(type) {
	case *Integer:
		return &Integer{Value: new(big.Int).Abs(v.Value)}
	case *Float:
		return &Float{Value: math.Abs(v.Value)}
	}
	return newTypeError("math.abs expects an integer or floating-point argument")
}

func mathSqrt(rt *Runtime, args []Object) Object {
	value, err := argNumber("math.sqrt", args, 0)
	if err != nil {
		return err
	}
	if value < 0 {
		return newRuntimeError("math.sqrt requires a non-negative input")
	}
	return &Float{Value: math.Sqrt(value)}
}

func mathCbrt(rt *Runtime, args []Object) Object {
	value, err := argNumber("math.cbrt", args, 0)
	if err != nil {
		return err
	}
	return &Float{Value: math.Cbrt(value)}
}

func mathHypot(rt *Runtime, args []Object) Object {
	a, err := argNumber("math.hypot", args, 0)
	if err != nil {
		return err
	}
	b, err := argNumber("math.hypot", args, 1)
	if err != nil {
		return err
	}
	return &Float{Value: math.Hypot(a, b)}
}

func mathPow(rt *Runtime, args []Object) Object {
	base, err := argNumber("math.pow", args, 0)
	if err != nil {
		return err
	}
	exponent, err := argNumber("math.pow", args, 1)
	if err != nil {
		return err
	}
	return &Float{Value: math.Pow(base, exponent)}
}

func mathExp(rt *Runtime, args []Object) Object {
	value, err := argNumber("math.exp", args, 0)
	if err != nil {
		return err
	}
	return &Float{Value: math.Exp(value)}
}

func mathLn(rt *Runtime, args []Object) Object {
	value, err := argNumber("math.ln", args, 0)
	if err != nil {
		return err
	}
	if value <= 0 {
		return newRuntimeError("math.ln requires a positive input")
	}
	return &Float{Value: math.Log(value)}
}

func mathLog(rt *Runtime, args []Object) Object {
	value, err := argNumber("math.log", args, 0)
	if err != nil {
		return err
	}
	base, err := argNumber("math.log", args, 1)
	if err != nil {
		return err
	}
	if value <= 0 || base <= 0 || math.Abs(base-1) < epsilon {
		return newRuntimeError("math.log requires positive inputs and base != 1")
	}
	return &Float{Value: math.Log(value) / math.Log(base)}
}

func mathSin(rt *Runtime, args []Object) Object {
	value, err := argNumber("math.sin", args, 0)
	if err != nil {
		return err
	}
	return &Float{Value: math.Sin(value)}
}

func mathCos(rt *Runtime, args []Object) Object {
	value, err := argNumber("math.cos", args, 0)
	if err != nil {
		return err
	}
	return &Float{Value: math.Cos(value)}
}

func mathTan(rt *Runtime, args []Object) Object {
	value, err := argNumber("math.tan", args, 0)
	if err != nil {
		return err
	}
	return &Float{Value: math.Tan(value)}
}

const epsilon = 2.220446049250313e-16
