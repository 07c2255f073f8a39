package evaluator

import (
	"math"
	"math/big"
)

// fractionModule does exact rational arithmetic. A fraction is a 2-tuple of
// integers (numerator, denominator); results are always reduced with the sign
// carried on the numerator. Binary operations accept either two fraction
// tuples or four bare integers, unary ones a tuple or a numerator and
// denominator pair.
func fractionModule() map[string]*Builtin {
	return map[string]*Builtin{
		"reduce":      {Name: "fraction.reduce", Arity: 2, Fn: fractionReduce},
		"add":         {Name: "fraction.add", Arity: 2, Variadic: true, Fn: fractionAdd},
		"subtract":    {Name: "fraction.subtract", Arity: 2, Variadic: true, Fn: fractionSubtract},
		"multiply":    {Name: "fraction.multiply", Arity: 2, Variadic: true, Fn: fractionMultiply},
		"divide":      {Name: "fraction.divide", Arity: 2, Variadic: true, Fn: fractionDivide},
		"reciprocal":  {Name: "fraction.reciprocal", Arity: 1, Variadic: true, Fn: fractionReciprocal},
		"mediant":     {Name: "fraction.mediant", Arity: 2, Variadic: true, Fn: fractionMediant},
		"compare":     {Name: "fraction.compare", Arity: 2, Variadic: true, Fn: fractionCompare},
		"numerator":   {Name: "fraction.numerator", Arity: 1, Fn: fractionNumerator},
		"denominator": {Name: "fraction.denominator", Arity: 1, Fn: fractionDenominator},
		"to_decimal":  {Name: "fraction.to_decimal", Arity: 1, Variadic: true, Fn: fractionToDecimal},
		"from_decimal": {
			Name: "fraction.from_decimal", Arity: 2, Fn: fractionFromDecimal,
		},
		"is_proper": {Name: "fraction.is_proper", Arity: 1, Variadic: true, Fn: fractionIsProper},
		"is_unit":   {Name: "fraction.is_unit", Arity: 1, Variadic: true, Fn: fractionIsUnit},
	}
}

func normalizeFraction(name string, num, den *big.Int) (*big.Rat, *Error) {
	if den.Sign() == 0 {
		return nil, newRuntimeError("%s: fraction denominator cannot be zero", name)
	}
	return new(big.Rat).SetFrac(num, den), nil
}

func fractionTuple(r *big.Rat) Object {
	return &Tuple{Elements: []Object{
		&Integer{Value: new(big.Int).Set(r.Num())},
		&Integer{Value: new(big.Int).Set(r.Denom())},
	}}
}

func fractionFromTuple(name string, value Object) (*big.Rat, *Error) {
	tuple, ok := value.(*Tuple)
	if !ok {
		return nil, newTypeError("%s expects a fraction tuple", name)
	}
	if len(tuple.Elements) != 2 {
		return nil, newTypeError("%s: fraction tuples must contain exactly two entries", name)
	}
	num, ok := tuple.Elements[0].(*Integer)
	if !ok {
		return nil, newTypeError("%s: fraction tuples must store integer numerators", name)
	}
	den, ok := tuple.Elements[1].(*Integer)
	if !ok {
		return nil, newTypeError("%s: fraction tuples must store integer denominators", name)
	}
	return normalizeFraction(name, num.Value, den.Value)
}

func parseSingleFraction(name string, args []Object) (*big.Rat, *Error) {
	if len(args) == 1 {
		return fractionFromTuple(name, args[0])
	}
	if len(args) != 2 {
		return nil, newArityError(name, "1 or 2", len(args))
	}
	num, err := argInt(name, args, 0)
	if err != nil {
		return nil, err
	}
	den, err := argInt(name, args, 1)
	if err != nil {
		return nil, err
	}
	return normalizeFraction(name, num, den)
}

func parseTwoFractions(name string, args []Object) (*big.Rat, *big.Rat, *Error) {
	switch len(args) {
	case 2:
		first, err := fractionFromTuple(name, args[0])
		if err != nil {
			return nil, nil, err
		}
		second, err := fractionFromTuple(name, args[1])
		if err != nil {
			return nil, nil, err
		}
		return first, second, nil
	case 4:
		first, err := parseSingleFraction(name, args[:2])
		if err != nil {
			return nil, nil, err
		}
		second, err := parseSingleFraction(name, args[2:])
		if err != nil {
			return nil, nil, err
		}
		return first, second, nil
	}
	return nil, nil, newTypeError("%s expects either two fraction tuples or four integer arguments", name)
}

func fractionReduce(_ *Runtime, args []Object) Object {
	r, err := parseSingleFraction("fraction.reduce", args)
	if err != nil {
		return err
	}
	return fractionTuple(r)
}

func fractionAdd(_ *Runtime, args []Object) Object {
	a, b, err := parseTwoFractions("fraction.add", args)
	if err != nil {
		return err
	}
	return fractionTuple(new(big.Rat).Add(a, b))
}

func fractionSubtract(_ *Runtime, args []Object) Object {
	a, b, err := parseTwoFractions("fraction.subtract", args)
	if err != nil {
		return err
	}
	return fractionTuple(new(big.Rat).Sub(a, b))
}

func fractionMultiply(_ *Runtime, args []Object) Object {
	a, b, err := parseTwoFractions("fraction.multiply", args)
	if err != nil {
		return err
	}
	return fractionTuple(new(big.Rat).Mul(a, b))
}

func fractionDivide(_ *Runtime, args []Object) Object {
	a, b, err := parseTwoFractions("fraction.divide", args)
	if err != nil {
		return err
	}
	if b.Sign() == 0 {
		return newRuntimeError("fraction.divide cannot divide by a zero numerator")
	}
	return fractionTuple(new(big.Rat).Quo(a, b))
}

func fractionReciprocal(_ *Runtime, args []Object) Object {
	r, err := parseSingleFraction("fraction.reciprocal", args)
	if err != nil {
		return err
	}
	if r.Sign() == 0 {
		return newRuntimeError("fraction.reciprocal: zero has no reciprocal")
	}
	return fractionTuple(new(big.Rat).Inv(r))
}

// mediant is (a+c)/(b+d); it is not a field operation, so it works on the
// reduced integer parts directly.
func fractionMediant(_ *Runtime, args []Object) Object {
	a, b, err := parseTwoFractions("fraction.mediant", args)
	if err != nil {
		return err
	}
	num := new(big.Int).Add(a.Num(), b.Num())
	den := new(big.Int).Add(a.Denom(), b.Denom())
	r, nerr := normalizeFraction("fraction.mediant", num, den)
	if nerr != nil {
		return nerr
	}
	return fractionTuple(r)
}

func fractionCompare(_ *Runtime, args []Object) Object {
	a, b, err := parseTwoFractions("fraction.compare", args)
	if err != nil {
		return err
	}
	return NewInteger(int64(a.Cmp(b)))
}

func fractionNumerator(_ *Runtime, args []Object) Object {
	r, err := fractionFromTuple("fraction.numerator", args[0])
	if err != nil {
		return err
	}
	return &Integer{Value: new(big.Int).Set(r.Num())}
}

func fractionDenominator(_ *Runtime, args []Object) Object {
	r, err := fractionFromTuple("fraction.denominator", args[0])
	if err != nil {
		return err
	}
	return &Integer{Value: new(big.Int).Set(r.Denom())}
}

func fractionToDecimal(_ *Runtime, args []Object) Object {
	r, err := parseSingleFraction("fraction.to_decimal", args)
	if err != nil {
		return err
	}
	value, _ := r.Float64()
	return &Float{Value: value}
}

// fractionFromDecimal finds the best rational approximation whose denominator
// stays within the requested bound, walking the continued fraction of the
// input.
func fractionFromDecimal(_ *Runtime, args []Object) Object {
	limit, err := argInt64("fraction.from_decimal", args, 1)
	if err != nil {
		return err
	}
	if limit <= 0 {
		return newRuntimeError("fraction.from_decimal: max denominator must be positive")
	}
	switch v := args[0].(type) {
	case *Integer:
		r := new(big.Rat).SetFrac(v.Value, big.NewInt(1))
		return fractionTuple(r)
	case *Float:
		r, aerr := approximateFraction(v.Value, limit)
		if aerr != nil {
			return aerr
		}
		return fractionTuple(r)
	}
	return newTypeError("fraction.from_decimal expects an integer or floating-point value")
}

func approximateFraction(value float64, maxDen int64) (*big.Rat, *Error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, newRuntimeError("fraction.from_decimal: only finite decimal values can be converted")
	}
	if value == 0 {
		return new(big.Rat), nil
	}
	sign := int64(1)
	x := value
	if x < 0 {
		sign = -1
		x = -x
	}
	h0, h1 := big.NewInt(0), big.NewInt(1)
	k0, k1 := big.NewInt(1), big.NewInt(0)
	limit := big.NewInt(maxDen)
	for {
		a := int64(x)
		aBig := big.NewInt(a)
		h2 := new(big.Int).Mul(aBig, h1)
		h2.Add(h2, h0)
		k2 := new(big.Int).Mul(aBig, k1)
		k2.Add(k2, k0)
		if k2.Cmp(limit) > 0 {
			break
		}
		h0, h1 = h1, h2
		k0, k1 = k1, k2
		frac := x - float64(a)
		if frac < 1e-12 {
			break
		}
		x = 1 / frac
	}
	if k1.Sign() == 0 {
		return nil, newRuntimeError("fraction.from_decimal could not approximate within the denominator bound")
	}
	if sign < 0 {
		h1.Neg(h1)
	}
	return new(big.Rat).SetFrac(h1, k1), nil
}

func fractionIsProper(_ *Runtime, args []Object) Object {
	r, err := parseSingleFraction("fraction.is_proper", args)
	if err != nil {
		return err
	}
	absNum := new(big.Int).Abs(r.Num())
	return nativeBoolToBooleanObject(absNum.Cmp(r.Denom()) < 0)
}

func fractionIsUnit(_ *Runtime, args []Object) Object {
	r, err := parseSingleFraction("fraction.is_unit", args)
	if err != nil {
		return err
	}
	absNum := new(big.Int).Abs(r.Num())
	return nativeBoolToBooleanObject(absNum.Cmp(big.NewInt(1)) == 0)
}
