package evaluator

import "math/big"

// Argument extraction helpers shared by every builtins_*.go file. Arity is
// already verified by the dispatcher, so indexing is safe; these only check
// variants and ranges.

func argInt(name string, args []Object, idx int) (*big.Int, *Error) {
	v, ok := args[idx].(*Integer)
	if !ok {
		return nil, newTypeError("%s expects an integer for argument %d, got %s", name, idx+1, args[idx].Type())
	}
	return v.Value, nil
}

func argInt64(name string, args []Object, idx int) (int64, *Error) {
	v, err := argInt(name, args, idx)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, newTypeError("%s argument %d does not fit in 64 bits", name, idx+1)
	}
	return v.Int64(), nil
}

func argUsize(name string, args []Object, idx int) (int, *Error) {
	v, err := argInt64(name, args, idx)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, newTypeError("%s expects a non-negative integer for argument %d", name, idx+1)
	}
	return int(v), nil
}

func argByte(name string, args []Object, idx int) (byte, *Error) {
	v, err := argInt64(name, args, idx)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 255 {
		return 0, newTypeError("%s expects a byte value between 0 and 255", name)
	}
	return byte(v), nil
}

// argNumber accepts Integer or Float and widens to float64.
func argNumber(name string, args []Object, idx int) (float64, *Error) {
	switch v := args[idx].(type) {
	case *Integer:
		f, _ := new(big.Float).SetInt(v.Value).Float64()
		return f, nil
	case *Float:
		return v.Value, nil
	}
	return 0, newTypeError("%s expects a number for argument %d, got %s", name, idx+1, args[idx].Type())
}

func argText(name string, args []Object, idx int) (string, *Error) {
	v, ok := args[idx].(*Text)
	if !ok {
		return "", newTypeError("%s expects text for argument %d, got %s", name, idx+1, args[idx].Type())
	}
	return v.Value, nil
}

func argTuple(name string, args []Object, idx int) ([]Object, *Error) {
	v, ok := args[idx].(*Tuple)
	if !ok {
		return nil, newTypeError("%s expects a tuple for argument %d, got %s", name, idx+1, args[idx].Type())
	}
	return v.Elements, nil
}

// argPointer unpacks a (handle, offset) pair.
func argPointer(name string, args []Object, idx int) (uint64, int, *Error) {
	elems, err := argTuple(name, args, idx)
	if err != nil {
		return 0, 0, err
	}
	if len(elems) != 2 {
		return 0, 0, newTypeError("%s expects a pointer (handle, offset) for argument %d", name, idx+1)
	}
	handle, ok1 := elems[0].(*Integer)
	offset, ok2 := elems[1].(*Integer)
	if !ok1 || !ok2 {
		return 0, 0, newTypeError("%s expects a pointer (handle, offset) for argument %d", name, idx+1)
	}
	if !handle.Value.IsUint64() || !offset.Value.IsInt64() || offset.Value.Sign() < 0 {
		return 0, 0, newTypeError("%s received a malformed pointer", name)
	}
	return handle.Value.Uint64(), int(offset.Value.Int64()), nil
}

// argHandle unpacks a single-element (handle,) tuple, the encoding used by
// smart pointers and mailboxes.
func argHandle(name string, args []Object, idx int) (uint64, *Error) {
	elems, err := argTuple(name, args, idx)
	if err != nil {
		return 0, err
	}
	if len(elems) != 1 {
		return 0, newTypeError("%s expects a handle tuple for argument %d", name, idx+1)
	}
	handle, ok := elems[0].(*Integer)
	if !ok || !handle.Value.IsUint64() {
		return 0, newTypeError("%s expects a handle tuple for argument %d", name, idx+1)
	}
	return handle.Value.Uint64(), nil
}

func pointerObject(handle uint64, offset int) *Tuple {
	return &Tuple{Elements: []Object{
		&Integer{Value: new(big.Int).SetUint64(handle)},
		NewInteger(int64(offset)),
	}}
}

func handleObject(handle uint64) *Tuple {
	return &Tuple{Elements: []Object{
		&Integer{Value: new(big.Int).SetUint64(handle)},
	}}
}

// byteTuple converts raw bytes into a tuple of small Integers.
func byteTuple(data []byte) *Tuple {
	elems := make([]Object, len(data))
	for i, b := range data {
		elems[i] = NewInteger(int64(b))
	}
	return &Tuple{Elements: elems}
}

// tupleBytes converts a tuple of byte-valued Integers back into raw bytes.
func tupleBytes(name string, elems []Object) ([]byte, *Error) {
	data := make([]byte, len(elems))
	for i, e := range elems {
		v, ok := e.(*Integer)
		if !ok {
			return nil, newTypeError("%s expects a tuple of integer byte values", name)
		}
		if !v.Value.IsInt64() || v.Value.Int64() < 0 || v.Value.Int64() > 255 {
			return nil, newTypeError("%s expects byte values in the 0-255 range", name)
		}
		data[i] = byte(v.Value.Int64())
	}
	return data, nil
}
