package evaluator

// structsModule offers value-semantics helpers over tuples. Every operation
// returns a fresh value; the input tuples are never mutated.
func structsModule() map[string]*Builtin {
	return map[string]*Builtin{
		"copy":         {Name: "structs.copy", Arity: 1, Fn: structsCopy},
		"clone_tuple":  {Name: "structs.clone_tuple", Arity: 1, Fn: structsCloneTuple},
		"deep_clone":   {Name: "structs.deep_clone", Arity: 1, Fn: structsDeepClone},
		"copy_replace": {Name: "structs.copy_replace", Arity: 3, Fn: structsCopyReplace},
		"copy_append":  {Name: "structs.copy_append", Arity: 2, Variadic: true, Fn: structsCopyAppend},
		"tuple_concat": {Name: "structs.tuple_concat", Arity: 2, Fn: structsTupleConcat},
	}
}

func structsCopy(_ *Runtime, args []Object) Object {
	return cloneValue(args[0])
}

func structsCloneTuple(_ *Runtime, args []Object) Object {
	elems, err := argTuple("structs.clone_tuple", args, 0)
	if err != nil {
		return err
	}
	return &Tuple{Elements: append([]Object(nil), elems...)}
}

func structsDeepClone(_ *Runtime, args []Object) Object {
	return cloneValue(args[0])
}

func structsCopyReplace(_ *Runtime, args []Object) Object {
	elems, err := argTuple("structs.copy_replace", args, 0)
	if err != nil {
		return err
	}
	index, err := argUsize("structs.copy_replace", args, 1)
	if err != nil {
		return err
	}
	if index >= len(elems) {
		return newBoundsError("structs.copy_replace index out of bounds")
	}
	out := append([]Object(nil), elems...)
	out[index] = args[2]
	return &Tuple{Elements: out}
}

func structsCopyAppend(_ *Runtime, args []Object) Object {
	elems, err := argTuple("structs.copy_append", args, 0)
	if err != nil {
		return err
	}
	out := make([]Object, 0, len(elems)+len(args)-1)
	out = append(out, elems...)
	for _, value := range args[1:] {
		out = append(out, cloneValue(value))
	}
	return &Tuple{Elements: out}
}

func structsTupleConcat(_ *Runtime, args []Object) Object {
	left, err := argTuple("structs.tuple_concat", args, 0)
	if err != nil {
		return err
	}
	right, err := argTuple("structs.tuple_concat", args, 1)
	if err != nil {
		return err
	}
	out := make([]Object, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return &Tuple{Elements: out}
}

// cloneValue copies tuples recursively. Scalars are immutable, so they are
// shared as-is.
func cloneValue(value Object) Object {
	if tuple, ok := value.(*Tuple); ok {
		elems := make([]Object, len(tuple.Elements))
		for i, item := range tuple.Elements {
			elems[i] = cloneValue(item)
		}
		return &Tuple{Elements: elems}
	}
	return value
}
