package evaluator

import (
	"math/bits"
	"os"
)

func osModule() map[string]*Builtin {
	return map[string]*Builtin{
		"cwd":           {Name: "os.cwd", Arity: 0, Fn: osCwd},
		"temp_dir":      {Name: "os.temp_dir", Arity: 0, Fn: osTempDir},
		"env_var":       {Name: "os.env_var", Arity: 1, Fn: osEnvVar},
		"pointer_width": {Name: "os.pointer_width", Arity: 0, Fn: osPointerWidth},
		"pid":           {Name: "os.pid", Arity: 0, Fn: osPid},
		"args":          {Name: "os.args", Arity: 0, Fn: osArgs},
	}
}

func osCwd(_ *Runtime, _ []Object) Object {
	dir, err := os.Getwd()
	if err != nil {
		return newRuntimeError("failed to fetch current directory: %v", err)
	}
	return &Text{Value: dir}
}

func osTempDir(_ *Runtime, _ []Object) Object {
	return &Text{Value: os.TempDir()}
}

// env_var reports presence explicitly so scripts can tell an unset variable
// from an empty one.
func osEnvVar(_ *Runtime, args []Object) Object {
	name, err := argText("os.env_var", args, 0)
	if err != nil {
		return err
	}
	value, ok := os.LookupEnv(name)
	return &Tuple{Elements: []Object{
		nativeBoolToBooleanObject(ok),
		&Text{Value: value},
	}}
}

func osPointerWidth(_ *Runtime, _ []Object) Object {
	return NewInteger(int64(bits.UintSize))
}

func osPid(_ *Runtime, _ []Object) Object {
	return NewInteger(int64(os.Getpid()))
}

func osArgs(_ *Runtime, _ []Object) Object {
	elems := make([]Object, len(os.Args))
	for i, arg := range os.Args {
		elems[i] = &Text{Value: arg}
	}
	return &Tuple{Elements: elems}
}
