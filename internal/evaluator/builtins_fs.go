package evaluator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

func fsModule() map[string]*Builtin {
	return map[string]*Builtin{
		"read_text":   {Name: "fs.read_text", Arity: 1, Fn: fsReadText},
		"write_text":  {Name: "fs.write_text", Arity: 2, Fn: fsWriteText},
		"append_text": {Name: "fs.append_text", Arity: 2, Fn: fsAppendText},
		"file_exists": {Name: "fs.file_exists", Arity: 1, Fn: fsFileExists},
		"read_bytes":  {Name: "fs.read_bytes", Arity: 1, Fn: fsReadBytes},
		"write_bytes": {Name: "fs.write_bytes", Arity: 2, Fn: fsWriteBytes},
		"delete":      {Name: "fs.delete", Arity: 1, Fn: fsDelete},
		"list_dir":    {Name: "fs.list_dir", Arity: 1, Fn: fsListDir},
		"mkdir_all":   {Name: "fs.mkdir_all", Arity: 1, Fn: fsMkdirAll},
		"file_size":   {Name: "fs.file_size", Arity: 1, Fn: fsFileSize},
		"tempfile":    {Name: "fs.tempfile", Arity: 0, Variadic: true, Fn: fsTempfile},
	}
}

func fsReadText(_ *Runtime, args []Object) Object {
	path, err := argText("fs.read_text", args, 0)
	if err != nil {
		return err
	}
	contents, rerr := os.ReadFile(path)
	if rerr != nil {
		return newRuntimeError("failed to read %q: %v", path, rerr)
	}
	return &Text{Value: string(contents)}
}

func fsWriteText(_ *Runtime, args []Object) Object {
	path, err := argText("fs.write_text", args, 0)
	if err != nil {
		return err
	}
	contents, err := argText("fs.write_text", args, 1)
	if err != nil {
		return err
	}
	if werr := os.WriteFile(path, []byte(contents), 0o644); werr != nil {
		return newRuntimeError("failed to write %q: %v", path, werr)
	}
	return TRUE
}

func fsAppendText(_ *Runtime, args []Object) Object {
	path, err := argText("fs.append_text", args, 0)
	if err != nil {
		return err
	}
	contents, err := argText("fs.append_text", args, 1)
	if err != nil {
		return err
	}
	file, oerr := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if oerr != nil {
		return newRuntimeError("failed to open %q: %v", path, oerr)
	}
	defer file.Close()
	if _, werr := file.WriteString(contents); werr != nil {
		return newRuntimeError("failed to append to %q: %v", path, werr)
	}
	return TRUE
}

func fsFileExists(_ *Runtime, args []Object) Object {
	path, err := argText("fs.file_exists", args, 0)
	if err != nil {
		return err
	}
	_, serr := os.Stat(path)
	return nativeBoolToBooleanObject(serr == nil)
}

func fsReadBytes(_ *Runtime, args []Object) Object {
	path, err := argText("fs.read_bytes", args, 0)
	if err != nil {
		return err
	}
	contents, rerr := os.ReadFile(path)
	if rerr != nil {
		return newRuntimeError("failed to read %q: %v", path, rerr)
	}
	return byteTuple(contents)
}

func fsWriteBytes(_ *Runtime, args []Object) Object {
	path, err := argText("fs.write_bytes", args, 0)
	if err != nil {
		return err
	}
	elems, err := argTuple("fs.write_bytes", args, 1)
	if err != nil {
		return err
	}
	data, err := tupleBytes("fs.write_bytes", elems)
	if err != nil {
		return err
	}
	if werr := os.WriteFile(path, data, 0o644); werr != nil {
		return newRuntimeError("failed to write %q: %v", path, werr)
	}
	return TRUE
}

// delete removes files and directories alike; a missing path reports FALSE
// instead of failing.
func fsDelete(_ *Runtime, args []Object) Object {
	path, err := argText("fs.delete", args, 0)
	if err != nil {
		return err
	}
	info, serr := os.Stat(path)
	if serr != nil {
		return FALSE
	}
	if info.IsDir() {
		if rerr := os.RemoveAll(path); rerr != nil {
			return newRuntimeError("failed to delete directory %q: %v", path, rerr)
		}
		return TRUE
	}
	if rerr := os.Remove(path); rerr != nil {
		return newRuntimeError("failed to delete file %q: %v", path, rerr)
	}
	return TRUE
}

func fsListDir(_ *Runtime, args []Object) Object {
	path, err := argText("fs.list_dir", args, 0)
	if err != nil {
		return err
	}
	entries, rerr := os.ReadDir(path)
	if rerr != nil {
		return newRuntimeError("failed to list %q: %v", path, rerr)
	}
	names := make([]Object, len(entries))
	for i, entry := range entries {
		names[i] = &Text{Value: entry.Name()}
	}
	return &Tuple{Elements: names}
}

func fsMkdirAll(_ *Runtime, args []Object) Object {
	path, err := argText("fs.mkdir_all", args, 0)
	if err != nil {
		return err
	}
	if merr := os.MkdirAll(path, 0o755); merr != nil {
		return newRuntimeError("failed to create %q: %v", path, merr)
	}
	return TRUE
}

func fsFileSize(_ *Runtime, args []Object) Object {
	path, err := argText("fs.file_size", args, 0)
	if err != nil {
		return err
	}
	info, serr := os.Stat(path)
	if serr != nil {
		return newRuntimeError("failed to inspect %q: %v", path, serr)
	}
	if info.IsDir() {
		return newTypeError("fs.file_size expects a file path")
	}
	return NewInteger(info.Size())
}

// tempfile creates an empty uniquely named file in the temp directory and
// returns its path. The optional argument overrides the name prefix.
func fsTempfile(_ *Runtime, args []Object) Object {
	prefix := "apex_temp"
	if len(args) > 0 {
		custom, err := argText("fs.tempfile", args, 0)
		if err != nil {
			return err
		}
		prefix = custom
	}
	path := filepath.Join(os.TempDir(), fmt.Sprintf("%s_%s", prefix, uuid.NewString()))
	file, oerr := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if oerr != nil {
		return newRuntimeError("failed to create %q: %v", path, oerr)
	}
	file.Close()
	return &Text{Value: path}
}
