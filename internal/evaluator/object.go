package evaluator

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/apexforge/apex/internal/ast"
)

type ObjectType string

const (
	INTEGER_OBJ      = "INTEGER"
	FLOAT_OBJ        = "FLOAT"
	BOOLEAN_OBJ      = "BOOLEAN"
	TEXT_OBJ         = "TEXT"
	TUPLE_OBJ        = "TUPLE"
	ERROR_OBJ        = "ERROR"
	FUNCTION_OBJ     = "FUNCTION"
	BUILTIN_OBJ      = "BUILTIN"
	RETURN_VALUE_OBJ = "RETURN_VALUE"
)

type Object interface {
	Type() ObjectType
	Inspect() string
}

// Integer holds a full-precision value. Every arithmetic path goes through
// math/big; there is no fast small-int representation.
type Integer struct {
	Value *big.Int
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return i.Value.String() }

// NewInteger wraps an int64 without aliasing the caller's value.
func NewInteger(v int64) *Integer { return &Integer{Value: big.NewInt(v)} }

type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string {
	s := strconv.FormatFloat(f.Value, 'g', -1, 64)
	// keep the float marker so 2.0 does not print like the integer 2
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && !strings.Contains(s, "NaN") {
		s += ".0"
	}
	return s
}

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return fmt.Sprintf("%t", b.Value) }

// Interned booleans. All comparisons produce these two instances, so
// pointer equality works for them.
var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

func nativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

type Text struct {
	Value string
}

func (t *Text) Type() ObjectType { return TEXT_OBJ }
func (t *Text) Inspect() string  { return strconv.Quote(t.Value) }

// Tuple is the only aggregate. Pointers, smart pointers and mailbox
// handles are all encoded as small tuples at the language level.
type Tuple struct {
	Elements []Object
}

func (t *Tuple) Type() ObjectType { return TUPLE_OBJ }
func (t *Tuple) Inspect() string {
	elements := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		elements[i] = e.Inspect()
	}
	return "(" + strings.Join(elements, ", ") + ")"
}

// ErrorKind classifies runtime failures so callers and tests can match on
// the category without parsing messages.
type ErrorKind string

const (
	ERR_ARITY           ErrorKind = "ARITY"
	ERR_TYPE            ErrorKind = "TYPE"
	ERR_BOUNDS          ErrorKind = "BOUNDS"
	ERR_USE_AFTER_FREE  ErrorKind = "USE_AFTER_FREE"
	ERR_UNRESOLVED_NAME ErrorKind = "UNRESOLVED_NAME"
	ERR_CHANNEL_CLOSED  ErrorKind = "CHANNEL_CLOSED"
	ERR_TIMEOUT         ErrorKind = "TIMEOUT"
	ERR_FORMAT          ErrorKind = "FORMAT"
	ERR_RUNTIME         ErrorKind = "RUNTIME"
)

type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string  { return "ERROR(" + string(e.Kind) + "): " + e.Message }

// ReturnValue wraps the result of a return statement while it unwinds to
// the enclosing call.
type ReturnValue struct {
	Value Object
}

func (rv *ReturnValue) Type() ObjectType { return RETURN_VALUE_OBJ }
func (rv *ReturnValue) Inspect() string  { return rv.Value.Inspect() }

// Function is a user-defined fn. Env is the environment the function was
// declared in, which for this language is always the module scope.
type Function struct {
	Name       string
	Parameters []string
	Body       []ast.Statement
	Env        *Environment
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	return "fn " + f.Name + "(" + strings.Join(f.Parameters, ", ") + ") { ... }"
}

// Builtin is a native operation bound to a Runtime. Arity is checked by
// the dispatcher before Fn runs, so implementations index args freely.
type Builtin struct {
	Name     string
	Arity    int
	Variadic bool // Arity is then the minimum argument count
	Fn       func(rt *Runtime, args []Object) Object
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "builtin " + b.Name }

func isError(obj Object) bool {
	if obj != nil {
		return obj.Type() == ERROR_OBJ
	}
	return false
}
