package evaluator

import (
	"io"
	"math"
	"math/big"
	"os"
	"strconv"

	"github.com/apexforge/apex/internal/ast"
)

// Evaluator walks a parsed program. Each instance owns its Runtime, so two
// evaluators never share buffer, task or mailbox handles.
type Evaluator struct {
	Runtime *Runtime
	Out     io.Writer

	modules map[string]string   // module binding (name or alias) -> module
	symbols map[string]*Builtin // symbol binding (name or alias) -> native
}

func New() *Evaluator {
	return &Evaluator{
		Runtime: NewRuntime(),
		Out:     os.Stdout,
		modules: make(map[string]string),
		symbols: make(map[string]*Builtin),
	}
}

// Run resolves imports, defines every top-level function and invokes the
// apex() entry point. The result is the entry point's return value, or the
// first Error encountered along the way.
func (e *Evaluator) Run(program *ast.Program) Object {
	env := NewEnvironment()
	for _, imp := range program.Imports {
		if err := e.bindImport(imp); err != nil {
			return err
		}
	}
	for _, fn := range program.Functions {
		env.Define(fn.Name, &Function{
			Name:       fn.Name,
			Parameters: fn.Parameters,
			Body:       fn.Body,
			Env:        env,
		}, false)
	}
	entry, ok := env.Get("apex")
	if !ok {
		return newRuntimeError("program has no apex function")
	}
	fn, ok := entry.(*Function)
	if !ok {
		return newRuntimeError("apex is not a function")
	}
	return e.applyFunction(fn, nil)
}

func (e *Evaluator) bindImport(imp *ast.ImportStatement) *Error {
	if !e.Runtime.hasModule(imp.Module) {
		return newError(ERR_UNRESOLVED_NAME, "unknown module %q", imp.Module)
	}
	if imp.Symbol == "" {
		name := imp.Module
		if imp.Alias != "" {
			name = imp.Alias
		}
		e.modules[name] = imp.Module
		return nil
	}
	fn, ok := e.Runtime.lookupNative(imp.Module, imp.Symbol)
	if !ok {
		return newError(ERR_UNRESOLVED_NAME, "module %q has no symbol %q", imp.Module, imp.Symbol)
	}
	name := imp.Symbol
	if imp.Alias != "" {
		name = imp.Alias
	}
	e.symbols[name] = fn
	return nil
}

func (e *Evaluator) Eval(node ast.Node, env *Environment) Object {
	switch node := node.(type) {
	case *ast.Program:
		return e.Run(node)

	case *ast.ExpressionStatement:
		return e.Eval(node.Expression, env)

	case *ast.LetStatement:
		value := e.Eval(node.Value, env)
		if isError(value) {
			return value
		}
		env.Define(node.Name, value, node.Mutable)
		return value

	case *ast.AssignStatement:
		value := e.Eval(node.Value, env)
		if isError(value) {
			return value
		}
		if err := env.Assign(node.Name, value); err != nil {
			return err
		}
		return value

	case *ast.ReturnStatement:
		value := e.Eval(node.Value, env)
		if isError(value) {
			return value
		}
		return &ReturnValue{Value: value}

	case *ast.IntegerLiteral:
		return &Integer{Value: new(big.Int).Set(node.Value)}

	case *ast.FloatLiteral:
		return &Float{Value: node.Value}

	case *ast.BooleanLiteral:
		return nativeBoolToBooleanObject(node.Value)

	case *ast.StringLiteral:
		return &Text{Value: node.Value}

	case *ast.PrefixExpression:
		right := e.Eval(node.Right, env)
		if isError(right) {
			return right
		}
		return evalPrefixExpression(node.Operator, right)

	case *ast.InfixExpression:
		if node.Operator == "&&" || node.Operator == "||" {
			return e.evalLogicalExpression(node, env)
		}
		left := e.Eval(node.Left, env)
		if isError(left) {
			return left
		}
		right := e.Eval(node.Right, env)
		if isError(right) {
			return right
		}
		return evalInfixExpression(node.Operator, left, right)

	case *ast.PathExpression:
		return e.evalPath(node, env)

	case *ast.CallExpression:
		callee := e.Eval(node.Callee, env)
		if isError(callee) {
			return callee
		}
		args := make([]Object, 0, len(node.Arguments))
		for _, arg := range node.Arguments {
			value := e.Eval(arg, env)
			if isError(value) {
				return value
			}
			args = append(args, value)
		}
		return e.applyCallable(callee, args)
	}
	return newRuntimeError("unhandled syntax node %T", node)
}

// evalPath resolves a bare or dotted name. Plain names try the lexical
// environment first and fall back to symbol imports; qualified names go
// through the module binding table.
func (e *Evaluator) evalPath(path *ast.PathExpression, env *Environment) Object {
	if len(path.Segments) == 1 {
		name := path.Segments[0]
		if value, ok := env.Get(name); ok {
			return value
		}
		if fn, ok := e.symbols[name]; ok {
			return fn
		}
		return newError(ERR_UNRESOLVED_NAME, "undefined name %q", name)
	}
	if len(path.Segments) == 2 {
		module, ok := e.modules[path.Segments[0]]
		if !ok {
			return newError(ERR_UNRESOLVED_NAME, "module %q is not imported", path.Segments[0])
		}
		fn, ok := e.Runtime.lookupNative(module, path.Segments[1])
		if !ok {
			return newError(ERR_UNRESOLVED_NAME, "module %q has no symbol %q", module, path.Segments[1])
		}
		return fn
	}
	return newError(ERR_UNRESOLVED_NAME, "cannot resolve path %q", path.String())
}

func (e *Evaluator) applyCallable(callee Object, args []Object) Object {
	switch callee := callee.(type) {
	case *Function:
		return e.applyFunction(callee, args)
	case *Builtin:
		if err := checkArity(callee, len(args)); err != nil {
			return err
		}
		return callee.Fn(e.Runtime, args)
	}
	return newTypeError("%s is not callable", callee.Type())
}

func (e *Evaluator) applyFunction(fn *Function, args []Object) Object {
	if len(args) != len(fn.Parameters) {
		return newArityError(fn.Name, strconv.Itoa(len(fn.Parameters)), len(args))
	}
	env := NewEnclosedEnvironment(fn.Env)
	for i, name := range fn.Parameters {
		env.Define(name, args[i], true)
	}
	var result Object = &Tuple{}
	for _, stmt := range fn.Body {
		result = e.Eval(stmt, env)
		if isError(result) {
			return result
		}
		if ret, ok := result.(*ReturnValue); ok {
			return ret.Value
		}
	}
	return result
}

func (e *Evaluator) evalLogicalExpression(node *ast.InfixExpression, env *Environment) Object {
	left := e.Eval(node.Left, env)
	if isError(left) {
		return left
	}
	lb, ok := left.(*Boolean)
	if !ok {
		return newTypeError("operator %s expects booleans, got %s", node.Operator, left.Type())
	}
	if node.Operator == "&&" && !lb.Value {
		return FALSE
	}
	if node.Operator == "||" && lb.Value {
		return TRUE
	}
	right := e.Eval(node.Right, env)
	if isError(right) {
		return right
	}
	rb, ok := right.(*Boolean)
	if !ok {
		return newTypeError("operator %s expects booleans, got %s", node.Operator, right.Type())
	}
	return nativeBoolToBooleanObject(rb.Value)
}

func evalPrefixExpression(operator string, right Object) Object {
	switch operator {
	case "!":
		b, ok := right.(*Boolean)
		if !ok {
			return newTypeError("operator ! expects a boolean, got %s", right.Type())
		}
		return nativeBoolToBooleanObject(!b.Value)
	case "-":
		switch v := right.(type) {
		case *Integer:
			return &Integer{Value: new(big.Int).Neg(v.Value)}
		case *Float:
			return &Float{Value: -v.Value}
		}
		return newTypeError("operator - expects a number, got %s", right.Type())
	case "+":
		switch right.(type) {
		case *Integer, *Float:
			return right
		}
		return newTypeError("operator + expects a number, got %s", right.Type())
	}
	return newRuntimeError("unknown prefix operator %s", operator)
}

func evalInfixExpression(operator string, left, right Object) Object {
	switch operator {
	case "==":
		return nativeBoolToBooleanObject(objectsEqual(left, right))
	case "!=":
		return nativeBoolToBooleanObject(!objectsEqual(left, right))
	}

	if lt, ok := left.(*Text); ok {
		if rt, ok := right.(*Text); ok {
			return evalTextInfix(operator, lt, rt)
		}
	}

	switch left.(type) {
	case *Integer, *Float:
	default:
		return newTypeError("operator %s does not apply to %s", operator, left.Type())
	}
	switch right.(type) {
	case *Integer, *Float:
	default:
		return newTypeError("operator %s does not apply to %s", operator, right.Type())
	}

	li, lInt := left.(*Integer)
	ri, rInt := right.(*Integer)
	if lInt && rInt {
		return evalIntegerInfix(operator, li, ri)
	}
	return evalFloatInfix(operator, widenToFloat(left), widenToFloat(right))
}

func widenToFloat(value Object) float64 {
	switch v := value.(type) {
	case *Integer:
		f, _ := new(big.Float).SetInt(v.Value).Float64()
		return f
	case *Float:
		return v.Value
	}
	return math.NaN()
}

// Integer division truncates toward zero, matching big.Int.Quo.
func evalIntegerInfix(operator string, left, right *Integer) Object {
	switch operator {
	case "+":
		return &Integer{Value: new(big.Int).Add(left.Value, right.Value)}
	case "-":
		return &Integer{Value: new(big.Int).Sub(left.Value, right.Value)}
	case "*":
		return &Integer{Value: new(big.Int).Mul(left.Value, right.Value)}
	case "/":
		if right.Value.Sign() == 0 {
			return newRuntimeError("division by zero")
		}
		return &Integer{Value: new(big.Int).Quo(left.Value, right.Value)}
	case "%":
		if right.Value.Sign() == 0 {
			return newRuntimeError("modulo by zero")
		}
		return &Integer{Value: new(big.Int).Rem(left.Value, right.Value)}
	case "<":
		return nativeBoolToBooleanObject(left.Value.Cmp(right.Value) < 0)
	case "<=":
		return nativeBoolToBooleanObject(left.Value.Cmp(right.Value) <= 0)
	case ">":
		return nativeBoolToBooleanObject(left.Value.Cmp(right.Value) > 0)
	case ">=":
		return nativeBoolToBooleanObject(left.Value.Cmp(right.Value) >= 0)
	}
	return newRuntimeError("unknown operator %s", operator)
}

func evalFloatInfix(operator string, left, right float64) Object {
	switch operator {
	case "+":
		return &Float{Value: left + right}
	case "-":
		return &Float{Value: left - right}
	case "*":
		return &Float{Value: left * right}
	case "/":
		if right == 0 {
			return newRuntimeError("division by zero")
		}
		return &Float{Value: left / right}
	case "%":
		if right == 0 {
			return newRuntimeError("modulo by zero")
		}
		return &Float{Value: math.Mod(left, right)}
	case "<":
		return nativeBoolToBooleanObject(left < right)
	case "<=":
		return nativeBoolToBooleanObject(left <= right)
	case ">":
		return nativeBoolToBooleanObject(left > right)
	case ">=":
		return nativeBoolToBooleanObject(left >= right)
	}
	return newRuntimeError("unknown operator %s", operator)
}

func evalTextInfix(operator string, left, right *Text) Object {
	switch operator {
	case "+":
		return &Text{Value: left.Value + right.Value}
	case "<":
		return nativeBoolToBooleanObject(left.Value < right.Value)
	case "<=":
		return nativeBoolToBooleanObject(left.Value <= right.Value)
	case ">":
		return nativeBoolToBooleanObject(left.Value > right.Value)
	case ">=":
		return nativeBoolToBooleanObject(left.Value >= right.Value)
	}
	return newTypeError("operator %s does not apply to TEXT", operator)
}

// objectsEqual is deep structural equality. Numeric values of different
// types are never equal; 1 and 1.0 are distinct.
func objectsEqual(left, right Object) bool {
	switch l := left.(type) {
	case *Integer:
		r, ok := right.(*Integer)
		return ok && l.Value.Cmp(r.Value) == 0
	case *Float:
		r, ok := right.(*Float)
		return ok && l.Value == r.Value
	case *Boolean:
		r, ok := right.(*Boolean)
		return ok && l.Value == r.Value
	case *Text:
		r, ok := right.(*Text)
		return ok && l.Value == r.Value
	case *Tuple:
		r, ok := right.(*Tuple)
		if !ok || len(l.Elements) != len(r.Elements) {
			return false
		}
		for i := range l.Elements {
			if !objectsEqual(l.Elements[i], r.Elements[i]) {
				return false
			}
		}
		return true
	}
	return left == right
}
