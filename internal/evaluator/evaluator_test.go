package evaluator

import (
	"strings"
	"testing"

	"github.com/apexforge/apex/internal/parser"
)

// evalSource parses a full program and runs its apex entry point.
func evalSource(t *testing.T, source string) Object {
	t.Helper()
	program, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return New().Run(program)
}

// evalExpr wraps a single expression in an apex function and returns its value.
func evalExpr(t *testing.T, expr string) Object {
	t.Helper()
	return evalSource(t, "fn apex() { return "+expr+"; }")
}

// callNative resolves and invokes a builtin by its qualified name, going
// through the same arity check as the evaluator dispatch.
func callNative(t *testing.T, rt *Runtime, qualified string, args ...Object) Object {
	t.Helper()
	module, symbol, ok := strings.Cut(qualified, ".")
	if !ok {
		t.Fatalf("malformed native name %q", qualified)
	}
	fn, found := rt.lookupNative(module, symbol)
	if !found {
		t.Fatalf("unknown native %s", qualified)
	}
	if err := checkArity(fn, len(args)); err != nil {
		return err
	}
	return fn.Fn(rt, args)
}

func tup(elems ...Object) *Tuple {
	return &Tuple{Elements: elems}
}

func text(s string) *Text {
	return &Text{Value: s}
}

func expectError(t *testing.T, value Object, kind ErrorKind) *Error {
	t.Helper()
	errObj, ok := value.(*Error)
	if !ok {
		t.Fatalf("expected %s error, got %s (%s)", kind, value.Type(), value.Inspect())
	}
	if errObj.Kind != kind {
		t.Fatalf("expected %s error, got %s: %s", kind, errObj.Kind, errObj.Message)
	}
	return errObj
}

func expectInspect(t *testing.T, value Object, want string) {
	t.Helper()
	if got := value.Inspect(); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestArithmeticAndComparison(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"10 - 4 - 3", "3"},
		{"7 / 2", "3"},
		{"-7 / 2", "-3"},
		{"7 % 3", "1"},
		{"-7 % 3", "-1"},
		{"2.5 + 1", "3.5"},
		{"1.0 * 4", "4.0"},
		{"9 / 2.0", "4.5"},
		{"5.5 % 2", "1.5"},
		{"-3", "-3"},
		{"+4", "4"},
		{"-2.5", "-2.5"},
		{"2 < 3", "true"},
		{"2 >= 3", "false"},
		{"1.5 <= 1.5", "true"},
		{"2 > 1.9", "true"},
		{"1 == 1", "true"},
		{"1 == 1.0", "false"},
		{"1 != 1.0", "true"},
		{"1.0 == 1.0", "true"},
		{`"a" + "b"`, `"ab"`},
		{`"abc" < "abd"`, "true"},
		{`"a" == "a"`, "true"},
		{`"a" != "b"`, "true"},
		{"true && false", "false"},
		{"true || false", "true"},
		{"!false", "true"},
		{"!true", "false"},
		{"1 < 2 && 2 < 3", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			expectInspect(t, evalExpr(t, tt.expr), tt.want)
		})
	}
}

func TestBigIntegerArithmetic(t *testing.T) {
	// 2^70 stays exact; nothing silently wraps to int64.
	result := evalExpr(t, "1024 * 1024 * 1024 * 1024 * 1024 * 1024 * 1024")
	expectInspect(t, result, "1180591620717411303424")
}

func TestDivisionByZero(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"integer divide", "1 / 0"},
		{"integer modulo", "1 % 0"},
		{"float divide", "1.0 / 0.0"},
		{"float modulo", "1.0 % 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, evalExpr(t, tt.expr), ERR_RUNTIME)
		})
	}
}

func TestOperatorTypeErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"bang on integer", "!1"},
		{"and on integer", "1 && true"},
		{"or on text", `"x" || false`},
		{"plus on bool", "true + 1"},
		{"text minus", `"a" - "b"`},
		{"mixed text number", `"a" + 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, evalExpr(t, tt.expr), ERR_TYPE)
		})
	}
}

func TestShortCircuitSkipsRightOperand(t *testing.T) {
	// The right operand divides by zero, so it must not be evaluated.
	expectInspect(t, evalExpr(t, "false && 1 / 0 == 0"), "false")
	expectInspect(t, evalExpr(t, "true || 1 / 0 == 0"), "true")
}

func TestBindings(t *testing.T) {
	t.Run("let is immutable", func(t *testing.T) {
		result := evalSource(t, `
fn apex() {
    let x = 1;
    x = 2;
    return x;
}
`)
		expectError(t, result, ERR_RUNTIME)
	})

	t.Run("var can be reassigned", func(t *testing.T) {
		result := evalSource(t, `
fn apex() {
    var count = 0;
    count = count + 1;
    count = count * 10;
    return count;
}
`)
		expectInspect(t, result, "10")
	})

	t.Run("undefined name", func(t *testing.T) {
		result := evalSource(t, "fn apex() { return missing; }")
		expectError(t, result, ERR_UNRESOLVED_NAME)
	})

	t.Run("assignment to undeclared variable", func(t *testing.T) {
		result := evalSource(t, "fn apex() { ghost = 1; return 0; }")
		expectError(t, result, ERR_UNRESOLVED_NAME)
	})
}

func TestUserFunctions(t *testing.T) {
	t.Run("call and return", func(t *testing.T) {
		result := evalSource(t, `
fn add(a, b) {
    return a + b;
}

fn apex() {
    return add(add(1, 2), 4);
}
`)
		expectInspect(t, result, "7")
	})

	t.Run("declaration order does not matter", func(t *testing.T) {
		result := evalSource(t, `
fn apex() {
    return double(21);
}

fn double(n) {
    return n * 2;
}
`)
		expectInspect(t, result, "42")
	})

	t.Run("arity mismatch", func(t *testing.T) {
		result := evalSource(t, `
fn add(a, b) {
    return a + b;
}

fn apex() {
    return add(1);
}
`)
		expectError(t, result, ERR_ARITY)
	})

	t.Run("no explicit return yields empty tuple", func(t *testing.T) {
		result := evalSource(t, `
fn noop() {
    let unused = 1;
}

fn apex() {
    return noop();
}
`)
		expectInspect(t, result, "()")
	})
}

func TestImports(t *testing.T) {
	t.Run("module import", func(t *testing.T) {
		result := evalSource(t, `
import math;

fn apex() {
    return math.abs(-5);
}
`)
		expectInspect(t, result, "5")
	})

	t.Run("module alias", func(t *testing.T) {
		result := evalSource(t, `
import math as m;

fn apex() {
    return m.hypot(3, 4);
}
`)
		expectInspect(t, result, "5.0")
	})

	t.Run("symbol import", func(t *testing.T) {
		result := evalSource(t, `
import math.abs;

fn apex() {
    return abs(-2.5);
}
`)
		expectInspect(t, result, "2.5")
	})

	t.Run("symbol alias", func(t *testing.T) {
		result := evalSource(t, `
import math.abs as magnitude;

fn apex() {
    return magnitude(-7);
}
`)
		expectInspect(t, result, "7")
	})

	t.Run("unknown module", func(t *testing.T) {
		result := evalSource(t, `
import nosuch;

fn apex() {
    return 0;
}
`)
		expectError(t, result, ERR_UNRESOLVED_NAME)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		result := evalSource(t, `
import math.nosuch;

fn apex() {
    return 0;
}
`)
		expectError(t, result, ERR_UNRESOLVED_NAME)
	})

	t.Run("unimported module reference", func(t *testing.T) {
		result := evalSource(t, `
fn apex() {
    return math.abs(-1);
}
`)
		expectError(t, result, ERR_UNRESOLVED_NAME)
	})
}

func TestEntryPoint(t *testing.T) {
	t.Run("missing apex", func(t *testing.T) {
		result := evalSource(t, "fn other() { return 1; }")
		expectError(t, result, ERR_RUNTIME)
	})

	t.Run("native errors propagate", func(t *testing.T) {
		result := evalSource(t, `
import math;

fn apex() {
    return math.sqrt(-1);
}
`)
		expectError(t, result, ERR_RUNTIME)
	})

	t.Run("builtin arity checked at call site", func(t *testing.T) {
		result := evalSource(t, `
import math;

fn apex() {
    return math.abs(1, 2);
}
`)
		expectError(t, result, ERR_ARITY)
	})
}

func TestStructuralEquality(t *testing.T) {
	if !objectsEqual(tup(NewInteger(1), text("a")), tup(NewInteger(1), text("a"))) {
		t.Error("equal tuples compared unequal")
	}
	if objectsEqual(tup(NewInteger(1)), tup(&Float{Value: 1})) {
		t.Error("integer and float elements must not compare equal")
	}
	if objectsEqual(tup(NewInteger(1)), tup(NewInteger(1), NewInteger(2))) {
		t.Error("tuples of different lengths compared equal")
	}
	if !objectsEqual(tup(), tup()) {
		t.Error("empty tuples must compare equal")
	}
}

func TestRuntimeReset(t *testing.T) {
	rt := NewRuntime()
	ptr := callNative(t, rt, "mem.alloc_bytes", NewInteger(4))
	callNative(t, rt, "signal.emit", text("tick"))
	rt.Reset()
	expectInspect(t, callNative(t, rt, "signal.tracked"), "0")
	expectError(t, callNative(t, rt, "mem.read_byte", ptr), ERR_USE_AFTER_FREE)
}
