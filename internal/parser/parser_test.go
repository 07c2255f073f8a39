package parser

import (
	"strings"
	"testing"

	"github.com/apexforge/apex/internal/ast"
)

func TestParseImports(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		module string
		symbol string
		alias  string
	}{
		{"module only", "import mem;", "mem", "", ""},
		{"module with alias", "import mem as memory;", "mem", "", "memory"},
		{"symbol import", "import math.abs;", "math", "abs", ""},
		{"symbol with alias", "import math.abs as magnitude;", "math", "abs", "magnitude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if len(program.Imports) != 1 {
				t.Fatalf("expected 1 import, got %d", len(program.Imports))
			}
			imp := program.Imports[0]
			if imp.Module != tt.module || imp.Symbol != tt.symbol || imp.Alias != tt.alias {
				t.Errorf("got module=%q symbol=%q alias=%q", imp.Module, imp.Symbol, imp.Alias)
			}
		})
	}
}

func TestParseFunction(t *testing.T) {
	input := `
fn add(a, b) {
    let total = a + b;
    return total;
}
`
	program, err := Parse(input)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(program.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(program.Functions))
	}
	fn := program.Functions[0]
	if fn.Name != "add" {
		t.Errorf("expected function name 'add', got %q", fn.Name)
	}
	if len(fn.Parameters) != 2 || fn.Parameters[0] != "a" || fn.Parameters[1] != "b" {
		t.Errorf("unexpected parameters: %v", fn.Parameters)
	}
	if len(fn.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(fn.Body))
	}
	let, ok := fn.Body[0].(*ast.LetStatement)
	if !ok {
		t.Fatalf("expected let statement, got %T", fn.Body[0])
	}
	if let.Name != "total" || let.Mutable {
		t.Errorf("got name=%q mutable=%v", let.Name, let.Mutable)
	}
	if _, ok := fn.Body[1].(*ast.ReturnStatement); !ok {
		t.Errorf("expected return statement, got %T", fn.Body[1])
	}
}

func TestParseVarAndAssignment(t *testing.T) {
	input := `
fn apex() {
    var count = 0;
    count = count + 1;
    return count;
}
`
	program, err := Parse(input)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	body := program.Functions[0].Body
	let, ok := body[0].(*ast.LetStatement)
	if !ok || !let.Mutable {
		t.Fatalf("expected mutable declaration, got %T", body[0])
	}
	assign, ok := body[1].(*ast.AssignStatement)
	if !ok {
		t.Fatalf("expected assignment, got %T", body[1])
	}
	if assign.Name != "count" {
		t.Errorf("expected assignment to 'count', got %q", assign.Name)
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"-a * b", "((-a) * b)"},
		{"!true == false", "((!true) == false)"},
		{"a + b < c * d", "((a + b) < (c * d))"},
		{"a < b && c > d", "((a < b) && (c > d))"},
		{"a && b || c", "((a && b) || c)"},
		{"10 % 3 - 1", "((10 % 3) - 1)"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program, err := Parse("fn apex() { return " + tt.input + "; }")
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			ret := program.Functions[0].Body[0].(*ast.ReturnStatement)
			if got := ret.Value.String(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParsePathCall(t *testing.T) {
	program, err := Parse("fn apex() { return mem.alloc(16); }")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	ret := program.Functions[0].Body[0].(*ast.ReturnStatement)
	call, ok := ret.Value.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected call expression, got %T", ret.Value)
	}
	path, ok := call.Callee.(*ast.PathExpression)
	if !ok {
		t.Fatalf("expected path callee, got %T", call.Callee)
	}
	if path.String() != "mem.alloc" {
		t.Errorf("expected path mem.alloc, got %s", path.String())
	}
	if len(call.Arguments) != 1 {
		t.Errorf("expected 1 argument, got %d", len(call.Arguments))
	}
}

func TestParseBigIntegerLiteral(t *testing.T) {
	program, err := Parse("fn apex() { return 123456789012345678901234567890; }")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	ret := program.Functions[0].Body[0].(*ast.ReturnStatement)
	lit, ok := ret.Value.(*ast.IntegerLiteral)
	if !ok {
		t.Fatalf("expected integer literal, got %T", ret.Value)
	}
	if lit.Value.String() != "123456789012345678901234567890" {
		t.Errorf("literal lost precision: %s", lit.Value.String())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing semicolon", "fn apex() { return 1 }", "expected ';'"},
		{"missing paren", "fn apex( { return 1; }", "expected parameter name"},
		{"missing body", "fn apex()", "expected '{'"},
		{"bad import", "import ;", "expected module name"},
		{"stray token", "fn apex() { return +; }", "expected expression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatal("expected error, got none")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, err)
			}
		})
	}
}

func TestErrorsCarryPosition(t *testing.T) {
	_, err := Parse("fn apex() {\n    return 1\n}")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected position in error, got %q", err)
	}
}
