package parser_test

import (
	"strings"
	"testing"

	"github.com/rdni/interpreter/pkg/ast"
	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/parser"
)

// helper: parse source and assert no diagnostics
func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, diags := parser.Parse(source, "test.tl")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if prog == nil {
		t.Fatal("expected non-nil program")
	}
	return prog
}

// helper: parse source and assert a fatal diagnostic mentioning msg
func mustFail(t *testing.T, source, msg string) {
	t.Helper()
	prog, diags := parser.Parse(source, "test.tl")
	if prog != nil {
		t.Fatalf("expected parse of %q to fail, but it succeeded", source)
	}
	if !diagnostics.IsFatal(diags) {
		t.Fatalf("expected a fatal diagnostic, got %v", diags)
	}
	last := diags[len(diags)-1]
	if !strings.Contains(last.Message, msg) {
		t.Errorf("diagnostic %q does not contain %q", last.Message, msg)
	}
}

// helper: extract the single top-level statement
func singleStmt(t *testing.T, source string) ast.Stmt {
	t.Helper()
	prog := mustParse(t, source)
	if len(prog.Body.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Body.Statements))
	}
	return prog.Body.Statements[0]
}

func singleExpr(t *testing.T, source string) ast.Expr {
	t.Helper()
	stmt := singleStmt(t, source)
	e, ok := stmt.(ast.Expr)
	if !ok {
		t.Fatalf("expected expression statement, got %T", stmt)
	}
	return e
}

// ===== Declarations =====

func TestVarDeclaration(t *testing.T) {
	decl, ok := singleStmt(t, "var x = 42;").(*ast.VarDeclaration)
	if !ok {
		t.Fatal("expected VarDeclaration")
	}
	if decl.Name != "x" || decl.Constant {
		t.Errorf("got name=%q constant=%v", decl.Name, decl.Constant)
	}
	if lit, ok := decl.Value.(*ast.NumericLiteral); !ok || lit.Value != 42 {
		t.Errorf("got value %#v", decl.Value)
	}
}

func TestVarWithoutValueIsNull(t *testing.T) {
	decl := singleStmt(t, "var x;").(*ast.VarDeclaration)
	id, ok := decl.Value.(*ast.Identifier)
	if !ok || id.Name != "null" {
		t.Errorf("expected Identifier null, got %#v", decl.Value)
	}
}

func TestConstDeclaration(t *testing.T) {
	decl := singleStmt(t, `const name = "tl";`).(*ast.VarDeclaration)
	if !decl.Constant {
		t.Error("expected constant")
	}
}

func TestConstWithoutValueFails(t *testing.T) {
	mustFail(t, "const x;", "must be initialized")
}

func TestVarMissingEqualsFails(t *testing.T) {
	mustFail(t, "var x 5;", "expected '='")
}

func TestMissingSemicolonWarns(t *testing.T) {
	prog, diags := parser.Parse("var x = 1\nvar y = 2;", "test.tl")
	if prog == nil {
		t.Fatalf("expected program, got diags %v", diags)
	}
	if len(diags) != 1 || diags[0].Severity != diagnostics.SeverityWarning || diags[0].Code != diagnostics.EMissingSemi {
		t.Fatalf("expected one missing-semicolon warning, got %v", diags)
	}
	if len(prog.Body.Statements) != 2 {
		t.Errorf("expected 2 statements, got %d", len(prog.Body.Statements))
	}
}

func TestNoWarningBeforeCloseBraceOrEOF(t *testing.T) {
	mustParse(t, "function f() { 1 + 1 }\nvar z = 3")
}

func TestFunctionDeclaration(t *testing.T) {
	fn := singleStmt(t, "function add(a, b) { return a + b; }").(*ast.FunctionDeclaration)
	if fn.Name != "add" {
		t.Errorf("got name %q", fn.Name)
	}
	if strings.Join(fn.Params, ",") != "a,b" {
		t.Errorf("got params %v", fn.Params)
	}
	if len(fn.Body.Statements) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(fn.Body.Statements))
	}
	if _, ok := fn.Body.Statements[0].(*ast.Return); !ok {
		t.Errorf("expected Return, got %T", fn.Body.Statements[0])
	}
}

func TestFunctionBadParamFails(t *testing.T) {
	mustFail(t, "function f(1) {}", "in parameter list")
}

func TestReturnRequiresSemicolon(t *testing.T) {
	mustFail(t, "function f() { return 1 }", "expected ';' after return value")
}

func TestBareReturn(t *testing.T) {
	fn := singleStmt(t, "function f() { return; }").(*ast.FunctionDeclaration)
	ret := fn.Body.Statements[0].(*ast.Return)
	if ret.Value != nil {
		t.Errorf("expected nil value, got %#v", ret.Value)
	}
}

// ===== Control flow =====

func TestIfElseIfDesugarsToBody(t *testing.T) {
	stmt := singleStmt(t, "if x < 1 { a; } else if x < 2 { b; } else { c; }").(*ast.If)
	if stmt.Else == nil || len(stmt.Else.Statements) != 1 {
		t.Fatalf("expected single-statement else body, got %#v", stmt.Else)
	}
	nested, ok := stmt.Else.Statements[0].(*ast.If)
	if !ok {
		t.Fatalf("expected nested If, got %T", stmt.Else.Statements[0])
	}
	if nested.Else == nil {
		t.Error("expected final else on nested If")
	}
}

func TestIfWithParenCondition(t *testing.T) {
	stmt := singleStmt(t, "if (true) { 1; }").(*ast.If)
	if id, ok := stmt.Cond.(*ast.Identifier); !ok || id.Name != "true" {
		t.Errorf("got cond %#v", stmt.Cond)
	}
}

func TestElseWithoutBlockFails(t *testing.T) {
	mustFail(t, "if x { } else 5;", "after else")
}

func TestWhile(t *testing.T) {
	w := singleStmt(t, "while i < 10 { i = i + 1; }").(*ast.While)
	if _, ok := w.Cond.(*ast.ComparativeExpr); !ok {
		t.Errorf("expected ComparativeExpr cond, got %T", w.Cond)
	}
}

func TestForForms(t *testing.T) {
	for _, src := range []string{"for x in xs { print(x); }", "for (x in [1, 2]) { print(x); }"} {
		f := singleStmt(t, src).(*ast.For)
		if f.Var.Name != "x" {
			t.Errorf("%s: got var %q", src, f.Var.Name)
		}
	}
}

func TestForMissingInFails(t *testing.T) {
	mustFail(t, "for x xs { }", "expected 'in'")
}

func TestBlockStatement(t *testing.T) {
	if _, ok := singleStmt(t, "{ var a = 1; }").(*ast.Body); !ok {
		t.Error("expected Body")
	}
}

func TestUnclosedBlockFails(t *testing.T) {
	mustFail(t, "if x { var a = 1;", "to close block")
}

func TestSemicolonsAreSkipped(t *testing.T) {
	prog := mustParse(t, ";; var a = 1;;; a;")
	if len(prog.Body.Statements) != 2 {
		t.Errorf("expected 2 statements, got %d", len(prog.Body.Statements))
	}
}

// ===== Expressions =====

func TestPrecedence(t *testing.T) {
	bin := singleExpr(t, "2 + 3 * 4;").(*ast.BinaryExpr)
	if bin.Op != ast.OpAdd {
		t.Fatalf("expected + at root, got %s", bin.Op)
	}
	if r, ok := bin.Right.(*ast.BinaryExpr); !ok || r.Op != ast.OpMul {
		t.Errorf("expected * on the right, got %#v", bin.Right)
	}
}

func TestParensOverridePrecedence(t *testing.T) {
	bin := singleExpr(t, "(2 + 3) * 4;").(*ast.BinaryExpr)
	if bin.Op != ast.OpMul {
		t.Fatalf("expected * at root, got %s", bin.Op)
	}
}

func TestLeftAssociativity(t *testing.T) {
	bin := singleExpr(t, "10 - 3 - 2;").(*ast.BinaryExpr)
	if _, ok := bin.Left.(*ast.BinaryExpr); !ok {
		t.Error("expected (10 - 3) - 2")
	}
}

func TestComparisonComposition(t *testing.T) {
	tests := []struct {
		src string
		op  ast.CompareOp
	}{
		{"a == b;", ast.OpEq},
		{"a != b;", ast.OpNeq},
		{"a <= b;", ast.OpLtEq},
		{"a >= b;", ast.OpGtEq},
		{"a < b;", ast.OpLt},
		{"a > b;", ast.OpGt},
	}
	for _, tt := range tests {
		c, ok := singleExpr(t, tt.src).(*ast.ComparativeExpr)
		if !ok || c.Op != tt.op {
			t.Errorf("%s: got %#v", tt.src, c)
		}
	}
}

func TestComparisonBindsLooserThanArithmetic(t *testing.T) {
	c := singleExpr(t, "1 < 2 == true;").(*ast.ComparativeExpr)
	if c.Op != ast.OpEq {
		t.Fatalf("expected == at root, got %s", c.Op)
	}
	if inner, ok := c.Left.(*ast.ComparativeExpr); !ok || inner.Op != ast.OpLt {
		t.Errorf("expected (1 < 2) on the left, got %#v", c.Left)
	}
	c = singleExpr(t, "1 + 1 == 2;").(*ast.ComparativeExpr)
	if _, ok := c.Left.(*ast.BinaryExpr); !ok {
		t.Errorf("expected arithmetic on the left, got %T", c.Left)
	}
}

func TestAssignmentRightAssociative(t *testing.T) {
	a := singleExpr(t, "a = b = 3;").(*ast.AssignmentExpr)
	if _, ok := a.Value.(*ast.AssignmentExpr); !ok {
		t.Errorf("expected nested assignment, got %T", a.Value)
	}
}

func TestAssignmentToLiteralParses(t *testing.T) {
	a := singleExpr(t, "1 = 2;").(*ast.AssignmentExpr)
	if _, ok := a.Assignee.(*ast.NumericLiteral); !ok {
		t.Errorf("expected literal target, got %T", a.Assignee)
	}
}

func TestUnaryMinus(t *testing.T) {
	bin := singleExpr(t, "-2 * 3;").(*ast.BinaryExpr)
	if _, ok := bin.Left.(*ast.UnaryExpr); !ok {
		t.Errorf("expected unary on the left, got %T", bin.Left)
	}
}

func TestObjectLiteral(t *testing.T) {
	decl := singleStmt(t, "var o = { a: 1, b, c: \"x\", };").(*ast.VarDeclaration)
	obj := decl.Value.(*ast.ObjectLiteral)
	if len(obj.Properties) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(obj.Properties))
	}
	if obj.Properties[1].Key != "b" || obj.Properties[1].Value != nil {
		t.Errorf("expected shorthand b, got %#v", obj.Properties[1])
	}
}

func TestObjectLiteralShorthandLast(t *testing.T) {
	decl := singleStmt(t, "var o = { a };").(*ast.VarDeclaration)
	obj := decl.Value.(*ast.ObjectLiteral)
	if len(obj.Properties) != 1 || obj.Properties[0].Value != nil {
		t.Errorf("got %#v", obj.Properties)
	}
}

func TestObjectMissingCommaFails(t *testing.T) {
	mustFail(t, "var o = { a: 1 b: 2 };", "between object properties")
}

func TestObjectMissingColonFails(t *testing.T) {
	mustFail(t, "var o = { a 1 };", "after object key")
}

func TestListLiteral(t *testing.T) {
	decl := singleStmt(t, "var xs = [1, \"two\", [3],];").(*ast.VarDeclaration)
	list := decl.Value.(*ast.ListLiteral)
	if len(list.Elements) != 3 {
		t.Errorf("expected 3 elements, got %d", len(list.Elements))
	}
}

func TestMemberChainIsLeftLeaning(t *testing.T) {
	m := singleExpr(t, "a.b[0].c;").(*ast.MemberExpr)
	if m.Computed {
		t.Error("outer access should be static")
	}
	inner, ok := m.Object.(*ast.MemberExpr)
	if !ok || !inner.Computed {
		t.Fatalf("expected computed inner member, got %#v", m.Object)
	}
	if id, ok := m.Root().(*ast.Identifier); !ok || id.Name != "a" {
		t.Errorf("expected root a, got %#v", m.Root())
	}
}

func TestChainedCalls(t *testing.T) {
	outer := singleExpr(t, "f(1)(2, 3);").(*ast.CallExpr)
	if len(outer.Args) != 2 {
		t.Errorf("expected 2 outer args, got %d", len(outer.Args))
	}
	inner, ok := outer.Callee.(*ast.CallExpr)
	if !ok || len(inner.Args) != 1 {
		t.Fatalf("expected inner call with 1 arg, got %#v", outer.Callee)
	}
}

func TestMethodCall(t *testing.T) {
	call := singleExpr(t, "json.parse(s);").(*ast.CallExpr)
	if _, ok := call.Callee.(*ast.MemberExpr); !ok {
		t.Errorf("expected member callee, got %T", call.Callee)
	}
}

func TestUnclosedCallFails(t *testing.T) {
	mustFail(t, "print(1, 2;", "to close argument list")
}

func TestUnclosedIndexFails(t *testing.T) {
	mustFail(t, "xs[0;", "to close index")
}

func TestInvalidNumberFails(t *testing.T) {
	mustFail(t, "1.2.3;", "invalid number literal")
}

func TestUnexpectedTokenFails(t *testing.T) {
	mustFail(t, "var x = *;", "unexpected token")
}

func TestLexErrorSurfaces(t *testing.T) {
	_, diags := parser.Parse(`"bad \x"`, "test.tl")
	if len(diags) != 1 || diags[0].Code != diagnostics.ELex {
		t.Errorf("expected lex diagnostic, got %v", diags)
	}
}

func TestSpanCoversStatement(t *testing.T) {
	decl := singleStmt(t, "var total = 1 + 2;").(*ast.VarDeclaration)
	if decl.Span.StartCol != 1 || decl.Span.EndCol != 18 {
		t.Errorf("got span %d..%d", decl.Span.StartCol, decl.Span.EndCol)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	src := "function f(n) { if n < 2 { return n; } return f(n - 1) + f(n - 2); } f(10);"
	a := ast.Dump(mustParse(t, src))
	b := ast.Dump(mustParse(t, src))
	if a != b {
		t.Errorf("parses differ:\n%s\n---\n%s", a, b)
	}
}
