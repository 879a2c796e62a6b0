// Package ast defines the syntax tree produced by the parser.
//
// Statements and expressions form a closed set. Every Expr is also a Stmt, so
// an expression can appear anywhere a statement is expected.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Stmt
	exprNode() // sealed marker
}

// BinaryOp is an arithmetic operator symbol.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpMod BinaryOp = "%"
)

// CompareOp is a relational or equality operator symbol.
type CompareOp string

const (
	OpEq   CompareOp = "=="
	OpNeq  CompareOp = "!="
	OpLt   CompareOp = "<"
	OpGt   CompareOp = ">"
	OpLtEq CompareOp = "<="
	OpGtEq CompareOp = ">="
)

// --- Statements ---

// Program is the root of a parsed source unit.
type Program struct {
	Span Span
	Body *Body
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
func (n *Program) stmtNode()      {}

// Body is an ordered statement sequence and the unit of block scoping.
type Body struct {
	Span       Span
	Statements []Stmt
}

func (n *Body) Kind() string   { return "Body" }
func (n *Body) NodeSpan() Span { return n.Span }
func (n *Body) stmtNode()      {}

type VarDeclaration struct {
	Span     Span
	Name     string
	Constant bool
	Value    Expr
}

func (n *VarDeclaration) Kind() string   { return "VarDeclaration" }
func (n *VarDeclaration) NodeSpan() Span { return n.Span }
func (n *VarDeclaration) stmtNode()      {}

type FunctionDeclaration struct {
	Span   Span
	Name   string
	Params []string
	Body   *Body
}

func (n *FunctionDeclaration) Kind() string   { return "FunctionDeclaration" }
func (n *FunctionDeclaration) NodeSpan() Span { return n.Span }
func (n *FunctionDeclaration) stmtNode()      {}

type Return struct {
	Span  Span
	Value Expr
}

func (n *Return) Kind() string   { return "Return" }
func (n *Return) NodeSpan() Span { return n.Span }
func (n *Return) stmtNode()      {}

// If holds an optional else Body. An "else if" chain is stored as an Else
// Body containing a single nested If.
type If struct {
	Span Span
	Cond Expr
	Then *Body
	Else *Body
}

func (n *If) Kind() string   { return "If" }
func (n *If) NodeSpan() Span { return n.Span }
func (n *If) stmtNode()      {}

type While struct {
	Span Span
	Cond Expr
	Body *Body
}

func (n *While) Kind() string   { return "While" }
func (n *While) NodeSpan() Span { return n.Span }
func (n *While) stmtNode()      {}

type For struct {
	Span     Span
	Var      *Identifier
	Iterable Expr
	Body     *Body
}

func (n *For) Kind() string   { return "For" }
func (n *For) NodeSpan() Span { return n.Span }
func (n *For) stmtNode()      {}

// --- Expressions ---

type Identifier struct {
	Span Span
	Name string
}

func (n *Identifier) Kind() string   { return "Identifier" }
func (n *Identifier) NodeSpan() Span { return n.Span }
func (n *Identifier) stmtNode()      {}
func (n *Identifier) exprNode()      {}

type NumericLiteral struct {
	Span  Span
	Value float64
}

func (n *NumericLiteral) Kind() string   { return "NumericLiteral" }
func (n *NumericLiteral) NodeSpan() Span { return n.Span }
func (n *NumericLiteral) stmtNode()      {}
func (n *NumericLiteral) exprNode()      {}

type StringLiteral struct {
	Span  Span
	Value string
}

func (n *StringLiteral) Kind() string   { return "StringLiteral" }
func (n *StringLiteral) NodeSpan() Span { return n.Span }
func (n *StringLiteral) stmtNode()      {}
func (n *StringLiteral) exprNode()      {}

type BinaryExpr struct {
	Span  Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *BinaryExpr) Kind() string   { return "BinaryExpr" }
func (n *BinaryExpr) NodeSpan() Span { return n.Span }
func (n *BinaryExpr) stmtNode()      {}
func (n *BinaryExpr) exprNode()      {}

// UnaryExpr is a leading minus. It evaluates as 0 - Operand.
type UnaryExpr struct {
	Span    Span
	Operand Expr
}

func (n *UnaryExpr) Kind() string   { return "UnaryExpr" }
func (n *UnaryExpr) NodeSpan() Span { return n.Span }
func (n *UnaryExpr) stmtNode()      {}
func (n *UnaryExpr) exprNode()      {}

type ComparativeExpr struct {
	Span  Span
	Op    CompareOp
	Left  Expr
	Right Expr
}

func (n *ComparativeExpr) Kind() string   { return "ComparativeExpr" }
func (n *ComparativeExpr) NodeSpan() Span { return n.Span }
func (n *ComparativeExpr) stmtNode()      {}
func (n *ComparativeExpr) exprNode()      {}

// AssignmentExpr's Assignee is whatever the comparison layer produced; only
// Identifier and MemberExpr are valid targets at evaluation time.
type AssignmentExpr struct {
	Span     Span
	Assignee Expr
	Value    Expr
}

func (n *AssignmentExpr) Kind() string   { return "AssignmentExpr" }
func (n *AssignmentExpr) NodeSpan() Span { return n.Span }
func (n *AssignmentExpr) stmtNode()      {}
func (n *AssignmentExpr) exprNode()      {}

// Property is an object literal entry. A nil Value is shorthand for the
// variable with the same name as Key.
type Property struct {
	Span  Span
	Key   string
	Value Expr
}

type ObjectLiteral struct {
	Span       Span
	Properties []*Property
}

func (n *ObjectLiteral) Kind() string   { return "ObjectLiteral" }
func (n *ObjectLiteral) NodeSpan() Span { return n.Span }
func (n *ObjectLiteral) stmtNode()      {}
func (n *ObjectLiteral) exprNode()      {}

type ListLiteral struct {
	Span     Span
	Elements []Expr
}

func (n *ListLiteral) Kind() string   { return "ListLiteral" }
func (n *ListLiteral) NodeSpan() Span { return n.Span }
func (n *ListLiteral) stmtNode()      {}
func (n *ListLiteral) exprNode()      {}

// MemberExpr is obj.prop when Computed is false (Property is an Identifier)
// and obj[prop] when Computed is true.
type MemberExpr struct {
	Span     Span
	Object   Expr
	Property Expr
	Computed bool
}

func (n *MemberExpr) Kind() string   { return "MemberExpr" }
func (n *MemberExpr) NodeSpan() Span { return n.Span }
func (n *MemberExpr) stmtNode()      {}
func (n *MemberExpr) exprNode()      {}

// Root returns the innermost object expression of a member chain.
func (n *MemberExpr) Root() Expr {
	var cur Expr = n
	for {
		m, ok := cur.(*MemberExpr)
		if !ok {
			return cur
		}
		cur = m.Object
	}
}

type CallExpr struct {
	Span   Span
	Callee Expr
	Args   []Expr
}

func (n *CallExpr) Kind() string   { return "CallExpr" }
func (n *CallExpr) NodeSpan() Span { return n.Span }
func (n *CallExpr) stmtNode()      {}
func (n *CallExpr) exprNode()      {}
