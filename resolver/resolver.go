// Package resolver implements the resolution of identifier tokens in a Lox program.
package resolver

import (
	"fmt"
	"iter"

	"github.com/loxlang/golox/ast"
	"github.com/loxlang/golox/loxerr"
	"github.com/loxlang/golox/token"
)

// this and super aren't declared using real source tokens, since the this/super keyword tokens produced by the
// lexer carry no Lexeme (only token.Ident tokens do). These names are what their synthetic scope entries are keyed
// by instead.
const (
	thisName  = token.CurrentInstanceIdent
	superName = "super"
)

// Resolve resolves the identifier tokens in a program to the declarations that they refer to.
// It returns a map from identifier tokens to the distance to the declaration of the identifier that they refer to.
// A distance of 0 means that the identifier was declared in the current scope, 1 means it was declared in the
// parent scope, and so on.
// If a token is not present in the map, then the identifier that it refers to was either declared globally or not
// at all.
func Resolve(program *ast.Program) (map[token.Token]int, error) {
	r := newResolver()
	r.resolveProgram(program)
	if err := r.errs.Err(); err != nil {
		return nil, err
	}
	return r.distances, nil
}

type identStatus int

const (
	identStatusDeclared identStatus = 0
	identStatusDefined  identStatus = 1 << (iota - 1)
	identStatusUsed
)

func (s identStatus) Is(flag identStatus) bool {
	return s&flag != 0
}

type ident struct {
	status identStatus
	tok    token.Token
}

// scope keeps track of which identifiers have been declared, defined, and used in a lexical scope.
type scope map[string]*ident

func (s scope) Declare(name string, tok token.Token) {
	s[name] = &ident{tok: tok}
}

func (s scope) Define(name string) {
	if id, ok := s[name]; ok {
		id.status |= identStatusDefined
	}
}

func (s scope) Use(name string) {
	if id, ok := s[name]; ok {
		id.status |= identStatusUsed
	}
}

func (s scope) IsDeclared(name string) bool {
	_, ok := s[name]
	return ok
}

type identOp int

const (
	identOpRead identOp = iota
	identOpWrite
)

type funKind int

const (
	funKindNone funKind = iota
	funKindFunction
	funKindMethod
	funKindInitializer
)

type classType int

const (
	classTypeNone classType = iota
	classTypeClass
	classTypeSubclass
	classTypeTrait
)

type resolver struct {
	scopes *stack[scope]

	inLoop       bool
	curFunKind   funKind
	curClassType classType

	distances map[token.Token]int
	errs      loxerr.Errors
}

func newResolver() *resolver {
	return &resolver{
		scopes:    newStack[scope](),
		distances: map[token.Token]int{},
	}
}

// beginScope pushes a new scope and returns a function which pops it, reporting an error for every identifier
// declared in the scope which was never used.
func (r *resolver) beginScope() func() {
	s := scope{}
	r.scopes.Push(s)
	return func() {
		r.scopes.Pop()
		for name, id := range s {
			if !id.status.Is(identStatusUsed) {
				r.errs.Addf(id.tok, "%s declared but not used", name)
			}
		}
	}
}

func (r *resolver) declareIdent(id *ast.Ident) {
	if r.scopes.Len() == 0 {
		return
	}
	name := id.String()
	if name == token.PlaceholderIdent {
		return
	}
	s := r.scopes.Peek()
	if s.IsDeclared(name) {
		r.errs.Addf(id, "%s has already been declared", name)
		return
	}
	s.Declare(name, id.Token)
}

func (r *resolver) defineIdent(id *ast.Ident) {
	name := id.String()
	if name == token.PlaceholderIdent {
		return
	}
	for i, s := range r.scopes.Backward() {
		_ = i
		if s.IsDeclared(name) {
			s.Define(name)
			return
		}
	}
}

// declareAndDefineSynthetic declares, defines, and immediately marks as used an identifier which isn't backed by a
// real source token, such as this or super.
func (r *resolver) declareAndDefineSynthetic(name string) {
	s := r.scopes.Peek()
	s.Declare(name, token.Token{})
	s.Define(name)
	s.Use(name)
}

// resolveIdentNamed resolves an identifier occurrence, recording its scope distance in r.distances keyed by tok.
// name is the name to look the identifier up by, which is decoupled from tok.Lexeme so that this and super
// (whose tokens carry no Lexeme) can be resolved the same way as ordinary identifiers.
func (r *resolver) resolveIdentNamed(name string, tok token.Token, op identOp) {
	for i, s := range r.scopes.Backward() {
		id, ok := s[name]
		if !ok {
			continue
		}
		id.status |= identStatusUsed
		if !id.status.Is(identStatusDefined) && op == identOpRead {
			r.errs.Addf(tok, "%s has not been defined", name)
		} else {
			r.distances[tok] = r.scopes.Len() - 1 - i
		}
		return
	}
	// The identifier will either be declared globally later in the program or not at all.
}

func (r *resolver) resolveProgram(program *ast.Program) {
	for _, stmt := range program.Stmts {
		r.resolveStmt(stmt)
	}
}

func (r *resolver) resolveStmt(stmt ast.Stmt) {
	switch stmt := stmt.(type) {
	case *ast.VarDecl:
		r.resolveVarDecl(stmt)
	case *ast.FunDecl:
		r.resolveFunDecl(stmt)
	case *ast.ClassDecl:
		r.resolveClassDecl(stmt)
	case *ast.TraitDecl:
		r.resolveTraitDecl(stmt)
	case *ast.ExprStmt:
		r.resolveExpr(stmt.Expr)
	case *ast.PrintStmt:
		r.resolveExpr(stmt.Expr)
	case *ast.Block:
		r.resolveBlock(stmt)
	case *ast.IfStmt:
		r.resolveIfStmt(stmt)
	case *ast.WhileStmt:
		r.resolveWhileStmt(stmt)
	case *ast.ForStmt:
		r.resolveForStmt(stmt)
	case *ast.BreakStmt:
		r.resolveBreakStmt(stmt)
	case *ast.ContinueStmt:
		r.resolveContinueStmt(stmt)
	case *ast.ReturnStmt:
		r.resolveReturnStmt(stmt)
	case *ast.IllegalStmt:
		// Nothing to resolve, parsing already failed.
	default:
		panic(fmt.Sprintf("unexpected statement type: %T", stmt))
	}
}

func (r *resolver) resolveVarDecl(decl *ast.VarDecl) {
	r.declareIdent(decl.Name)
	if decl.Initialiser != nil {
		r.resolveExpr(decl.Initialiser)
	}
	r.defineIdent(decl.Name)
}

func (r *resolver) resolveFunDecl(decl *ast.FunDecl) {
	r.declareIdent(decl.Name)
	r.defineIdent(decl.Name)
	r.resolveFun(decl.Function, funKindFunction)
}

func (r *resolver) resolveFun(fun *ast.Function, kind funKind) {
	prevFunKind, prevInLoop := r.curFunKind, r.inLoop
	r.curFunKind, r.inLoop = kind, false
	defer func() { r.curFunKind, r.inLoop = prevFunKind, prevInLoop }()

	endScope := r.beginScope()
	defer endScope()
	for _, param := range fun.Params {
		r.declareIdent(param.Name)
		r.defineIdent(param.Name)
		// Unlike other local variables, unused parameters aren't an error.
		if name := param.Name.String(); name != token.PlaceholderIdent {
			r.scopes.Peek().Use(name)
		}
	}
	for _, stmt := range fun.Body.Stmts {
		r.resolveStmt(stmt)
	}
}

func (r *resolver) resolveClassDecl(decl *ast.ClassDecl) {
	r.declareIdent(decl.Name)
	r.defineIdent(decl.Name)

	if decl.Superclass != nil {
		if decl.Superclass.String() == decl.Name.String() {
			r.errs.Addf(decl.Superclass, "class cannot inherit from itself")
		} else {
			r.resolveIdentNamed(decl.Superclass.String(), decl.Superclass.Token, identOpRead)
		}
	}
	for _, use := range decl.Uses {
		r.resolveIdentNamed(use.String(), use.Token, identOpRead)
	}

	prevClassType := r.curClassType
	if decl.Superclass != nil {
		r.curClassType = classTypeSubclass
	} else {
		r.curClassType = classTypeClass
	}
	defer func() { r.curClassType = prevClassType }()

	endSuperScope := func() {}
	if decl.Superclass != nil {
		endSuperScope = r.beginScope()
		r.declareAndDefineSynthetic(superName)
	}
	defer endSuperScope()

	endThisScope := r.beginScope()
	defer endThisScope()
	r.declareAndDefineSynthetic(thisName)

	for _, method := range decl.Methods() {
		r.resolveMethodDecl(method)
	}
}

func (r *resolver) resolveTraitDecl(decl *ast.TraitDecl) {
	r.declareIdent(decl.Name)
	r.defineIdent(decl.Name)

	for _, use := range decl.Uses {
		r.resolveIdentNamed(use.String(), use.Token, identOpRead)
	}

	prevClassType := r.curClassType
	r.curClassType = classTypeTrait
	defer func() { r.curClassType = prevClassType }()

	endThisScope := r.beginScope()
	defer endThisScope()
	r.declareAndDefineSynthetic(thisName)

	for _, method := range decl.Methods() {
		r.resolveMethodDecl(method)
	}
}

func (r *resolver) resolveMethodDecl(decl *ast.MethodDecl) {
	if decl.IsGetter() && len(decl.GetParams()) > 0 {
		r.errs.Addf(decl.Name, "getter %m must not declare any parameters", decl.Name)
	}
	kind := funKindMethod
	if decl.IsInit() {
		kind = funKindInitializer
	}
	r.resolveFun(decl.Function, kind)
}

func (r *resolver) resolveBlock(stmt *ast.Block) {
	endScope := r.beginScope()
	defer endScope()
	for _, stmt := range stmt.Stmts {
		r.resolveStmt(stmt)
	}
}

func (r *resolver) resolveIfStmt(stmt *ast.IfStmt) {
	r.resolveExpr(stmt.Condition)
	r.resolveStmt(stmt.Then)
	if stmt.Else != nil {
		r.resolveStmt(stmt.Else)
	}
}

func (r *resolver) resolveWhileStmt(stmt *ast.WhileStmt) {
	r.resolveExpr(stmt.Condition)
	prevInLoop := r.inLoop
	r.inLoop = true
	defer func() { r.inLoop = prevInLoop }()
	r.resolveStmt(stmt.Body)
}

func (r *resolver) resolveForStmt(stmt *ast.ForStmt) {
	endScope := r.beginScope()
	defer endScope()
	if stmt.Initialise != nil {
		r.resolveStmt(stmt.Initialise)
	}
	if stmt.Condition != nil {
		r.resolveExpr(stmt.Condition)
	}
	if stmt.Update != nil {
		r.resolveExpr(stmt.Update)
	}
	prevInLoop := r.inLoop
	r.inLoop = true
	defer func() { r.inLoop = prevInLoop }()
	r.resolveStmt(stmt.Body)
}

func (r *resolver) resolveBreakStmt(stmt *ast.BreakStmt) {
	if !r.inLoop {
		r.errs.Addf(stmt, "break must be inside a loop")
	}
}

func (r *resolver) resolveContinueStmt(stmt *ast.ContinueStmt) {
	if !r.inLoop {
		r.errs.Addf(stmt, "continue must be inside a loop")
	}
}

func (r *resolver) resolveReturnStmt(stmt *ast.ReturnStmt) {
	if r.curFunKind == funKindNone {
		r.errs.Addf(stmt, "return must be inside a function")
	} else if r.curFunKind == funKindInitializer && stmt.Value != nil {
		r.errs.Addf(stmt.Value, "%s cannot return a value", token.ConstructorIdent)
	}
	if stmt.Value != nil {
		r.resolveExpr(stmt.Value)
	}
}

func (r *resolver) resolveExpr(expr ast.Expr) {
	switch expr := expr.(type) {
	case *ast.FunExpr:
		r.resolveFun(expr.Function, funKindFunction)
	case *ast.GroupExpr:
		r.resolveExpr(expr.Expr)
	case *ast.LiteralExpr:
		// Nothing to resolve.
	case *ast.IdentExpr:
		r.resolveIdentExpr(expr)
	case *ast.ThisExpr:
		r.resolveThisExpr(expr)
	case *ast.SuperExpr:
		r.resolveSuperExpr(expr)
	case *ast.CallExpr:
		r.resolveCallExpr(expr)
	case *ast.PropertyExpr:
		r.resolveExpr(expr.Object)
	case *ast.PropertySetExpr:
		r.resolveExpr(expr.Object)
		r.resolveExpr(expr.Value)
	case *ast.UnaryExpr:
		r.resolveExpr(expr.Right)
	case *ast.BinaryExpr:
		r.resolveExpr(expr.Left)
		r.resolveExpr(expr.Right)
	case *ast.TernaryExpr:
		r.resolveExpr(expr.Condition)
		r.resolveExpr(expr.Then)
		r.resolveExpr(expr.Else)
	case *ast.AssignmentExpr:
		r.resolveAssignmentExpr(expr)
	default:
		panic(fmt.Sprintf("unexpected expression type: %T", expr))
	}
}

func (r *resolver) resolveIdentExpr(expr *ast.IdentExpr) {
	name := expr.Ident.String()
	if name == token.PlaceholderIdent {
		r.errs.Addf(expr.Ident, "%s cannot be used in an expression", token.PlaceholderIdent)
		return
	}
	r.resolveIdentNamed(name, expr.Ident.Token, identOpRead)
}

func (r *resolver) resolveThisExpr(expr *ast.ThisExpr) {
	if r.curClassType == classTypeNone {
		r.errs.Addf(expr, "%m can only be used inside a class or trait", token.This)
		return
	}
	r.resolveIdentNamed(thisName, expr.This, identOpRead)
}

func (r *resolver) resolveSuperExpr(expr *ast.SuperExpr) {
	switch r.curClassType {
	case classTypeSubclass:
	case classTypeTrait:
		r.errs.Addf(expr, "%m cannot be used inside a trait", token.Super)
		return
	default:
		r.errs.Addf(expr, "%m can only be used inside a subclass", token.Super)
		return
	}
	r.resolveIdentNamed(superName, expr.Super, identOpRead)
}

func (r *resolver) resolveCallExpr(expr *ast.CallExpr) {
	r.resolveExpr(expr.Callee)
	for _, arg := range expr.Args {
		r.resolveExpr(arg)
	}
}

func (r *resolver) resolveAssignmentExpr(expr *ast.AssignmentExpr) {
	r.resolveExpr(expr.Right)
	name := expr.Left.String()
	if name == token.PlaceholderIdent {
		return
	}
	r.resolveIdentNamed(name, expr.Left.Token, identOpWrite)
	r.defineIdent(expr.Left)
}

// stack is a simple LIFO stack.
type stack[E any] struct {
	elems []E
}

func newStack[E any]() *stack[E] {
	return &stack[E]{}
}

func (s *stack[E]) Push(e E) {
	s.elems = append(s.elems, e)
}

func (s *stack[E]) Pop() E {
	e := s.elems[len(s.elems)-1]
	s.elems = s.elems[:len(s.elems)-1]
	return e
}

func (s *stack[E]) Peek() E {
	return s.elems[len(s.elems)-1]
}

func (s *stack[E]) Len() int {
	return len(s.elems)
}

// Backward iterates over the stack from the top to the bottom, yielding each element's index in the stack along
// with the element itself.
func (s *stack[E]) Backward() iter.Seq2[int, E] {
	return func(yield func(int, E) bool) {
		for i := len(s.elems) - 1; i >= 0; i-- {
			if !yield(i, s.elems[i]) {
				return
			}
		}
	}
}
