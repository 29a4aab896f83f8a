// Package interpreter implements the tree-walking evaluator for a parsed and resolved Lox program.
package interpreter

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"strconv"
	"strings"

	"github.com/loxlang/golox/ast"
	"github.com/loxlang/golox/loxerr"
	"github.com/loxlang/golox/token"
)

// Interpreter evaluates Lox programs.
type Interpreter struct {
	globals              *environment
	distances            map[token.Token]int
	printExprStmtResults bool
	callStack            *callStack

	stdout      io.Writer
	stdinReader *bufio.Reader
}

// Option can be passed to New to configure the Interpreter.
type Option func(*Interpreter)

// REPLMode sets the interpreter to REPL mode.
// In REPL mode, the interpreter prints the result of every top-level expression statement.
func REPLMode() Option {
	return func(i *Interpreter) {
		i.printExprStmtResults = true
	}
}

// New constructs a new Interpreter with the given options.
func New(opts ...Option) *Interpreter {
	globals := newEnvironment()
	for _, fn := range builtins {
		globals.Define(fn.Name(), fn)
	}
	i := &Interpreter{
		globals:   globals,
		distances: map[token.Token]int{},
		callStack: newCallStack(),
		stdout:    os.Stdout,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Interpreter) stdin() *bufio.Reader {
	if i.stdinReader == nil {
		i.stdinReader = bufio.NewReader(os.Stdin)
	}
	return i.stdinReader
}

func newRuntimeErrorf(rang token.Range, format string, args ...any) error {
	return loxerr.Newf(rang, format, args...)
}

// rangeBetween is a token.Range spanning from the start of from to the end of to.
type rangeBetween struct {
	from, to token.Range
}

func (r rangeBetween) Start() token.Position { return r.from.Start() }
func (r rangeBetween) End() token.Position   { return r.to.End() }

// Interpret interprets a program, using the scope distances produced by the resolver to look up identifiers.
// Interpret can be called multiple times against the same Interpreter, and state (globals, REPL history, etc.) is
// maintained between calls.
func (i *Interpreter) Interpret(program *ast.Program, distances map[token.Token]int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if loxErr, ok := r.(*loxerr.Error); ok {
				if trace := i.callStack.StackTrace(); trace != "" {
					loxErr.Msg += "\n\n" + trace
				}
				err = loxErr
				i.callStack.Clear()
			} else {
				panic(r)
			}
		}
	}()
	maps.Copy(i.distances, distances)
	for _, stmt := range program.Stmts {
		i.execStmt(i.globals, stmt)
	}
	return nil
}

// stmtResult describes how a statement completed: normally, or via break, continue, or return.
//
//sumtype:decl
type stmtResult interface {
	stmtResult()
}

type stmtResultNone struct{}

func (stmtResultNone) stmtResult() {}

type stmtResultBreak struct{}

func (stmtResultBreak) stmtResult() {}

type stmtResultContinue struct{}

func (stmtResultContinue) stmtResult() {}

type stmtResultReturn struct {
	Value loxObject
}

func (stmtResultReturn) stmtResult() {}

func (i *Interpreter) execStmt(env *environment, stmt ast.Stmt) stmtResult {
	switch stmt := stmt.(type) {
	case *ast.VarDecl:
		i.execVarDecl(env, stmt)
	case *ast.FunDecl:
		i.execFunDecl(env, stmt)
	case *ast.ClassDecl:
		i.execClassDecl(env, stmt)
	case *ast.TraitDecl:
		i.execTraitDecl(env, stmt)
	case *ast.ExprStmt:
		i.execExprStmt(env, stmt)
	case *ast.PrintStmt:
		i.execPrintStmt(env, stmt)
	case *ast.Block:
		return i.execBlock(env, stmt)
	case *ast.IfStmt:
		return i.execIfStmt(env, stmt)
	case *ast.WhileStmt:
		return i.execWhileStmt(env, stmt)
	case *ast.ForStmt:
		return i.execForStmt(env, stmt)
	case *ast.BreakStmt:
		return stmtResultBreak{}
	case *ast.ContinueStmt:
		return stmtResultContinue{}
	case *ast.ReturnStmt:
		return i.execReturnStmt(env, stmt)
	case *ast.IllegalStmt:
		// Parsing already failed; nothing to execute.
	default:
		panic(fmt.Sprintf("unexpected statement type: %T", stmt))
	}
	return stmtResultNone{}
}

func (i *Interpreter) execVarDecl(env *environment, stmt *ast.VarDecl) {
	value := loxObject(loxUndefined{})
	if stmt.Initialiser != nil {
		value = i.evalExpr(env, stmt.Initialiser)
	}
	env.Define(stmt.Name.String(), value)
}

func (i *Interpreter) execFunDecl(env *environment, stmt *ast.FunDecl) {
	fn := newLoxFunction(stmt.Name.String(), stmt.GetParams(), stmt.Function.Body, funKindFunction, false, stmt.Name.Token, env)
	env.Define(stmt.Name.String(), fn)
}

// collectMethods merges the instance and class methods declared by use statements with those declared directly in
// decls, in that order. A method name appearing in more than one used trait is a definition-time error. Methods
// declared directly always take precedence over (and silently override) anything pulled in from a trait.
func (i *Interpreter) collectMethods(env *environment, uses []*ast.Ident, decls []*ast.MethodDecl) (instance, class map[string]*ast.MethodDecl) {
	instance = map[string]*ast.MethodDecl{}
	class = map[string]*ast.MethodDecl{}
	for _, use := range uses {
		obj := i.resolveIdent(env, use.Token)
		trait, ok := obj.(*loxTrait)
		if !ok {
			panic(newRuntimeErrorf(use, "%m object is not a trait", obj.Type()))
		}
		for name, decl := range trait.instanceMethods {
			if _, dup := instance[name]; dup {
				panic(newRuntimeErrorf(use, "method %s is defined by multiple used traits", name))
			}
			instance[name] = decl
		}
		for name, decl := range trait.classMethods {
			if _, dup := class[name]; dup {
				panic(newRuntimeErrorf(use, "method %s is defined by multiple used traits", name))
			}
			class[name] = decl
		}
	}
	for _, decl := range decls {
		if decl.IsStatic() {
			class[decl.Name.String()] = decl
		} else {
			instance[decl.Name.String()] = decl
		}
	}
	return instance, class
}

func methodFunKind(decl *ast.MethodDecl) funKind {
	switch {
	case decl.IsInit():
		return funKindInitializer
	case decl.IsStatic():
		return funKindClassMethod
	default:
		return funKindMethod
	}
}

func buildMethods(decls map[string]*ast.MethodDecl, closure *environment) map[string]*loxFunction {
	methods := make(map[string]*loxFunction, len(decls))
	for name, decl := range decls {
		methods[name] = newLoxFunction(name, decl.GetParams(), decl.Function.Body, methodFunKind(decl), decl.IsGetter(), decl.Name.Token, closure)
	}
	return methods
}

func (i *Interpreter) execClassDecl(env *environment, stmt *ast.ClassDecl) {
	var superclass *loxClass
	closure := env
	if stmt.Superclass != nil {
		superObj := i.resolveIdent(env, stmt.Superclass.Token)
		var ok bool
		superclass, ok = superObj.(*loxClass)
		if !ok {
			panic(newRuntimeErrorf(stmt.Superclass, "superclass %m is not a class", stmt.Superclass))
		}
		closure = env.Child()
		closure.Define(superName, superclass)
	}

	instanceDecls, classDecls := i.collectMethods(env, stmt.Uses, stmt.Methods())
	instanceMethods := buildMethods(instanceDecls, closure)
	classMethods := buildMethods(classDecls, closure)

	class := newLoxClass(stmt.Name.String(), superclass, instanceMethods, classMethods)
	env.Define(stmt.Name.String(), class)
}

func (i *Interpreter) execTraitDecl(env *environment, stmt *ast.TraitDecl) {
	instanceDecls, classDecls := i.collectMethods(env, stmt.Uses, stmt.Methods())
	trait := &loxTrait{
		name:            stmt.Name.String(),
		instanceMethods: instanceDecls,
		classMethods:    classDecls,
	}
	env.Define(stmt.Name.String(), trait)
}

func (i *Interpreter) execExprStmt(env *environment, stmt *ast.ExprStmt) {
	value := i.evalExpr(env, stmt.Expr)
	if i.printExprStmtResults {
		fmt.Fprintln(i.stdout, value.String())
	}
}

func (i *Interpreter) execPrintStmt(env *environment, stmt *ast.PrintStmt) {
	value := i.evalExpr(env, stmt.Expr)
	fmt.Fprintln(i.stdout, value.String())
}

func (i *Interpreter) execBlock(env *environment, block *ast.Block) stmtResult {
	return i.execStmts(env.Child(), block.Stmts)
}

func (i *Interpreter) execStmts(env *environment, stmts []ast.Stmt) stmtResult {
	for _, stmt := range stmts {
		result := i.execStmt(env, stmt)
		if _, ok := result.(stmtResultNone); !ok {
			return result
		}
	}
	return stmtResultNone{}
}

func (i *Interpreter) execIfStmt(env *environment, stmt *ast.IfStmt) stmtResult {
	if isTruthy(i.evalExpr(env, stmt.Condition)) {
		return i.execStmt(env, stmt.Then)
	} else if stmt.Else != nil {
		return i.execStmt(env, stmt.Else)
	}
	return stmtResultNone{}
}

func (i *Interpreter) execWhileStmt(env *environment, stmt *ast.WhileStmt) stmtResult {
	for isTruthy(i.evalExpr(env, stmt.Condition)) {
		switch result := i.execStmt(env, stmt.Body).(type) {
		case stmtResultBreak:
			return stmtResultNone{}
		case stmtResultReturn:
			return result
		}
	}
	return stmtResultNone{}
}

func (i *Interpreter) execForStmt(env *environment, stmt *ast.ForStmt) stmtResult {
	childEnv := env.Child()
	if stmt.Initialise != nil {
		i.execStmt(childEnv, stmt.Initialise)
	}
	for stmt.Condition == nil || isTruthy(i.evalExpr(childEnv, stmt.Condition)) {
		switch result := i.execStmt(childEnv, stmt.Body).(type) {
		case stmtResultBreak:
			return stmtResultNone{}
		case stmtResultReturn:
			return result
		}
		if stmt.Update != nil {
			i.evalExpr(childEnv, stmt.Update)
		}
	}
	return stmtResultNone{}
}

func (i *Interpreter) execReturnStmt(env *environment, stmt *ast.ReturnStmt) stmtResultReturn {
	value := loxObject(loxNil{})
	if stmt.Value != nil {
		value = i.evalExpr(env, stmt.Value)
	}
	return stmtResultReturn{Value: value}
}

func (i *Interpreter) evalExpr(env *environment, expr ast.Expr) loxObject {
	switch expr := expr.(type) {
	case *ast.FunExpr:
		return i.evalFunExpr(env, expr)
	case *ast.GroupExpr:
		return i.evalExpr(env, expr.Expr)
	case *ast.LiteralExpr:
		return i.evalLiteralExpr(expr)
	case *ast.IdentExpr:
		return i.resolveIdent(env, expr.Ident.Token)
	case *ast.ThisExpr:
		return i.resolveIdent(env, expr.This)
	case *ast.SuperExpr:
		return i.evalSuperExpr(env, expr)
	case *ast.CallExpr:
		return i.evalCallExpr(env, expr)
	case *ast.PropertyExpr:
		return i.evalPropertyExpr(env, expr)
	case *ast.PropertySetExpr:
		return i.evalPropertySetExpr(env, expr)
	case *ast.UnaryExpr:
		return i.evalUnaryExpr(env, expr)
	case *ast.BinaryExpr:
		return i.evalBinaryExpr(env, expr)
	case *ast.TernaryExpr:
		return i.evalTernaryExpr(env, expr)
	case *ast.AssignmentExpr:
		return i.evalAssignmentExpr(env, expr)
	default:
		panic(fmt.Sprintf("unexpected expression type: %T", expr))
	}
}

func (i *Interpreter) evalFunExpr(env *environment, expr *ast.FunExpr) loxObject {
	return newLoxFunction("(anonymous)", expr.GetParams(), expr.Function.Body, funKindFunction, false, expr.Fun, env)
}

func (i *Interpreter) evalLiteralExpr(expr *ast.LiteralExpr) loxObject {
	switch tok := expr.Value; tok.Type {
	case token.Number:
		value, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			panic(fmt.Sprintf("unexpected error parsing number literal: %s", err))
		}
		return loxNumber(value)
	case token.String:
		return loxString(tok.Lexeme[1 : len(tok.Lexeme)-1]) // Remove surrounding quotes.
	case token.True, token.False:
		return loxBool(tok.Type == token.True)
	case token.Nil:
		return loxNil{}
	default:
		panic(fmt.Sprintf("unexpected literal type: %s", tok.Type))
	}
}

// resolveIdent looks up the value bound to the identifier represented by tok, which may be a real source token (for
// ordinary identifiers) or a synthetic this/super keyword token (which carries no lexeme).
func (i *Interpreter) resolveIdent(env *environment, tok token.Token) loxObject {
	name := tok.Lexeme
	if name == "" {
		switch tok.Type {
		case token.This:
			name = token.CurrentInstanceIdent
		case token.Super:
			name = superName
		}
	}
	if distance, ok := i.distances[tok]; ok {
		return env.GetAt(distance, name, tok)
	}
	return i.globals.Get(name, tok)
}

func (i *Interpreter) evalSuperExpr(env *environment, expr *ast.SuperExpr) loxObject {
	distance, ok := i.distances[expr.Super]
	if !ok {
		panic(fmt.Sprintf("super expression %s was not resolved", expr))
	}
	superObj := env.GetAt(distance, superName, expr)
	superclass, ok := superObj.(*loxClass)
	if !ok {
		panic(fmt.Sprintf("super was bound to a non-class value: %T", superObj))
	}
	this := env.GetAt(distance-1, token.CurrentInstanceIdent, expr)
	method, ok := superclass.findMethod(expr.Method.String())
	if !ok {
		panic(newRuntimeErrorf(expr.Method, "superclass %m has no method %m", superclass.Name(), expr.Method))
	}
	bound := method.Bind(this)
	if bound.isGetter {
		return bound.Call(i, expr, nil)
	}
	return bound
}

func (i *Interpreter) evalCallExpr(env *environment, expr *ast.CallExpr) loxObject {
	callee := i.evalExpr(env, expr.Callee)
	args := make([]loxObject, len(expr.Args))
	for j, arg := range expr.Args {
		args[j] = i.evalExpr(env, arg)
	}

	callable, ok := callee.(loxCallable)
	if !ok {
		panic(newRuntimeErrorf(expr.Callee, "%m object is not callable", callee.Type()))
	}

	params := callable.Params()
	arity := len(params)
	switch {
	case len(args) < arity:
		argSuffix := ""
		if arity-len(args) > 1 {
			argSuffix = "s"
		}
		missing := params[len(args):]
		var missingStr string
		switch len(missing) {
		case 1:
			missingStr = missing[0]
		case 2:
			missingStr = missing[0] + " and " + missing[1]
		default:
			missingStr = strings.Join(missing[:len(missing)-1], ", ") + ", and " + missing[len(missing)-1]
		}
		panic(newRuntimeErrorf(expr, "%s() missing %d argument%s: %s", callable.Name(), arity-len(args), argSuffix, missingStr))
	case len(args) > arity:
		panic(newRuntimeErrorf(
			rangeBetween{expr.Args[arity], expr.Args[len(args)-1]},
			"%s() accepts %d arguments but %d were given", callable.Name(), arity, len(args),
		))
	}

	return callable.Call(i, expr, args)
}

func (i *Interpreter) evalPropertyExpr(env *environment, expr *ast.PropertyExpr) loxObject {
	object := i.evalExpr(env, expr.Object)
	getter, ok := object.(loxGetProperty)
	if !ok {
		panic(newRuntimeErrorf(expr, "property access is not valid for %m object", object.Type()))
	}
	return getter.GetProperty(i, expr.Name)
}

func (i *Interpreter) evalPropertySetExpr(env *environment, expr *ast.PropertySetExpr) loxObject {
	object := i.evalExpr(env, expr.Object)
	setter, ok := object.(loxSetProperty)
	if !ok {
		panic(newRuntimeErrorf(expr, "property assignment is not valid for %m object", object.Type()))
	}
	value := i.evalExpr(env, expr.Value)
	setter.SetProperty(i, expr.Name, value)
	return value
}

func (i *Interpreter) evalUnaryExpr(env *environment, expr *ast.UnaryExpr) loxObject {
	right := i.evalExpr(env, expr.Right)
	if expr.Op.Type == token.Bang {
		// The behaviour of ! is independent of the type of the operand, so we can implement it here.
		return loxBool(!isTruthy(right))
	}
	if unaryOperand, ok := right.(loxUnaryOperand); ok {
		if result := unaryOperand.UnaryOp(expr.Op); result != nil {
			return result
		}
	}
	panic(newRuntimeErrorf(expr.Op, "%m operator cannot be used with type %m", expr.Op.Type, right.Type()))
}

func (i *Interpreter) evalBinaryExpr(env *environment, expr *ast.BinaryExpr) loxObject {
	left := i.evalExpr(env, expr.Left)

	// The short-circuiting operators' behaviour is independent of the types of the operands, so we implement them
	// here, before the right operand is even evaluated.
	switch expr.Op.Type {
	case token.Or:
		if isTruthy(left) {
			return left
		}
		return i.evalExpr(env, expr.Right)
	case token.And:
		if !isTruthy(left) {
			return left
		}
		return i.evalExpr(env, expr.Right)
	}

	right := i.evalExpr(env, expr.Right)
	switch expr.Op.Type {
	case token.Comma:
		// The , operator evaluates both operands and returns the value of the right one, independent of their types.
		return right
	case token.EqualEqual:
		return loxBool(loxEquals(left, right))
	case token.BangEqual:
		return loxBool(!loxEquals(left, right))
	case token.Plus:
		// + concatenates if either operand is a string, independent of the other operand's type.
		if ls, ok := left.(loxString); ok {
			return ls + loxString(right.String())
		}
		if rs, ok := right.(loxString); ok {
			return loxString(left.String()) + rs
		}
	}

	if binaryOperand, ok := left.(loxBinaryOperand); ok {
		if result := binaryOperand.BinaryOp(expr.Op, right); result != nil {
			return result
		}
	}
	panic(newRuntimeErrorf(expr.Op, "%m operator cannot be used with types %m and %m", expr.Op.Type, left.Type(), right.Type()))
}

func (i *Interpreter) evalTernaryExpr(env *environment, expr *ast.TernaryExpr) loxObject {
	if isTruthy(i.evalExpr(env, expr.Condition)) {
		return i.evalExpr(env, expr.Then)
	}
	return i.evalExpr(env, expr.Else)
}

func (i *Interpreter) evalAssignmentExpr(env *environment, expr *ast.AssignmentExpr) loxObject {
	value := i.evalExpr(env, expr.Right)
	name := expr.Left.String()
	if distance, ok := i.distances[expr.Left.Token]; ok {
		env.AssignAt(distance, name, expr, value)
	} else {
		i.globals.Assign(name, expr, value)
	}
	return value
}
