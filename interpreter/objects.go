package interpreter

import (
	"fmt"
	"math"
	"strconv"

	"github.com/loxlang/golox/ast"
	"github.com/loxlang/golox/token"
)

// loxType is the name of a Lox value's runtime type, used in error messages.
type loxType string

// Format implements fmt.Formatter. All verbs have the default behaviour, except for 'm' (message) which formats the
// type for use in an error message.
func (t loxType) Format(f fmt.State, verb rune) {
	switch verb {
	case 'm':
		fmt.Fprintf(f, "'%s'", string(t))
	default:
		fmt.Fprint(f, string(t))
	}
}

// loxObject is a Lox runtime value.
type loxObject interface {
	String() string
	Type() loxType
}

// loxEquatable is implemented by objects which can be compared for equality with ==.
type loxEquatable interface {
	Equals(other loxObject) bool
}

func loxEquals(left, right loxObject) bool {
	eq, ok := left.(loxEquatable)
	if !ok {
		return false
	}
	return eq.Equals(right)
}

// loxTruther is implemented by objects which have a truthiness.
type loxTruther interface {
	IsTruthy() bool
}

func isTruthy(obj loxObject) bool {
	truther, ok := obj.(loxTruther)
	if !ok {
		return true
	}
	return truther.IsTruthy()
}

// loxUnaryOperand is implemented by objects which support a unary operator.
// UnaryOp returns nil if op is not supported by the object.
type loxUnaryOperand interface {
	UnaryOp(op token.Token) loxObject
}

// loxBinaryOperand is implemented by objects which support a binary operator with a particular right-hand operand
// type.
// BinaryOp returns nil if op is not supported for the given combination of operand types.
type loxBinaryOperand interface {
	BinaryOp(op token.Token, right loxObject) loxObject
}

// loxGetProperty is implemented by objects which support property access, such as a.b.
type loxGetProperty interface {
	GetProperty(i *Interpreter, name *ast.Ident) loxObject
}

// loxSetProperty is implemented by objects which support property assignment, such as a.b = 1.
type loxSetProperty interface {
	SetProperty(i *Interpreter, name *ast.Ident, value loxObject)
}

// loxCallable is implemented by objects which can be called, such as functions and classes.
type loxCallable interface {
	loxObject
	Name() string
	// Params returns the names of the callable's parameters, used to check arity and to build error messages.
	Params() []string
	Call(i *Interpreter, call token.Range, args []loxObject) loxObject
}

// loxUndefined is the sentinel value bound to a variable which has been declared but not yet initialised.
type loxUndefined struct{}

func (loxUndefined) String() string { return "undefined" }
func (loxUndefined) Type() loxType  { return "undefined" }

// loxNil is the value of the nil literal.
type loxNil struct{}

func (loxNil) String() string { return "nil" }
func (loxNil) Type() loxType  { return "nil" }
func (loxNil) IsTruthy() bool { return false }
func (loxNil) Equals(o loxObject) bool {
	_, ok := o.(loxNil)
	return ok
}

// loxBool is the value of a boolean literal.
type loxBool bool

func (b loxBool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b loxBool) Type() loxType  { return "bool" }
func (b loxBool) IsTruthy() bool { return bool(b) }
func (b loxBool) Equals(o loxObject) bool {
	ob, ok := o.(loxBool)
	return ok && b == ob
}
func (b loxBool) BinaryOp(op token.Token, right loxObject) loxObject {
	r, ok := right.(loxBool)
	if !ok {
		return nil
	}
	bi, ri := 0, 0
	if b {
		bi = 1
	}
	if r {
		ri = 1
	}
	switch op.Type {
	case token.Less:
		return loxBool(bi < ri)
	case token.LessEqual:
		return loxBool(bi <= ri)
	case token.Greater:
		return loxBool(bi > ri)
	case token.GreaterEqual:
		return loxBool(bi >= ri)
	default:
		return nil
	}
}

// loxNumber is the value of a number literal.
type loxNumber float64

func (n loxNumber) String() string { return formatNumber(float64(n)) }
func (n loxNumber) Type() loxType  { return "number" }
func (n loxNumber) Equals(o loxObject) bool {
	on, ok := o.(loxNumber)
	return ok && n == on
}
func (n loxNumber) UnaryOp(op token.Token) loxObject {
	if op.Type == token.Minus {
		return -n
	}
	return nil
}
func (n loxNumber) BinaryOp(op token.Token, right loxObject) loxObject {
	r, ok := right.(loxNumber)
	if !ok {
		return nil
	}
	switch op.Type {
	case token.Plus:
		return n + r
	case token.Minus:
		return n - r
	case token.Asterisk:
		return n * r
	case token.Slash:
		if r == 0 {
			panic(newRuntimeErrorf(op, "cannot divide %s by 0", n))
		}
		return n / r
	case token.Less:
		return loxBool(n < r)
	case token.LessEqual:
		return loxBool(n <= r)
	case token.Greater:
		return loxBool(n > r)
	case token.GreaterEqual:
		return loxBool(n >= r)
	default:
		return nil
	}
}

// formatNumber formats a number the way that Lox source code displays it: integral values are printed without a
// decimal point, everything else is printed with the minimal number of digits needed to round-trip.
func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	if !math.IsInf(f, 0) && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// loxString is the value of a string literal.
type loxString string

func (s loxString) String() string { return string(s) }
func (s loxString) Type() loxType  { return "string" }
func (s loxString) Equals(o loxObject) bool {
	os, ok := o.(loxString)
	return ok && s == os
}
func (s loxString) BinaryOp(op token.Token, right loxObject) loxObject {
	r, ok := right.(loxString)
	if !ok {
		return nil
	}
	switch op.Type {
	case token.Plus:
		return s + r
	case token.Less:
		return loxBool(s < r)
	case token.LessEqual:
		return loxBool(s <= r)
	case token.Greater:
		return loxBool(s > r)
	case token.GreaterEqual:
		return loxBool(s >= r)
	default:
		return nil
	}
}

// funKind describes the context that a function body is being evaluated in, which affects how its return statements
// and "this" binding behave.
type funKind int

const (
	funKindFunction funKind = iota
	funKindMethod
	funKindClassMethod
	funKindInitializer
)

const superName = "super"

// loxFunction is a user-defined function, method, or class method.
type loxFunction struct {
	name     string
	params   []string
	body     []ast.Stmt
	kind     funKind
	isGetter bool
	closure  *environment
	declTok  token.Token
}

func newLoxFunction(name string, params []*ast.ParamDecl, body *ast.Block, kind funKind, isGetter bool, declTok token.Token, closure *environment) *loxFunction {
	paramNames := make([]string, len(params))
	for i, p := range params {
		paramNames[i] = p.Name.String()
	}
	var stmts []ast.Stmt
	if body != nil {
		stmts = body.Stmts
	}
	return &loxFunction{
		name:     name,
		params:   paramNames,
		body:     stmts,
		kind:     kind,
		isGetter: isGetter,
		declTok:  declTok,
		closure:  closure,
	}
}

func (f *loxFunction) String() string { return fmt.Sprintf("<fn %s>", f.name) }
func (f *loxFunction) Type() loxType  { return "function" }
func (f *loxFunction) Equals(o loxObject) bool {
	of, ok := o.(*loxFunction)
	return ok && f == of
}
func (f *loxFunction) Name() string     { return f.name }
func (f *loxFunction) Params() []string { return f.params }

// Bind returns a copy of f whose closure has "this" bound to this, for use when the function is accessed as a
// method on an instance or a class (for class methods).
func (f *loxFunction) Bind(this loxObject) *loxFunction {
	bound := *f
	env := f.closure.Child()
	env.Define(token.CurrentInstanceIdent, this)
	bound.closure = env
	return &bound
}

func (f *loxFunction) Call(i *Interpreter, call token.Range, args []loxObject) loxObject {
	env := f.closure.Child()
	for idx, p := range f.params {
		env.Define(p, args[idx])
	}
	i.callStack.Push(f, call)
	defer i.callStack.Pop()
	result := i.execStmts(env, f.body)
	if f.kind == funKindInitializer {
		return f.closure.Get(token.CurrentInstanceIdent, f.declTok)
	}
	if ret, ok := result.(stmtResultReturn); ok {
		return ret.Value
	}
	return loxNil{}
}

// loxTrait is a trait declaration. Traits are not callable and cannot be instantiated; their methods are copied by
// value into any class or trait that uses them.
type loxTrait struct {
	name            string
	instanceMethods map[string]*ast.MethodDecl
	classMethods    map[string]*ast.MethodDecl
}

func (t *loxTrait) String() string { return fmt.Sprintf("<trait %s>", t.name) }
func (t *loxTrait) Type() loxType  { return "trait" }
func (t *loxTrait) Equals(o loxObject) bool {
	ot, ok := o.(*loxTrait)
	return ok && t == ot
}

// loxClass is a class declaration.
type loxClass struct {
	name            string
	superclass      *loxClass
	instanceMethods map[string]*loxFunction
	classMethods    map[string]*loxFunction
}

func newLoxClass(name string, superclass *loxClass, instanceMethods, classMethods map[string]*loxFunction) *loxClass {
	return &loxClass{
		name:            name,
		superclass:      superclass,
		instanceMethods: instanceMethods,
		classMethods:    classMethods,
	}
}

func (c *loxClass) String() string { return fmt.Sprintf("<class %s>", c.name) }
func (c *loxClass) Type() loxType  { return "class" }
func (c *loxClass) Equals(o loxObject) bool {
	oc, ok := o.(*loxClass)
	return ok && c == oc
}
func (c *loxClass) Name() string { return c.name }

// Params returns the parameters of the init method, or none if the class doesn't declare one.
func (c *loxClass) Params() []string {
	if init, ok := c.findMethod(token.ConstructorIdent); ok {
		return init.Params()
	}
	return nil
}

func (c *loxClass) findMethod(name string) (*loxFunction, bool) {
	if m, ok := c.instanceMethods[name]; ok {
		return m, true
	}
	if c.superclass != nil {
		return c.superclass.findMethod(name)
	}
	return nil, false
}

func (c *loxClass) findClassMethod(name string) (*loxFunction, bool) {
	if m, ok := c.classMethods[name]; ok {
		return m, true
	}
	if c.superclass != nil {
		return c.superclass.findClassMethod(name)
	}
	return nil, false
}

func (c *loxClass) Call(i *Interpreter, call token.Range, args []loxObject) loxObject {
	inst := &loxInstance{class: c, fields: map[string]loxObject{}}
	if init, ok := c.findMethod(token.ConstructorIdent); ok {
		init.Bind(inst).Call(i, call, args)
	}
	return inst
}

func (c *loxClass) GetProperty(i *Interpreter, name *ast.Ident) loxObject {
	method, ok := c.findClassMethod(name.String())
	if !ok {
		panic(newRuntimeErrorf(name, "%m object has no property %m", c.Type(), name))
	}
	bound := method.Bind(c)
	if bound.isGetter {
		return bound.Call(i, name, nil)
	}
	return bound
}

// loxInstance is an instance of a class.
type loxInstance struct {
	class  *loxClass
	fields map[string]loxObject
}

func (inst *loxInstance) String() string { return fmt.Sprintf("<%s instance>", inst.class.name) }
func (inst *loxInstance) Type() loxType  { return loxType(inst.class.name) }
func (inst *loxInstance) Equals(o loxObject) bool {
	oi, ok := o.(*loxInstance)
	return ok && inst == oi
}

func (inst *loxInstance) GetProperty(i *Interpreter, name *ast.Ident) loxObject {
	if v, ok := inst.fields[name.String()]; ok {
		return v
	}
	method, ok := inst.class.findMethod(name.String())
	if !ok {
		panic(newRuntimeErrorf(name, "%m object has no property %m", inst.Type(), name))
	}
	bound := method.Bind(inst)
	if bound.isGetter {
		return bound.Call(i, name, nil)
	}
	return bound
}

func (inst *loxInstance) SetProperty(i *Interpreter, name *ast.Ident, value loxObject) {
	inst.fields[name.String()] = value
}
