package interpreter

import (
	"fmt"

	"github.com/loxlang/golox/loxerr"
	"github.com/loxlang/golox/token"
)

// environment is a mapping of names to values, with an optional link to a parent environment. Looking up a name
// which isn't present in the environment itself falls through to the parent, and so on until the globals
// environment (which has no parent) is reached.
type environment struct {
	parent        *environment
	valuesByIdent map[string]loxObject
}

func newEnvironment() *environment {
	return &environment{
		valuesByIdent: make(map[string]loxObject),
	}
}

// Child creates a new child environment of this environment.
func (e *environment) Child() *environment {
	return &environment{parent: e, valuesByIdent: make(map[string]loxObject)}
}

// Define binds name to value in this environment, overwriting any existing binding.
// value may be [loxUndefined] to represent a var declared without an initialiser.
// If name is [token.PlaceholderIdent], this method is a no-op.
func (e *environment) Define(name string, value loxObject) {
	if name == token.PlaceholderIdent {
		return
	}
	e.valuesByIdent[name] = value
}

// Assign assigns value to name in this environment.
// rang is used only to attribute a runtime error if name has not been defined.
func (e *environment) Assign(name string, rang token.Range, value loxObject) {
	if name == token.PlaceholderIdent {
		return
	}
	if _, ok := e.valuesByIdent[name]; !ok {
		panic(loxerr.Newf(rang, "%s has not been declared", name))
	}
	e.valuesByIdent[name] = value
}

// AssignAt assigns value to name in the environment distance levels up the parent chain.
func (e *environment) AssignAt(distance int, name string, rang token.Range, value loxObject) {
	e.ancestor(distance).Assign(name, rang, value)
}

// Get returns the value bound to name in this environment.
// rang is used only to attribute a runtime error if name is absent or still undefined.
func (e *environment) Get(name string, rang token.Range) loxObject {
	value, ok := e.valuesByIdent[name]
	if !ok {
		panic(loxerr.Newf(rang, "%s has not been declared", name))
	}
	if _, ok := value.(loxUndefined); ok {
		panic(loxerr.Newf(rang, "%s has not been initialised", name))
	}
	return value
}

// GetAt returns the value bound to name in the environment distance levels up the parent chain.
func (e *environment) GetAt(distance int, name string, rang token.Range) loxObject {
	return e.ancestor(distance).Get(name, rang)
}

func (e *environment) ancestor(n int) *environment {
	ancestor := e
	for range n {
		ancestor = ancestor.parent
		if ancestor == nil {
			panic(fmt.Sprintf("ancestor %d is out of range", n))
		}
	}
	return ancestor
}
