package interpreter

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/loxlang/golox/token"
)

// nativeFn is the Go implementation of a built-in Lox function.
type nativeFn func(i *Interpreter, call token.Range, args []loxObject) loxObject

// loxNativeFunction is a function implemented in Go and exposed to Lox programs, such as clock.
type loxNativeFunction struct {
	name   string
	params []string
	fn     nativeFn
}

func (f *loxNativeFunction) String() string { return fmt.Sprintf("<native fn %s>", f.name) }
func (f *loxNativeFunction) Type() loxType  { return "function" }
func (f *loxNativeFunction) Equals(o loxObject) bool {
	of, ok := o.(*loxNativeFunction)
	return ok && f == of
}
func (f *loxNativeFunction) Name() string     { return f.name }
func (f *loxNativeFunction) Params() []string { return f.params }
func (f *loxNativeFunction) Call(i *Interpreter, call token.Range, args []loxObject) loxObject {
	return f.fn(i, call, args)
}

// builtins are the native functions installed into the globals environment of every [Interpreter].
var builtins = []*loxNativeFunction{
	{
		name: "clock",
		fn: func(*Interpreter, token.Range, []loxObject) loxObject {
			return loxNumber(float64(time.Now().UnixNano()) / float64(time.Second))
		},
	},
	{
		name:   "input",
		params: []string{"prompt"},
		fn: func(i *Interpreter, call token.Range, args []loxObject) loxObject {
			prompt, ok := args[0].(loxString)
			if !ok {
				panic(newRuntimeErrorf(call, "input() requires a string prompt, got %m", args[0].Type()))
			}
			fmt.Fprint(i.stdout, string(prompt))
			line, err := i.stdin().ReadString('\n')
			if err != nil && line == "" {
				return loxNil{}
			}
			return loxString(strings.TrimRight(line, "\r\n"))
		},
	},
	{
		name:   "randint",
		params: []string{"min", "max"},
		fn: func(i *Interpreter, call token.Range, args []loxObject) loxObject {
			minN, ok := args[0].(loxNumber)
			if !ok {
				panic(newRuntimeErrorf(call, "randint() requires numeric arguments, got %m", args[0].Type()))
			}
			maxN, ok := args[1].(loxNumber)
			if !ok {
				panic(newRuntimeErrorf(call, "randint() requires numeric arguments, got %m", args[1].Type()))
			}
			min, max := int(minN), int(maxN)
			if float64(min) != float64(minN) || float64(max) != float64(maxN) {
				panic(newRuntimeErrorf(call, "randint() requires integer arguments"))
			}
			if min > max {
				panic(newRuntimeErrorf(call, "randint() requires min <= max, got min=%s, max=%s", minN, maxN))
			}
			return loxNumber(min + rand.Intn(max-min+1))
		},
	},
}
