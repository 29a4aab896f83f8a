package interpreter

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/loxlang/golox/stack"
	"github.com/loxlang/golox/token"
)

// callStack tracks the chain of function and method calls currently being evaluated, so that a stack trace can be
// attached to a runtime error.
type callStack struct {
	frames      *stack.Stack[*stackFrame]
	calledFuncs *stack.Stack[string]
}

// stackFrame points either to a function call or to where an error occurred.
type stackFrame struct {
	Function string // Name of the function being called from, or empty if not in a function.
	Location token.Position
}

func newCallStack() *callStack {
	cs := &callStack{
		frames:      stack.New[*stackFrame](),
		calledFuncs: stack.New[string](),
	}
	cs.calledFuncs.Push("")
	return cs
}

func (cs *callStack) Push(fn *loxFunction, call token.Range) {
	cs.frames.Push(&stackFrame{
		Function: cs.calledFuncs.Peek(),
		Location: call.Start(),
	})
	cs.calledFuncs.Push(fn.name)
}

func (cs *callStack) Pop() {
	cs.frames.Pop()
	cs.calledFuncs.Pop()
}

func (cs *callStack) Len() int {
	return cs.frames.Len()
}

func (cs *callStack) Clear() {
	cs.frames.Clear()
	cs.calledFuncs.Clear()
	cs.calledFuncs.Push("")
}

var (
	bold  = color.New(color.Bold)
	faint = color.New(color.Faint)
)

// StackTrace renders the current call stack, most recent call first.
func (cs *callStack) StackTrace() string {
	if cs.Len() == 0 {
		return ""
	}
	var b strings.Builder
	bold.Fprintln(&b, "Stack Trace (most recent call first):")
	locations := make([]string, cs.Len())
	locationWidth := 0
	functions := make([]string, cs.Len())
	functionWidth := 0
	lines := make([]string, cs.Len())
	for i, frame := range cs.frames.Backward() {
		locations[i] = fmt.Sprintf("%m", frame.Location)
		locationWidth = max(locationWidth, runewidth.StringWidth(locations[i]))
		function := ""
		if frame.Function != "" {
			function = fmt.Sprintf("in %s", frame.Function)
		}
		functions[i] = function
		functionWidth = max(functionWidth, runewidth.StringWidth(functions[i]))
		lines[i] = faint.Sprintf("%s", bytes.TrimLeftFunc(frame.Location.File.Line(frame.Location.Line), unicode.IsSpace))
	}
	for i := cs.Len() - 1; i >= 0; i-- {
		location := runewidth.FillRight(locations[i], locationWidth)
		function := runewidth.FillRight(functions[i], functionWidth)
		fmt.Fprint(&b, "  ", location, " ", function, " ", lines[i])
		if i > 0 {
			fmt.Fprintln(&b)
		}
	}
	return b.String()
}
