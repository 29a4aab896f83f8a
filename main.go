// Entry point for the lox interpreter.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"

	"github.com/chzyer/readline"

	"github.com/loxlang/golox/ast"
	"github.com/loxlang/golox/interpreter"
	"github.com/loxlang/golox/loxerr"
	"github.com/loxlang/golox/parser"
	"github.com/loxlang/golox/resolver"
)

// Exit codes, as documented for the CLI.
const (
	exitOK      = 0
	exitStatic  = 65
	exitRuntime = 70
)

var (
	cmd      = flag.String("c", "", "Program passed in as string")
	printAST = flag.Bool("p", false, "Print the AST only")

	cpuProfile = flag.String("cpuprofile", "", "Write a CPU profile to the specified file before exiting.")
	memProfile = flag.String("memprofile", "", "Write an allocation profile to the file before exiting.")
	traceFile  = flag.String("trace", "", " Write an execution trace to the specified file before exiting.")
)

// nolint:revive
func Usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: lox [options] [script]\n")
	fmt.Fprintf(flag.CommandLine.Output(), "\n")
	fmt.Fprintf(flag.CommandLine.Output(), "Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = Usage
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fatalf("failed to create CPU profile: %s", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fatalf("failed to close CPU profile: %s", err)
			}
		}()
		if err := pprof.StartCPUProfile(f); err != nil {
			fatalf("failed to start CPU profile: %s", err)
		}
		defer pprof.StopCPUProfile()
	}
	if *memProfile != "" {
		defer func() {
			f, err := os.Create(*memProfile)
			if err != nil {
				fatalf("failed to create memory profile: %s", err)
			}
			defer func() {
				if err := f.Close(); err != nil {
					fatalf("failed to close memory profile: %s", err)
				}
			}()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fatalf("failed to start memory profile: %s", err)
			}
		}()
	}
	if *traceFile != "" {
		f, err := os.Create(*traceFile)
		if err != nil {
			fatalf("failed to create trace output file: %s", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fatalf("failed to close trace file: %s", err)
			}
		}()
		if err := trace.Start(f); err != nil {
			fatalf("failed to start trace: %s", err)
		}
		defer trace.Stop()
	}

	if *cmd != "" {
		if err := run(strings.NewReader(*cmd), interpreter.New()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitCode(err))
		}
		return
	}

	switch len(flag.Args()) {
	case 0:
		if err := runREPL(); err != nil {
			fatalf("%s", err)
		}
	case 1:
		code := runFile(flag.Arg(0))
		os.Exit(code)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// exitCode maps an error returned by run to the process exit code documented for the CLI: scan, parse, and resolve
// errors (loxerr.Errors) exit 65, runtime errors (*loxerr.Error) exit 70.
func exitCode(err error) int {
	switch err.(type) {
	case nil:
		return exitOK
	case loxerr.Errors:
		return exitStatic
	default:
		return exitRuntime
	}
}

func run(r io.Reader, interp *interpreter.Interpreter) error {
	root, err := parser.Parse(r)
	if *printAST {
		ast.Print(root)
		return err
	}
	if err != nil {
		return err
	}
	distances, err := resolver.Resolve(root)
	if err != nil {
		return err
	}
	return interp.Interpret(root, distances)
}

func runREPL() error {
	cfg := &readline.Config{
		Prompt: ">>> ",
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		cfg.HistoryFile = path.Join(homeDir, ".lox_history")
	} else {
		fmt.Fprintf(os.Stderr, "Can't get current user's home directory (%s). Command history will not be saved.\n", err)
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return fmt.Errorf("running Lox REPL: %s", err)
	}
	defer rl.Close()

	fmt.Fprintln(os.Stderr, "Welcome to Lox!")

	interp := interpreter.New(interpreter.REPLMode())
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			panic(fmt.Sprintf("unexpected error from readline: %s", err))
		}
		if err := run(strings.NewReader(line), interp); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	return nil
}

func runFile(name string) int {
	f, err := os.Open(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitRuntime
	}
	defer f.Close()
	if err := run(f, interpreter.New()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}
	return exitOK
}
