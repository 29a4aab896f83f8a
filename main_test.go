package main_test

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/loxlang/golox/test/loxtest"
)

var (
	printsRe = regexp.MustCompile(`// prints: (.+)`)
	errorRe  = regexp.MustCompile(`// error: (.+)`)

	stderrErrorRe = regexp.MustCompile(`(?m)^\S+:\d+:\d+: error: (.+)$`)
)

func TestLox(t *testing.T) {
	loxPath := loxtest.MustBuildBinary(t)
	runner := &runner{loxPath: loxPath}
	loxtest.Run(t, runner)
}

type runner struct {
	loxPath string
}

func (r *runner) Test(t *testing.T, path string) {
	want := r.mustParseExpectedResult(t, path)
	got := r.mustRunInterpreter(t, path)

	if (want.ExitCode == 0) != (got.ExitCode == 0) {
		t.Errorf("exit code = %d, want %d", got.ExitCode, want.ExitCode)
		t.Logf("stdout:\n%s", got.Stdout)
		t.Logf("stderr:\n%s", got.Stderr)
		return
	}

	if !bytes.Equal(want.Stdout, got.Stdout) {
		t.Errorf("incorrect output printed to stdout:\n%s", loxtest.ComputeTextDiff(string(want.Stdout), string(got.Stdout)))
	}

	if !cmp.Equal(want.Errors, got.Errors) {
		t.Errorf("incorrect errors printed to stderr:\n%s", loxtest.ComputeDiff(want.Errors, got.Errors))
		t.Errorf("stderr:\n%s", got.Stderr)
	}
}

type interpreterResult struct {
	Stdout   []byte
	Stderr   []byte
	Errors   [][]byte
	ExitCode int
}

func (r *runner) mustRunInterpreter(t *testing.T, path string) *interpreterResult {
	cmd := exec.Command(r.loxPath, path)
	t.Logf("lox %s", path)

	stdout, err := cmd.Output()

	exitErr := &exec.ExitError{}
	if err != nil && !errors.As(err, &exitErr) {
		t.Fatal(err)
	}

	var errs [][]byte
	for _, match := range stderrErrorRe.FindAllSubmatch(exitErr.Stderr, -1) {
		errs = append(errs, match[1])
	}

	return &interpreterResult{
		Stdout:   stdout,
		Stderr:   exitErr.Stderr,
		Errors:   errs,
		ExitCode: cmd.ProcessState.ExitCode(),
	}
}

func (r *runner) mustParseExpectedResult(t *testing.T, path string) *interpreterResult {
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	result := &interpreterResult{
		Stdout: r.parseExpectedStdout(data),
		Errors: loxtest.ParseComments(data, errorRe),
	}
	if len(result.Errors) > 0 {
		result.ExitCode = 1
	}

	return result
}

func (r *runner) parseExpectedStdout(data []byte) []byte {
	var b bytes.Buffer
	for _, line := range loxtest.ParseComments(data, printsRe) {
		b.Write(line)
		b.WriteRune('\n')
	}
	return b.Bytes()
}

func (r *runner) Update(t *testing.T, path string) {
	t.Logf("updating expected output for %s", path)

	result := r.mustRunInterpreter(t, path)

	t.Logf("exit code: %d", result.ExitCode)
	if len(result.Stdout) > 0 {
		t.Logf("stdout:\n%s", result.Stdout)
	} else {
		t.Logf("stdout: <empty>")
	}
	if len(result.Stderr) > 0 {
		t.Logf("stderr:\n%s", result.Stderr)
	} else {
		t.Logf("stderr: <empty>")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var stdoutLines [][]byte
	if len(result.Stdout) > 0 {
		stdoutLines = bytes.Split(bytes.TrimSuffix(result.Stdout, []byte("\n")), []byte("\n"))
	}
	data = loxtest.MustUpdateComments(t, path, data, printsRe, stdoutLines)
	data = loxtest.MustUpdateComments(t, path, data, errorRe, result.Errors)

	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}
