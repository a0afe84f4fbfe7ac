// Package toolrunner builds and executes external tool invocations: the
// per-symbol insertion binaries, and the assembler invoked by module
// cleanup. It generalizes the teacher's single-compiler CommandBuilder into
// a reusable shell-command runner with a pluggable exit-code interpreter,
// since every one of this engine's external collaborators (graphics
// inserter, overworld inserter, assembler, ...) follows the same shape:
// resolve a binary, build an argument list, run it, interpret its exit code.
package toolrunner

import (
	"fmt"
	"os"
	"os/exec"
)

// Commander is the seam tests substitute to avoid spawning real processes.
type Commander interface {
	Run() error
}

// ShellCommand is a fully-resolved external invocation.
type ShellCommand struct {
	Path string
	Args []string
}

func (c ShellCommand) String() string {
	return fmt.Sprintf("%s %v", c.Path, c.Args)
}

// ExitCodeInterpreter classifies a nonzero exit code as a real failure (and
// supplies a human-readable reason) or an acceptable non-zero success
// code, the way Crestron's compiler uses exit code 116 for "succeeded with
// warnings".
type ExitCodeInterpreter func(code int) (ok bool, message string)

// AlwaysFail is the default interpreter for tools with no documented
// warning-but-success exit codes: any nonzero exit is a failure.
func AlwaysFail(code int) (bool, string) {
	return false, fmt.Sprintf("exit code %d", code)
}

// Runner executes ShellCommands through a replaceable Commander
// constructor, so callers can substitute a fake process in tests.
type Runner struct {
	execCommand func(name string, args ...string) Commander
}

// NewRunner creates a Runner that spawns real OS processes.
func NewRunner() *Runner {
	return &Runner{
		execCommand: func(name string, args ...string) Commander {
			return exec.Command(name, args...)
		},
	}
}

// NewRunnerWithCommander creates a Runner backed by a custom Commander
// constructor, for tests.
func NewRunnerWithCommander(execCommand func(name string, args ...string) Commander) *Runner {
	return &Runner{execCommand: execCommand}
}

// Run executes cmd, wiring stdout/stderr through when the underlying
// Commander is a real *exec.Cmd, and classifies a nonzero exit via
// interpret. interpret may be nil, in which case AlwaysFail is used.
func (r *Runner) Run(cmd ShellCommand, interpret ExitCodeInterpreter) error {
	if interpret == nil {
		interpret = AlwaysFail
	}

	c := r.execCommand(cmd.Path, cmd.Args...)
	if ec, ok := c.(*exec.Cmd); ok {
		ec.Stdout = os.Stdout
		ec.Stderr = os.Stderr
	}

	err := c.Run()
	if err == nil {
		return nil
	}

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return fmt.Errorf("running %s: %w", cmd, err)
	}

	code := exitErr.ExitCode()
	if ok, message := interpret(code); ok {
		return nil
	} else {
		return fmt.Errorf("running %s failed (exit code %d): %s", cmd, code, message)
	}
}
