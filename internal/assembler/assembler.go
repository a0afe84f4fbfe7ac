// Package assembler wraps the external 65816 assembler binary used to
// undo a module's prior address writes (see cleanup.Apply). The spec
// treats the assembler as a black-box "apply patch to buffer" tool; here
// that box is an external process invoked the same way the teacher
// invokes its SIMPL+ compiler — resolve a path, build args, run, interpret
// the exit code — rather than a linked native library.
//
// The assembler binary is process-wide state: Init must succeed before
// the first Apply call, and is guarded so repeated Init calls within a
// single run are cheap no-ops once the first succeeds.
package assembler

import (
	"fmt"
	"os"
	"sync"

	"github.com/Norgate-AV/insert-engine/internal/buildsignal"
	"github.com/Norgate-AV/insert-engine/internal/toolrunner"
)

var (
	once     sync.Once
	initErr  error
	toolPath string
)

// Init validates that the assembler binary at path exists and records it
// as the process-wide assembler tool. Only the first call in a process
// has any effect; later calls observe the first call's result.
func Init(path string) error {
	once.Do(func() {
		if _, err := os.Stat(path); err != nil {
			initErr = buildsignal.ToolNotFound(path)
			return
		}
		toolPath = path
	})
	return initErr
}

// Reset clears the process-wide assembler state. Exposed for tests only;
// production code calls Init exactly once per process.
func Reset() {
	once = sync.Once{}
	initErr = nil
	toolPath = ""
}

// Apply runs the assembler against romPath using the assembly source at
// patchSourcePath, returning a descriptive error if assembly fails.
// Init must have succeeded first.
func Apply(runner *toolrunner.Runner, patchSourcePath, romPath string) error {
	return run(runner, patchSourcePath, romPath, "")
}

// ApplyWithSymbols runs the assembler exactly like Apply, additionally
// requesting a WLA-DX format symbols file at symbolsPath (asar's
// --symbols=wla/--symbols-path flags) so the caller can recover the ROM
// ranges this assembly pass wrote.
func ApplyWithSymbols(runner *toolrunner.Runner, patchSourcePath, romPath, symbolsPath string) error {
	return run(runner, patchSourcePath, romPath, symbolsPath)
}

func run(runner *toolrunner.Runner, patchSourcePath, romPath, symbolsPath string) error {
	if toolPath == "" {
		return buildsignal.ToolNotFound("assembler not initialized")
	}

	args := []string{}
	if symbolsPath != "" {
		args = append(args, "--symbols=wla", "--symbols-path="+symbolsPath)
	}
	args = append(args, patchSourcePath, romPath)

	cmd := toolrunner.ShellCommand{
		Path: toolPath,
		Args: args,
	}

	err := runner.Run(cmd, func(code int) (bool, string) {
		return IsSuccess(code), GetErrorMessage(code)
	})
	if err != nil {
		return fmt.Errorf("assembler failed: %w", err)
	}

	return nil
}
