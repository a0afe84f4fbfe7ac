package toolrunner

import (
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCommander struct {
	runFunc func() error
}

func (m *mockCommander) Run() error {
	return m.runFunc()
}

func TestRunSuccess(t *testing.T) {
	r := NewRunnerWithCommander(func(name string, args ...string) Commander {
		return &mockCommander{runFunc: func() error { return nil }}
	})

	err := r.Run(ShellCommand{Path: "gfx-insert", Args: []string{"--rom", "out.sfc"}}, nil)
	assert.NoError(t, err)
}

func TestRunNonExitError(t *testing.T) {
	r := NewRunnerWithCommander(func(name string, args ...string) Commander {
		return &mockCommander{runFunc: func() error { return fmt.Errorf("command not found") }}
	})

	err := r.Run(ShellCommand{Path: "missing-tool"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command not found")
}

func TestRunInterpretsAcceptableExitCode(t *testing.T) {
	r := NewRunnerWithCommander(func(name string, args ...string) Commander {
		return exec.Command("sh", "-c", "exit 116")
	})

	interpret := func(code int) (bool, string) {
		return code == 116, fmt.Sprintf("exit code %d", code)
	}

	err := r.Run(ShellCommand{Path: "sh"}, interpret)
	assert.NoError(t, err)
}

func TestRunReportsRealFailure(t *testing.T) {
	r := NewRunnerWithCommander(func(name string, args ...string) Commander {
		return exec.Command("sh", "-c", "exit 1")
	})

	err := r.Run(ShellCommand{Path: "sh"}, AlwaysFail)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit code 1")
}

func TestNewRunner(t *testing.T) {
	r := NewRunner()
	assert.NotNil(t, r)
	assert.NotNil(t, r.execCommand)
}
