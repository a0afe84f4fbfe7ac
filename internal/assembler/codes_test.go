package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSuccess(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		want     bool
	}{
		{"exit code 0 is success", 0, true},
		{"exit code 1 is failure", 1, false},
		{"exit code 2 is failure", 2, false},
		{"unknown exit code is failure", 999, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSuccess(tt.exitCode))
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "Success", GetErrorMessage(0))
	assert.Equal(t, "Assembly error", GetErrorMessage(1))
	assert.Equal(t, "Unknown error", GetErrorMessage(999))
	assert.Equal(t, "Unknown error", GetErrorMessage(-1))
}
