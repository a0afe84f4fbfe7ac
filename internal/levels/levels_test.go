package levels

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberFromFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"bare number", "105.mwl", 0x105, false},
		{"prefixed", "level_105.mwl", 0x105, false},
		{"zero", "000.mwl", 0, false},
		{"hex letters", "level1A5.mwl", 0x1A5, false},
		{"no digits", "intro.mwl", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NumberFromFilename(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrentNumbers(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"105.mwl", "106.mwl", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{}, 0o644))
	}

	numbers, err := CurrentNumbers(dir)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{0x105: true, 0x106: true}, numbers)
}

func TestCurrentNumbersMissingDir(t *testing.T) {
	_, err := CurrentNumbers(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestCurrentNumbersUnparseableFilename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "intro.mwl"), []byte{}, 0o644))

	_, err := CurrentNumbers(dir)
	assert.Error(t, err)
}
