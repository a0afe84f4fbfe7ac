package insertable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/insert-engine/internal/assembler"
	"github.com/Norgate-AV/insert-engine/internal/config"
	"github.com/Norgate-AV/insert-engine/internal/report"
)

func TestModuleInsertableRequiresSourceName(t *testing.T) {
	_, err := NewModuleInsertable(report.Descriptor{Symbol: report.Module}, &config.Config{})
	assert.Error(t, err)
}

func TestModuleInsertableInitMissingSource(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{ProjectRoot: dir, AssemblerPath: fakeTool(t, dir, "asar")}

	ins, err := NewModuleInsertable(report.Descriptor{Symbol: report.Module, Name: "missing.asm"}, cfg)
	require.NoError(t, err)

	assert.Error(t, ins.Init())
}

func TestModuleInsertableAssembleAndOutputs(t *testing.T) {
	assembler.Reset()
	t.Cleanup(assembler.Reset)

	dir := t.TempDir()
	moduleDir := filepath.Join(dir, "asm", "user_modules")
	require.NoError(t, os.MkdirAll(moduleDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(moduleDir, "intro.asm"), []byte("nop"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(moduleDir, "intro.sym"), []byte("symbols"), 0o644))

	romPath := filepath.Join(dir, "rom.sfc")
	require.NoError(t, os.WriteFile(romPath, []byte("rom"), 0o644))

	cfg := &config.Config{ProjectRoot: dir, AssemblerPath: fakeTool(t, dir, "asar")}

	ins, err := NewModuleInsertable(report.Descriptor{Symbol: report.Module, Name: "intro.asm"}, cfg)
	require.NoError(t, err)
	require.NoError(t, ins.Init())

	deps, err := ins.InsertWithDependencies(romPath)
	require.NoError(t, err)
	require.NotNil(t, deps)

	outputs, err := ins.Outputs()
	require.NoError(t, err)
	assert.Equal(t, []string{"intro.sym"}, outputs)
}
