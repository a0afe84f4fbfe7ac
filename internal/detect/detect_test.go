package detect

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/insert-engine/internal/buildsignal"
	"github.com/Norgate-AV/insert-engine/internal/config"
	"github.com/Norgate-AV/insert-engine/internal/report"
)

func newReportAndConfig(t *testing.T) (*report.BuildReport, *config.Config, string) {
	t.Helper()

	root := t.TempDir()
	romPath := filepath.Join(root, "out.sfc")
	require.NoError(t, os.WriteFile(romPath, []byte("rom"), 0o644))

	romSize := int64(0x400000)
	order := []report.Descriptor{{Symbol: report.Graphics}, {Symbol: report.Overworld}}
	r := report.New(order, &romSize)

	cfg := &config.Config{
		ProjectRoot: root,
		OutputROM:   romPath,
		ROMSize:     &romSize,
		BuildOrder:  order,
	}

	return r, cfg, root
}

func TestCheckReportPasses(t *testing.T) {
	r, cfg, _ := newReportAndConfig(t)
	assert.NoError(t, CheckReport(r, cfg))
}

func TestCheckReportMissingROM(t *testing.T) {
	r, cfg, _ := newReportAndConfig(t)
	require.NoError(t, os.Remove(cfg.OutputROM))

	err := CheckReport(r, cfg)
	require.Error(t, err)
	assert.IsType(t, &buildsignal.MustRebuildError{}, err)
}

func TestCheckReportROMSizeMismatch(t *testing.T) {
	r, cfg, _ := newReportAndConfig(t)
	other := int64(0x200000)
	cfg.ROMSize = &other

	assert.Error(t, CheckReport(r, cfg))
}

func TestCheckReportFileFormatVersionMismatch(t *testing.T) {
	r, cfg, _ := newReportAndConfig(t)
	r.FileFormatVersion = report.FileFormatVersion - 1

	assert.Error(t, CheckReport(r, cfg))
}

func TestCheckReportBuildOrderChanged(t *testing.T) {
	r, cfg, _ := newReportAndConfig(t)
	cfg.BuildOrder = []report.Descriptor{{Symbol: report.Overworld}, {Symbol: report.Graphics}}

	assert.Error(t, CheckReport(r, cfg))
}

func TestCheckReportLevelCoverage(t *testing.T) {
	r, cfg, root := newReportAndConfig(t)
	levelsDir := filepath.Join(root, "levels")
	require.NoError(t, os.MkdirAll(levelsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(levelsDir, "105.mwl"), []byte{}, 0o644))

	cfg.LevelsFolder = levelsDir
	r.InsertedLevels = []int{0x105}

	assert.NoError(t, CheckReport(r, cfg))

	r.InsertedLevels = []int{0x105, 0x106}
	assert.Error(t, CheckReport(r, cfg))
}

func TestCheckForwardResourceDependencies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resource.bin")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	dep, err := report.NewResourceDependency(path, report.Rebuild)
	require.NoError(t, err)

	entries := []report.Entry{
		{Descriptor: report.Descriptor{Symbol: report.Graphics}, ResourceDependencies: []report.ResourceDependency{dep}},
	}

	assert.NoError(t, CheckForwardResourceDependencies(entries, 0))

	// simulate the file changing
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("different data"), 0o644))

	assert.Error(t, CheckForwardResourceDependencies(entries, 0))
}

func TestClassifyEntryConfigMismatch(t *testing.T) {
	viper.Reset()
	viper.Set("rom_size", int64(0x200000))

	entry := report.Entry{
		ConfigurationDependencies: []report.ConfigurationDependency{
			{ConfigKeys: "rom_size", Value: int64(0x400000), Policy: report.Reinsert},
		},
	}

	c, err := ClassifyEntry(entry, &config.Config{})
	require.NoError(t, err)
	assert.True(t, c.MustReinsert)
	assert.Equal(t, "rom_size", c.Reason)
}

func TestClassifyEntryResourceMismatch(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, "resource.bin")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	dep, err := report.NewResourceDependency(path, report.Reinsert)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("different"), 0o644))

	entry := report.Entry{ResourceDependencies: []report.ResourceDependency{dep}}

	c, err := ClassifyEntry(entry, &config.Config{})
	require.NoError(t, err)
	assert.True(t, c.MustReinsert)
	assert.Equal(t, path, c.Reason)
}

func TestClassifyEntryUnchanged(t *testing.T) {
	viper.Reset()

	entry := report.Entry{}

	c, err := ClassifyEntry(entry, &config.Config{})
	require.NoError(t, err)
	assert.False(t, c.MustReinsert)
}
