package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
	}{
		{"no-name symbol", Descriptor{Symbol: Graphics}},
		{"module with name", Descriptor{Symbol: Module, Name: "/project/asm/hud.asm"}},
		{"external tool with name", Descriptor{Symbol: ExternalTool, Name: "pixi"}},
		{"patch with name", Descriptor{Symbol: Patch, Name: "/project/asm/patches/foo.asm"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.d.MarshalJSON()
			require.NoError(t, err)

			var got Descriptor
			require.NoError(t, got.UnmarshalJSON(data))
			assert.True(t, tt.d.Equal(got))
		})
	}
}

func TestDescriptorString(t *testing.T) {
	d := Descriptor{Symbol: Module, Name: filepath.Join("project", "asm", "hud.asm")}
	assert.Equal(t, "module(asm/hud.asm)", d.String("project"))

	plain := Descriptor{Symbol: Graphics}
	assert.Equal(t, "graphics", plain.String("project"))
}

func TestResourceDependencySetDedupesByPath(t *testing.T) {
	set := NewResourceDependencySet()
	first := uint64(100)
	second := uint64(200)

	set.Add(ResourceDependency{DependentPath: "a.asm", LastWriteTime: &first, Policy: Reinsert})
	set.Add(ResourceDependency{DependentPath: "a.asm", LastWriteTime: &second, Policy: Rebuild})

	slice := set.Slice()
	require.Len(t, slice, 1)
	assert.Equal(t, second, *slice[0].LastWriteTime)
	assert.Equal(t, Rebuild, slice[0].Policy)
}

func TestResourceDependencyCurrentMatches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "source.asm")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	dep, err := NewResourceDependency(path, Reinsert)
	require.NoError(t, err)

	matches, err := dep.CurrentMatches()
	require.NoError(t, err)
	assert.True(t, matches)

	missing, err := NewResourceDependency(filepath.Join(dir, "missing.asm"), Reinsert)
	require.NoError(t, err)
	assert.Nil(t, missing.LastWriteTime)

	missingMatches, err := missing.CurrentMatches()
	require.NoError(t, err)
	assert.True(t, missingMatches)
}

func TestBuildReportSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := DefaultPath(dir)

	romSize := int64(0x400000)
	r := New([]Descriptor{
		{Symbol: Graphics},
		{Symbol: Patch, Name: "foo.asm"},
	}, &romSize)
	r.InsertedLevels = []int{0x105, 0x106}
	r.ModuleOutputs["hud.asm"] = []string{"hud.bin"}

	require.NoError(t, r.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, FileFormatVersion, loaded.FileFormatVersion)
	assert.Equal(t, r.BuildOrder, loaded.BuildOrder)
	assert.Equal(t, *r.ROMSize, *loaded.ROMSize)
	assert.ElementsMatch(t, r.InsertedLevels, loaded.InsertedLevels)
	assert.Equal(t, r.ModuleOutputs, loaded.ModuleOutputs)
}

func TestLoadMissingReport(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "build_report.json"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build_report.json")
	assert.NoError(t, Remove(path))

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	assert.NoError(t, Remove(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
