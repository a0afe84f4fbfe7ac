package quickbuild

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/insert-engine/internal/assembler"
	"github.com/Norgate-AV/insert-engine/internal/config"
	"github.com/Norgate-AV/insert-engine/internal/pathutil"
	"github.com/Norgate-AV/insert-engine/internal/report"
)

func fakeExecutable(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	return path
}

func newTestProject(t *testing.T) (*config.Config, string) {
	t.Helper()

	root := t.TempDir()
	outputROM := filepath.Join(root, "out.sfc")
	require.NoError(t, os.WriteFile(outputROM, []byte("rom bytes"), 0o644))

	cfg := &config.Config{
		ProjectRoot:   root,
		OutputROM:     outputROM,
		AssemblerPath: fakeExecutable(t, root, "asar"),
		ToolPaths: map[report.Symbol]string{
			report.Graphics: fakeExecutable(t, root, "gfx_insert"),
		},
	}

	return cfg, root
}

func TestDriverRunMissingReport(t *testing.T) {
	cfg, _ := newTestProject(t)

	_, err := New().Run(cfg)
	require.Error(t, err)
}

func TestDriverRunNoWork(t *testing.T) {
	cfg, root := newTestProject(t)

	order := []report.Descriptor{{Symbol: report.Graphics}}
	cfg.BuildOrder = order

	r := report.New(order, nil)
	require.NoError(t, r.Save(pathutil.BuildReportPath(root)))

	result, err := New().Run(cfg)
	require.NoError(t, err)
	assert.Equal(t, NoWork, result)
}

func TestDriverRunReinsertsAndCommits(t *testing.T) {
	assembler.Reset()
	t.Cleanup(assembler.Reset)

	cfg, root := newTestProject(t)

	order := []report.Descriptor{{Symbol: report.Graphics}}
	cfg.BuildOrder = order

	r := report.New(order, nil)
	r.Dependencies[0].ConfigurationDependencies = []report.ConfigurationDependency{
		{ConfigKeys: "a_key_no_one_sets", Value: "old-value", Policy: report.Reinsert},
	}
	require.NoError(t, r.Save(pathutil.BuildReportPath(root)))

	result, err := New().Run(cfg)
	require.NoError(t, err)
	assert.Equal(t, Success, result)

	// report should have been deleted: ToolInsertable always signals
	// NoDependencyReportFound, so the run cannot persist a valid report.
	_, err = report.Load(pathutil.BuildReportPath(root))
	assert.True(t, os.IsNotExist(err))

	marked, err := os.ReadFile(cfg.OutputROM)
	require.NoError(t, err)
	assert.Contains(t, string(marked), "INSERT-ENGINE-QUICKBUILD")
}

// fakeAssemblerWithSymbols writes a WLA-DX format symbols file to whatever
// path it's given via --symbols-path=, mimicking asar's --symbols=wla flag.
func fakeAssemblerWithSymbols(t *testing.T, dir string, rangesHex ...string) string {
	t.Helper()

	var body strings.Builder
	body.WriteString("[ROMSECTIONS]\n")
	for _, r := range rangesHex {
		body.WriteString(r)
		body.WriteString(" patch_section\n")
	}

	script := `#!/bin/sh
for arg in "$@"; do
  case "$arg" in
    --symbols-path=*)
      path="${arg#--symbols-path=}"
      cat > "$path" <<'EOF'
` + body.String() + `EOF
      ;;
  esac
done
exit 0
`

	path := filepath.Join(dir, "asar")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	return path
}

func TestDriverRunPatchWithPriorHijacksReinsertsCleanly(t *testing.T) {
	assembler.Reset()
	t.Cleanup(assembler.Reset)

	cfg, root := newTestProject(t)

	patchPath := filepath.Join(root, "fix.asm")
	require.NoError(t, os.WriteFile(patchPath, []byte("nop"), 0o644))

	cfg.AssemblerPath = fakeAssemblerWithSymbols(t, root, "0x048000-0x048010")

	order := []report.Descriptor{{Symbol: report.Patch, Name: patchPath}}
	cfg.BuildOrder = order

	r := report.New(order, nil)
	r.Dependencies[0].ConfigurationDependencies = []report.ConfigurationDependency{
		{ConfigKeys: "a_key_no_one_sets", Value: "old-value", Policy: report.Reinsert},
	}
	r.Dependencies[0].Hijacks = []report.Hijack{{Address: 0x048000, Length: 0x10}}
	require.NoError(t, r.Save(pathutil.BuildReportPath(root)))

	result, err := New().Run(cfg)
	require.NoError(t, err)
	assert.Equal(t, Success, result)
}

func TestDriverRunUnchangedModuleRequiresCachedOutputs(t *testing.T) {
	cfg, root := newTestProject(t)

	order := []report.Descriptor{{Symbol: report.Module, Name: "intro.asm"}}
	cfg.BuildOrder = order

	moduleDir := pathutil.UserModuleDirectoryPath(root)
	require.NoError(t, os.MkdirAll(moduleDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(moduleDir, "intro.asm"), []byte("nop"), 0o644))

	r := report.New(order, nil)
	require.NoError(t, r.Save(pathutil.BuildReportPath(root)))

	_, err := New().Run(cfg)
	require.Error(t, err)
}
