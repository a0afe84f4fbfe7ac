package insertable

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Norgate-AV/insert-engine/internal/buildsignal"
	"github.com/Norgate-AV/insert-engine/internal/config"
	"github.com/Norgate-AV/insert-engine/internal/report"
	"github.com/Norgate-AV/insert-engine/internal/toolrunner"
)

// ToolInsertable drives a configured external binary for a single
// build-order symbol, such as the graphics inserter or the overworld
// inserter. It cannot describe resource dependencies on its own, so
// InsertWithDependencies always signals NoDependencyReportFound; the driver
// falls back to plain Insert for the rest of the run once that happens.
type ToolInsertable struct {
	desc     report.Descriptor
	toolPath string
	runner   *toolrunner.Runner
	configDeps []report.ConfigurationDependency
}

// NewToolInsertable builds a ToolInsertable for desc, resolving its external
// tool path from cfg.ToolPaths.
func NewToolInsertable(desc report.Descriptor, cfg *config.Config) (*ToolInsertable, error) {
	path, err := toolPathFor(desc, cfg)
	if err != nil {
		return nil, err
	}

	return &ToolInsertable{
		desc:     desc,
		toolPath: path,
		runner:   toolrunner.NewRunner(),
		configDeps: []report.ConfigurationDependency{
			{
				ConfigKeys: fmt.Sprintf("tools.%s", desc.Symbol),
				Value:      path,
				Policy:     report.Rebuild,
			},
		},
	}, nil
}

// Init validates that the configured external tool exists.
func (t *ToolInsertable) Init() error {
	if _, err := os.Stat(t.toolPath); err != nil {
		return buildsignal.ToolNotFound(t.toolPath)
	}

	return nil
}

// InsertWithDependencies runs the tool against romPath. Tool-backed
// insertables cannot report the files they read, so this always fails with
// NoDependencyReportFound after performing the insertion.
func (t *ToolInsertable) InsertWithDependencies(romPath string) (*report.ResourceDependencySet, error) {
	if err := t.run(romPath); err != nil {
		return nil, err
	}

	return nil, buildsignal.NoDependencyReportFound(t.desc.String(""))
}

// Insert runs the tool against romPath without dependency reporting.
func (t *ToolInsertable) Insert(romPath string) error {
	return t.run(romPath)
}

// ConfigurationDependencies returns the tool-path dependency declared at
// construction time.
func (t *ToolInsertable) ConfigurationDependencies() []report.ConfigurationDependency {
	return t.configDeps
}

func (t *ToolInsertable) run(romPath string) error {
	name := filepath.Base(t.toolPath)

	err := t.runner.Run(toolrunner.ShellCommand{
		Path: t.toolPath,
		Args: []string{string(t.desc.Symbol), romPath},
	}, toolrunner.AlwaysFail)
	if err != nil {
		return buildsignal.Insertion("%s failed for %s: %v", name, t.desc.String(""), err)
	}

	return nil
}
