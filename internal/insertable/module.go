package insertable

import (
	"os"
	"path/filepath"

	"github.com/Norgate-AV/insert-engine/internal/assembler"
	"github.com/Norgate-AV/insert-engine/internal/buildsignal"
	"github.com/Norgate-AV/insert-engine/internal/cache"
	"github.com/Norgate-AV/insert-engine/internal/config"
	"github.com/Norgate-AV/insert-engine/internal/pathutil"
	"github.com/Norgate-AV/insert-engine/internal/report"
	"github.com/Norgate-AV/insert-engine/internal/toolrunner"
)

// ModuleInsertable assembles a single user module against the working ROM.
// Cleanup of the module's prior writes is the driver's responsibility
// (internal/cleanup), run before the insertable is constructed; this type
// only covers the (re)assembly step itself.
type ModuleInsertable struct {
	desc       report.Descriptor
	sourcePath string
	assembler  string
	runner     *toolrunner.Runner
	outputDir  string
	configDeps []report.ConfigurationDependency
}

// NewModuleInsertable builds a ModuleInsertable for desc.
func NewModuleInsertable(desc report.Descriptor, cfg *config.Config) (*ModuleInsertable, error) {
	if desc.Name == "" {
		return nil, buildsignal.ResourceNotFound("module descriptor is missing a source path")
	}

	sourcePath := filepath.Join(pathutil.UserModuleDirectoryPath(cfg.ProjectRoot), desc.Name)

	return &ModuleInsertable{
		desc:       desc,
		sourcePath: sourcePath,
		assembler:  cfg.AssemblerPath,
		runner:     toolrunner.NewRunner(),
		outputDir:  filepath.Dir(sourcePath),
		configDeps: []report.ConfigurationDependency{
			{
				ConfigKeys: "assembler_path",
				Value:      cfg.AssemblerPath,
				Policy:     report.Rebuild,
			},
		},
	}, nil
}

// Init validates that the module source exists and that the process-wide
// assembler is ready.
func (m *ModuleInsertable) Init() error {
	if _, err := os.Stat(m.sourcePath); err != nil {
		return buildsignal.ResourceNotFound(m.sourcePath)
	}

	return assembler.Init(m.assembler)
}

// InsertWithDependencies assembles the module and reports its source file
// as a resource dependency.
func (m *ModuleInsertable) InsertWithDependencies(romPath string) (*report.ResourceDependencySet, error) {
	if err := m.assemble(romPath); err != nil {
		return nil, err
	}

	deps := report.NewResourceDependencySet()

	dep, err := report.NewResourceDependency(m.sourcePath, report.Rebuild)
	if err != nil {
		return nil, buildsignal.Insertion("failed to observe module dependency %s: %v", m.sourcePath, err)
	}

	deps.Add(dep)

	return deps, nil
}

// Insert assembles the module without dependency reporting.
func (m *ModuleInsertable) Insert(romPath string) error {
	return m.assemble(romPath)
}

// ConfigurationDependencies returns the assembler-path dependency declared
// at construction time.
func (m *ModuleInsertable) ConfigurationDependencies() []report.ConfigurationDependency {
	return m.configDeps
}

// Outputs scans the module's output directory for the symbol files its
// last assembly produced, suitable for caching via internal/cache.
func (m *ModuleInsertable) Outputs() ([]string, error) {
	return cache.CollectOutputs(m.outputDir)
}

func (m *ModuleInsertable) assemble(romPath string) error {
	if err := assembler.Apply(m.runner, m.sourcePath, romPath); err != nil {
		return buildsignal.Insertion("failed to assemble module %s: %v", m.sourcePath, err)
	}

	return nil
}
