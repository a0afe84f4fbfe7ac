// Package insertable defines the contract the quick-build driver drives
// opaquely against each build-order entry, together with the concrete
// implementations backing non-module, non-patch symbols.
package insertable

import (
	"github.com/Norgate-AV/insert-engine/internal/buildsignal"
	"github.com/Norgate-AV/insert-engine/internal/config"
	"github.com/Norgate-AV/insert-engine/internal/report"
)

// Insertable is a unit of work that mutates the working ROM.
type Insertable interface {
	// Init prepares the insertable, validating that any external tool it
	// depends on exists. May fail with a buildsignal ToolNotFoundError or
	// ResourceNotFoundError.
	Init() error

	// InsertWithDependencies performs the insertion against romPath and
	// returns the resource dependencies it observed. May fail with a
	// buildsignal NoDependencyReportFoundError if it cannot describe its
	// own inputs, or an InsertionError on any other failure.
	InsertWithDependencies(romPath string) (*report.ResourceDependencySet, error)

	// Insert performs the insertion without dependency reporting. Used
	// once any insertable in the run has already signalled that it cannot
	// produce a dependency report, since a correct new report is no
	// longer attainable for this run.
	Insert(romPath string) error

	// ConfigurationDependencies returns the dependencies this insertable
	// declared statically at construction time against the active
	// Configuration.
	ConfigurationDependencies() []report.ConfigurationDependency
}

// HijackReporter is implemented by insertables whose symbol is Patch: they
// additionally report the ROM byte ranges they wrote.
type HijackReporter interface {
	Hijacks() []report.Hijack
}

// Factory constructs the Insertable for a descriptor against the active
// configuration.
type Factory func(desc report.Descriptor, cfg *config.Config) (Insertable, error)

// New builds the Insertable appropriate for desc's symbol. Module and Patch
// get dedicated types; every other symbol is backed by a generic
// ToolInsertable driving a configured external binary.
func New(desc report.Descriptor, cfg *config.Config) (Insertable, error) {
	switch desc.Symbol {
	case report.Module:
		return NewModuleInsertable(desc, cfg)
	case report.Patch:
		return NewPatchInsertable(desc, cfg)
	default:
		return NewToolInsertable(desc, cfg)
	}
}

func toolPathFor(desc report.Descriptor, cfg *config.Config) (string, error) {
	path, ok := cfg.ToolPaths[desc.Symbol]
	if !ok || path == "" {
		return "", buildsignal.ToolNotFound(string(desc.Symbol))
	}

	return path, nil
}
