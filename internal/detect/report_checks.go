// Package detect implements the change-detection logic that decides, on
// every quick build, whether a prior build report is still usable at all
// and, per entry, whether a resource must be reinserted.
package detect

import (
	"os"

	"github.com/Norgate-AV/insert-engine/internal/buildsignal"
	"github.com/Norgate-AV/insert-engine/internal/config"
	"github.com/Norgate-AV/insert-engine/internal/levels"
	"github.com/Norgate-AV/insert-engine/internal/report"
)

// CheckReport runs every per-report check in order, returning the first
// failure as a MustRebuildError. A nil return means the report is still
// usable as a starting point for a quick build.
func CheckReport(r *report.BuildReport, cfg *config.Config) error {
	if err := checkOutputROMExists(cfg); err != nil {
		return err
	}

	if err := checkROMSize(r, cfg); err != nil {
		return err
	}

	if err := checkFileFormatVersion(r); err != nil {
		return err
	}

	if err := checkBuildOrder(r, cfg); err != nil {
		return err
	}

	if err := checkLevelCoverage(r, cfg); err != nil {
		return err
	}

	return checkRebuildConfigurationDependencies(r, cfg)
}

func checkOutputROMExists(cfg *config.Config) error {
	if _, err := os.Stat(cfg.OutputROM); err != nil {
		return buildsignal.MustRebuild("output ROM %s does not exist", cfg.OutputROM)
	}

	return nil
}

func checkROMSize(r *report.BuildReport, cfg *config.Config) error {
	switch {
	case r.ROMSize == nil && cfg.ROMSize == nil:
		return nil
	case r.ROMSize != nil && cfg.ROMSize != nil && *r.ROMSize == *cfg.ROMSize:
		return nil
	default:
		return buildsignal.MustRebuild("configured rom_size no longer matches the build report")
	}
}

func checkFileFormatVersion(r *report.BuildReport) error {
	if r.FileFormatVersion != report.FileFormatVersion {
		return buildsignal.MustRebuild("build report format version %d does not match engine version %d", r.FileFormatVersion, report.FileFormatVersion)
	}

	return nil
}

func checkBuildOrder(r *report.BuildReport, cfg *config.Config) error {
	if len(r.BuildOrder) != len(cfg.BuildOrder) {
		return buildsignal.MustRebuild("build order length changed")
	}

	for i, d := range r.BuildOrder {
		if !d.Equal(cfg.BuildOrder[i]) {
			return buildsignal.MustRebuild("build order changed at position %d", i)
		}
	}

	return nil
}

// checkLevelCoverage enforces that, when a levels folder is configured, the
// set of level numbers currently present is a superset of the levels the
// last build inserted. Missing levels force a rebuild; extra levels are
// accepted, since they'll be picked up by the Levels insertable's own
// reinsertion logic on this run.
func checkLevelCoverage(r *report.BuildReport, cfg *config.Config) error {
	if cfg.LevelsFolder == "" {
		return nil
	}

	current, err := levels.CurrentNumbers(cfg.LevelsFolder)
	if err != nil {
		return err
	}

	for _, n := range r.InsertedLevels {
		if !current[n] {
			return buildsignal.MustRebuild("level %d is no longer present in the levels folder", n)
		}
	}

	return nil
}

func checkRebuildConfigurationDependencies(r *report.BuildReport, cfg *config.Config) error {
	for _, entry := range r.Dependencies {
		for _, dep := range entry.ConfigurationDependencies {
			if dep.Policy != report.Rebuild {
				continue
			}

			current := config.GetByKey(dep.ConfigKeys)
			if !valuesEqual(current, dep.Value) {
				return buildsignal.MustRebuild("configuration key %s changed and requires a full rebuild", dep.ConfigKeys)
			}
		}
	}

	return nil
}

// CheckForwardResourceDependencies runs the forward-only per-entry resource
// Rebuild check (§4.2 step 7) for entries[from:]. It scans forward only
// because earlier entries' resources are re-classified once they reinsert.
func CheckForwardResourceDependencies(entries []report.Entry, from int) error {
	for i := from; i < len(entries); i++ {
		for _, dep := range entries[i].ResourceDependencies {
			if dep.Policy != report.Rebuild {
				continue
			}

			matches, err := dep.CurrentMatches()
			if err != nil {
				return buildsignal.Insertion("failed to observe resource dependency %s: %v", dep.DependentPath, err)
			}

			if !matches {
				return buildsignal.MustRebuild("resource %s changed and requires a full rebuild", dep.DependentPath)
			}
		}
	}

	return nil
}

func valuesEqual(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}

	return a == b
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
