// Package quickbuild orchestrates a single quick-build invocation: load the
// previous build report, run change detection, replay only the entries that
// changed against a temporary copy of the output ROM, and commit atomically.
package quickbuild

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Norgate-AV/insert-engine/internal/assembler"
	"github.com/Norgate-AV/insert-engine/internal/buildsignal"
	"github.com/Norgate-AV/insert-engine/internal/cache"
	"github.com/Norgate-AV/insert-engine/internal/cleanup"
	"github.com/Norgate-AV/insert-engine/internal/config"
	"github.com/Norgate-AV/insert-engine/internal/detect"
	"github.com/Norgate-AV/insert-engine/internal/hijack"
	"github.com/Norgate-AV/insert-engine/internal/insertable"
	"github.com/Norgate-AV/insert-engine/internal/marker"
	"github.com/Norgate-AV/insert-engine/internal/pathutil"
	"github.com/Norgate-AV/insert-engine/internal/report"
	"github.com/Norgate-AV/insert-engine/internal/toolrunner"
)

// Driver runs a quick build for a single Configuration.
type Driver struct {
	runner *toolrunner.Runner
}

// New builds a Driver.
func New() *Driver {
	return &Driver{runner: toolrunner.NewRunner()}
}

// Run executes the sequence described above and returns Success or NoWork
// on completion. Any other outcome is reported as an error; a
// *buildsignal.MustRebuildError means the caller must fall back to a full
// rebuild, any other error is a fatal failure of this run.
func (d *Driver) Run(cfg *config.Config) (Result, error) {
	reportPath := pathutil.BuildReportPath(cfg.ProjectRoot)

	r, err := report.Load(reportPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", buildsignal.MustRebuild("no build report found at %s", reportPath)
		}

		return "", fmt.Errorf("failed to load build report: %w", err)
	}

	if err := detect.CheckReport(r, cfg); err != nil {
		return "", err
	}

	tempFolder := filepath.Join(pathutil.TemporaryFolderPath(cfg.ProjectRoot), pathutil.NewRunID())
	tempROM := pathutil.TemporaryROMPath(tempFolder, cfg.OutputROM)

	anyWorkDone := false
	var failedDependencyReport error

	for i := range r.Dependencies {
		if err := detect.CheckForwardResourceDependencies(r.Dependencies, i); err != nil {
			return "", err
		}

		entry := r.Dependencies[i]

		classification, err := detect.ClassifyEntry(entry, cfg)
		if err != nil {
			return "", err
		}

		if !classification.MustReinsert {
			if entry.Descriptor.Symbol == report.Module {
				if err := d.restoreModule(cfg, r, entry.Descriptor); err != nil {
					return "", err
				}
			}

			continue
		}

		if !anyWorkDone {
			if err := copyFile(cfg.OutputROM, tempROM); err != nil {
				return "", fmt.Errorf("failed to stage temporary rom: %w", err)
			}

			anyWorkDone = true
		}

		if entry.Descriptor.Symbol == report.Module {
			if err := assembler.Init(cfg.AssemblerPath); err != nil {
				return "", err
			}

			cleanupPath := pathutil.ModuleCleanupFilePath(cfg.ProjectRoot, moduleRelPathNoExt(entry.Descriptor))

			if err := cleanup.Apply(d.runner, cleanupPath, tempROM); err != nil {
				if os.IsNotExist(err) {
					return "", buildsignal.MustRebuild("module cleanup file missing for %s", entry.Descriptor.String(cfg.ProjectRoot))
				}

				return "", err
			}
		}

		ins, err := insertable.New(entry.Descriptor, cfg)
		if err != nil {
			return "", err
		}

		if err := ins.Init(); err != nil {
			return "", err
		}

		if failedDependencyReport == nil {
			deps, err := ins.InsertWithDependencies(tempROM)

			var noReport *buildsignal.NoDependencyReportFoundError
			if errors.As(err, &noReport) {
				failedDependencyReport = err
			} else if err != nil {
				return "", err
			} else {
				entry.ConfigurationDependencies = ins.ConfigurationDependencies()
				entry.ResourceDependencies = deps.Slice()
			}
		} else {
			if err := ins.Insert(tempROM); err != nil {
				return "", err
			}
		}

		if entry.Descriptor.Symbol == report.Patch {
			reporter, ok := ins.(insertable.HijackReporter)
			if ok {
				newHijacks := reporter.Hijacks()

				if hijack.GoneBad(entry.Hijacks, newHijacks) {
					return "", buildsignal.MustRebuild("patch %s no longer writes all of its previous hijacks", entry.Descriptor.String(cfg.ProjectRoot))
				}

				entry.Hijacks = newHijacks
			}
		}

		r.Dependencies[i] = entry
	}

	if !anyWorkDone {
		return NoWork, nil
	}

	if failedDependencyReport == nil {
		if err := r.Save(reportPath); err != nil {
			return "", fmt.Errorf("failed to persist build report: %w", err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Warning: %v; deleting build report, next build must be a full rebuild\n", failedDependencyReport)

		if err := report.Remove(reportPath); err != nil {
			return "", fmt.Errorf("failed to remove build report: %w", err)
		}
	}

	if err := d.cacheModules(cfg, r); err != nil {
		return "", err
	}

	if err := marker.Write(tempROM); err != nil {
		return "", fmt.Errorf("failed to mark output rom: %w", err)
	}

	if err := os.Rename(tempROM, cfg.OutputROM); err != nil {
		return "", fmt.Errorf("failed to commit output rom: %w", err)
	}

	if err := marker.LinkGraphicsDirectories(cfg.ProjectRoot, cfg.OutputROM); err != nil {
		return "", fmt.Errorf("failed to link graphics directories: %w", err)
	}

	if err := os.RemoveAll(tempFolder); err != nil {
		return "", fmt.Errorf("failed to remove temporary folder: %w", err)
	}

	return Success, nil
}

func moduleRelPathNoExt(desc report.Descriptor) string {
	ext := filepath.Ext(desc.Name)
	return desc.Name[:len(desc.Name)-len(ext)]
}

func (d *Driver) restoreModule(cfg *config.Config, r *report.BuildReport, desc report.Descriptor) error {
	modulePath := filepath.Join(pathutil.UserModuleDirectoryPath(cfg.ProjectRoot), desc.Name)

	outputs, ok := r.ModuleOutputs[modulePath]
	if !ok || len(outputs) == 0 {
		return buildsignal.MustRebuild("no cached output listing for unchanged module %s", desc.String(cfg.ProjectRoot))
	}

	indexPath := pathutil.ModuleCacheIndexPath(cfg.ProjectRoot)
	mirrorDir := pathutil.ModuleOldSymbolsDirectoryPath(cfg.ProjectRoot)

	c, err := cache.Open(indexPath, mirrorDir)
	if err != nil {
		return fmt.Errorf("failed to open module cache: %w", err)
	}
	defer c.Close()

	valid, err := c.Valid(sanitizeModulePath(modulePath))
	if err != nil {
		return fmt.Errorf("failed to validate cached outputs for module %s: %w", desc.Name, err)
	}

	if !valid {
		return buildsignal.MustRebuild("cached outputs for unchanged module %s are missing or truncated", desc.String(cfg.ProjectRoot))
	}

	if err := c.Restore(sanitizeModulePath(modulePath), filepath.Dir(modulePath)); err != nil {
		return buildsignal.MustRebuild("failed to restore cached outputs for module %s: %v", desc.String(cfg.ProjectRoot), err)
	}

	return nil
}

func (d *Driver) cacheModules(cfg *config.Config, r *report.BuildReport) error {
	indexPath := pathutil.ModuleCacheIndexPath(cfg.ProjectRoot)
	mirrorDir := pathutil.ModuleOldSymbolsDirectoryPath(cfg.ProjectRoot)

	c, err := cache.Open(indexPath, mirrorDir)
	if err != nil {
		return fmt.Errorf("failed to open module cache: %w", err)
	}
	defer c.Close()

	for _, desc := range r.BuildOrder {
		if desc.Symbol != report.Module {
			continue
		}

		modulePath := filepath.Join(pathutil.UserModuleDirectoryPath(cfg.ProjectRoot), desc.Name)
		sourceDir := filepath.Dir(modulePath)

		outputs, err := cache.CollectOutputs(sourceDir)
		if err != nil {
			return fmt.Errorf("failed to collect outputs for module %s: %w", desc.Name, err)
		}

		if err := c.Store(sanitizeModulePath(modulePath), sourceDir, outputs); err != nil {
			return fmt.Errorf("failed to cache outputs for module %s: %w", desc.Name, err)
		}

		r.ModuleOutputs[modulePath] = outputs
	}

	return nil
}

func sanitizeModulePath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
