// Package pathutil centralizes the fixed, well-known paths the engine
// reads and writes under a project root, mirroring the original tool's
// PathUtil helper.
package pathutil

import (
	"path/filepath"

	"github.com/google/uuid"
)

// BuildReportPath is the fixed location of the persisted build report.
func BuildReportPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".cache", "build_report.json")
}

// TemporaryFolderPath is the scratch directory a quick build works in
// before atomically publishing its result.
func TemporaryFolderPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".cache", "tmp")
}

// NewRunID returns a fresh identifier for a single quick-build invocation,
// used to namespace its scratch folder so two builds run against the same
// project root (a CI matrix, an IDE build plus a CLI build) never collide.
func NewRunID() string {
	return uuid.New().String()
}

// TemporaryROMPath returns the path the previous output ROM is copied to
// before replay, inside the given temporary folder.
func TemporaryROMPath(temporaryFolder, outputROM string) string {
	return filepath.Join(temporaryFolder, filepath.Base(outputROM)+".tmp")
}

// ModuleCleanupDirectoryPath is where per-module cleanup address files live.
func ModuleCleanupDirectoryPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".cache", "cleanup")
}

// ModuleCleanupFilePath returns the cleanup file for a module, given its
// path relative to the user module directory (without its extension).
func ModuleCleanupFilePath(projectRoot, moduleRelPathNoExt string) string {
	return filepath.Join(ModuleCleanupDirectoryPath(projectRoot), moduleRelPathNoExt+".addr")
}

// UserModuleDirectoryPath is the root of user-authored module sources and
// their live assembly outputs.
func UserModuleDirectoryPath(projectRoot string) string {
	return filepath.Join(projectRoot, "asm", "user_modules")
}

// ModuleOldSymbolsDirectoryPath mirrors module outputs from the previous
// build, restored verbatim when a module is unchanged.
func ModuleOldSymbolsDirectoryPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".cache", "module_symbols")
}

// ModuleCacheIndexPath is the BoltDB index backing the module-output cache.
func ModuleCacheIndexPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".cache", "module_symbols.db")
}
