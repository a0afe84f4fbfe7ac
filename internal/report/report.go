package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileFormatVersion is the engine's compile-time build report format
// constant. A report whose FileFormatVersion differs forces a full rebuild.
const FileFormatVersion = 4

// BuildReport is the persisted manifest of the last successful build.
//
// Invariants: len(Dependencies) == len(BuildOrder) with matching descriptors
// at every index; ModuleOutputs[m] names files produced by module m's last
// assembly, mirrored under the old-symbols directory after every build.
type BuildReport struct {
	FileFormatVersion int                   `json:"file_format_version"`
	BuildOrder        []Descriptor          `json:"build_order"`
	ROMSize           *int64                `json:"rom_size"`
	Dependencies      []Entry               `json:"dependencies"`
	InsertedLevels    []int                 `json:"inserted_levels"`
	ModuleOutputs     map[string][]string   `json:"module_outputs"`
}

// New creates an empty report for the given build order, stamped with the
// engine's current format version.
func New(buildOrder []Descriptor, romSize *int64) *BuildReport {
	dependencies := make([]Entry, len(buildOrder))
	for i, d := range buildOrder {
		entry := Entry{Descriptor: d}
		if d.Symbol == Patch {
			entry.Hijacks = []Hijack{}
		}
		dependencies[i] = entry
	}

	return &BuildReport{
		FileFormatVersion: FileFormatVersion,
		BuildOrder:        buildOrder,
		ROMSize:           romSize,
		Dependencies:      dependencies,
		InsertedLevels:    []int{},
		ModuleOutputs:     map[string][]string{},
	}
}

// DefaultPath returns the fixed build report path under a project root.
func DefaultPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".cache", "build_report.json")
}

// Load reads and parses the build report at path. A missing file is
// reported via os.IsNotExist on the returned error, which callers treat as
// "must rebuild" rather than a parse failure.
func Load(path string) (*BuildReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var r BuildReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing build report %s: %w", path, err)
	}

	return &r, nil
}

// Save atomically writes the report to path: marshal to a sibling temp
// file, then rename over the destination.
func (r *BuildReport) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling build report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating build report directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing build report: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("committing build report: %w", err)
	}

	return nil
}

// Remove deletes the build report at path, if present. Used when an
// insertable refuses to report its dependencies: the next invocation must
// rebuild from scratch.
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// InsertedLevelSet returns InsertedLevels as a set for membership checks.
func (r *BuildReport) InsertedLevelSet() map[int]bool {
	set := make(map[int]bool, len(r.InsertedLevels))
	for _, l := range r.InsertedLevels {
		set[l] = true
	}
	return set
}
