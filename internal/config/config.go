// Package config loads and validates the engine's Configuration: project
// paths, the declared build order, per-symbol external tool paths, and the
// assembler binary, using the same viper-backed load/validate shape the
// teacher uses for its SIMPL+ compiler settings.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Norgate-AV/insert-engine/internal/report"
)

// allowedROMSizes are the SNES ROM sizes (in bytes) the engine accepts for
// the configured rom_size. A size outside this set is rejected up front,
// the same way the teacher rejects a target series outside series 2-4.
var allowedROMSizes = map[int64]bool{
	0x080000: true,
	0x100000: true,
	0x200000: true,
	0x300000: true,
	0x400000: true,
	0x600000: true,
	0x800000: true,
}

// Default configuration values.
const (
	DefaultAssemblerPath = "asar"
	DefaultVerbose       = false
)

// Config holds the configuration the quick-build engine acts on.
type Config struct {
	// ProjectRoot is the root of the ROM hacking project.
	ProjectRoot string

	// OutputROM is the path of the published ROM image.
	OutputROM string

	// TemporaryFolder is the scratch directory a quick build works in.
	TemporaryFolder string

	// ROMSize is the configured ROM size in bytes, or nil if unconstrained.
	ROMSize *int64

	// LevelsFolder is the configured levels directory, or empty if unset.
	LevelsFolder string

	// BuildOrder is the declared, ordered sequence of insertion steps.
	BuildOrder []report.Descriptor

	// ToolPaths maps a Symbol to the external binary that performs its
	// insertion. Patch and Module entries do not use it; they run the
	// assembler at AssemblerPath instead.
	ToolPaths map[report.Symbol]string

	// AssemblerPath is the path to the assembler binary used for module
	// cleanup and patch hijacking.
	AssemblerPath string

	// Verbose enables additional console output.
	Verbose bool
}

// Load builds a Config from the currently bound viper values.
func Load() (*Config, error) {
	cfg := &Config{
		ProjectRoot:     viper.GetString("project_root"),
		OutputROM:       viper.GetString("output_rom"),
		TemporaryFolder: viper.GetString("temporary_folder"),
		LevelsFolder:    viper.GetString("paths.levels"),
		AssemblerPath:   viper.GetString("assembler_path"),
		Verbose:         viper.GetBool("verbose"),
		ToolPaths:       map[report.Symbol]string{},
	}

	if viper.IsSet("rom_size") {
		size := viper.GetInt64("rom_size")
		cfg.ROMSize = &size
	}

	if cfg.AssemblerPath == "" {
		cfg.AssemblerPath = DefaultAssemblerPath
	}

	buildOrder, err := decodeBuildOrder()
	if err != nil {
		return nil, err
	}
	cfg.BuildOrder = buildOrder

	for sym := range viper.GetStringMap("tools") {
		symbol, err := report.ParseSymbol(sym)
		if err != nil {
			return nil, fmt.Errorf("tools.%s: %w", sym, err)
		}
		cfg.ToolPaths[symbol] = viper.GetString("tools." + sym)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type buildOrderEntry struct {
	Symbol string `mapstructure:"symbol"`
	Name   string `mapstructure:"name"`
}

func decodeBuildOrder() ([]report.Descriptor, error) {
	var entries []buildOrderEntry
	if err := viper.UnmarshalKey("build_order", &entries); err != nil {
		return nil, fmt.Errorf("invalid build_order: %w", err)
	}

	order := make([]report.Descriptor, 0, len(entries))
	for _, e := range entries {
		symbol, err := report.ParseSymbol(e.Symbol)
		if err != nil {
			return nil, fmt.Errorf("invalid build_order entry: %w", err)
		}
		order = append(order, report.Descriptor{Symbol: symbol, Name: e.Name})
	}

	return order, nil
}

// Validate resolves relative paths to absolute ones and rejects an
// inconsistent configuration.
func (c *Config) Validate() error {
	if c.ProjectRoot == "" {
		return fmt.Errorf("project root must be set")
	}

	abs, err := filepath.Abs(c.ProjectRoot)
	if err != nil {
		return fmt.Errorf("invalid project root: %w", err)
	}
	c.ProjectRoot = abs

	if c.OutputROM != "" {
		abs, err := filepath.Abs(c.OutputROM)
		if err != nil {
			return fmt.Errorf("invalid output ROM path: %w", err)
		}
		c.OutputROM = abs
	}

	if c.TemporaryFolder != "" {
		abs, err := filepath.Abs(c.TemporaryFolder)
		if err != nil {
			return fmt.Errorf("invalid temporary folder path: %w", err)
		}
		c.TemporaryFolder = abs
	}

	if c.LevelsFolder != "" {
		abs, err := filepath.Abs(c.LevelsFolder)
		if err != nil {
			return fmt.Errorf("invalid levels folder path: %w", err)
		}
		c.LevelsFolder = abs
	}

	if c.ROMSize != nil && !allowedROMSizes[*c.ROMSize] {
		return fmt.Errorf("invalid rom_size: %#x", *c.ROMSize)
	}

	if err := validateBuildOrder(c.BuildOrder); err != nil {
		return err
	}

	for symbol, path := range c.ToolPaths {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("invalid tool path for %s: %w", symbol, err)
		}
		c.ToolPaths[symbol] = abs
	}

	return nil
}

func validateBuildOrder(order []report.Descriptor) error {
	seen := map[report.Descriptor]bool{}
	for _, d := range order {
		if seen[d] && !d.Symbol.AllowsDuplicates() {
			return fmt.Errorf("duplicate entry %s in build_order, only module and external_tool may repeat", d.Symbol)
		}
		seen[d] = true
	}
	return nil
}

// GetByKey resolves a dotted configuration path to its currently bound
// value, used by the change detector to compare a recorded
// ConfigurationDependency value against the live configuration.
func GetByKey(key string) interface{} {
	return viper.Get(key)
}
