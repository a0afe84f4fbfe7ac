package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Loader handles configuration loading from various sources.
type Loader struct{}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadForQuickBuild loads configuration for a quick build of projectRoot.
func (l *Loader) LoadForQuickBuild(cmd *cobra.Command, projectRoot string) (*Config, error) {
	l.setupViperDefaults()
	l.loadGlobalConfig()
	l.loadProjectConfig(projectRoot)
	l.bindCommandFlags(cmd)

	viper.Set("project_root", projectRoot)

	return Load()
}

// setupViperDefaults sets up default values for viper.
func (l *Loader) setupViperDefaults() {
	viper.SetDefault("assembler_path", DefaultAssemblerPath)
	viper.SetDefault("verbose", DefaultVerbose)
}

// loadGlobalConfig loads the user-wide configuration file, if any, from
// the OS's standard configuration directory.
func (l *Loader) loadGlobalConfig() {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		return
	}

	globalDir := filepath.Join(configDir, "insert-engine")

	for _, ext := range []string{"yml", "yaml", "json", "toml"} {
		globalPath := filepath.Join(globalDir, "config."+ext)

		if _, err := os.Stat(globalPath); err == nil {
			viper.SetConfigFile(globalPath)

			if err := viper.ReadInConfig(); err == nil {
				break
			}
		}
	}
}

// loadProjectConfig loads the project-local configuration file found by
// walking up from projectRoot.
func (l *Loader) loadProjectConfig(projectRoot string) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return // silently ignore, config.Load() will handle validation
	}

	localPath := FindLocalConfig(absRoot)
	if localPath != "" {
		viper.SetConfigFile(localPath)
		_ = viper.ReadInConfig()
	}
}

// bindCommandFlags binds command flags to viper.
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	_ = viper.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
	_ = viper.BindPFlag("output_rom", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("rom_size", cmd.Flags().Lookup("rom-size"))
	_ = viper.BindPFlag("paths.levels", cmd.Flags().Lookup("levels"))
	_ = viper.BindPFlag("assembler_path", cmd.Flags().Lookup("assembler"))
}
