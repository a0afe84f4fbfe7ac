package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/insert-engine/internal/version"
)

var rootCmd = &cobra.Command{
	Use:          "spcbuild",
	Short:        "Incremental ROM-hacking build engine",
	Long:         `spcbuild re-inserts only the build-order entries a ROM hacking project's sources have changed, falling back to a full rebuild whenever a quick build can't be proven safe.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var code exitCode
		if errors.As(err, &code) {
			os.Exit(int(code))
		}

		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime)
	rootCmd.AddCommand(quickbuildCmd)
}
