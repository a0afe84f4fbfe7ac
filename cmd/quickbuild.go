package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/insert-engine/internal/buildsignal"
	"github.com/Norgate-AV/insert-engine/internal/config"
	"github.com/Norgate-AV/insert-engine/internal/quickbuild"
)

// exitMustRebuild is returned to the shell when a quick build determines it
// cannot safely proceed; distinct from a generic failure so a wrapping
// full-build script can tell the two apart.
const exitMustRebuild = 2

var quickbuildCmd = &cobra.Command{
	Use:          "quickbuild <project-root>",
	Short:        "Incrementally re-insert changed resources into the project's ROM",
	Long:         `Quick-build loads the project's last build report, classifies every build-order entry as unchanged or needing reinsertion, and replays only what changed against a temporary copy of the output ROM.`,
	Args:         cobra.ExactArgs(1),
	RunE:         runQuickBuild,
	SilenceUsage: true,
}

func init() {
	quickbuildCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	quickbuildCmd.Flags().StringP("output", "o", "", "Output ROM path")
	quickbuildCmd.Flags().Int64P("rom-size", "r", 0, "Expected ROM size in bytes")
	quickbuildCmd.Flags().StringP("levels", "l", "", "Levels folder")
	quickbuildCmd.Flags().StringP("assembler", "a", "", "Assembler binary path")
}

func runQuickBuild(cmd *cobra.Command, args []string) error {
	projectRoot := args[0]

	loader := config.NewLoader()

	cfg, err := loader.LoadForQuickBuild(cmd, projectRoot)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Verbose {
		fmt.Printf("Project: %s\nOutput: %s\nAssembler: %s\n", cfg.ProjectRoot, cfg.OutputROM, cfg.AssemblerPath)
	}

	result, err := quickbuild.New().Run(cfg)
	if err != nil {
		var mustRebuild *buildsignal.MustRebuildError
		if errors.As(err, &mustRebuild) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Quick build cannot proceed: %s\n", mustRebuild.Reason)
			cmd.SilenceErrors = true
			return exitCode(exitMustRebuild)
		}

		return err
	}

	switch result {
	case quickbuild.Success:
		fmt.Println("Quick build complete")
	case quickbuild.NoWork:
		fmt.Println("Nothing changed, output ROM left untouched")
	}

	return nil
}

// exitCode wraps a process exit code so rootCmd.Execute's caller can map it
// onto os.Exit without cobra printing it as an error message.
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit code %d", int(e))
}
