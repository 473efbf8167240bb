// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the full command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rigup",
		Short: "Idempotent machine provisioning",
		Long: TitleStyle.Render("rigup") + SubtitleStyle.Render(" - idempotent machine provisioning") + `

rigup reads a playbook of steps and brings the machine in line with it.
Every step probes the current state first and acts only when it differs,
so running a playbook twice changes nothing the second time.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Create a playbook with: rigup init
  2. Preview the changes with: rigup check
  3. Apply them with: rigup apply

` + SubtitleStyle.Render("Examples:") + `
  rigup apply                    Apply ./rigup.cue
  rigup apply --only packages    Apply a single step
  rigup apply --dry-run          Probe only, change nothing
  rigup history                  List recent runs`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $HOME/.config/rigup/config.cue)")

	rootCmd.AddCommand(
		newApplyCommand(app),
		newCheckCommand(app),
		newValidateCommand(app),
		newListCommand(app),
		newGraphCommand(app),
		newHistoryCommand(app),
		newInitCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Main runs the CLI with the process arguments and returns the exit code.
func Main() int {
	app := NewApp(Dependencies{})
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	return exitCode(err)
}

// Execute runs the CLI and exits the process. It is called by main.main().
func Execute() {
	os.Exit(Main())
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	// cobra reports bad flags and arguments as plain errors
	return exitUsage
}
