// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rigup/rigup/internal/config"
	"github.com/rigup/rigup/internal/issue"
)

// newConfigCommand creates the `rigup config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage rigup configuration",
		Long: `Manage rigup configuration.

Configuration is stored in:
  - Linux: ~/.config/rigup/config.cue
  - macOS: ~/Library/Application Support/rigup/config.cue
  - Windows: %APPDATA%\rigup\config.cue

Any value can be overridden with a RIGUP_* environment variable,
for example RIGUP_ENGINE_STOP_ON_FAILURE=true.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.surface(showConfig(cmd.Context(), app))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.surface(initConfig(app))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration and state paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.surface(showConfigPath(cmd.Context(), app))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.surface(err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, path, err := app.Config.Resolve(ctx, config.LoadOptions{ConfigFilePath: app.configPath})
	if err != nil {
		return newServiceError(err, issue.ConfigLoadFailedId, "")
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	kv := func(indent, key, value string) {
		fmt.Fprintf(app.stdout, "%s%s: %s\n", indent, keyStyle.Render(key), valueStyle.Render(value))
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(app.stdout)
	if path != "" {
		fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(app.stdout)

	kv("", "default_runtime", cfg.DefaultRuntime.String())
	if dir, err := cfg.LogDirectory(); err == nil {
		kv("", "log_dir", dir)
	}

	fmt.Fprintf(app.stdout, "\n%s:\n", keyStyle.Render("engine"))
	kv("  ", "stop_on_failure", strconv.FormatBool(cfg.Engine.StopOnFailure))
	kv("  ", "verify", strconv.FormatBool(cfg.Engine.Verify))

	fmt.Fprintf(app.stdout, "\n%s:\n", keyStyle.Render("privilege"))
	kv("  ", "keepalive", strconv.FormatBool(cfg.Privilege.KeepAlive))
	kv("  ", "interval", cfg.Privilege.Interval.String())

	fmt.Fprintf(app.stdout, "\n%s:\n", keyStyle.Render("preferences"))
	kv("  ", "store", cfg.Preferences.Store.String())
	if file, err := cfg.PreferencesFile(); err == nil {
		kv("  ", "file", file)
	}

	fmt.Fprintf(app.stdout, "\n%s:\n", keyStyle.Render("history"))
	kv("  ", "enabled", strconv.FormatBool(cfg.History.Enabled))
	if p, err := cfg.HistoryPath(); err == nil {
		kv("  ", "path", p)
	}

	fmt.Fprintf(app.stdout, "\n%s:\n", keyStyle.Render("ui"))
	kv("  ", "color_scheme", cfg.UI.ColorScheme.String())
	kv("  ", "verbose", strconv.FormatBool(cfg.UI.Verbose))

	fmt.Fprintf(app.stdout, "\n%s:\n", keyStyle.Render("answers"))
	if len(cfg.Answers) == 0 {
		fmt.Fprintf(app.stdout, "  %s\n", SubtitleStyle.Render("(none configured)"))
	}
	for _, name := range sortedAnswerNames(cfg.Answers) {
		kv("  ", name, cfg.Answers[name])
	}
	return nil
}

func initConfig(app *App) error {
	created, err := config.CreateDefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	path, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s %s already exists\n", WarningStyle.Render("•"), path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(ctx context.Context, app *App) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	cfgFile, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(app.stdout, "Config file: %s\n", cfgFile)

	// state paths depend on the loaded config; show them when it loads
	if cfg, err := app.loadConfig(ctx); err == nil {
		if dir, err := cfg.LogDirectory(); err == nil {
			fmt.Fprintf(app.stdout, "Run logs: %s\n", dir)
		}
		if p, err := cfg.HistoryPath(); err == nil {
			fmt.Fprintf(app.stdout, "History: %s\n", p)
		}
	}
	return nil
}

func sortedAnswerNames(answers map[string]string) []string {
	return slices.Sorted(maps.Keys(answers))
}
