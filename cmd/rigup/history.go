// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rigup/rigup/internal/history"
)

func newHistoryCommand(app *App) *cobra.Command {
	var limit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.surface(withHistory(cmd.Context(), app, func(ctx context.Context, store *history.Store) error {
				runs, err := store.Recent(ctx, limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(app.stdout, SubtitleStyle.Render("No runs recorded yet."))
					return nil
				}
				for _, run := range runs {
					fmt.Fprintln(app.stdout, formatRun(run))
				}
				return nil
			}))
		},
	}
	historyCmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")

	historyCmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show the steps of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return app.surface(fmt.Errorf("invalid run id %q", args[0]))
			}
			return app.surface(withHistory(cmd.Context(), app, func(ctx context.Context, store *history.Store) error {
				run, err := store.Get(ctx, id)
				if err != nil {
					return err
				}
				showRun(app, run)
				return nil
			}))
		},
	})

	var keep int
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return app.surface(errors.New("--keep must not be negative"))
			}
			return app.surface(withHistory(cmd.Context(), app, func(ctx context.Context, store *history.Store) error {
				n, err := store.Prune(ctx, keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.stdout, "%s removed %d runs\n", SuccessStyle.Render("✓"), n)
				return nil
			}))
		},
	}
	pruneCmd.Flags().IntVar(&keep, "keep", 50, "number of runs to keep")
	historyCmd.AddCommand(pruneCmd)

	return historyCmd
}

// withHistory opens the configured history database for the duration of fn.
func withHistory(ctx context.Context, app *App, fn func(context.Context, *history.Store) error) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	path, err := cfg.HistoryPath()
	if err != nil {
		return err
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, store)
}

func formatRun(run history.Run) string {
	status := SuccessStyle.Render("ok")
	switch {
	case run.Interrupted:
		status = WarningStyle.Render("interrupted")
	case !run.Success:
		status = ErrorStyle.Render(fmt.Sprintf("%d failed", run.FailedCount))
	}
	mode := ""
	if run.DryRun {
		mode = " " + CmdStyle.Render("(dry run)")
	}
	return fmt.Sprintf("%4d  %s  %-20s %2d steps  %s%s",
		run.ID, run.Started.Local().Format(time.DateTime), run.Playbook, run.StepCount, status, mode)
}

func showRun(app *App, run history.Run) {
	fmt.Fprintln(app.stdout, formatRun(run))
	if run.LogPath != "" {
		fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render("Log:"), CmdStyle.Render(run.LogPath))
	}
	fmt.Fprintln(app.stdout)
	for _, step := range run.Steps {
		symbol, style := outcomeStyle(step.Outcome)
		line := fmt.Sprintf("%s %-24s %s", style.Render(symbol), step.Name, style.Render(string(step.Outcome)))
		if step.Detail != "" {
			line += " " + SubtitleStyle.Render(step.Detail)
		}
		fmt.Fprintln(app.stdout, line)
		if step.Error != "" {
			fmt.Fprintf(app.stdout, "    %s\n", ErrorStyle.Render(step.Error))
		}
		if len(step.FailedItems) > 0 {
			fmt.Fprintf(app.stdout, "    %s %s\n", WarningStyle.Render("failed items:"), strings.Join(step.FailedItems, ", "))
		}
	}
}
