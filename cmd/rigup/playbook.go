// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rigup/rigup/internal/dag"
	"github.com/rigup/rigup/pkg/playbook"
)

func addFileFlag(cmd *cobra.Command, file *string) {
	cmd.Flags().StringVarP(file, "file", "f", "", "playbook file (default ./"+playbook.DefaultFileName+")")
}

func newValidateCommand(app *App) *cobra.Command {
	var file string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a playbook without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pb, err := app.loadPlaybook(file)
			if err != nil {
				return app.surface(err)
			}
			steps, err := orderSteps(pb)
			if err != nil {
				return app.surface(err)
			}
			printWarnings(app.stdout, pb)
			fmt.Fprintf(app.stdout, "%s %s is valid: %d steps, %d prompts\n",
				SuccessStyle.Render("✓"), CmdStyle.Render(pb.FilePath), len(steps), len(pb.Prompts))
			return nil
		},
	}
	addFileFlag(validateCmd, &file)
	return validateCmd
}

func newListCommand(app *App) *cobra.Command {
	var file string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List steps in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pb, err := app.loadPlaybook(file)
			if err != nil {
				return app.surface(err)
			}
			steps, err := orderSteps(pb)
			if err != nil {
				return app.surface(err)
			}

			fmt.Fprintln(app.stdout, TitleStyle.Render(pb.Name))
			if pb.Description != "" {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render(pb.Description))
			}
			fmt.Fprintln(app.stdout)
			for i, s := range steps {
				line := fmt.Sprintf("%3d. %-24s %s", i+1, s.Name, CmdStyle.Render(string(s.Kind())))
				if len(s.Platforms) > 0 {
					platforms := make([]string, len(s.Platforms))
					for j, p := range s.Platforms {
						platforms[j] = string(p)
					}
					line += " " + VerboseStyle.Render("["+strings.Join(platforms, ",")+"]")
				}
				if !s.RunsOn(app.host) {
					line += " " + WarningStyle.Render("(not for "+string(app.host)+")")
				}
				fmt.Fprintln(app.stdout, line)
				if s.Description != "" {
					fmt.Fprintf(app.stdout, "     %s\n", SubtitleStyle.Render(s.Description))
				}
			}
			return nil
		},
	}
	addFileFlag(listCmd, &file)
	return listCmd
}

func newGraphCommand(app *App) *cobra.Command {
	var file string
	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the step graph in DOT format",
		Long: `Print the step graph in Graphviz DOT format. Edges come from each
step's "after" list. Render it with, for example:

  rigup graph | dot -Tsvg > steps.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pb, err := app.loadPlaybook(file)
			if err != nil {
				return app.surface(err)
			}
			if _, err := orderSteps(pb); err != nil {
				return app.surface(err)
			}
			g, err := dag.FromPlaybook(pb)
			if err != nil {
				return app.surface(err)
			}
			return g.WriteDOT(app.stdout)
		},
	}
	addFileFlag(graphCmd, &file)
	return graphCmd
}

// printWarnings lists the playbook's non-fatal validation findings.
func printWarnings(w io.Writer, pb *playbook.Playbook) {
	for _, warn := range pb.Warnings {
		fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("! warning:"), warn.Error())
	}
}
