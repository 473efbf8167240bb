// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rigup/rigup/pkg/platform"
	"github.com/rigup/rigup/pkg/playbook"
)

//go:embed sample_playbook.cue
var samplePlaybook []byte

var (
	// ErrPlaybookExists is returned by init when the target file already exists.
	ErrPlaybookExists = errors.New("playbook already exists")
	// ErrReservedName is returned by init for names Windows cannot create.
	ErrReservedName = errors.New("reserved file name")
)

func newInitCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample playbook",
		Long: `Write a sample playbook to path (default ./` + playbook.DefaultFileName + `).
An existing file is never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := playbook.DefaultFileName
			if len(args) == 1 {
				path = args[0]
			}
			if err := writeSamplePlaybook(path); err != nil {
				return app.surface(err)
			}
			fmt.Fprintf(app.stdout, "%s wrote %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(path))
			fmt.Fprintf(app.stdout, "%s rigup check -f %s\n", SubtitleStyle.Render("Next:"), path)
			return nil
		},
	}
}

func writeSamplePlaybook(path string) error {
	if platform.IsReservedName(path) {
		return fmt.Errorf("%w: %s", ErrReservedName, path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrPlaybookExists, path)
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(samplePlaybook); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
