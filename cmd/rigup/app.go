// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/rigup/rigup/internal/config"
	"github.com/rigup/rigup/internal/dag"
	"github.com/rigup/rigup/internal/issue"
	"github.com/rigup/rigup/internal/prompt"
	"github.com/rigup/rigup/pkg/platform"
	"github.com/rigup/rigup/pkg/playbook"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer: every command handler receives an App and works through it.
	App struct {
		Config config.Provider

		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
		getenv func(string) string
		now    func() time.Time
		host   platform.Host
		asker  prompt.Asker

		// set by persistent flags
		verbose    bool
		configPath string

		cfg         *config.Config
		colorScheme config.ColorScheme
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		// Getenv reads the environment playbooks see.
		Getenv func(string) string
		Now    func() time.Time
		Host   platform.Host
		// Asker answers prompts. Nil asks interactively when stdin is a
		// terminal and otherwise falls back to defaults.
		Asker prompt.Asker
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Host == "" {
		deps.Host = platform.Current()
	}
	if deps.Asker == nil {
		if f, ok := deps.Stdin.(*os.File); ok && prompt.IsInteractive(f) {
			deps.Asker = &prompt.FormAsker{Input: f, Output: deps.Stderr}
		}
	}

	return &App{
		Config:      deps.Config,
		stdin:       deps.Stdin,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
		getenv:      deps.Getenv,
		now:         deps.Now,
		host:        deps.Host,
		asker:       deps.Asker,
		colorScheme: config.ColorSchemeDark,
	}
}

// loadConfig loads the configuration once per invocation.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		return nil, newServiceError(err, issue.ConfigLoadFailedId, "")
	}
	if cfg.UI.Verbose {
		a.verbose = true
	}
	a.colorScheme = cfg.UI.ColorScheme
	a.cfg = cfg
	return cfg, nil
}

// glamourStyle maps the configured color scheme to a glamour style name.
func (a *App) glamourStyle() string {
	switch a.colorScheme {
	case config.ColorSchemeLight:
		return "light"
	case config.ColorSchemeAuto:
		return "auto"
	default:
		return "dark"
	}
}

// newLogger returns the run logger writing to w. When w is not the terminal
// itself (a tee into the run log), the terminal's color profile is kept.
func (a *App) newLogger(w io.Writer) *log.Logger {
	level := log.InfoLevel
	if a.verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "rigup",
		Level:           level,
		ReportTimestamp: a.verbose,
		TimeFormat:      time.TimeOnly,
	})
	if f, ok := a.stderr.(*os.File); ok && w != a.stderr {
		logger.SetColorProfile(termenv.NewOutput(f).EnvColorProfile())
	}
	return logger
}

// surface renders any ServiceError carried by err and maps failures that are
// not already an ExitError to the usage exit code.
func (a *App) surface(err error) error {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		renderServiceError(a.stderr, svcErr, a.glamourStyle())
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return usageError(err)
}

// loadPlaybook resolves path (default rigup.cue in the working directory)
// and parses it.
func (a *App) loadPlaybook(path string) (*playbook.Playbook, error) {
	if path == "" {
		path = playbook.DefaultFileName
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newServiceError(issue.NewErrorContext().
				WithOperation("load playbook").
				WithResource(abs).
				WithSuggestion("Run 'rigup init' to create a sample playbook").
				WithSuggestion("Pass another playbook with -f <file>").
				Wrap(err).
				BuildError(), issue.PlaybookNotFoundId, "")
		}
		return nil, err
	}

	pb, err := playbook.Parse(abs)
	if err != nil {
		return nil, newServiceError(issue.NewErrorContext().
			WithOperation("parse playbook").
			WithResource(abs).
			WithSuggestion("Run 'rigup validate' to list every problem").
			Wrap(err).
			BuildError(), issue.PlaybookParseErrorId, "")
	}
	return pb, nil
}

// orderSteps returns the steps in execution order.
func orderSteps(pb *playbook.Playbook) ([]*playbook.Step, error) {
	steps, err := dag.Order(pb)
	if err == nil {
		return steps, nil
	}
	var cycle *dag.CycleError
	if errors.As(err, &cycle) {
		return nil, newServiceError(err, issue.DependencyCycleId, "")
	}
	return nil, newServiceError(err, issue.PlaybookParseErrorId, "")
}

func (a *App) home() string {
	if h := a.getenv("HOME"); h != "" {
		return h
	}
	h, _ := os.UserHomeDir()
	return h
}

func (a *App) username() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if u := a.getenv(key); u != "" {
			return u
		}
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}
