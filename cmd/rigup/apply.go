// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rigup/rigup/internal/config"
	"github.com/rigup/rigup/internal/engine"
	"github.com/rigup/rigup/internal/history"
	"github.com/rigup/rigup/internal/issue"
	"github.com/rigup/rigup/internal/precheck"
	"github.com/rigup/rigup/internal/prefs"
	"github.com/rigup/rigup/internal/privilege"
	"github.com/rigup/rigup/internal/prompt"
	"github.com/rigup/rigup/internal/runlog"
	"github.com/rigup/rigup/internal/runtime"
	"github.com/rigup/rigup/internal/watch"
	"github.com/rigup/rigup/pkg/playbook"
)

// ErrUnknownStep is returned when --only names a step the playbook does not have.
var ErrUnknownStep = errors.New("unknown step")

// applyOptions are the flags shared by apply and check.
type applyOptions struct {
	file              string
	dryRun            bool
	only              []string
	answers           []string
	skipTerminalCheck bool
	noLog             bool
	watch             bool
}

func newApplyCommand(app *App) *cobra.Command {
	opts := &applyOptions{}
	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Bring the machine in line with the playbook",
		Long: `Run every step of the playbook in order. Each step probes the current
state and acts only when it differs; failures are recorded and the run
moves on to the next step.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.surface(runApply(cmd.Context(), app, opts))
		},
	}
	addApplyFlags(applyCmd, opts)
	applyCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "probe only; report what would change")
	applyCmd.Flags().BoolVar(&opts.watch, "watch", false, "re-apply whenever the playbook changes")
	return applyCmd
}

func newCheckCommand(app *App) *cobra.Command {
	opts := &applyOptions{dryRun: true}
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Report what apply would change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.surface(runApply(cmd.Context(), app, opts))
		},
	}
	addApplyFlags(checkCmd, opts)
	return checkCmd
}

func addApplyFlags(cmd *cobra.Command, opts *applyOptions) {
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "playbook to apply (default ./"+playbook.DefaultFileName+")")
	cmd.Flags().StringSliceVar(&opts.only, "only", nil, "run only the named steps (repeatable)")
	cmd.Flags().StringArrayVar(&opts.answers, "answer", nil, "answer a prompt as name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.skipTerminalCheck, "skip-terminal-check", false, "do not require the playbook's terminal")
	cmd.Flags().BoolVar(&opts.noLog, "no-log", false, "do not write a run log")
}

// parseAnswers turns name=value pairs into a map.
func parseAnswers(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --answer %q: expected name=value", pair)
		}
		out[strings.TrimSpace(name)] = value
	}
	return out, nil
}

func runApply(ctx context.Context, app *App, opts *applyOptions) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	if !opts.watch {
		rep, err := runOnce(ctx, app, cfg, opts)
		if err != nil {
			return err
		}
		return reportError(app, rep)
	}

	pb, err := app.loadPlaybook(opts.file)
	if err != nil {
		return err
	}
	// the first pass runs before watching; its failures do not stop the watch
	if _, err := runOnce(ctx, app, cfg, opts); err != nil {
		fmt.Fprintln(app.stderr, ErrorStyle.Render("✗ ")+formatErrorForDisplay(err, app.verbose))
	}

	w, err := watch.New(watch.Options{
		Dir:    filepath.Dir(pb.FilePath),
		Logger: app.newLogger(app.stderr),
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(app.stdout, "\n%s %s\n", TitleStyle.Render("Changed:"), strings.Join(changed, ", "))
			if _, err := runOnce(ctx, app, cfg, opts); err != nil {
				fmt.Fprintln(app.stderr, ErrorStyle.Render("✗ ")+formatErrorForDisplay(err, app.verbose))
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render("Watching"), CmdStyle.Render(w.Dir()))
	return w.Run(ctx)
}

// reportError turns an unsuccessful report into exit code 1.
func reportError(app *App, rep *engine.Report) error {
	if rep.Success() {
		return nil
	}
	var err error
	if rep.Interrupted {
		err = errors.New("run interrupted")
	} else {
		err = fmt.Errorf("%d of %d steps did not succeed", len(rep.Failures()), len(rep.Steps))
		renderServiceError(app.stderr, newServiceError(err, failureIssue(rep), ""), app.glamourStyle())
	}
	return &ExitError{Code: exitStepsFailed, Err: err}
}

// failureIssue picks the catalog entry that best explains the failed steps.
// A missing shell outranks a missing command, which outranks everything else.
func failureIssue(rep *engine.Report) issue.Id {
	id := issue.StepsFailedId
	for _, step := range rep.Failures() {
		errs := []error{step.Err}
		for _, item := range step.Items {
			errs = append(errs, item.Err)
		}
		for _, err := range errs {
			switch {
			case errors.Is(err, runtime.ErrShellNotFound):
				return issue.ShellNotFoundId
			case errors.Is(err, runtime.ErrCommandNotFound):
				id = issue.CommandNotFoundId
			}
		}
	}
	return id
}

// runOnce loads the playbook and runs it a single time.
func runOnce(ctx context.Context, app *App, cfg *config.Config, opts *applyOptions) (*engine.Report, error) {
	pb, err := app.loadPlaybook(opts.file)
	if err != nil {
		return nil, err
	}

	if !opts.skipTerminalCheck {
		if err := precheck.Terminal(pb.RequiresTerminal, app.getenv); err != nil {
			return nil, newServiceError(err, issue.WrongTerminalId, "")
		}
	}

	steps, err := orderSteps(pb)
	if err != nil {
		return nil, err
	}
	only := make([]playbook.StepName, 0, len(opts.only))
	for _, name := range opts.only {
		if _, ok := pb.Step(playbook.StepName(name)); !ok {
			return nil, fmt.Errorf("%w %q (see 'rigup list')", ErrUnknownStep, name)
		}
		only = append(only, playbook.StepName(name))
	}

	stdout, stderr := app.stdout, app.stderr
	asker := app.asker
	logPath := ""
	if !opts.noLog {
		dir, err := cfg.LogDirectory()
		if err != nil {
			return nil, err
		}
		runLog, err := runlog.Open(dir, app.now())
		if err != nil {
			return nil, err
		}
		defer runLog.Close()
		stdout, stderr = runLog.Tee(app.stdout), runLog.Tee(app.stderr)
		logPath = runLog.Path()
		if asker != nil {
			asker = &prompt.TranscriptAsker{Next: asker, Log: runLog}
		}
	}

	renderer, err := newRenderer(ctx, app, cfg, pb, opts, asker)
	if err != nil {
		return nil, err
	}
	logger := app.newLogger(stderr)

	registry := runtime.NewDefaultRegistry()
	store, prefsErr := openPrefs(cfg, app, registry)
	if prefsErr != nil {
		logger.Debug("preference store unavailable", "error", prefsErr)
	}

	eng := engine.New(engine.Config{
		Runtimes:       registry,
		DefaultRuntime: runtime.RuntimeType(cfg.DefaultRuntime),
		Prefs:          store,
		PrefsErr:       prefsErr,
		Renderer:       renderer,
		Host:           app.host,
		WorkDir:        filepath.Dir(pb.FilePath),
		Stdin:          app.stdin,
		Stdout:         stdout,
		Stderr:         stderr,
		DryRun:         opts.dryRun,
		Verify:         cfg.Engine.Verify,
		StopOnFailure:  cfg.Engine.StopOnFailure,
		Only:           only,
		Reporter:       newStyledReporter(stdout, app.verbose),
		Logger:         logger,
		Now:            app.now,
	})

	title := "Applying"
	if opts.dryRun {
		title = "Checking"
	}
	fmt.Fprintf(stdout, "%s %s\n", TitleStyle.Render(title), pb.Name)
	printWarnings(stdout, pb)

	rep, err := execute(ctx, eng, pb, steps, cfg, opts, logger)
	if err != nil {
		return nil, err
	}
	printSummary(stdout, rep, logPath)

	if cfg.History.Enabled {
		recordHistory(ctx, cfg, rep, logPath, logger)
	}
	return rep, nil
}

// execute runs the engine, alongside the privilege keep-alive when the
// playbook asks for it. The two share nothing but the context.
func execute(ctx context.Context, eng *engine.Engine, pb *playbook.Playbook, steps []*playbook.Step, cfg *config.Config, opts *applyOptions, logger *log.Logger) (*engine.Report, error) {
	if !pb.Privileged || opts.dryRun || !cfg.Privilege.KeepAlive || !privilege.Supported() {
		if pb.Privileged && !opts.dryRun {
			logger.Debug("privilege keep-alive disabled")
		}
		return eng.Run(ctx, pb.Name, steps), nil
	}

	keepAlive := privilege.New(cfg.Privilege.Interval, logger)
	if err := keepAlive.Prime(ctx); err != nil {
		return nil, newServiceError(err, issue.PermissionDeniedId, "")
	}

	var rep *engine.Report
	g, gctx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(gctx)
	defer stop()
	g.Go(func() error {
		return keepAlive.Run(runCtx)
	})
	g.Go(func() error {
		defer stop()
		rep = eng.Run(runCtx, pb.Name, steps)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rep, nil
}

// newRenderer resolves prompts and the playbook env into template data.
func newRenderer(ctx context.Context, app *App, cfg *config.Config, pb *playbook.Playbook, opts *applyOptions, asker prompt.Asker) (*playbook.Renderer, error) {
	flagAnswers, err := parseAnswers(opts.answers)
	if err != nil {
		return nil, err
	}
	preset := maps.Clone(cfg.Answers)
	if preset == nil {
		preset = map[string]string{}
	}
	maps.Copy(preset, flagAnswers)

	answers, err := prompt.Resolve(ctx, pb.Prompts, preset, asker)
	if err != nil {
		if errors.Is(err, prompt.ErrNoAnswer) {
			return nil, newServiceError(err, issue.PromptUnansweredId, "")
		}
		return nil, err
	}

	home := app.home()
	env, err := playbook.ExpandEnv(pb.Env, home, app.getenv)
	if err != nil {
		return nil, err
	}
	return playbook.NewRenderer(playbook.TemplateData{
		Answers: answers,
		Env:     env,
		Home:    home,
		User:    app.username(),
		OS:      string(app.host),
	}, app.getenv), nil
}

func openPrefs(cfg *config.Config, app *App, registry *runtime.Registry) (prefs.Store, error) {
	file, err := cfg.PreferencesFile()
	if err != nil {
		return nil, err
	}
	native, err := registry.Get(runtime.RuntimeTypeNative)
	if err != nil {
		return nil, err
	}
	return prefs.Open(prefs.Options{
		Kind:    cfg.Preferences.Store,
		File:    file,
		Host:    app.host,
		Runtime: native,
	})
}

// recordHistory stores the report. History is best effort: failures are logged.
func recordHistory(ctx context.Context, cfg *config.Config, rep *engine.Report, logPath string, logger *log.Logger) {
	path, err := cfg.HistoryPath()
	if err != nil {
		logger.Warn("run history unavailable", "error", err)
		return
	}
	// a canceled run is still worth recording
	ctx = context.WithoutCancel(ctx)
	store, err := history.Open(ctx, path)
	if err != nil {
		logger.Warn("run history unavailable", "error", err)
		return
	}
	defer store.Close()
	if _, err := store.Record(ctx, history.RunFromReport(rep, logPath)); err != nil {
		logger.Warn("failed to record run", "error", err)
	}
}
