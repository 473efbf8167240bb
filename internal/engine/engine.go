// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rigup/rigup/internal/prefs"
	"github.com/rigup/rigup/internal/runtime"
	"github.com/rigup/rigup/pkg/platform"
	"github.com/rigup/rigup/pkg/playbook"
)

type (
	// Config holds the engine's dependencies and run options.
	Config struct {
		// Runtimes runs probe and action scripts.
		Runtimes *runtime.Registry
		// DefaultRuntime is used by steps that do not set one.
		DefaultRuntime runtime.RuntimeType
		// Prefs is the preference store; only needed by preference steps.
		Prefs prefs.Store
		// PrefsErr explains a nil Prefs and is wrapped into preference step errors.
		PrefsErr error
		// Renderer renders templated step fields.
		Renderer *playbook.Renderer
		// Host is the platform steps are gated on.
		Host platform.Host
		// WorkDir is the working directory for scripts.
		WorkDir string
		// Stdin is handed to actions that may prompt, such as installers.
		Stdin io.Reader
		// Stdout and Stderr receive the output of actions.
		Stdout io.Writer
		Stderr io.Writer

		// DryRun probes only.
		DryRun bool
		// Verify re-probes after every action.
		Verify bool
		// StopOnFailure skips the remaining steps after a failed or partial step.
		StopOnFailure bool
		// Only restricts the run to the named steps; empty means all.
		Only []playbook.StepName

		Reporter Reporter
		Logger   *log.Logger
		// LookPath resolves commands for ensure_tool; nil searches the
		// playbook PATH, then the process PATH.
		LookPath func(string) (string, error)
		// Now is the clock; nil means time.Now.
		Now func() time.Time
	}

	// Engine executes steps.
	Engine struct {
		cfg Config
	}
)

// New returns an Engine. Missing optional dependencies get defaults.
func New(cfg Config) *Engine {
	if cfg.Runtimes == nil {
		cfg.Runtimes = runtime.NewDefaultRegistry()
	}
	if cfg.DefaultRuntime == "" {
		cfg.DefaultRuntime = runtime.RuntimeTypeNative
	}
	if cfg.Renderer == nil {
		cfg.Renderer = playbook.NewRenderer(playbook.TemplateData{}, nil)
	}
	if cfg.Host == "" {
		cfg.Host = platform.Current()
	}
	if cfg.Stdout == nil {
		cfg.Stdout = io.Discard
	}
	if cfg.Stderr == nil {
		cfg.Stderr = io.Discard
	}
	if cfg.Reporter == nil {
		cfg.Reporter = NopReporter{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	e := &Engine{cfg: cfg}
	if e.cfg.LookPath == nil {
		e.cfg.LookPath = e.lookPath
	}
	return e
}

// Run executes steps in the given order and returns the report. Cancellation
// stops the run before the next step or item; steps not reached are not recorded.
func (e *Engine) Run(ctx context.Context, name string, steps []*playbook.Step) *Report {
	rep := &Report{Playbook: name, Started: e.cfg.Now(), DryRun: e.cfg.DryRun}
	halted := false

	for _, step := range steps {
		if ctx.Err() != nil {
			rep.Interrupted = true
			break
		}

		var res StepResult
		if halted {
			res = StepResult{Name: step.Name, Kind: step.Kind(), Outcome: OutcomeSkipped, Detail: "not run: an earlier step failed"}
		} else {
			e.cfg.Reporter.StepStarted(step)
			res = e.runStep(ctx, step)
		}

		if ctx.Err() != nil && errors.Is(res.Err, ctx.Err()) {
			// the step was cut short; record what happened to it, then stop
			rep.Steps = append(rep.Steps, res)
			e.cfg.Reporter.StepFinished(res)
			rep.Interrupted = true
			break
		}

		rep.Steps = append(rep.Steps, res)
		e.cfg.Reporter.StepFinished(res)
		if e.cfg.StopOnFailure && res.Outcome.IsFailure() {
			halted = true
		}
	}

	rep.Finished = e.cfg.Now()
	return rep
}

func (e *Engine) runStep(ctx context.Context, step *playbook.Step) StepResult {
	start := e.cfg.Now()
	res := StepResult{Name: step.Name, Kind: step.Kind()}
	logger := e.cfg.Logger.With("step", step.Name, "kind", res.Kind)

	switch {
	case len(e.cfg.Only) > 0 && !slices.Contains(e.cfg.Only, step.Name):
		res.Outcome, res.Detail = OutcomeSkipped, "filtered out"
	case !step.RunsOn(e.cfg.Host):
		res.Outcome, res.Detail = OutcomeSkipped, fmt.Sprintf("not for %s", e.cfg.Host)
	default:
		built, err := e.build(step)
		if err != nil {
			res.Outcome, res.Err = OutcomeFailed, err
			break
		}
		switch a := built.(type) {
		case Action:
			e.runAction(ctx, logger, a, &res)
		case ItemAction:
			e.runItems(ctx, logger, a, &res)
		}
	}

	res.Duration = e.cfg.Now().Sub(start)
	if res.Err != nil {
		logger.Debug("step failed", "error", res.Err)
	} else {
		logger.Debug("step finished", "outcome", res.Outcome)
	}
	return res
}

func (e *Engine) runAction(ctx context.Context, logger *log.Logger, a Action, res *StepResult) {
	state, err := a.Probe(ctx)
	if err != nil {
		res.Outcome, res.Err = OutcomeFailed, fmt.Errorf("probe: %w", err)
		return
	}
	logger.Debug("probed", "satisfied", state.Satisfied, "unknown", state.Unknown, "detail", state.Detail)

	if o, done := e.decide(a.Policy(), state); done {
		res.Outcome, res.Detail = o, state.Detail
		return
	}

	if err := a.Apply(ctx); err != nil {
		res.Outcome, res.Err = OutcomeFailed, err
		return
	}

	if e.cfg.Verify && !state.Unknown {
		after, err := a.Probe(ctx)
		if err == nil && !after.Satisfied {
			err = fmt.Errorf("%w: %s", ErrVerificationFailed, after.Detail)
		}
		if err != nil {
			logger.Warn("verification failed", "error", err)
			res.Outcome, res.Err = OutcomeFailed, err
			return
		}
	}
	res.Outcome = OutcomeApplied
	if a.Policy() == Reassert && !state.Unknown {
		res.Detail = state.Detail
	}
}

func (e *Engine) runItems(ctx context.Context, logger *log.Logger, a ItemAction, res *StepResult) {
	items := a.Items()
	for i, label := range items {
		if err := ctx.Err(); err != nil {
			res.Outcome, res.Err = OutcomeFailed, err
			return
		}
		item := e.runItem(ctx, a, i, label)
		if item.Err != nil {
			logger.Warn("item failed", "item", label, "error", item.Err)
		}
		res.Items = append(res.Items, item)
	}
	res.Outcome, res.Detail = summarize(res.Items)
	if res.Outcome.IsFailure() {
		res.Err = fmt.Errorf("%d of %d items failed", len(res.FailedItems()), len(res.Items))
	}
}

func (e *Engine) runItem(ctx context.Context, a ItemAction, i int, label string) ItemResult {
	item := ItemResult{Item: label}
	state, err := a.ProbeItem(ctx, i)
	if err != nil {
		item.Outcome, item.Err = OutcomeFailed, fmt.Errorf("probe: %w", err)
		return item
	}
	if o, done := e.decide(a.Policy(), state); done {
		item.Outcome, item.Detail = o, state.Detail
		return item
	}

	if err := a.ApplyItem(ctx, i); err != nil {
		item.Outcome, item.Err = OutcomeFailed, err
		return item
	}
	if e.cfg.Verify && !state.Unknown {
		after, err := a.ProbeItem(ctx, i)
		if err == nil && !after.Satisfied {
			err = fmt.Errorf("%w: %s", ErrVerificationFailed, after.Detail)
		}
		if err != nil {
			item.Outcome, item.Err = OutcomeFailed, err
			return item
		}
	}
	item.Outcome = OutcomeApplied
	if a.Policy() == Reassert && !state.Unknown {
		item.Detail = state.Detail
	}
	return item
}

// decide returns the outcome of a probe that ends the step without acting.
func (e *Engine) decide(policy Policy, state State) (Outcome, bool) {
	if state.Satisfied && (policy == ExistenceGated || e.cfg.DryRun) {
		return OutcomeSatisfied, true
	}
	if e.cfg.DryRun {
		return OutcomePlanned, true
	}
	return "", false
}

// summarize folds item outcomes into a step outcome: failed when every item
// failed, partial when some did, otherwise the most significant of applied,
// planned and satisfied.
func summarize(items []ItemResult) (Outcome, string) {
	if len(items) == 0 {
		return OutcomeSatisfied, "no items"
	}
	counts := make(map[Outcome]int)
	for _, it := range items {
		counts[it.Outcome]++
	}
	failed := counts[OutcomeFailed]
	switch {
	case failed == len(items):
		return OutcomeFailed, fmt.Sprintf("all %d items failed", failed)
	case failed > 0:
		return OutcomePartial, fmt.Sprintf("%d of %d items failed", failed, len(items))
	case counts[OutcomeApplied] > 0:
		return OutcomeApplied, fmt.Sprintf("%d applied, %d already in place", counts[OutcomeApplied], counts[OutcomeSatisfied])
	case counts[OutcomePlanned] > 0:
		return OutcomePlanned, fmt.Sprintf("%d to apply, %d already in place", counts[OutcomePlanned], counts[OutcomeSatisfied])
	default:
		return OutcomeSatisfied, fmt.Sprintf("%d already in place", counts[OutcomeSatisfied])
	}
}
