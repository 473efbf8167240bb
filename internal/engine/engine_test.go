// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/rigup/rigup/internal/runtime"
	"github.com/rigup/rigup/pkg/platform"
	"github.com/rigup/rigup/pkg/playbook"
)

type recordingReporter struct {
	started  []playbook.StepName
	finished []StepResult
}

func (r *recordingReporter) StepStarted(step *playbook.Step) {
	r.started = append(r.started, step.Name)
}

func (r *recordingReporter) StepFinished(result StepResult) {
	r.finished = append(r.finished, result)
}

func TestRun_EnsureDirIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "projects", "go")
	e := newTestEngine(&scriptedRuntime{}, nil)
	pb := steps(playbook.Step{Name: "projects", EnsureDir: &playbook.EnsureDir{Path: dir}})

	first := e.Run(context.Background(), "test", pb)
	if got := first.Steps[0].Outcome; got != OutcomeApplied {
		t.Fatalf("first run outcome = %s, want applied (err: %v)", got, first.Steps[0].Err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}

	second := e.Run(context.Background(), "test", pb)
	if got := second.Steps[0].Outcome; got != OutcomeSatisfied {
		t.Errorf("second run outcome = %s, want satisfied", got)
	}
	if !first.Success() || !second.Success() {
		t.Error("runs should succeed")
	}
}

func TestRun_EnsureDirOverFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "taken")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(&scriptedRuntime{}, nil)
	rep := e.Run(context.Background(), "test", steps(playbook.Step{Name: "dir", EnsureDir: &playbook.EnsureDir{Path: path}}))

	if got := rep.Steps[0].Outcome; got != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", got)
	}
}

func TestRun_EnsureFileNeverOverwrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".gitconfig")
	if err := os.WriteFile(path, []byte("mine\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(&scriptedRuntime{}, nil)
	// The template references an answer that was never given; an existing
	// file must not need it.
	rep := e.Run(context.Background(), "test", steps(playbook.Step{
		Name:       "gitconfig",
		EnsureFile: &playbook.EnsureFile{Path: path, Template: "email = {{ .Answers.email }}\n"},
	}))

	if got := rep.Steps[0].Outcome; got != OutcomeSatisfied {
		t.Fatalf("outcome = %s, want satisfied (err: %v)", got, rep.Steps[0].Err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "mine\n" {
		t.Errorf("file content = %q, want it untouched", data)
	}
}

func TestRun_EnsureFileRendersTemplate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", ".gitconfig")
	renderer := playbook.NewRenderer(playbook.TemplateData{
		Answers: map[string]string{"name": "Ada Lovelace", "email": "ada@example.com"},
	}, nil)
	e := newTestEngine(&scriptedRuntime{}, func(c *Config) { c.Renderer = renderer })

	pb := steps(playbook.Step{
		Name: "gitconfig",
		EnsureFile: &playbook.EnsureFile{
			Path:     path,
			Template: "[user]\n\tname = {{ .Answers.name }}\n\temail = {{ .Answers.email }}\n",
			Mode:     "0600",
		},
	})
	rep := e.Run(context.Background(), "test", pb)
	if got := rep.Steps[0].Outcome; got != OutcomeApplied {
		t.Fatalf("outcome = %s, want applied (err: %v)", got, rep.Steps[0].Err)
	}

	want := "[user]\n\tname = Ada Lovelace\n\temail = ada@example.com\n"
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != want {
		t.Errorf("content = %q, want %q", data, want)
	}

	again := e.Run(context.Background(), "test", pb)
	if got := again.Steps[0].Outcome; got != OutcomeSatisfied {
		t.Errorf("second run outcome = %s, want satisfied", got)
	}
}

func TestRun_EnsureFileMissingAnswer(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out")
	e := newTestEngine(&scriptedRuntime{}, nil)
	rep := e.Run(context.Background(), "test", steps(playbook.Step{
		Name:       "file",
		EnsureFile: &playbook.EnsureFile{Path: path, Template: "{{ .Answers.email }}"},
	}))

	if got := rep.Steps[0].Outcome; got != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", got)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("file should not exist after a render failure, stat err = %v", err)
	}
}

// failingFile writes through to a real file, then fails partway.
type failingFile struct {
	f         *os.File
	failWrite bool
	failClose bool
}

func (w *failingFile) Write(p []byte) (int, error) {
	if !w.failWrite {
		return w.f.Write(p)
	}
	n, _ := w.f.Write(p[:len(p)/2])
	return n, errors.New("no space left on device")
}

func (w *failingFile) Close() error {
	err := w.f.Close()
	if w.failClose {
		return errors.New("input/output error")
	}
	return err
}

func TestEnsureFileRemovesPartialWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		failWrite bool
		failClose bool
	}{
		{name: "write fails", failWrite: true},
		{name: "close fails", failClose: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), ".gitconfig")
			a := &ensureFile{
				path:   path,
				mode:   0o644,
				render: func() (string, error) { return "[user]\n\tname = Ada Lovelace\n", nil },
				open: func(name string, flag int, perm fs.FileMode) (io.WriteCloser, error) {
					f, err := os.OpenFile(name, flag, perm)
					if err != nil {
						return nil, err
					}
					return &failingFile{f: f, failWrite: tt.failWrite, failClose: tt.failClose}, nil
				},
			}

			if err := a.Apply(context.Background()); err == nil {
				t.Fatal("Apply() succeeded, want an error")
			}
			if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("partial file left behind, stat err = %v", err)
			}
			state, err := a.Probe(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if state.Satisfied {
				t.Error("probe reports satisfied after a failed write")
			}
		})
	}
}

func TestRun_EnsureTool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		present     bool
		installs    bool
		wantOutcome Outcome
		wantInstall int
		wantVerify  bool
	}{
		{name: "already on path", present: true, wantOutcome: OutcomeSatisfied},
		{name: "installed", installs: true, wantOutcome: OutcomeApplied, wantInstall: 1},
		{name: "installer does not provide command", wantOutcome: OutcomeFailed, wantInstall: 1, wantVerify: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			found := tt.present
			rt := &scriptedRuntime{onRun: func(script string) {
				if script == "install-brew" && tt.installs {
					found = true
				}
			}}
			e := newTestEngine(rt, func(c *Config) {
				c.LookPath = func(cmd string) (string, error) {
					if cmd == "brew" && found {
						return "/opt/homebrew/bin/brew", nil
					}
					return "", errors.New("not found")
				}
			})

			rep := e.Run(context.Background(), "test", steps(playbook.Step{
				Name:       "homebrew",
				EnsureTool: &playbook.EnsureTool{Command: "brew", Install: "install-brew"},
			}))
			res := rep.Steps[0]
			if res.Outcome != tt.wantOutcome {
				t.Errorf("outcome = %s, want %s (err: %v)", res.Outcome, tt.wantOutcome, res.Err)
			}
			if got := len(rt.ran("install-brew")); got != tt.wantInstall {
				t.Errorf("installer ran %d times, want %d", got, tt.wantInstall)
			}
			if got := errors.Is(res.Err, ErrVerificationFailed); got != tt.wantVerify {
				t.Errorf("errors.Is(err, ErrVerificationFailed) = %v, want %v (err: %v)", got, tt.wantVerify, res.Err)
			}
		})
	}
}

func TestRun_PackagesContinuePastFailures(t *testing.T) {
	t.Parallel()

	rt := &scriptedRuntime{exits: map[string]int{
		"brew list ripgrep":  1,
		"brew list bogus":    1,
		"brew list fd":       1,
		"brew install bogus": 1,
	}}
	rt.onRun = func(script string) {
		// a successful install makes the check pass
		if pkg, ok := strings.CutPrefix(script, "brew install "); ok && pkg != "bogus" {
			rt.exits["brew list "+pkg] = 0
		}
	}
	e := newTestEngine(rt, nil)

	rep := e.Run(context.Background(), "test", steps(
		playbook.Step{Name: "cli", Packages: &playbook.Packages{
			Install: "brew install",
			Check:   "brew list",
			Items:   []string{"jq", "ripgrep", "bogus", "fd"},
		}},
		playbook.Step{Name: "after", Shell: &playbook.Shell{Action: "echo done"}},
	))

	res := rep.Steps[0]
	if res.Outcome != OutcomePartial {
		t.Fatalf("outcome = %s, want partial", res.Outcome)
	}
	if got := res.FailedItems(); !slices.Equal(got, []string{"bogus"}) {
		t.Errorf("FailedItems() = %v, want [bogus]", got)
	}
	want := map[string]Outcome{"jq": OutcomeSatisfied, "ripgrep": OutcomeApplied, "bogus": OutcomeFailed, "fd": OutcomeApplied}
	for _, it := range res.Items {
		if it.Outcome != want[it.Item] {
			t.Errorf("item %s outcome = %s, want %s", it.Item, it.Outcome, want[it.Item])
		}
	}
	if got := rt.ran("brew install"); !slices.Equal(got, []string{"brew install ripgrep", "brew install bogus", "brew install fd"}) {
		t.Errorf("installs = %q", got)
	}
	if len(rep.Steps) != 2 || rep.Steps[1].Outcome != OutcomeApplied {
		t.Errorf("the step after a partial step should still run: %+v", rep.Steps)
	}
	if rep.Success() {
		t.Error("a partial step should make the run unsuccessful")
	}
}

func TestRun_PackagesAllFail(t *testing.T) {
	t.Parallel()

	rt := &scriptedRuntime{exits: map[string]int{"apt-get install -y a": 100, "apt-get install -y b": 100}}
	e := newTestEngine(rt, nil)
	rep := e.Run(context.Background(), "test", steps(playbook.Step{Name: "apt", Packages: &playbook.Packages{
		Install: "apt-get install -y",
		Items:   []string{"a", "b"},
	}}))

	res := rep.Steps[0]
	if res.Outcome != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", res.Outcome)
	}
	if res.Err == nil {
		t.Error("step error should summarize the failed items")
	}
}

func TestRun_PackagesWithoutCheckAlwaysInstall(t *testing.T) {
	t.Parallel()

	rt := &scriptedRuntime{}
	e := newTestEngine(rt, nil)
	pb := steps(playbook.Step{Name: "casks", Packages: &playbook.Packages{
		Install: "brew install --cask",
		Items:   []string{"iterm2", "visual studio code"},
	}})

	for range 2 {
		rep := e.Run(context.Background(), "test", pb)
		if got := rep.Steps[0].Outcome; got != OutcomeApplied {
			t.Fatalf("outcome = %s, want applied", got)
		}
	}
	want := []string{
		"brew install --cask iterm2", "brew install --cask 'visual studio code'",
		"brew install --cask iterm2", "brew install --cask 'visual studio code'",
	}
	if got := rt.ran("brew"); !slices.Equal(got, want) {
		t.Errorf("scripts = %q, want %q", got, want)
	}
}

func TestRun_Shell(t *testing.T) {
	t.Parallel()

	t.Run("without probe runs every time", func(t *testing.T) {
		t.Parallel()

		rt := &scriptedRuntime{}
		e := newTestEngine(rt, nil)
		pb := steps(playbook.Step{Name: "dock", Shell: &playbook.Shell{Action: "killall Dock"}})
		for range 3 {
			if got := e.Run(context.Background(), "test", pb).Steps[0].Outcome; got != OutcomeApplied {
				t.Fatalf("outcome = %s, want applied", got)
			}
		}
		if got := len(rt.ran("killall")); got != 3 {
			t.Errorf("action ran %d times, want 3", got)
		}
	})

	t.Run("passing probe skips action", func(t *testing.T) {
		t.Parallel()

		rt := &scriptedRuntime{}
		e := newTestEngine(rt, nil)
		rep := e.Run(context.Background(), "test", steps(playbook.Step{
			Name:  "shell",
			Shell: &playbook.Shell{Probe: "test -f ~/.zshrc", Action: "touch ~/.zshrc"},
		}))
		if got := rep.Steps[0].Outcome; got != OutcomeSatisfied {
			t.Errorf("outcome = %s, want satisfied", got)
		}
		if got := rt.ran("touch"); len(got) != 0 {
			t.Errorf("action should not run, ran %q", got)
		}
	})

	t.Run("failing action", func(t *testing.T) {
		t.Parallel()

		rt := &scriptedRuntime{exits: map[string]int{"probe": 1, "act": 3}}
		e := newTestEngine(rt, nil)
		rep := e.Run(context.Background(), "test", steps(playbook.Step{Name: "shell", Shell: &playbook.Shell{Probe: "probe", Action: "act"}}))
		if got := rep.Steps[0].Outcome; got != OutcomeFailed {
			t.Errorf("outcome = %s, want failed", got)
		}
		if errors.Is(rep.Steps[0].Err, runtime.ErrCommandNotFound) {
			t.Errorf("exit 3 classified as command not found: %v", rep.Steps[0].Err)
		}
	})

	t.Run("missing command", func(t *testing.T) {
		t.Parallel()

		rt := &scriptedRuntime{exits: map[string]int{"probe": 1, "brew install jq": 127}}
		e := newTestEngine(rt, nil)
		rep := e.Run(context.Background(), "test", steps(playbook.Step{Name: "jq", Shell: &playbook.Shell{Probe: "probe", Action: "brew install jq"}}))
		res := rep.Steps[0]
		if res.Outcome != OutcomeFailed {
			t.Errorf("outcome = %s, want failed", res.Outcome)
		}
		if !errors.Is(res.Err, runtime.ErrCommandNotFound) {
			t.Errorf("err = %v, want ErrCommandNotFound", res.Err)
		}
		if !strings.Contains(res.Err.Error(), "brew exited with status 127") {
			t.Errorf("err = %q", res.Err)
		}
	})
}

func TestRun_DryRunChangesNothing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	existing := filepath.Join(root, "present")
	if err := os.Mkdir(existing, 0o755); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(root, "missing")

	rt := &scriptedRuntime{exits: map[string]int{"brew list b": 1}}
	e := newTestEngine(rt, func(c *Config) { c.DryRun = true })
	rep := e.Run(context.Background(), "test", steps(
		playbook.Step{Name: "have", EnsureDir: &playbook.EnsureDir{Path: existing}},
		playbook.Step{Name: "need", EnsureDir: &playbook.EnsureDir{Path: missing}},
		playbook.Step{Name: "pkgs", Packages: &playbook.Packages{Install: "brew install", Check: "brew list", Items: []string{"a", "b"}}},
		playbook.Step{Name: "hook", Shell: &playbook.Shell{Action: "killall Dock"}},
	))

	want := []Outcome{OutcomeSatisfied, OutcomePlanned, OutcomePlanned, OutcomePlanned}
	for i, res := range rep.Steps {
		if res.Outcome != want[i] {
			t.Errorf("step %s outcome = %s, want %s", res.Name, res.Outcome, want[i])
		}
	}
	if !rep.DryRun {
		t.Error("report should be marked as a dry run")
	}
	if _, err := os.Stat(missing); !errors.Is(err, os.ErrNotExist) {
		t.Error("dry run created a directory")
	}
	if got := rt.ran("brew install"); len(got) != 0 {
		t.Errorf("dry run installed packages: %q", got)
	}
	if got := rt.ran("killall"); len(got) != 0 {
		t.Errorf("dry run ran an action: %q", got)
	}
}

func TestRun_StopOnFailure(t *testing.T) {
	t.Parallel()

	rt := &scriptedRuntime{exits: map[string]int{"boom": 1}}
	e := newTestEngine(rt, func(c *Config) { c.StopOnFailure = true })
	rep := e.Run(context.Background(), "test", steps(
		playbook.Step{Name: "first", Shell: &playbook.Shell{Action: "boom"}},
		playbook.Step{Name: "second", Shell: &playbook.Shell{Action: "echo second"}},
	))

	if len(rep.Steps) != 2 {
		t.Fatalf("got %d step results, want 2", len(rep.Steps))
	}
	if rep.Steps[1].Outcome != OutcomeSkipped {
		t.Errorf("second outcome = %s, want skipped", rep.Steps[1].Outcome)
	}
	if got := rt.ran("echo"); len(got) != 0 {
		t.Errorf("second step ran: %q", got)
	}
}

func TestRun_Filters(t *testing.T) {
	t.Parallel()

	rt := &scriptedRuntime{}
	rec := &recordingReporter{}
	e := newTestEngine(rt, func(c *Config) {
		c.Only = []playbook.StepName{"linux-only", "mac-only"}
		c.Reporter = rec
	})
	rep := e.Run(context.Background(), "test", steps(
		playbook.Step{Name: "unlisted", Shell: &playbook.Shell{Action: "echo unlisted"}},
		playbook.Step{Name: "linux-only", Platforms: []platform.Host{platform.HostLinux}, Shell: &playbook.Shell{Action: "echo linux"}},
		playbook.Step{Name: "mac-only", Platforms: []platform.Host{platform.HostMacOS}, Shell: &playbook.Shell{Action: "echo mac"}},
	))

	want := []Outcome{OutcomeSkipped, OutcomeApplied, OutcomeSkipped}
	for i, res := range rep.Steps {
		if res.Outcome != want[i] {
			t.Errorf("step %s outcome = %s, want %s", res.Name, res.Outcome, want[i])
		}
	}
	if got := rt.ran("echo"); !slices.Equal(got, []string{"echo linux"}) {
		t.Errorf("scripts = %q", got)
	}
	if len(rec.started) != 3 || len(rec.finished) != 3 {
		t.Errorf("reporter saw %d starts and %d finishes, want 3 each", len(rec.started), len(rec.finished))
	}
}

func TestRun_Cancellation(t *testing.T) {
	t.Parallel()

	t.Run("before start", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rt := &scriptedRuntime{}
		rep := newTestEngine(rt, nil).Run(ctx, "test", steps(playbook.Step{Name: "a", Shell: &playbook.Shell{Action: "echo a"}}))
		if !rep.Interrupted || len(rep.Steps) != 0 {
			t.Errorf("Interrupted = %v, steps = %d; want true, 0", rep.Interrupted, len(rep.Steps))
		}
		if rep.Success() {
			t.Error("an interrupted run is not a success")
		}
	})

	t.Run("between steps", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		rt := &scriptedRuntime{onRun: func(script string) {
			if script == "echo a" {
				cancel()
			}
		}}
		rep := newTestEngine(rt, nil).Run(ctx, "test", steps(
			playbook.Step{Name: "a", Shell: &playbook.Shell{Action: "echo a"}},
			playbook.Step{Name: "b", Shell: &playbook.Shell{Action: "echo b"}},
		))
		if !rep.Interrupted {
			t.Error("run should be marked interrupted")
		}
		if len(rep.Steps) != 1 || rep.Steps[0].Name != "a" {
			t.Errorf("steps = %+v, want only a", rep.Steps)
		}
		if got := rt.ran("echo b"); len(got) != 0 {
			t.Error("step b ran after cancellation")
		}
	})

	t.Run("between items", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		rt := &scriptedRuntime{onRun: func(script string) {
			if script == "install a" {
				cancel()
			}
		}}
		rep := newTestEngine(rt, nil).Run(ctx, "test", steps(playbook.Step{
			Name:     "pkgs",
			Packages: &playbook.Packages{Install: "install", Items: []string{"a", "b"}},
		}))
		if !rep.Interrupted || len(rep.Steps) != 1 {
			t.Fatalf("Interrupted = %v, steps = %d; want true, 1", rep.Interrupted, len(rep.Steps))
		}
		if !errors.Is(rep.Steps[0].Err, context.Canceled) {
			t.Errorf("step error = %v, want context.Canceled", rep.Steps[0].Err)
		}
		if got := rt.ran("install b"); len(got) != 0 {
			t.Error("item b ran after cancellation")
		}
	})
}

func TestRun_Remove(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	stale := filepath.Join(root, "stale")
	if err := os.MkdirAll(filepath.Join(stale, "deep"), 0o755); err != nil {
		t.Fatal(err)
	}
	gone := filepath.Join(root, "gone")

	e := newTestEngine(&scriptedRuntime{}, nil)
	rep := e.Run(context.Background(), "test", steps(playbook.Step{Name: "cleanup", Remove: &playbook.Remove{Paths: []string{stale, gone}}}))

	res := rep.Steps[0]
	if res.Outcome != OutcomeApplied {
		t.Fatalf("outcome = %s, want applied (err: %v)", res.Outcome, res.Err)
	}
	if res.Items[0].Outcome != OutcomeApplied || res.Items[1].Outcome != OutcomeSatisfied {
		t.Errorf("items = %+v", res.Items)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Error("stale directory still present")
	}
}

func TestRun_RemoveRefusesHome(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	renderer := playbook.NewRenderer(playbook.TemplateData{Home: home}, nil)
	e := newTestEngine(&scriptedRuntime{}, func(c *Config) { c.Renderer = renderer })
	rep := e.Run(context.Background(), "test", steps(playbook.Step{Name: "oops", Remove: &playbook.Remove{Paths: []string{"~"}}}))

	if got := rep.Steps[0].Outcome; got != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", got)
	}
	if _, err := os.Stat(home); err != nil {
		t.Errorf("home directory was touched: %v", err)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	items := func(outcomes ...Outcome) []ItemResult {
		out := make([]ItemResult, len(outcomes))
		for i, o := range outcomes {
			out[i] = ItemResult{Item: string(rune('a' + i)), Outcome: o}
		}
		return out
	}

	tests := []struct {
		name  string
		items []ItemResult
		want  Outcome
	}{
		{"empty", nil, OutcomeSatisfied},
		{"all satisfied", items(OutcomeSatisfied, OutcomeSatisfied), OutcomeSatisfied},
		{"some applied", items(OutcomeSatisfied, OutcomeApplied), OutcomeApplied},
		{"planned", items(OutcomePlanned, OutcomeSatisfied), OutcomePlanned},
		{"one failed", items(OutcomeApplied, OutcomeFailed), OutcomePartial},
		{"all failed", items(OutcomeFailed, OutcomeFailed), OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got, _ := summarize(tt.items); got != tt.want {
				t.Errorf("summarize() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCheckRemovable(t *testing.T) {
	t.Parallel()

	home := filepath.Join(string(filepath.Separator), "home", "ada")
	for _, path := range []string{"", ".", string(filepath.Separator), home, home + string(filepath.Separator)} {
		if err := checkRemovable(path, home); err == nil {
			t.Errorf("checkRemovable(%q) = nil, want error", path)
		}
	}
	if err := checkRemovable(filepath.Join(home, ".cache", "old"), home); err != nil {
		t.Errorf("checkRemovable(subdir) = %v", err)
	}
}
