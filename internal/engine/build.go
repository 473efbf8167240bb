// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/rigup/rigup/internal/runtime"
	"github.com/rigup/rigup/pkg/playbook"
)

// build renders the step's templated fields and returns its Action or ItemAction.
func (e *Engine) build(step *playbook.Step) (any, error) {
	r := e.cfg.Renderer
	at := func(field string) string { return string(step.Name) + "." + field }

	switch {
	case step.EnsureDir != nil:
		path, err := r.Path(at("ensure_dir.path"), step.EnsureDir.Path)
		if err != nil {
			return nil, err
		}
		mode, err := step.EnsureDir.DirMode()
		if err != nil {
			return nil, err
		}
		return &ensureDir{path: path, mode: fs.FileMode(mode)}, nil

	case step.EnsureFile != nil:
		path, err := r.Path(at("ensure_file.path"), step.EnsureFile.Path)
		if err != nil {
			return nil, err
		}
		mode, err := step.EnsureFile.FileMode()
		if err != nil {
			return nil, err
		}
		return &ensureFile{
			path: path,
			mode: fs.FileMode(mode),
			render: func() (string, error) {
				return r.Text(at("ensure_file.template"), step.EnsureFile.Template)
			},
		}, nil

	case step.EnsureTool != nil:
		install, err := r.Text(at("ensure_tool.install"), step.EnsureTool.Install)
		if err != nil {
			return nil, err
		}
		return &ensureTool{
			command:  step.EnsureTool.Command,
			install:  install,
			run:      e.scripts(step),
			lookPath: e.cfg.LookPath,
		}, nil

	case step.Packages != nil:
		install, err := r.Text(at("packages.install"), step.Packages.Install)
		if err != nil {
			return nil, err
		}
		check, err := r.Text(at("packages.check"), step.Packages.Check)
		if err != nil {
			return nil, err
		}
		return &packages{install: install, check: check, items: step.Packages.Items, run: e.scripts(step)}, nil

	case step.Remove != nil:
		paths := make([]string, len(step.Remove.Paths))
		for i, p := range step.Remove.Paths {
			rendered, err := r.Path(fmt.Sprintf("%s #%d", at("remove.paths"), i+1), p)
			if err != nil {
				return nil, err
			}
			if err := checkRemovable(rendered, r.Data().Home); err != nil {
				return nil, err
			}
			paths[i] = rendered
		}
		return &remove{paths: paths}, nil

	case len(step.Preferences) > 0:
		if e.cfg.Prefs == nil {
			if e.cfg.PrefsErr != nil {
				return nil, fmt.Errorf("%w: %w", ErrNoPrefStore, e.cfg.PrefsErr)
			}
			return nil, ErrNoPrefStore
		}
		table := make([]playbook.Preference, len(step.Preferences))
		for i, p := range step.Preferences {
			value, err := r.Text(fmt.Sprintf("%s #%d", at("preferences"), i+1), p.Value)
			if err != nil {
				return nil, err
			}
			p.Value = value
			if _, err := p.Typed(); err != nil {
				return nil, fmt.Errorf("%s: %w", p.ID(), err)
			}
			table[i] = p
		}
		return &preferences{store: e.cfg.Prefs, table: table}, nil

	case step.Shell != nil:
		probe, err := r.Text(at("shell.probe"), step.Shell.Probe)
		if err != nil {
			return nil, err
		}
		action, err := r.Text(at("shell.action"), step.Shell.Action)
		if err != nil {
			return nil, err
		}
		return &shell{probe: probe, action: action, run: e.scripts(step)}, nil
	}
	return nil, errors.New("step has no action block")
}

func (e *Engine) scripts(step *playbook.Step) scriptRunner {
	typ := e.cfg.DefaultRuntime
	if step.Runtime != "" {
		typ = runtime.RuntimeType(step.Runtime)
	}
	return scriptRunner{
		registry: e.cfg.Runtimes,
		typ:      typ,
		env:      e.cfg.Renderer.Environ(),
		workDir:  e.cfg.WorkDir,
		io: runtime.IOContext{
			Stdin:  e.cfg.Stdin,
			Stdout: e.cfg.Stdout,
			Stderr: e.cfg.Stderr,
		},
	}
}

// checkRemovable refuses paths whose removal would wipe a root or the home directory.
func checkRemovable(path, home string) error {
	clean := filepath.Clean(path)
	if path == "" || clean == "." || clean == filepath.VolumeName(clean)+string(filepath.Separator) ||
		(home != "" && clean == filepath.Clean(home)) {
		return fmt.Errorf("refusing to remove %q", path)
	}
	return nil
}
