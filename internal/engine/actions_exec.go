// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"
)

type (
	// ensureTool runs an installer unless the command is already on PATH.
	ensureTool struct {
		command  string
		install  string
		run      scriptRunner
		lookPath func(string) (string, error)
	}

	// packages installs each item with a shared command prefix. Without a
	// check command every item is installed on every run.
	packages struct {
		install string
		check   string
		items   []string
		run     scriptRunner
	}

	// shell is a free-form probe/action pair.
	shell struct {
		probe  string
		action string
		run    scriptRunner
	}
)

func (a *ensureTool) Policy() Policy { return ExistenceGated }

func (a *ensureTool) Probe(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	if path, err := a.lookPath(a.command); err == nil {
		return State{Satisfied: true, Detail: "found " + path}, nil
	}
	return State{Detail: a.command + " not found"}, nil
}

func (a *ensureTool) Apply(ctx context.Context) error {
	if err := a.run.run(ctx, a.install); err != nil {
		return fmt.Errorf("install %s: %w", a.command, err)
	}
	return nil
}

func (a *packages) Policy() Policy { return ExistenceGated }

func (a *packages) Items() []string { return a.items }

func (a *packages) ProbeItem(ctx context.Context, i int) (State, error) {
	if a.check == "" {
		return unknownState("no check command"), nil
	}
	script, err := withArg(a.check, a.items[i])
	if err != nil {
		return State{}, err
	}
	ok, code, err := a.run.check(ctx, script)
	if err != nil {
		return State{}, err
	}
	if ok {
		return State{Satisfied: true, Detail: "installed"}, nil
	}
	return State{Detail: "not installed (check exited " + code.String() + ")"}, nil
}

func (a *packages) ApplyItem(ctx context.Context, i int) error {
	script, err := withArg(a.install, a.items[i])
	if err != nil {
		return err
	}
	return a.run.run(ctx, script)
}

func (a *shell) Policy() Policy {
	if a.probe == "" {
		return Reassert
	}
	return ExistenceGated
}

func (a *shell) Probe(ctx context.Context) (State, error) {
	if a.probe == "" {
		return unknownState("no probe"), nil
	}
	ok, code, err := a.run.check(ctx, a.probe)
	if err != nil {
		return State{}, err
	}
	if ok {
		return State{Satisfied: true, Detail: "probe passed"}, nil
	}
	return State{Detail: "probe exited " + code.String()}, nil
}

func (a *shell) Apply(ctx context.Context) error {
	return a.run.run(ctx, a.action)
}
