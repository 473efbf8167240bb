// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type (
	// ensureDir creates a directory unless it exists.
	ensureDir struct {
		path string
		mode fs.FileMode
	}

	// ensureFile writes a rendered template unless the file exists. An
	// existing file is never overwritten, whatever its content.
	ensureFile struct {
		path   string
		mode   fs.FileMode
		render func() (string, error)
		// open creates the file; nil means os.OpenFile.
		open func(name string, flag int, perm fs.FileMode) (io.WriteCloser, error)
	}

	// remove deletes each path that is present.
	remove struct {
		paths []string
	}
)

func (a *ensureDir) Policy() Policy { return ExistenceGated }

func (a *ensureDir) Probe(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	info, err := os.Stat(a.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return State{Detail: a.path + " is missing"}, nil
	case err != nil:
		return State{}, err
	case !info.IsDir():
		return State{}, fmt.Errorf("%s exists and is not a directory", a.path)
	}
	return State{Satisfied: true, Detail: a.path + " exists"}, nil
}

func (a *ensureDir) Apply(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(a.path, a.mode); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return nil
}

func (a *ensureFile) Policy() Policy { return ExistenceGated }

func (a *ensureFile) Probe(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	info, err := os.Lstat(a.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return State{Detail: a.path + " is missing"}, nil
	case err != nil:
		return State{}, err
	case info.IsDir():
		return State{}, fmt.Errorf("%s is a directory", a.path)
	}
	return State{Satisfied: true, Detail: a.path + " exists"}, nil
}

func (a *ensureFile) Apply(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := a.render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}
	open := a.open
	if open == nil {
		open = func(name string, flag int, perm fs.FileMode) (io.WriteCloser, error) {
			return os.OpenFile(name, flag, perm)
		}
	}
	// O_EXCL keeps a file created since the probe from being clobbered.
	f, err := open(a.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, a.mode)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	_, err = io.WriteString(f, content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// a truncated file would satisfy every later probe
		if rmErr := os.Remove(a.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return fmt.Errorf("write file: %w (leaving partial %s: %v)", err, a.path, rmErr)
		}
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (a *remove) Policy() Policy { return ExistenceGated }

func (a *remove) Items() []string { return a.paths }

func (a *remove) ProbeItem(ctx context.Context, i int) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	_, err := os.Lstat(a.paths[i])
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return State{Satisfied: true, Detail: "absent"}, nil
	case err != nil:
		return State{}, err
	}
	return State{Detail: "still present"}, nil
}

func (a *remove) ApplyItem(ctx context.Context, i int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(a.paths[i]); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}
