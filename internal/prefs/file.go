// SPDX-License-Identifier: MPL-2.0

package prefs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/rigup/rigup/pkg/playbook"
)

// FileStore keeps preferences in a TOML document, one table per domain:
//
//	['com.apple.dock']
//	autohide = true
//	tilesize = 36
type FileStore struct {
	path string
	mu   sync.Mutex
}

type document map[string]map[string]any

// NewFileStore returns a store backed by the TOML file at path. The file is
// created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Name returns "file".
func (s *FileStore) Name() string { return "file" }

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Read returns the stored value formatted as a string.
func (s *FileStore) Read(ctx context.Context, p playbook.Preference) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := doc[p.Domain][p.Key]
	if !ok {
		return "", false, nil
	}
	return formatValue(v), true, nil
}

// Write stores p.Value in its typed form and rewrites the file atomically.
func (s *FileStore) Write(ctx context.Context, p playbook.Preference) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	typed, err := p.Typed()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if doc[p.Domain] == nil {
		doc[p.Domain] = make(map[string]any)
	}
	doc[p.Domain][p.Key] = typed
	return s.save(doc)
}

func (s *FileStore) load() (document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(document), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", s.path, err)
	}
	doc := make(document, len(raw))
	for domain, v := range raw {
		table, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("parse preferences %s: %q is not a table", s.path, domain)
		}
		doc[domain] = table
	}
	return doc, nil
}

func (s *FileStore) save(doc document) error {
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }() // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}
