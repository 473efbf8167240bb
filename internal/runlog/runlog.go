// SPDX-License-Identifier: MPL-2.0

// Package runlog writes the per-run log file. Everything the run prints is
// appended to it with terminal styling removed.
package runlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi/parser"
)

const (
	filePrefix = "rigup-"
	fileSuffix = ".log"
	// timeLayout is the timestamp embedded in log file names.
	timeLayout = "20060102-150405"
)

type (
	// Log is an append-only log file. It is safe for concurrent use.
	Log struct {
		mu     sync.Mutex
		f      *os.File
		path   string
		closed bool
		direct stripper
		buf    []byte
	}

	// stream is one producer feeding the log, with its own escape state.
	stream struct {
		log   *Log
		strip stripper
	}

	// stripper drops ANSI escape sequences from a byte stream. Parser state
	// is kept between calls, so a sequence split across writes is still removed.
	stripper struct {
		state parser.State
		need  int
	}
)

// FileName returns the log file name for a run started at now.
func FileName(now time.Time) string {
	return filePrefix + now.Format(timeLayout) + fileSuffix
}

// Open creates (or appends to) the log for a run started at now inside dir.
// The directory is created if needed; the file is readable only by its owner.
func Open(dir string, now time.Time) (*Log, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	l := &Log{f: f, path: path}
	if _, err := fmt.Fprintf(l, "# rigup run started %s\n", now.Format(time.RFC3339)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write run log: %w", err)
	}
	return l, nil
}

// Path returns the log file path.
func (l *Log) Path() string { return l.path }

// Write appends p without ANSI escape sequences. It reports len(p) on
// success so it can sit behind an io.MultiWriter next to a terminal.
func (l *Log) Write(p []byte) (int, error) {
	return l.write(&l.direct, p)
}

func (l *Log) write(st *stripper, p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, os.ErrClosed
	}
	l.buf = st.strip(l.buf[:0], p)
	if _, err := l.f.Write(l.buf); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Tee returns a writer that writes to both w and the log. Each tee strips
// escapes independently, so stdout and stderr never share a partial sequence.
func (l *Log) Tee(w io.Writer) io.Writer {
	return io.MultiWriter(w, &stream{log: l})
}

func (s *stream) Write(p []byte) (int, error) {
	return s.log.write(&s.strip, p)
}

// strip appends the printable bytes of p to dst.
func (s *stripper) strip(dst, p []byte) []byte {
	for _, b := range p {
		if s.state == parser.Utf8State {
			dst = append(dst, b)
			if s.need--; s.need > 0 {
				continue
			}
			s.state = parser.GroundState
			continue
		}

		next, action := parser.Table.Transition(s.state, b)
		switch action {
		case parser.CollectAction:
			if next == parser.Utf8State {
				s.need = utf8Len(b) - 1
				dst = append(dst, b)
			}
		case parser.PrintAction, parser.ExecuteAction:
			dst = append(dst, b)
		}
		s.state = next
	}
	return dst
}

// utf8Len returns the encoded length announced by a UTF-8 lead byte.
func utf8Len(b byte) int {
	switch {
	case b >= 0xF0:
		return 4
	case b >= 0xE0:
		return 3
	case b >= 0xC0:
		return 2
	default:
		return 1
	}
}

// Close flushes and closes the file. Closing twice is a no-op.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.f.Sync(); err != nil {
		_ = l.f.Close()
		return err
	}
	return l.f.Close()
}
