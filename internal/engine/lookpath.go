// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
)

// lookPath searches the PATH exported by the playbook env first, so a tool
// installed by an earlier step is found even though the process PATH predates it.
func (e *Engine) lookPath(command string) (string, error) {
	if strings.ContainsRune(command, filepath.Separator) {
		return executable(command)
	}
	if dirs, ok := e.cfg.Renderer.Data().Env["PATH"]; ok {
		for _, dir := range filepath.SplitList(dirs) {
			if dir == "" {
				continue
			}
			if p, err := executable(filepath.Join(dir, command)); err == nil {
				return p, nil
			}
		}
	}
	return exec.LookPath(command)
}

// executable returns path when it names an executable regular file.
func executable(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() || !isExecutable(info) {
		return "", fmt.Errorf("%s is not executable", path)
	}
	return path, nil
}

func isExecutable(info fs.FileInfo) bool {
	if goruntime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
