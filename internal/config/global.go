// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride and stateDirOverride allow tests to override the
// platform directories. os.UserHomeDir() doesn't reliably respect HOME on
// every platform (e.g., macOS in CI).
var (
	configDirOverride string
	stateDirOverride  string
)

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
	stateDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// SetStateDirOverride sets a custom state directory path.
func SetStateDirOverride(dir string) {
	stateDirOverride = dir
}
