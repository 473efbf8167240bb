// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/rigup/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/rigup/config.cue on macOS, %APPDATA%\rigup\config.cue
// on Windows), then ./config.cue. Every key can be overridden from the environment with
// the RIGUP_ prefix, dots replaced by underscores (RIGUP_ENGINE_STOP_ON_FAILURE=true).
//
// The file is validated against the embedded CUE schema (config_schema.cue) before it is
// merged over the built-in defaults.
package config
