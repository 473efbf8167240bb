// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the rigup command tree. Handlers receive an *App and
// do their work through it; nothing here writes to os.Stdout directly.
package cmd
