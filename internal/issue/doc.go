// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of markdown help
// pages that the CLI renders when a run cannot start or a step fails.
package issue
