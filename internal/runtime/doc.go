// SPDX-License-Identifier: MPL-2.0

// Package runtime runs the probe and action scripts of provisioning steps.
//
// Two runtime implementations are available:
//   - native: executes scripts using the host shell ($SHELL, bash, sh or PowerShell)
//   - virtual: executes scripts using an embedded shell interpreter (mvdan/sh)
//
// Both implement the Runtime interface. A Registry maps runtime types to
// implementations so the engine can pick one per step.
package runtime
