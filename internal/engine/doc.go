// SPDX-License-Identifier: MPL-2.0

// Package engine runs provisioning steps.
//
// Every step follows the same shape: probe the current state, act only when
// the state diverges from what the step declares, then verify and record the
// outcome. How "diverges" is decided depends on the step's policy:
//
//   - ExistenceGated actions (ensure_dir, ensure_file, ensure_tool, packages,
//     remove, shell with a probe) do nothing when the probe says the effect is
//     already in place.
//   - Reassert actions (preferences, shell without a probe) run every time;
//     their probe only reports the previous state.
//
// Actions over several items (packages, remove, preferences) process items one
// at a time. A failing item is recorded and the loop moves on, so one bad
// package never blocks the rest. Likewise a failing step never stops the run
// unless Config.StopOnFailure is set.
package engine
