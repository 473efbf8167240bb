// SPDX-License-Identifier: MPL-2.0

// Package testutil holds test doubles shared across packages.
package testutil
