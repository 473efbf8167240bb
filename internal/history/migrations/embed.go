// SPDX-License-Identifier: MPL-2.0

// Package migrations holds the run history schema.
package migrations

import "embed"

// FS contains the SQL migrations, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
