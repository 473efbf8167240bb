// SPDX-License-Identifier: MPL-2.0

// Package prefs reads and writes preference keys. A Store treats domains,
// keys and values as opaque strings; only the declared value type is used,
// to pass the value in its typed form and to compare values.
package prefs
