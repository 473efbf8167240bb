// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"path/filepath"
	"strings"
)

// reservedNames are device names Windows refuses as file names, whatever the extension.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// IsReservedName reports whether the last element of path is a Windows
// device name such as NUL or com1.txt.
func IsReservedName(path string) bool {
	base := strings.ToUpper(filepath.Base(path))
	if i := strings.IndexByte(base, '.'); i != -1 {
		base = base[:i]
	}
	return reservedNames[base]
}
