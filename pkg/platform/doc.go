// SPDX-License-Identifier: MPL-2.0

// Package platform maps the Go runtime OS names onto the host names used in
// playbooks ("linux", "macos", "windows").
package platform
