// SPDX-License-Identifier: MPL-2.0

// Package cueutil holds the CUE decoding flow shared by playbooks and the
// configuration file: compile the embedded schema, unify the user document
// with a root definition, validate, then decode into a Go value.
//
//	//go:embed playbook_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[Playbook](schema, data, "#Playbook",
//	    cueutil.WithFilename("playbook.cue"))
//
// Errors carry the offending field as a JSON-style path such as
// "steps[2].ensure_file.path".
package cueutil
