// SPDX-License-Identifier: MPL-2.0

package playbook

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/rigup/rigup/pkg/cueutil"
)

// DefaultFileName is the playbook looked up in the working directory.
const DefaultFileName = "rigup.cue"

//go:embed playbook_schema.cue
var playbookSchema []byte

// Schema returns the CUE schema playbooks are validated against.
func Schema() []byte {
	return playbookSchema
}

// Parse reads and parses a playbook from the given path.
func Parse(path string) (*Playbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playbook at %s: %w", path, err)
	}

	return ParseBytes(data, path)
}

// ParseBytes parses playbook content from bytes: compile schema, compile the
// document, unify and decode, then run the Go-side checks CUE cannot express.
func ParseBytes(data []byte, path string) (*Playbook, error) {
	result, err := cueutil.ParseAndDecode[Playbook](
		playbookSchema,
		data,
		"#Playbook",
		cueutil.WithFilename(path),
	)
	if err != nil {
		return nil, err
	}

	pb := result.Value
	pb.FilePath = path

	errs := pb.Validate()
	if errs.HasErrors() {
		return nil, errs.Errors()
	}
	pb.Warnings = errs.Warnings()

	return pb, nil
}
