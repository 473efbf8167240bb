// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{PlaybookNotFoundId, false, "No playbook found"},
		{PlaybookParseErrorId, false, "Failed to parse the playbook"},
		{WrongTerminalId, false, "Wrong terminal"},
		{DependencyCycleId, false, "dependency cycle"},
		{ShellNotFoundId, false, "Shell not found"},
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{PermissionDeniedId, false, "Permission denied"},
		{StepsFailedId, false, "did not complete"},
		{PromptUnansweredId, false, "no answer"},
		{CommandNotFoundId, false, "command was not found"},
		{Id(9999), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			got := Get(tt.id)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}
			if got == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if !strings.Contains(strings.ToLower(string(got.MarkdownMsg())), strings.ToLower(tt.contains)) {
				t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
			}
		})
	}
}

func TestValues_SortedAndComplete(t *testing.T) {
	all := Values()
	if len(all) != len(issues) {
		t.Fatalf("Values() returned %d issues, want %d", len(all), len(issues))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Id() >= all[i].Id() {
			t.Errorf("Values() not sorted at %d: %d >= %d", i, all[i-1].Id(), all[i].Id())
		}
	}
}

func TestIssue_Render(t *testing.T) {
	original := render
	defer func() { render = original }()
	render = func(in, _ string) (string, error) { return in, nil }

	i := &Issue{id: 42, mdMsg: "# Title", docLinks: []HttpLink{"https://example.com/docs"}}
	out, err := i.Render("dark")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "# Title") || !strings.Contains(out, "https://example.com/docs") {
		t.Errorf("Render() should include body and links, got %q", out)
	}
}

func TestIssue_LinksAreCopies(t *testing.T) {
	i := &Issue{docLinks: []HttpLink{"a"}, extLinks: []HttpLink{"b"}}

	docs := i.DocLinks()
	docs[0] = "changed"
	if i.DocLinks()[0] != "a" {
		t.Error("DocLinks() should return a copy")
	}

	ext := i.ExtLinks()
	ext[0] = "changed"
	if i.ExtLinks()[0] != "b" {
		t.Error("ExtLinks() should return a copy")
	}
}
