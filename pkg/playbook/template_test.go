// SPDX-License-Identifier: MPL-2.0

package playbook

import (
	"path/filepath"
	"strings"
	"testing"
)

func fakeEnv(vars map[string]string) func(string) string {
	return func(name string) string { return vars[name] }
}

func TestExpandPath(t *testing.T) {
	t.Parallel()

	home := filepath.FromSlash("/home/ada")
	lookup := fakeEnv(map[string]string{"XDG": "/xdg", "NAME": "ada"})

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/.config", filepath.Join(home, ".config")},
		{"$XDG/rigup", "/xdg/rigup"},
		{"${XDG}/${NAME}.conf", "/xdg/ada.conf"},
		{"/plain/path", "/plain/path"},
		{"$UNSET/x", "/x"},
		{"~nobody", "~nobody"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ExpandPath(tt.in, home, lookup)
			if err != nil {
				t.Fatalf("ExpandPath(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpandEnv_SortedKeysSeeEarlierValues(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"A_PREFIX": "/opt/homebrew",
		"B_BIN":    "$A_PREFIX/bin",
		"C_PATH":   "$B_BIN:$PATH",
	}
	got, err := ExpandEnv(env, "/home/ada", fakeEnv(map[string]string{"PATH": "/usr/bin"}))
	if err != nil {
		t.Fatalf("ExpandEnv() error: %v", err)
	}
	if got["B_BIN"] != "/opt/homebrew/bin" {
		t.Errorf("B_BIN = %q", got["B_BIN"])
	}
	if got["C_PATH"] != "/opt/homebrew/bin:/usr/bin" {
		t.Errorf("C_PATH = %q", got["C_PATH"])
	}
}

func TestRenderer_Text(t *testing.T) {
	t.Parallel()

	r := NewRenderer(TemplateData{
		Answers: map[string]string{"name": "Ada Lovelace", "email": "ada@example.com"},
		Env:     map[string]string{"EDITOR": "vim", "SHELL_NAME": ""},
		Home:    "/home/ada",
		User:    "ada",
		OS:      "macos",
	}, nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "no actions here", "no actions here"},
		{"answers", "name = {{ .Answers.name }}", "name = Ada Lovelace"},
		{"quote", "git config --global user.name {{ quote .Answers.name }}", "git config --global user.name 'Ada Lovelace'"},
		{"env", "editor={{ .Env.EDITOR }}", "editor=vim"},
		{"default", `{{ default "zsh" .Env.SHELL_NAME }}`, "zsh"},
		{"host", "{{ .User }}@{{ .OS }}:{{ .Home }}", "ada@macos:/home/ada"},
		{"upper", "{{ upper .User }}", "ADA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.Text(tt.name, tt.in)
			if err != nil {
				t.Fatalf("Text() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderer_MissingAnswerIsAnError(t *testing.T) {
	t.Parallel()

	r := NewRenderer(TemplateData{}, nil)
	_, err := r.Text("gitconfig", "{{ .Answers.email }}")
	if err == nil {
		t.Fatal("expected error for missing answer")
	}
	if !strings.Contains(err.Error(), "gitconfig") {
		t.Errorf("error should name the template, got %v", err)
	}
}

func TestRenderer_Path(t *testing.T) {
	t.Parallel()

	r := NewRenderer(TemplateData{
		Answers: map[string]string{"project": "rigup"},
		Env:     map[string]string{"CODE": "~/code"},
		Home:    "/home/ada",
	}, fakeEnv(map[string]string{"SUB": "cache"}))

	got, err := r.Path("dir", "$CODE/{{ .Answers.project }}")
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	// playbook env values are expanded once, when the run starts
	if got != "~/code/rigup" {
		t.Errorf("Path() = %q, want ~/code/rigup", got)
	}

	got, err = r.Path("sub", "~/x/$SUB")
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	if got != filepath.Join("/home/ada", "x", "cache") {
		t.Errorf("Path() = %q", got)
	}

	env := r.Environ()
	if len(env) != 1 || env[0] != "CODE=~/code" {
		t.Errorf("Environ() = %v", env)
	}
}

func TestCheckTemplate(t *testing.T) {
	t.Parallel()

	if err := CheckTemplate("{{ quote .Answers.name }}"); err != nil {
		t.Errorf("valid template rejected: %v", err)
	}
	if err := CheckTemplate("{{ nosuchfunc .X }}"); err == nil {
		t.Error("unknown function should be rejected")
	}
	if err := CheckTemplate("literal ${HOME}"); err != nil {
		t.Errorf("literal text rejected: %v", err)
	}
}
