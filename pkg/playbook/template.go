// SPDX-License-Identifier: MPL-2.0

package playbook

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

type (
	// TemplateData is what step templates see: {{ .Answers.email }},
	// {{ .Env.BREW_PREFIX }}, {{ .Home }}, {{ .User }}, {{ .OS }}.
	TemplateData struct {
		Answers map[string]string
		Env     map[string]string
		Home    string
		User    string
		OS      string
	}

	// Renderer renders the templated fields of a playbook for one run.
	Renderer struct {
		data   TemplateData
		getenv func(string) string
	}
)

var templateFuncs = template.FuncMap{
	// quote makes a value safe to splice into a shell script.
	"quote": func(s string) (string, error) {
		return syntax.Quote(s, syntax.LangBash)
	},
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"default": func(def, s string) string {
		if s == "" {
			return def
		}
		return s
	},
}

// CheckTemplate parses text without executing it.
func CheckTemplate(text string) error {
	if !hasTemplateAction(text) {
		return nil
	}
	if _, err := template.New("check").Funcs(templateFuncs).Parse(text); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	return nil
}

func hasTemplateAction(text string) bool {
	return strings.Contains(text, "{{")
}

// ExpandEnv resolves the playbook env block. Keys are expanded in sorted
// order; a value may reference process variables and keys that sort before it.
func ExpandEnv(env map[string]string, home string, getenv func(string) string) (map[string]string, error) {
	out := make(map[string]string, len(env))
	lookup := func(name string) string {
		if v, ok := out[name]; ok {
			return v
		}
		return getenv(name)
	}
	for _, key := range slices.Sorted(maps.Keys(env)) {
		v, err := ExpandPath(env[key], home, lookup)
		if err != nil {
			return nil, fmt.Errorf("env %s: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}

// ExpandPath expands a leading "~" to home and $VAR / ${VAR} references
// using lookup. Unset variables expand to the empty string.
func ExpandPath(s, home string, lookup func(string) string) (string, error) {
	if s == "~" {
		s = home
	} else if strings.HasPrefix(s, "~/") {
		s = filepath.Join(home, s[2:])
	}
	if !strings.ContainsAny(s, "$`") {
		return s, nil
	}

	word, err := syntax.NewParser().Document(strings.NewReader(s))
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", s, err)
	}
	cfg := &expand.Config{Env: expand.FuncEnviron(lookup)}
	out, err := expand.Document(cfg, word)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", s, err)
	}
	return out, nil
}

// NewRenderer creates a Renderer. getenv is consulted for variables the
// playbook env does not define.
func NewRenderer(data TemplateData, getenv func(string) string) *Renderer {
	if data.Answers == nil {
		data.Answers = map[string]string{}
	}
	if data.Env == nil {
		data.Env = map[string]string{}
	}
	return &Renderer{data: data, getenv: getenv}
}

// Data returns the template data.
func (r *Renderer) Data() TemplateData {
	return r.data
}

// Text executes text as a template. Referencing a missing answer is an error.
func (r *Renderer) Text(name, text string) (string, error) {
	if !hasTemplateAction(text) {
		return text, nil
	}
	tmpl, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("%s: invalid template: %w", name, err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, r.data); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return sb.String(), nil
}

// Path renders text and then expands "~" and environment references.
func (r *Renderer) Path(name, text string) (string, error) {
	rendered, err := r.Text(name, text)
	if err != nil {
		return "", err
	}
	out, err := ExpandPath(rendered, r.data.Home, r.lookup)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Environ returns the playbook env as KEY=VALUE pairs, sorted by key.
func (r *Renderer) Environ() []string {
	out := make([]string, 0, len(r.data.Env))
	for _, k := range slices.Sorted(maps.Keys(r.data.Env)) {
		out = append(out, k+"="+r.data.Env[k])
	}
	return out
}

func (r *Renderer) lookup(name string) string {
	if v, ok := r.data.Env[name]; ok {
		return v
	}
	if r.getenv == nil {
		return ""
	}
	return r.getenv(name)
}
