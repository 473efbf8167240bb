// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog entry.
//
//nolint:revive // Id matches the catalog naming used across the CLI
type Id int

const (
	PlaybookNotFoundId Id = iota + 1
	PlaybookParseErrorId
	WrongTerminalId
	DependencyCycleId
	ShellNotFoundId
	ConfigLoadFailedId
	PermissionDeniedId
	StepsFailedId
	PromptUnansweredId
	CommandNotFoundId
)

type (
	// MarkdownMsg is catalog text rendered with glamour.
	MarkdownMsg string

	// HttpLink is a documentation or external URL.
	//
	//nolint:revive // HttpLink matches the catalog naming used across the CLI
	HttpLink string

	// Issue is one catalog entry.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

// Id returns the catalog id.
func (i *Issue) Id() Id { return i.id }

// MarkdownMsg returns the raw markdown.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

// ExtLinks returns a copy of the external links.
func (i *Issue) ExtLinks() []HttpLink { return slices.Clone(i.extLinks) }

// Render renders the entry for a terminal using the given glamour style
// ("dark", "light", "auto" or a JSON style path).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	playbookNotFoundIssue = &Issue{
		id: PlaybookNotFoundId,
		mdMsg: `
# No playbook found!

rigup looks for ` + "`playbook.cue`" + ` in the current directory unless ` + "`-f`" + ` is given.

## Things you can try
- Create a starter playbook:
~~~
$ rigup init
~~~
- Point at an existing one:
~~~
$ rigup apply -f ~/dotfiles/playbook.cue
~~~`,
	}

	playbookParseErrorIssue = &Issue{
		id: PlaybookParseErrorId,
		mdMsg: `
# Failed to parse the playbook!

The playbook has CUE syntax errors or does not match the schema.

## Common issues
- A step with no action block, or with more than one
- Two steps with the same name
- An ` + "`after`" + ` entry naming a step that does not exist
- A preference value that does not parse as its declared ` + "`type`" + `

## Things you can try
~~~
$ rigup validate -f playbook.cue
~~~`,
	}

	wrongTerminalIssue = &Issue{
		id: WrongTerminalId,
		mdMsg: `
# Wrong terminal application!

This playbook declares ` + "`requires_terminal`" + ` and refuses to run anywhere else,
because some of its steps restart or reconfigure other terminal applications.

## Things you can try
- Open the designated terminal application and run rigup from there
- If you know what you are doing, bypass the check:
~~~
$ rigup apply --skip-terminal-check
~~~`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Step dependency cycle!

The ` + "`after`" + ` entries of some steps form a loop, so no order satisfies them.

## Things you can try
- Inspect the graph:
~~~
$ rigup graph | dot -Tsvg > steps.svg
~~~
- Remove one ` + "`after`" + ` entry from the loop`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

The ` + "`native`" + ` runtime needs a shell: $SHELL, bash or sh.

## Things you can try
- Set the SHELL environment variable
- Use the built-in interpreter:
~~~cue
default_runtime: "virtual"
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try
- Check the file for CUE syntax errors
- Print the effective configuration:
~~~
$ rigup config show
~~~
- Regenerate the defaults:
~~~
$ rigup config init
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

A step tried to write somewhere your user cannot.

## Things you can try
- Set ` + "`privileged: true`" + ` in the playbook so rigup keeps sudo credentials fresh
- Check ownership of the target path`,
	}

	stepsFailedIssue = &Issue{
		id: StepsFailedId,
		mdMsg: `
# Some steps did not complete!

Failed steps leave the machine partially configured. Every other step still ran.
Steps are idempotent, so running the playbook again only retries what is missing.

## Things you can try
- Read the run log printed above for the failing command output
- Re-run only the failing step:
~~~
$ rigup apply --only <step>
~~~`,
	}

	commandNotFoundIssue = &Issue{
		id: CommandNotFoundId,
		mdMsg: `
# A command was not found!

An action called a program that is not installed or not on PATH.

## Things you can try
- Install the tool in an earlier step and list that step under ` + "`after`" + `
- Extend PATH in the playbook env:
~~~cue
env: { PATH: "/opt/homebrew/bin:$PATH" }
~~~
- Check the run log for the exact command`,
	}

	promptUnansweredIssue = &Issue{
		id: PromptUnansweredId,
		mdMsg: `
# A prompt has no answer!

rigup is not attached to a terminal and the playbook prompt has no default.

## Things you can try
~~~
$ rigup apply --answer name="Ada Lovelace" --answer email=ada@example.com
~~~
- Or set answers in the config file:
~~~cue
answers: { name: "Ada Lovelace" }
~~~`,
	}

	issues = map[Id]*Issue{
		playbookNotFoundIssue.Id():   playbookNotFoundIssue,
		playbookParseErrorIssue.Id(): playbookParseErrorIssue,
		wrongTerminalIssue.Id():      wrongTerminalIssue,
		dependencyCycleIssue.Id():    dependencyCycleIssue,
		shellNotFoundIssue.Id():      shellNotFoundIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		permissionDeniedIssue.Id():   permissionDeniedIssue,
		stepsFailedIssue.Id():        stepsFailedIssue,
		promptUnansweredIssue.Id():   promptUnansweredIssue,
		commandNotFoundIssue.Id():    commandNotFoundIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
