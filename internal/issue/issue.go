// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	TargetNotEmptyId
	ExecutableNotFoundId
	UnknownToolId
	ToolConflictId
	MissingVariableId
	CommandFailedId
	InvalidProjectNameId
	PromptCancelledId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render formats the issue as terminal Markdown using the glamour style at
// stylePath ("dark", "light", "notty", "auto" or a JSON file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the configuration

The configuration file could not be read or does not match the schema.

## Things you can try
- Show where incipyt looks for its configuration:
~~~
$ incipyt config path
~~~
- Validate the file and see each offending field:
~~~
$ incipyt config validate
~~~
- Start again from the defaults:
~~~
$ incipyt config init --force
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/tour/"},
	}

	targetNotEmptyIssue = &Issue{
		id: TargetNotEmptyId,
		mdMsg: `
# The target folder is not empty

incipyt only scaffolds into a missing or empty folder so that existing work is
never overwritten. Editor and VCS metadata (` + "`.git`, `.idea`, `.vscode`" + `) is ignored.

## Things you can try
- Pick a new folder:
~~~
$ incipyt init my-project
~~~
- Ignore more files through the ` + "`ignore`" + ` list of the configuration.
- Keep existing files and add the missing ones:
~~~
$ incipyt init --force .
~~~`,
	}

	executableNotFoundIssue = &Issue{
		id: ExecutableNotFoundId,
		mdMsg: `
# A required program is missing

Some selected tools run external programs (` + "`git`, the Python interpreter" + `) and
at least one of them is not on your PATH.

## Things you can try
- Install the program, or point incipyt at another interpreter:
~~~
$ incipyt init --python python3.12 my-project
~~~
- Only write the files and skip every command:
~~~
$ incipyt init --no-commands my-project
~~~`,
	}

	unknownToolIssue = &Issue{
		id: UnknownToolId,
		mdMsg: `
# Unknown tool

One of the requested tools is not registered.

## Things you can try
- List the available tools per category:
~~~
$ incipyt tools
~~~`,
	}

	toolConflictIssue = &Issue{
		id: ToolConflictId,
		mdMsg: `
# Conflicting tools

The ` + "`vcs`, `env`, `build` and `license`" + ` categories accept a single tool.

## Things you can try
- Keep one tool per category, for example either ` + "`setuptools` or `hatch`" + `:
~~~
$ incipyt init --build hatch my-project
~~~`,
	}

	missingVariableIssue = &Issue{
		id: MissingVariableId,
		mdMsg: `
# A template variable has no value

Prompts are disabled (` + "`--no-input`" + ` or no terminal), so every variable used by
the selected tools needs a value up front.

## Things you can try
- Pass it on the command line:
~~~
$ incipyt init --var AUTHOR_NAME="Jane Doe" my-project
~~~
- Export it for every run:
~~~
$ export INCIPYT_VAR_AUTHOR_NAME="Jane Doe"
~~~
- Or store it in the ` + "`vars`" + ` section of the configuration.`,
	}

	commandFailedIssue = &Issue{
		id: CommandFailedId,
		mdMsg: `
# An external command failed

A tool command (` + "`git init`, `python -m venv`, `pip install`" + `) exited with an error.
Files written before the failure are kept.

## Things you can try
- Rerun with ` + "`--verbose`" + ` to see every command and its output.
- Preview the commands without running them:
~~~
$ incipyt init --dry-run my-project
~~~`,
	}

	invalidProjectNameIssue = &Issue{
		id: InvalidProjectNameId,
		mdMsg: `
# Invalid project name

A project name may only contain ASCII letters, digits, ` + "`.`, `_` and `-`" + `, and must start
and end with a letter or digit.

## Things you can try
~~~
$ incipyt init --var PROJECT_NAME=my-project .
~~~`,
		extLinks: []HttpLink{"https://packaging.python.org/en/latest/specifications/name-normalization/"},
	}

	promptCancelledIssue = &Issue{
		id: PromptCancelledId,
		mdMsg: `
# Cancelled

The prompt was interrupted, nothing was written.`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		targetNotEmptyIssue.Id():     targetNotEmptyIssue,
		executableNotFoundIssue.Id(): executableNotFoundIssue,
		unknownToolIssue.Id():        unknownToolIssue,
		toolConflictIssue.Id():       toolConflictIssue,
		missingVariableIssue.Id():    missingVariableIssue,
		commandFailedIssue.Id():      commandFailedIssue,
		invalidProjectNameIssue.Id(): invalidProjectNameIssue,
		promptCancelledIssue.Id():    promptCancelledIssue,
	}
)

// Values returns every known issue ordered by id.
func Values() []*Issue {
	values := maps.Values(issues)
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id - b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
