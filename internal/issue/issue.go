// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"

	"github.com/invowk/actx/pkg/actx"
	"github.com/invowk/actx/pkg/cueutil"
	"github.com/invowk/actx/pkg/loader"
)

type Id int

const (
	ConfigurationInvalidId Id = iota + 1
	DiscoveryFailedId
	ActionLoadFailedId
	ActionNotFoundId
	ConfigLoadFailedId
	ScriptExecutionFailedId
	CUEEvaluationFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	topic    string      // name accepted by `actx explain`
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

// Id returns the issue's identifier.
func (i *Issue) Id() Id {
	return i.id
}

// Topic is the name under which `actx explain` shows the issue.
func (i *Issue) Topic() string {
	return i.topic
}

// MarkdownMsg returns the page body without the links section.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns links into the actx documentation.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// ExtLinks returns links to third-party documentation.
func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the page with glamour, appending documentation links before
// external ones.
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.MarkdownMsg())
	if links := append(i.DocLinks(), i.ExtLinks()...); len(links) > 0 {
		md += "\n\n## See also\n"
		for _, link := range links {
			md += "\n- <" + string(link) + ">"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	configurationInvalidIssue = &Issue{
		id:    ConfigurationInvalidId,
		topic: "configuration",
		mdMsg: `
# Invalid location configuration!

A location source or filter could not be resolved. Nothing was scanned.

## Reference forms
- ` + "`actions`" + ` or ` + "`path:actions`" + `: a directory (source) or a predicate module (filter)
- ` + "`regexp:<expr>`" + `: an ECMAScript regular expression tested against the absolute file path
- ` + "`glob:<pattern>`" + `: a doublestar glob matched against the path below the location

## Things you can try:
- Check the field named in the error, e.g. ` + "`locations[1].filter`" + `
- Sources must be paths; only filters accept regexp and glob references
- Make sure predicate modules exist relative to ` + "`base_dir`" + `:
~~~
$ actx config show
~~~`,
		extLinks: []HttpLink{"https://github.com/dlclark/regexp2#compare-regexp-and-regexp2"},
	}

	discoveryFailedIssue = &Issue{
		id:    DiscoveryFailedId,
		topic: "discovery",
		mdMsg: `
# Failed to discover actions!

A location's base directory is missing or cannot be read.

## Things you can try:
- Check that every location exists and is a directory
- Relative locations resolve against ` + "`base_dir`" + `, or the working directory when it is unset
- List what is discovered with a single location:
~~~
$ actx list -l ./actions
~~~`,
	}

	actionLoadFailedIssue = &Issue{
		id:    ActionLoadFailedId,
		topic: "load",
		mdMsg: `
# Failed to load an action!

The action was discovered but its source file could not be turned into a callable.
Other actions are unaffected, and the next call retries the load.

## Supported modules
- ` + "`.sh`" + `: a shell script; its output is the result
- ` + "`.cue`" + `: a CUE module with a ` + "`result`" + ` field

## Things you can try:
- Check the file for syntax errors
- Exclude non-action files with a file filter:
~~~
$ actx list --exclude 'glob:**/*.md'
~~~`,
	}

	actionNotFoundIssue = &Issue{
		id:    ActionNotFoundId,
		topic: "not-found",
		mdMsg: `
# Action not found!

No domain holds an action under that key. Keys have the form ` + "`domain.name`" + `,
where the domain is the first directory below a location and the name is the file
name without its extension.

## Things you can try:
- List all discovered actions:
~~~
$ actx list
~~~
- Files directly inside a location belong to no domain and are skipped`,
	}

	configLoadFailedIssue = &Issue{
		id:    ConfigLoadFailedId,
		topic: "config",
		mdMsg: `
# Failed to load configuration!

The configuration file exists but could not be parsed or validated.

## Things you can try:
- Generate a fresh configuration:
~~~
$ actx config init
~~~
- Validate the file with the cue command-line tool
- Pass a different file with ` + "`--config`",
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	scriptExecutionFailedIssue = &Issue{
		id:    ScriptExecutionFailedId,
		topic: "script",
		mdMsg: `
# Action script failed!

A shell action exited with a non-zero status. Its standard error is shown above.

## Things you can try:
- Run the script directly to see its full output
- Scripts run in-process; commands named ` + "`domain.name`" + ` call other actions and
  ` + "`settle a.b c.d`" + ` runs several at once`,
		extLinks: []HttpLink{"https://github.com/mvdan/sh"},
	}

	cueEvaluationFailedIssue = &Issue{
		id:    CUEEvaluationFailedId,
		topic: "cue",
		mdMsg: `
# CUE evaluation failed!

A CUE action did not produce a concrete ` + "`result`" + `. The error names the file and
the field, e.g. ` + "`result.total: incomplete value int`" + `.

## Things you can try:
- Check that the call passes every argument the module reads from ` + "`args`" + `
- Give open fields a default with ` + "`*`" + `, e.g. ` + "`greeting: string | *\"hello\"`" + `
- Evaluate the module on its own:
~~~
$ cue eval -c actions/domain/name.cue
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	issues = map[Id]*Issue{
		configurationInvalidIssue.Id():  configurationInvalidIssue,
		discoveryFailedIssue.Id():       discoveryFailedIssue,
		actionLoadFailedIssue.Id():      actionLoadFailedIssue,
		actionNotFoundIssue.Id():        actionNotFoundIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		scriptExecutionFailedIssue.Id(): scriptExecutionFailedIssue,
		cueEvaluationFailedIssue.Id():   cueEvaluationFailedIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

// Get returns the issue with the given id, or nil for an unknown id.
func Get(id Id) *Issue {
	return issues[id]
}

// Lookup finds an issue by topic.
func Lookup(topic string) (*Issue, bool) {
	all := Values()
	idx := slices.IndexFunc(all, func(i *Issue) bool { return i.topic == topic })
	if idx < 0 {
		return nil, false
	}
	return all[idx], true
}

// Topics returns every topic ordered by id.
func Topics() []string {
	all := Values()
	topics := make([]string, len(all))
	for n, i := range all {
		topics[n] = i.topic
	}
	return topics
}

// ForError picks the issue that explains err. Script failures take priority
// over the load or not-found errors that may wrap them; CUE errors outside a
// load are evaluation failures of a call.
func ForError(err error) (*Issue, bool) {
	var (
		scriptErr *loader.ScriptError
		cueErr    *cueutil.Error
	)
	switch {
	case err == nil:
		return nil, false
	case errors.As(err, &scriptErr):
		return Get(ScriptExecutionFailedId), true
	case errors.Is(err, actx.ErrConfiguration):
		return Get(ConfigurationInvalidId), true
	case errors.Is(err, actx.ErrDiscovery):
		return Get(DiscoveryFailedId), true
	case errors.Is(err, actx.ErrLoad):
		return Get(ActionLoadFailedId), true
	case errors.Is(err, actx.ErrActionNotFound):
		return Get(ActionNotFoundId), true
	case errors.As(err, &cueErr):
		return Get(CUEEvaluationFailedId), true
	default:
		return nil, false
	}
}
