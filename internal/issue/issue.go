// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

const (
	ConfigLoadFailedId Id = iota + 1
	HostNotFoundId
	GitNotFoundId
	GitCommandFailedId
	DirtyWorktreeId
	TargetExistsId
	DroneNotFoundId
	BatchOnlyId
	EmacsNotFoundId
	MakeinfoNotFoundId
	BuildStepFailedId
	InvalidDroneNameId
	RemoteUnreachableId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink
		extLinks []HttpLink // external links that might be useful for the user
	}
)

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

// Render renders the issue page with the glamour style at stylePath
// ("dark", "light", "notty", "auto" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
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
# Failed to load configuration!

The droneyard configuration file could not be read or did not match the schema.

## Things you can try:
- Print the configuration file location:
~~~
$ droneyard config path
~~~
- Compare your file with the defaults:
~~~
$ droneyard config show --defaults
~~~
- Check for CUE syntax errors near the reported field`,
	}

	hostNotFoundIssue = &Issue{
		id: HostNotFoundId,
		mdMsg: `
# Not inside a host repository!

Drones live inside a git repository (the host), usually your Emacs
configuration directory. The current directory is not part of one.

## Things you can try:
- Change into your configuration repository:
~~~
$ cd ~/.config/emacs
~~~
- Or point droneyard at it:
~~~
$ droneyard --host ~/.config/emacs list
~~~
- Set 'host_dir' in your config file`,
	}

	gitNotFoundIssue = &Issue{
		id: GitNotFoundId,
		mdMsg: `
# git not found!

droneyard drives the git binary for every registry and lifecycle operation.

## Things you can try:
- Install git and make sure it is on your PATH
- Set 'git_binary' in your config file to its full path`,
		extLinks: []HttpLink{"https://git-scm.com/downloads"},
	}

	gitCommandFailedIssue = &Issue{
		id: GitCommandFailedId,
		mdMsg: `
# A git command failed!

The operation stopped at the first failing git call. Nothing was rolled
back, so the registry file or the drone's worktree may be half-changed.

## Things you can try:
- Inspect the state of the host repository:
~~~
$ git status
$ git submodule status
~~~
- Fix or revert the partial change, then run the operation again`,
	}

	dirtyWorktreeIssue = &Issue{
		id: DirtyWorktreeId,
		mdMsg: `
# The drone has uncommitted changes!

Removing it would lose work that exists only in its worktree.

## Things you can try:
- Review the changes inside the drone:
~~~
$ git -C lib/<drone> status
~~~
- Commit, stash or discard them, then remove the drone again`,
	}

	targetExistsIssue = &Issue{
		id: TargetExistsId,
		mdMsg: `
# The clone target already exists!

A directory is already present where the drone would be cloned.

## Things you can try:
- Remove the drone first:
~~~
$ droneyard remove <drone>
~~~
- Or clone under another name`,
	}

	droneNotFoundIssue = &Issue{
		id: DroneNotFoundId,
		mdMsg: `
# Drone not found!

No registered drone and no clone with this name exists.

## Things you can try:
- List what is known:
~~~
$ droneyard list
$ droneyard list --cloned
~~~`,
	}

	batchOnlyIssue = &Issue{
		id: BatchOnlyId,
		mdMsg: `
# Rebuilding all drones runs only in batch mode!

A full rebuild removes and regenerates every drone's build artifacts. It
refuses to run from an interactive terminal unless asked explicitly.

## Things you can try:
- Confirm batch mode:
~~~
$ droneyard rebuild --batch
~~~
- Or build a single drone:
~~~
$ droneyard build <drone>
~~~`,
	}

	emacsNotFoundIssue = &Issue{
		id: EmacsNotFoundId,
		mdMsg: `
# Emacs not found!

Byte-compilation runs Emacs in batch mode.

## Things you can try:
- Install Emacs and make sure it is on your PATH
- Set 'emacs_binary' in your config file`,
	}

	makeinfoNotFoundIssue = &Issue{
		id: MakeinfoNotFoundId,
		mdMsg: `
# makeinfo not found!

Building manuals needs the Texinfo tools (makeinfo and install-info).

## Things you can try:
- Install Texinfo
- Or skip manuals for this drone by listing its sources in
  'submodule.<drone>.no-makeinfo'`,
		extLinks: []HttpLink{"https://www.gnu.org/software/texinfo/"},
	}

	buildStepFailedIssue = &Issue{
		id: BuildStepFailedId,
		mdMsg: `
# A build step failed!

The drone declares its own build steps and one of them exited with an error.

## Things you can try:
- Show the declared steps:
~~~
$ git config --file .gitmodules --get-all submodule.<drone>.build-step
~~~
- Run the failing step by hand inside the drone's worktree`,
	}

	invalidDroneNameIssue = &Issue{
		id: InvalidDroneNameId,
		mdMsg: `
# Invalid drone name!

A drone name becomes a directory name. It must not be empty, contain a
path separator or start with a dot.`,
	}

	remoteUnreachableIssue = &Issue{
		id: RemoteUnreachableId,
		mdMsg: `
# The remote did not answer!

The URL could not be listed as a git remote.

## Things you can try:
- Check the URL for typos
- For private repositories, export a token in GITHUB_TOKEN or DRONEYARD_GIT_TOKEN`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		hostNotFoundIssue.Id():      hostNotFoundIssue,
		gitNotFoundIssue.Id():       gitNotFoundIssue,
		gitCommandFailedIssue.Id():  gitCommandFailedIssue,
		dirtyWorktreeIssue.Id():     dirtyWorktreeIssue,
		targetExistsIssue.Id():      targetExistsIssue,
		droneNotFoundIssue.Id():     droneNotFoundIssue,
		batchOnlyIssue.Id():         batchOnlyIssue,
		emacsNotFoundIssue.Id():     emacsNotFoundIssue,
		makeinfoNotFoundIssue.Id():  makeinfoNotFoundIssue,
		buildStepFailedIssue.Id():   buildStepFailedIssue,
		invalidDroneNameIssue.Id():  invalidDroneNameIssue,
		remoteUnreachableIssue.Id(): remoteUnreachableIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	values := slices.Collect(maps.Values(issues))
	slices.SortFunc(values, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
