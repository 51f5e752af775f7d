// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

// allIds lists every catalog Id in declaration order.
var allIds = []Id{
	ConfigLoadFailedId,
	HostNotFoundId,
	GitNotFoundId,
	GitCommandFailedId,
	DirtyWorktreeId,
	TargetExistsId,
	DroneNotFoundId,
	BatchOnlyId,
	EmacsNotFoundId,
	MakeinfoNotFoundId,
	BuildStepFailedId,
	InvalidDroneNameId,
	RemoteUnreachableId,
}

func stubRender(t *testing.T) {
	t.Helper()
	original := render
	t.Cleanup(func() { render = original })
	render = func(in, _ string) (string, error) { return in, nil }
}

func TestId_Constants(t *testing.T) {
	seen := make(map[Id]bool)
	for _, id := range allIds {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if ConfigLoadFailedId != 1 {
		t.Errorf("ConfigLoadFailedId = %d, want 1", ConfigLoadFailedId)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{HostNotFoundId, false, "Not inside a host repository"},
		{GitNotFoundId, false, "git not found"},
		{GitCommandFailedId, false, "Nothing was rolled"},
		{DirtyWorktreeId, false, "uncommitted changes"},
		{TargetExistsId, false, "already exists"},
		{DroneNotFoundId, false, "Drone not found"},
		{BatchOnlyId, false, "droneyard rebuild --batch"},
		{EmacsNotFoundId, false, "Emacs not found"},
		{MakeinfoNotFoundId, false, "makeinfo not found"},
		{BuildStepFailedId, false, "build step failed"},
		{InvalidDroneNameId, false, "Invalid drone name"},
		{RemoteUnreachableId, false, "did not answer"},
		{Id(9999), true, ""},
	}

	for _, tt := range tests {
		issue := Get(tt.id)
		if tt.wantNil {
			if issue != nil {
				t.Errorf("Get(%d) should return nil", tt.id)
			}
			continue
		}
		if issue == nil {
			t.Fatalf("Get(%d) returned nil", tt.id)
		}
		if issue.Id() != tt.id {
			t.Errorf("Get(%d).Id() = %d", tt.id, issue.Id())
		}
		if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
			t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
		}
	}
}

func TestValues(t *testing.T) {
	issues := Values()
	if len(issues) != len(allIds) {
		t.Fatalf("Values() returned %d issues, want %d", len(issues), len(allIds))
	}
	for i, issue := range issues {
		if issue.Id() != allIds[i] {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), allIds[i])
		}
	}
}

func TestIssue_LinksAreCloned(t *testing.T) {
	issue := Get(GitNotFoundId)
	links := issue.ExtLinks()
	if len(links) == 0 {
		t.Fatal("GitNotFound has no external links")
	}
	links[0] = "modified"
	if issue.ExtLinks()[0] == "modified" {
		t.Error("ExtLinks() should return a clone")
	}
	if issue.DocLinks() != nil {
		t.Errorf("DocLinks() = %v, want nil", issue.DocLinks())
	}
}

func TestIssue_Render(t *testing.T) {
	stubRender(t)

	withLinks := &Issue{
		id:       Id(9999),
		mdMsg:    "# Test Issue\n\nThis is a test.",
		docLinks: []HttpLink{"https://docs.example.com"},
		extLinks: []HttpLink{"https://external.example.com"},
	}
	rendered, err := withLinks.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	for _, want := range []string{"See also", "<https://docs.example.com>", "<https://external.example.com>"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Render() output missing %q:\n%s", want, rendered)
		}
	}

	plain := &Issue{id: Id(9998), mdMsg: "# Test Issue\n\nNo links here."}
	rendered, err = plain.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if strings.Contains(rendered, "See also") {
		t.Error("Render() without links should not contain 'See also'")
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	stubRender(t)

	for _, issue := range Values() {
		rendered, err := issue.Render("")
		if err != nil {
			t.Errorf("Issue %d failed to render: %v", issue.Id(), err)
		}
		if strings.TrimSpace(rendered) == "" {
			t.Errorf("Issue %d rendered to empty string", issue.Id())
		}
	}
}

func TestIssue_RenderWithGlamour(t *testing.T) {
	out, err := Get(DirtyWorktreeId).Render("notty")
	if err != nil {
		t.Fatalf("Render(notty) error = %v", err)
	}
	if !strings.Contains(out, "uncommitted changes") {
		t.Errorf("glamour output lost the heading:\n%s", out)
	}
}
