package core

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionIsImmutable(t *testing.T) {
	params := map[string]any{"user": "alice"}
	action := NewAction("site.yml", "/srv/playbooks", "abc", "TestA", params)

	params["user"] = "bob"
	assert.Equal(t, "alice", action.Params()["user"])

	action.Params()["user"] = "eve"
	assert.Equal(t, "alice", action.Params()["user"])
}

func TestActionPaths(t *testing.T) {
	tests := []struct {
		path     string
		workDir  string
		resolved string
	}{
		{"site.yml", "/srv/playbooks", "/srv/playbooks/site.yml"},
		{"/abs/site.yml", "/srv/playbooks", "/abs/site.yml"},
		{"site.yml", "", "site.yml"},
	}

	for _, tt := range tests {
		t.Run(tt.path+"@"+tt.workDir, func(t *testing.T) {
			action := NewAction(tt.path, tt.workDir, "", "", nil)
			assert.Equal(t, tt.path, action.Id())
			assert.Equal(t, tt.resolved, action.ResolvedPath())
		})
	}
}

func TestActionListIds(t *testing.T) {
	assert.Equal(t, []string{}, ActionList(nil).Ids())

	list := ActionList{
		NewAction("a.yml", "", "", "", nil),
		NewAction("b.yml", "", "", "", nil),
	}
	assert.Equal(t, []string{"a.yml", "b.yml"}, list.Ids())
}

func TestExtraVars(t *testing.T) {
	action := NewAction("site.yml", "", "abc", "TestA", map[string]any{
		"x":          1,
		SessionIdVar: "overridden",
	})

	assert.Equal(t, map[string]any{
		"x":          1,
		SessionIdVar: "abc",
		ScopeVar:     "TestA",
	}, action.ExtraVars())

	noScope := NewAction("site.yml", "", "abc", "", nil)
	assert.Equal(t, map[string]any{SessionIdVar: "abc"}, noScope.ExtraVars())
}

func TestPhaseResults(t *testing.T) {
	var p PhaseResults
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Ids())

	first := RunResult{"localhost": {{Task: "one"}}}
	require.NoError(t, p.Record("a.yml", first))
	assert.ErrorContains(t, p.Record("a.yml", RunResult{}), "already recorded")

	got, ok := p.Get("a.yml")
	require.True(t, ok)
	assert.Equal(t, first, got)

	assert.Equal(t, "a.yml#2", p.NextKey("a.yml"))
	require.NoError(t, p.Record(p.NextKey("a.yml"), RunResult{}))
	assert.Equal(t, "a.yml#3", p.NextKey("a.yml"))
	assert.Equal(t, "b.yml", p.NextKey("b.yml"))

	assert.Equal(t, []string{"a.yml", "a.yml#2"}, p.Ids())
	_, ok = p.Get("missing.yml")
	assert.False(t, ok)
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{
			&DeclarationError{Scope: "TestA", Reason: "no setup or teardown playbook marker"},
			"invalid playbook declaration for 'TestA': no setup or teardown playbook marker",
		},
		{
			&ConfigError{Option: "ansible-playbook-directory", Value: "/none", Reason: "is not a directory"},
			`value of --ansible-playbook-directory "/none" is not a directory`,
		},
		{
			&ActionNotFound{Path: "/srv/site.yml"},
			"playbook '/srv/site.yml' not found",
		},
		{
			&ActionFailure{Action: "site.yml", ExitCode: 2},
			"playbook 'site.yml' failed with exit status 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.expected)
		})
	}

	notFound := &ActionNotFound{Path: "/srv/site.yml", Err: fs.ErrNotExist}
	assert.True(t, errors.Is(notFound, fs.ErrNotExist))
}
