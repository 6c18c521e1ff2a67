package core

import (
	"maps"
	"path/filepath"
)

const (
	// Name of the extra var carrying the correlation identifier into every
	// playbook run.
	SessionIdVar = "ansible_fixture_session_id"

	// Name of the extra var carrying the name of the scope (test, fixture or
	// session) that runs the playbook.
	ScopeVar = "ansible_fixture_scope"
)

// Action is a single playbook execution request. It is immutable once
// constructed; accessors return copies.
type Action struct {
	path      string
	workDir   string
	sessionId string
	scope     string
	params    map[string]any
}

// NewAction creates an action for the playbook at path. Relative paths are
// resolved against workDir when the action is executed. The params map is
// copied.
func NewAction(path, workDir, sessionId, scope string, params map[string]any) Action {
	return Action{
		path:      path,
		workDir:   workDir,
		sessionId: sessionId,
		scope:     scope,
		params:    maps.Clone(params),
	}
}

// Id returns the action identifier, the playbook path as declared.
func (a Action) Id() string {
	return a.path
}

func (a Action) Path() string {
	return a.path
}

// ResolvedPath returns the playbook path joined with the working directory
// when it is relative.
func (a Action) ResolvedPath() string {
	if filepath.IsAbs(a.path) || a.workDir == "" {
		return a.path
	}

	return filepath.Join(a.workDir, a.path)
}

func (a Action) WorkDir() string {
	return a.workDir
}

func (a Action) SessionId() string {
	return a.sessionId
}

func (a Action) Scope() string {
	return a.scope
}

// Params returns a copy of the parameter overrides.
func (a Action) Params() map[string]any {
	return maps.Clone(a.params)
}

// ExtraVars returns the full parameter bag for the invocation: the overrides
// plus the implicit correlation variables. The correlation variables always
// win over overrides with the same name.
func (a Action) ExtraVars() map[string]any {
	vars := make(map[string]any, len(a.params)+2)
	maps.Copy(vars, a.params)
	vars[SessionIdVar] = a.sessionId
	if a.scope != "" {
		vars[ScopeVar] = a.scope
	}

	return vars
}

// ActionList is an ordered list of actions. Insertion order is execution
// order. An empty list is valid.
type ActionList []Action

// Ids returns the identifiers of the actions in order.
func (l ActionList) Ids() []string {
	ids := make([]string, len(l))
	for i, a := range l {
		ids[i] = a.Id()
	}
	return ids
}
