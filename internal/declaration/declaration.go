// Package declaration turns playbook markers attached to a test into the
// ordered setup and teardown action lists of its scope.
package declaration

import (
	"fmt"
	"maps"

	"ansiblefixture/pkg/ansiblefixture/core"
)

type Kind int

const (
	KindSetup Kind = iota
	KindTeardown
	KindSkipTeardown
	KindVars
)

func (k Kind) String() string {
	switch k {
	case KindSetup:
		return "setup"
	case KindTeardown:
		return "teardown"
	case KindSkipTeardown:
		return "skip-teardown"
	case KindVars:
		return "vars"
	default:
		return "unknown"
	}
}

// Marker is one declarative tag on a test.
type Marker struct {
	Kind      Kind
	Playbooks []string
	Vars      map[string]any
}

// Setup declares playbooks to run before the test body.
func Setup(playbooks ...string) Marker {
	return Marker{Kind: KindSetup, Playbooks: playbooks}
}

// Teardown declares playbooks to run after the test body.
func Teardown(playbooks ...string) Marker {
	return Marker{Kind: KindTeardown, Playbooks: playbooks}
}

// SkipTeardown suppresses the teardown playbooks when the test failed.
func SkipTeardown() Marker {
	return Marker{Kind: KindSkipTeardown}
}

// Vars adds parameter overrides to every playbook of the declaration. Later
// markers win on conflicting keys.
func Vars(vars map[string]any) Marker {
	return Marker{Kind: KindVars, Vars: vars}
}

// ActionBuilder creates the action for one declared playbook.
type ActionBuilder func(playbook string, params map[string]any) core.Action

// Declaration is the resolved form of a list of markers.
type Declaration struct {
	Setup        core.ActionList
	Teardown     core.ActionList
	SkipTeardown bool
}

// Resolve maps markers to ordered action lists. Markers of the same kind
// accumulate in order.
//
// It fails with a *core.DeclarationError when a setup or teardown marker has
// no playbooks, or when there is neither a setup nor a teardown marker.
func Resolve(scope string, markers []Marker, build ActionBuilder) (Declaration, error) {
	var decl Declaration
	var setup, teardown []string
	vars := make(map[string]any)
	found := false

	for _, m := range markers {
		switch m.Kind {
		case KindSetup, KindTeardown:
			found = true
			if len(m.Playbooks) == 0 {
				return Declaration{}, &core.DeclarationError{
					Scope:  scope,
					Reason: fmt.Sprintf("%s marker without playbooks, did you forget the arguments?", m.Kind),
				}
			}

			if m.Kind == KindSetup {
				setup = append(setup, m.Playbooks...)
			} else {
				teardown = append(teardown, m.Playbooks...)
			}
		case KindSkipTeardown:
			decl.SkipTeardown = true
		case KindVars:
			maps.Copy(vars, m.Vars)
		default:
			return Declaration{}, &core.DeclarationError{
				Scope:  scope,
				Reason: fmt.Sprintf("unknown marker kind %d", m.Kind),
			}
		}
	}

	if !found {
		return Declaration{}, &core.DeclarationError{
			Scope:  scope,
			Reason: "no setup or teardown playbook marker",
		}
	}

	for _, p := range setup {
		decl.Setup = append(decl.Setup, build(p, vars))
	}

	for _, p := range teardown {
		decl.Teardown = append(decl.Teardown, build(p, vars))
	}

	return decl, nil
}
