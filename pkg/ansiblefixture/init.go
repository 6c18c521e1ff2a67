// Package ansiblefixture runs Ansible playbooks around Go tests: setup
// playbooks before the test body, teardown playbooks after it.
//
//	func TestCreateUser(t *testing.T) {
//		ansiblefixture.Default().Fixture(t,
//			ansiblefixture.Setup("create_db.yml"),
//			ansiblefixture.Teardown("drop_db.yml"),
//		)
//		...
//	}
package ansiblefixture

import (
	"ansiblefixture/internal/config"
	"ansiblefixture/internal/declaration"
	"ansiblefixture/pkg/ansiblefixture/core"
)

type Config = config.Config

type Marker = declaration.Marker

type Action = core.Action
type ActionList = core.ActionList
type ActionRunner = core.ActionRunner
type RunResult = core.RunResult
type TaskOutcome = core.TaskOutcome
type Outcome = core.Outcome

// Setup declares playbooks to run before the test body.
func Setup(playbooks ...string) Marker {
	return declaration.Setup(playbooks...)
}

// Teardown declares playbooks to run after the test body.
func Teardown(playbooks ...string) Marker {
	return declaration.Teardown(playbooks...)
}

// SkipTeardown suppresses the teardown playbooks when the test failed.
func SkipTeardown() Marker {
	return declaration.SkipTeardown()
}

// Vars passes parameter overrides to every playbook of the declaration.
func Vars(vars map[string]any) Marker {
	return declaration.Vars(vars)
}

// ParseConfig parses configuration options and the environment.
func ParseConfig(args []string) (*Config, error) {
	return config.Parse("ansible-fixture", args)
}
