package cli

import (
	"fmt"
	"os"

	"ansiblefixture/internal/config"
	"ansiblefixture/internal/declaration"
	"ansiblefixture/pkg/ansiblefixture/core"

	"github.com/fatih/color"
)

type CheckCmd struct{}

// Run validates the options, then resolves every declaration of the
// declarations file and checks that its playbooks exist.
func (cmd *CheckCmd) Run(env *Env) error {
	if err := env.Config.Check(); err != nil {
		return err
	}

	fmt.Fprintf(env.Stdout, "Options: %s\n", color.GreenString("OK"))

	if env.Config.Declarations == "" {
		return nil
	}

	file, err := declaration.LoadFile(env.Config.Declarations)
	if err != nil {
		return &core.ConfigError{
			Option: config.DeclarationsOption,
			Value:  env.Config.Declarations,
			Reason: fmt.Sprintf("is invalid: %v", err),
		}
	}

	problems := 0
	check := func(name string, markers []declaration.Marker) {
		decl, err := declaration.Resolve(name, markers, func(playbook string, params map[string]any) core.Action {
			return core.NewAction(playbook, env.Config.Directory, "", name, params)
		})
		if err != nil {
			problems++
			fmt.Fprintf(env.Stdout, "%s: %s\n", name, color.RedString(err.Error()))
			return
		}

		fmt.Fprintf(env.Stdout, "%s:\n", name)
		problems += printActions(env, "setup", decl.Setup)
		problems += printActions(env, "teardown", decl.Teardown)
		if decl.SkipTeardown {
			fmt.Fprintln(env.Stdout, "  teardown skipped on failure")
		}
	}

	if markers, ok := file.SessionMarkers(); ok {
		check("session", markers)
	}

	for _, name := range file.TestNames() {
		markers, _ := file.Markers(name)
		check(name, markers)
	}

	if problems > 0 {
		return fmt.Errorf("found %d problem(s) in '%s'", problems, env.Config.Declarations)
	}

	return nil
}

// Prints the actions of one phase and returns the number of missing
// playbooks.
func printActions(env *Env, phase string, actions core.ActionList) int {
	missing := 0
	for _, action := range actions {
		status := color.GreenString("found")
		info, err := os.Stat(action.ResolvedPath())
		if err != nil || info.IsDir() {
			status = color.RedString("missing")
			missing++
		}

		fmt.Fprintf(env.Stdout, "  %s: %s (%s)\n", phase, action.Id(), status)
	}

	return missing
}
