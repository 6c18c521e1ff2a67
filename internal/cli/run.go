package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"ansiblefixture/internal/command"
	"ansiblefixture/internal/orchestrator"
	"ansiblefixture/pkg/ansiblefixture"
	"ansiblefixture/pkg/ansiblefixture/core"
)

// Name of the scope of a run command.
const RunScope = "run"

type RunCmd struct {
	Setup        []string `short:"s" help:"Setup playbook, may be repeated."`
	Teardown     []string `short:"t" help:"Teardown playbook, may be repeated."`
	SkipTeardown bool     `help:"Do not run the teardown playbooks when the command failed."`
	Command      []string `arg:"" passthrough:"all" help:"Command to run between setup and teardown, you may use '--' to force passthrough."`
}

func (cmd *RunCmd) markers() []ansiblefixture.Marker {
	markers := make([]ansiblefixture.Marker, 0, 3)
	if len(cmd.Setup) > 0 {
		markers = append(markers, ansiblefixture.Setup(cmd.Setup...))
	}
	if len(cmd.Teardown) > 0 {
		markers = append(markers, ansiblefixture.Teardown(cmd.Teardown...))
	}
	if cmd.SkipTeardown {
		markers = append(markers, ansiblefixture.SkipTeardown())
	}
	return markers
}

func (cmd *RunCmd) Run(env *Env) error {
	argv := cmd.Command
	if len(argv) != 0 && argv[0] == "--" {
		argv = argv[1:]
	}

	body, err := command.FromArgv(argv)
	if err != nil {
		return &core.ConfigError{Option: "command", Reason: "must not be empty"}
	}

	session, err := env.NewSession()
	if err != nil {
		return err
	}

	scope, err := session.Scope(RunScope, cmd.markers()...)
	if err != nil {
		return &ExitError{Code: ansiblefixture.ExitUsage, Err: err}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bodyStatus := 0
	err = scope.Run(ctx, func(ctx context.Context) error {
		env.Log.Infof("Running command: %s", body)
		out, err := body.
			Env(
				"ANSIBLE_FIXTURE_SESSION_ID="+session.ID(),
				"ANSIBLE_FIXTURE_SCOPE="+RunScope,
			).
			Tee(env.Stdout, env.Stderr).
			Run(ctx)
		if err != nil {
			return err
		}

		bodyStatus = out.Status
		return out.Check()
	})

	if reportErr := session.Report(env.Stdout); reportErr != nil && err == nil {
		err = reportErr
	}

	if err == nil {
		return nil
	}

	var setupErr *orchestrator.SetupError
	var teardownErr *orchestrator.TeardownError
	if bodyStatus != 0 && !errors.As(err, &setupErr) && !errors.As(err, &teardownErr) {
		return &ExitError{Code: bodyStatus, Err: err}
	}

	return &ExitError{Code: 1, Err: fmt.Errorf("playbook scope failed: %w", err)}
}
