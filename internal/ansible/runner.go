// Package ansible runs playbooks with the ansible-playbook command line tool.
package ansible

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"ansiblefixture/internal/command"
	"ansiblefixture/pkg/ansiblefixture/core"
	"ansiblefixture/pkg/ansiblefixture/utils"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

const DefaultCommand = "ansible-playbook"

// Environment forced on every ansible-playbook run so stdout is a single
// JSON document.
var playbookEnv = []string{
	"ANSIBLE_STDOUT_CALLBACK=json",
	"ANSIBLE_NOCOLOR=1",
	"ANSIBLE_RETRY_FILES_ENABLED=0",
}

// PlaybookRunner implements core.ActionRunner on top of ansible-playbook.
type PlaybookRunner struct {
	// Command prefix, e.g. ["ansible-playbook"].
	Command []string
	// Inventory passed with -i. Empty means ansible's default inventory.
	Inventory string
	// Number of -v flags.
	Verbosity int
	// Extra environment for the process.
	Env []string
	Log logrus.FieldLogger
}

func NewPlaybookRunner(inventory string, log logrus.FieldLogger) *PlaybookRunner {
	return &PlaybookRunner{
		Command:   []string{DefaultCommand},
		Inventory: inventory,
		Verbosity: 1,
		Log:       log,
	}
}

// Args builds the argument list for running the action.
func (r *PlaybookRunner) Args(action core.Action) ([]string, error) {
	extraVars, err := json.Marshal(action.ExtraVars())
	if err != nil {
		return nil, fmt.Errorf("failed to encode extra vars for '%s': %w", action.Id(), err)
	}

	args := make([]string, 0, 6)
	if r.Verbosity > 0 {
		args = append(args, "-"+strings.Repeat("v", r.Verbosity))
	}

	if r.Inventory != "" {
		args = append(args, "-i", r.Inventory)
	}

	args = append(args, action.ResolvedPath(), "--extra-vars", string(extraVars))
	return args, nil
}

// Execute runs the playbook of the action and parses its json callback
// output. It never retries.
func (r *PlaybookRunner) Execute(ctx context.Context, action core.Action) (core.RunResult, error) {
	path := action.ResolvedPath()
	if err := checkPlaybook(path); err != nil {
		return nil, &core.ActionNotFound{Path: path, Err: err}
	}

	args, err := r.Args(action)
	if err != nil {
		return nil, err
	}

	cmd, err := command.FromArgv(r.Command, args...)
	if err != nil {
		return nil, fmt.Errorf("invalid ansible-playbook command: %w", err)
	}
	cmd.Dir(action.WorkDir()).Env(playbookEnv...).Env(r.Env...)

	log := r.logger().WithFields(logrus.Fields{
		"action":  action.Id(),
		"session": action.SessionId(),
	})
	log.Debugf("Running playbook: %s", cmd)

	out, err := cmd.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run playbook '%s': %w", action.Id(), err)
	}

	log.Debugf("Playbook finished with status %d, captured %s of output",
		out.Status, humanize.Bytes(uint64(out.Size())))
	if stderr := strings.TrimSpace(utils.StripAnsi(out.Stderr)); stderr != "" {
		log.Debugf("stderr:\n%s", stderr)
	}

	if out.Status != 0 {
		log.Errorf("Playbook '%s' failed. Command output:\n%s", action.Id(), utils.StripAnsi(out.Report()))
		return nil, &core.ActionFailure{
			Action:   action.Id(),
			ExitCode: out.Status,
			Output:   utils.StripAnsi(out.Report()),
		}
	}

	result, err := ParseJsonCallback([]byte(out.Stdout))
	if err != nil {
		return nil, fmt.Errorf("failed to parse output of playbook '%s': %w", action.Id(), err)
	}

	return result, nil
}

func (r *PlaybookRunner) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

func checkPlaybook(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return fmt.Errorf("'%s' is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}

	return f.Close()
}
