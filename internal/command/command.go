package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Wrapper over exec.CommandContext for running external tools.
//
// The command is described by a name plus arguments, an optional working
// directory and extra environment variables. Stdout and stderr are captured
// separately.
type CommandRunner struct {
	name string
	args []string
	dir  string
	env  []string

	teeStdout io.Writer
	teeStderr io.Writer
}

func Cmd(name string, arg ...string) *CommandRunner {
	return &CommandRunner{
		name: name,
		args: arg,
	}
}

// FromArgv builds a runner from a command prefix, e.g. the configured
// `ansible-playbook` command, followed by extra arguments.
func FromArgv(prefix []string, arg ...string) (*CommandRunner, error) {
	if len(prefix) == 0 || prefix[0] == "" {
		return nil, fmt.Errorf("empty command")
	}

	args := make([]string, 0, len(prefix)-1+len(arg))
	args = append(args, prefix[1:]...)
	args = append(args, arg...)
	return Cmd(prefix[0], args...), nil
}

// Dir sets the working directory of the process.
func (c *CommandRunner) Dir(dir string) *CommandRunner {
	c.dir = dir
	return c
}

// Env adds KEY=VALUE pairs on top of the current process environment.
func (c *CommandRunner) Env(kv ...string) *CommandRunner {
	c.env = append(c.env, kv...)
	return c
}

// Tee copies the output of the process to stdout and stderr while it runs.
// The output is still captured. Nil writers are ignored.
func (c *CommandRunner) Tee(stdout, stderr io.Writer) *CommandRunner {
	c.teeStdout = stdout
	c.teeStderr = stderr
	return c
}

func (c *CommandRunner) String() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

// Output of a finished process.
type Output struct {
	Stdout string
	Stderr string
	Status int
}

// Returns an error if the command finished with a non-zero status.
func (o *Output) Check() error {
	if o.Status != 0 {
		return fmt.Errorf("command failed with status %d", o.Status)
	}

	return nil
}

func (o *Output) Report() string {
	if o == nil {
		return "<nil>"
	}

	var stringBuilder strings.Builder
	stringBuilder.WriteString(fmt.Sprintf("status: %d", o.Status))

	if o.Stdout != "" {
		stringBuilder.WriteString(fmt.Sprintf("; stdout:\n%s\nstderr:", o.Stdout))
	} else {
		stringBuilder.WriteString("; stdout: <empty>; stderr:")
	}

	if o.Stderr != "" {
		stringBuilder.WriteString(fmt.Sprintf("\n%s", o.Stderr))
	} else {
		stringBuilder.WriteString(" <empty>")
	}

	return stringBuilder.String()
}

// Size returns the number of captured bytes.
func (o *Output) Size() int {
	return len(o.Stdout) + len(o.Stderr)
}

// Run starts the process and waits for it to finish. A nonzero exit status is
// NOT an error: it is reported in Output.Status. An error is returned only
// when the process could not be run at all.
func (c *CommandRunner) Run(ctx context.Context) (*Output, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Stdout = teeWriter(&stdout, c.teeStdout)
	cmd.Stderr = teeWriter(&stderr, c.teeStderr)
	cmd.Dir = c.dir
	if len(c.env) != 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}

	log.Tracef("Running command: %s %v (dir: '%s')", c.name, c.args, c.dir)

	err := cmd.Run()
	out := &Output{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			out.Status = exitErr.ExitCode()
			return out, nil
		}

		return out, fmt.Errorf("process '%s' failed: %w", c.name, err)
	}

	return out, nil
}

func teeWriter(capture *bytes.Buffer, tee io.Writer) io.Writer {
	if tee == nil {
		return capture
	}

	return io.MultiWriter(capture, tee)
}
