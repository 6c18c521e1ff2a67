// Package cli implements the ansible-fixture command: the playbook fixtures
// of the Go test integration, usable around any command.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"ansiblefixture/internal/config"
	"ansiblefixture/pkg/ansiblefixture"
	"ansiblefixture/pkg/ansiblefixture/core"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
)

type cli struct {
	Config    config.Config `embed:""`
	Run       RunCmd        `cmd:"" help:"Run a command between setup and teardown playbooks"`
	Inventory InventoryCmd  `cmd:"" help:"Print the inventory as JSON"`
	Check     CheckCmd      `cmd:"" help:"Validate the options and the declarations file"`
}

// Env gives commands access to the parsed options and the streams to write
// to. Extra options are passed on to every session.
type Env struct {
	Config  *config.Config
	Log     *logrus.Logger
	Stdout  io.Writer
	Stderr  io.Writer
	Options []ansiblefixture.Option
}

// NewSession creates the session of a command.
func (e *Env) NewSession() (*ansiblefixture.Session, error) {
	opts := append([]ansiblefixture.Option{ansiblefixture.WithLogger(e.Log)}, e.Options...)
	return ansiblefixture.NewSession(e.Config, opts...)
}

// ExitError carries the exit code of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Main parses args, runs the selected command and returns the exit code of
// the process.
func Main(name string, args []string, stdout, stderr io.Writer, opts ...ansiblefixture.Option) int {
	// Force display help if no arguments are provided
	if len(args) == 0 {
		args = []string{"--help"}
	}

	c := cli{}
	parser, err := kong.New(
		&c,
		kong.Name(name),
		kong.Description("Run ansible playbooks around commands and Go tests."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintf(stderr, "failed to create parser: %v\n", err)
		return 1
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%v", err)
		return ansiblefixture.ExitUsage
	}

	log := logrus.New()
	log.SetOutput(stderr)
	log.SetLevel(c.Config.LogLevel)
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors: true,
	})

	env := &Env{
		Config:  &c.Config,
		Log:     log,
		Stdout:  stdout,
		Stderr:  stderr,
		Options: opts,
	}

	err = ctx.Run(env)
	return exitCode(log, err)
}

func exitCode(log *logrus.Logger, err error) int {
	if err == nil {
		return 0
	}

	var cfgErr *core.ConfigError
	if errors.As(err, &cfgErr) {
		log.Errorf("%v", err)
		return ansiblefixture.ExitUsage
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		log.WithError(exitErr.Err).Errorf("Command failed with exit code %d", exitErr.Code)
		return exitErr.Code
	}

	log.WithError(err).Error("Command failed")
	return 1
}

// Run is the entry point of the ansible-fixture binary.
func Run(name string) {
	os.Exit(Main(name, os.Args[1:], os.Stdout, os.Stderr))
}
