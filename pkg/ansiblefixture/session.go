package ansiblefixture

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"ansiblefixture/internal/ansible"
	"ansiblefixture/internal/config"
	"ansiblefixture/internal/declaration"
	"ansiblefixture/internal/devops"
	"ansiblefixture/internal/inventory"
	"ansiblefixture/internal/reporter"
	"ansiblefixture/internal/scopemgr"
	"ansiblefixture/pkg/ansiblefixture/core"

	"github.com/Jeffail/gabs/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session holds the state shared by every scope of one test binary run: the
// configuration, the correlation id passed to every playbook, the cached
// inventory and the scope tracking used for the final report.
//
// A Session is safe for use from parallel tests.
type Session struct {
	id           string
	cfg          *config.Config
	directory    string
	log          *logrus.Logger
	runner       core.ActionRunner
	inventory    *inventory.Querier
	declarations *declaration.File
	scopes       *scopemgr.Manager
	devops       *devops.Printer

	playbookCommand  []string
	inventoryCommand []string
	playbookEnv      []string
	inventoryEnv     []string
}

var _ core.LoggerProvider = (*Session)(nil)

type Option func(*Session)

func WithLogger(log *logrus.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithRunner replaces the ansible-playbook runner, e.g. with an in-memory
// one in tests.
func WithRunner(runner core.ActionRunner) Option {
	return func(s *Session) {
		s.runner = runner
	}
}

// WithCommand overrides the configured ansible-playbook command prefix and
// adds env to its environment.
func WithCommand(playbook []string, env ...string) Option {
	return func(s *Session) {
		s.playbookCommand = playbook
		s.playbookEnv = append(s.playbookEnv, env...)
	}
}

// WithInventoryCommand is WithCommand for ansible-inventory.
func WithInventoryCommand(inventory []string, env ...string) Option {
	return func(s *Session) {
		s.inventoryCommand = inventory
		s.inventoryEnv = append(s.inventoryEnv, env...)
	}
}

// NewSession validates cfg and creates a session. A nil cfg is read from the
// environment alone.
func NewSession(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		var err error
		cfg, err = config.Parse("ansible-fixture", nil)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.Check(); err != nil {
		return nil, err
	}

	directory, err := absOrEmpty(cfg.Directory)
	if err != nil {
		return nil, err
	}

	inventoryPath, err := absOrEmpty(cfg.InventoryPath())
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:               uuid.NewString(),
		cfg:              cfg,
		directory:        directory,
		playbookCommand:  cfg.PlaybookCommand,
		inventoryCommand: cfg.InventoryCommand,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logrus.New()
		s.log.SetLevel(cfg.LogLevel)
		s.log.SetFormatter(&logrus.TextFormatter{
			ForceColors: true,
		})
	}

	if cfg.Declarations != "" {
		s.declarations, err = declaration.LoadFile(cfg.Declarations)
		if err != nil {
			return nil, &core.ConfigError{
				Option: config.DeclarationsOption,
				Value:  cfg.Declarations,
				Reason: fmt.Sprintf("is invalid: %v", err),
			}
		}
	}

	log := s.log.WithField("session", s.id)

	if s.runner == nil {
		runner := ansible.NewPlaybookRunner(inventoryPath, log)
		runner.Command = s.playbookCommand
		runner.Verbosity = cfg.Verbosity
		runner.Env = s.playbookEnv
		s.runner = runner
	}

	s.inventory = inventory.NewQuerier(inventoryPath, directory, log)
	s.inventory.Command = s.inventoryCommand
	s.inventory.Env = s.inventoryEnv

	s.scopes = scopemgr.NewManager(s.log)

	if cfg.AzureDevops {
		s.devops = devops.NewPrinter(nil)
	}

	log.Debugf("Created playbook session (directory: '%s', inventory: '%s')", directory, inventoryPath)
	return s, nil
}

func absOrEmpty(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve '%s': %w", path, err)
	}

	return abs, nil
}

// ID returns the correlation id passed to every playbook of the session.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) Logger() *logrus.Logger {
	return s.log
}

// Directory returns the absolute playbook directory, empty when playbooks
// are looked up relative to the working directory.
func (s *Session) Directory() string {
	return s.directory
}

// Inventory returns the parsed output of `ansible-inventory --list`. The
// first successful query is cached for the lifetime of the session.
func (s *Session) Inventory(ctx context.Context) (*gabs.Container, error) {
	return s.inventory.Get(ctx)
}

// Hosts returns the host names of the inventory, sorted.
func (s *Session) Hosts(ctx context.Context) ([]string, error) {
	return s.inventory.Hosts(ctx)
}

// Report prints the scope report to w, stdout when w is nil. It returns the
// error of the report: non-nil when any scope failed or errored.
func (s *Session) Report(w io.Writer) error {
	rep := reporter.New(w, s.scopes)
	if err := rep.PrintReport(); err != nil {
		return err
	}

	return rep.ExitError()
}

func (s *Session) builder(scope string) declaration.ActionBuilder {
	return func(playbook string, params map[string]any) core.Action {
		return core.NewAction(playbook, s.directory, s.id, scope, params)
	}
}
