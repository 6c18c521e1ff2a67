// Package config holds the command line and environment configuration of
// the playbook fixtures.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"ansiblefixture/pkg/ansiblefixture/core"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
)

const (
	DirectoryOption    = "ansible-playbook-directory"
	InventoryOption    = "ansible-playbook-inventory"
	DeclarationsOption = "ansible-playbook-declarations"
)

type Config struct {
	Directory    string `name:"ansible-playbook-directory" env:"ANSIBLE_PLAYBOOK_DIRECTORY" placeholder:"PLAYBOOK_DIR" help:"Directory where ansible playbooks are stored."`
	Inventory    string `name:"ansible-playbook-inventory" env:"ANSIBLE_PLAYBOOK_INVENTORY" placeholder:"INVENTORY_FILE" help:"Ansible inventory file."`
	Declarations string `name:"ansible-playbook-declarations" env:"ANSIBLE_PLAYBOOK_DECLARATIONS" placeholder:"DECLARATIONS_FILE" help:"YAML file declaring setup and teardown playbooks per test."`

	PlaybookCommand  []string `name:"ansible-playbook-command" env:"ANSIBLE_PLAYBOOK_COMMAND" default:"ansible-playbook" sep:" " help:"Command used to run playbooks."`
	InventoryCommand []string `name:"ansible-inventory-command" env:"ANSIBLE_INVENTORY_COMMAND" default:"ansible-inventory" sep:" " help:"Command used to query the inventory."`
	Verbosity        int      `name:"ansible-playbook-verbosity" env:"ANSIBLE_PLAYBOOK_VERBOSITY" default:"1" help:"Number of -v flags passed to ansible-playbook."`

	LogLevel    logrus.Level `name:"log-level" env:"ANSIBLE_FIXTURE_LOG_LEVEL" default:"info" help:"Set log level"`
	AzureDevops bool         `name:"azure-devops" env:"TF_BUILD" help:"Enable Azure DevOps integration"`
}

// Parse parses args and the environment into a Config. It does not
// check paths; see Check. Config must not get a Validate method, kong runs
// it during Parse.
func Parse(name string, args []string) (*Config, error) {
	cfg := &Config{}
	parser, err := kong.New(
		cfg,
		kong.Name(name),
		kong.Description("Run ansible playbooks around Go tests."),
		kong.ConfigureHelp(kong.HelpOptions{NoAppSummary: true}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}

	_, err = parser.Parse(args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse arguments: %w", err)
	}

	return cfg, nil
}

// InventoryPath returns the inventory path, resolved against the playbook
// directory when it is relative. Without a directory a relative inventory
// stays relative to the current working directory.
func (c *Config) InventoryPath() string {
	if c.Inventory == "" || filepath.IsAbs(c.Inventory) || c.Directory == "" {
		return c.Inventory
	}

	return filepath.Join(c.Directory, c.Inventory)
}

// Check checks the configured paths and commands. The directory is checked first and
// a bad directory is reported alone.
func (c *Config) Check() error {
	if c.Directory != "" {
		info, err := os.Stat(c.Directory)
		if err != nil || !info.IsDir() {
			return &core.ConfigError{
				Option: DirectoryOption,
				Value:  c.Directory,
				Reason: "is not a directory",
			}
		}
	}

	if c.Inventory != "" {
		if !accessible(c.InventoryPath()) {
			return &core.ConfigError{
				Option: InventoryOption,
				Value:  c.Inventory,
				Reason: "is not accessible",
			}
		}
	}

	if c.Declarations != "" {
		if !accessible(c.Declarations) {
			return &core.ConfigError{
				Option: DeclarationsOption,
				Value:  c.Declarations,
				Reason: "is not accessible",
			}
		}
	}

	if len(c.PlaybookCommand) == 0 || c.PlaybookCommand[0] == "" {
		return &core.ConfigError{Option: "ansible-playbook-command", Reason: "must not be empty"}
	}

	if c.Verbosity < 0 {
		return &core.ConfigError{
			Option: "ansible-playbook-verbosity",
			Value:  fmt.Sprint(c.Verbosity),
			Reason: "must not be negative",
		}
	}

	return nil
}

// Readable, whatever the file type (e.g. /dev/zero is fine).
func accessible(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
