package core

import "fmt"

// DeclarationError is returned when a test is misconfigured: a playbook
// marker without playbooks, or a fixture requested without any marker.
type DeclarationError struct {
	Scope  string
	Reason string
}

func (e *DeclarationError) Error() string {
	return fmt.Sprintf("invalid playbook declaration for '%s': %s", e.Scope, e.Reason)
}

// ConfigError is returned when a configuration value fails validation.
type ConfigError struct {
	Option string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("value of --%s \"%s\" %s", e.Option, e.Value, e.Reason)
}

// ActionNotFound is returned when the playbook of an action does not resolve
// to an accessible file.
type ActionNotFound struct {
	Path string
	Err  error
}

func (e *ActionNotFound) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("playbook '%s' not found", e.Path)
	}
	return fmt.Sprintf("playbook '%s' not found: %v", e.Path, e.Err)
}

func (e *ActionNotFound) Unwrap() error {
	return e.Err
}

// ActionFailure is returned when the external tool reports a nonzero exit
// status for an action.
type ActionFailure struct {
	Action   string
	ExitCode int
	// Combined report of the captured output of the failed run.
	Output string
}

func (e *ActionFailure) Error() string {
	return fmt.Sprintf("playbook '%s' failed with exit status %d", e.Action, e.ExitCode)
}
