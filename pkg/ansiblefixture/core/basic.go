package core

import (
	"context"

	"github.com/sirupsen/logrus"
)

type Named interface {
	// Returns the unique name of the entity
	Name() string
}

type LoggerProvider interface {
	// Logger returns the logger to be used for logging.
	Logger() *logrus.Logger
}

// ActionRunner executes a single setup or teardown action.
type ActionRunner interface {
	// Execute runs the action and returns the parsed result. It returns an
	// *ActionNotFound error when the playbook cannot be accessed and an
	// *ActionFailure error when the external tool reports a nonzero status.
	Execute(ctx context.Context, action Action) (RunResult, error)
}

// ActionRunnerFunc adapts a plain function to the ActionRunner interface.
type ActionRunnerFunc func(ctx context.Context, action Action) (RunResult, error)

func (f ActionRunnerFunc) Execute(ctx context.Context, action Action) (RunResult, error) {
	return f(ctx, action)
}
