// Package orchestrator runs ordered setup actions, hands control to a
// protected body exactly once, and then runs ordered teardown actions.
package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"

	"ansiblefixture/pkg/ansiblefixture/core"

	"github.com/sirupsen/logrus"
)

type Phase int

const (
	PhaseSetup Phase = iota
	PhaseTeardown
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseTeardown:
		return "teardown"
	default:
		return "unknown"
	}
}

// PhaseListener is notified around every action run by an orchestrator.
type PhaseListener interface {
	ActionStarted(scope string, phase Phase, action core.Action)
	ActionFinished(scope string, phase Phase, action core.Action, err error)
}

type state int

const (
	stateNew state = iota
	stateSetupFailed
	stateEntered
	stateCalled
	stateExited
)

// Orchestrator is a scoped acquisition of playbook side effects:
//
//	Enter -> runs the setup actions
//	Call  -> runs the protected body (at most once)
//	Exit  -> runs the teardown actions, unless the body failed and teardown
//	         is skipped on failure
//
// An Orchestrator is not safe for concurrent use; every scope gets its own.
type Orchestrator struct {
	name         string
	runner       core.ActionRunner
	log          logrus.FieldLogger
	setup        core.ActionList
	teardown     core.ActionList
	skipTeardown bool
	listeners    []PhaseListener

	outcome core.Outcome
	state   state
	exitErr error
}

var _ core.Named = (*Orchestrator)(nil)

type Option func(*Orchestrator)

// WithName sets the scope name used in logs and errors.
func WithName(name string) Option {
	return func(o *Orchestrator) {
		o.name = name
	}
}

func WithListener(l PhaseListener) Option {
	return func(o *Orchestrator) {
		o.listeners = append(o.listeners, l)
	}
}

func New(
	runner core.ActionRunner,
	log logrus.FieldLogger,
	setup core.ActionList,
	teardown core.ActionList,
	skipTeardown bool,
	opts ...Option,
) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}

	o := &Orchestrator{
		name:         "anonymous",
		runner:       runner,
		log:          log,
		setup:        setup,
		teardown:     teardown,
		skipTeardown: skipTeardown,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *Orchestrator) Name() string {
	return o.name
}

// Outcome returns the results recorded so far.
func (o *Orchestrator) Outcome() *core.Outcome {
	return &o.outcome
}

// Enter runs all setup actions in order. The first failure stops the phase
// and the scope: no further setup action runs and Exit will not run any
// teardown action.
func (o *Orchestrator) Enter(ctx context.Context) error {
	if o.state != stateNew {
		return fmt.Errorf("scope '%s' was already entered", o.name)
	}

	err := o.runPhase(ctx, PhaseSetup, o.setup, &o.outcome.Setup)
	if err != nil {
		o.state = stateSetupFailed
		return newSetupError(o.name, err)
	}

	o.state = stateEntered
	return nil
}

// Call runs the protected body. The body runs in a separate goroutine so
// that runtime.Goexit() and panics inside it are caught; both are reported
// as errors, like an error returned by the body.
func (o *Orchestrator) Call(ctx context.Context, body func(context.Context) error) error {
	switch o.state {
	case stateEntered:
	case stateCalled:
		return fmt.Errorf("body of scope '%s' was already called", o.name)
	default:
		return fmt.Errorf("scope '%s' was not entered successfully", o.name)
	}

	o.state = stateCalled
	return callBody(ctx, body)
}

// Exit runs the teardown actions. bodyErr is the outcome of the protected
// body; when it is not nil and teardown is skipped on failure, bodyErr is
// returned unchanged and no teardown action runs. A failing teardown action
// produces a *TeardownError that still carries bodyErr.
//
// Exit is a no-op when setup failed or the scope was never entered. Calling
// it again returns the result of the first call.
func (o *Orchestrator) Exit(ctx context.Context, bodyErr error) error {
	switch o.state {
	case stateExited:
		return o.exitErr
	case stateNew, stateSetupFailed:
		o.state = stateExited
		o.exitErr = bodyErr
		return bodyErr
	}

	o.state = stateExited

	if bodyErr != nil && o.skipTeardown {
		o.log.Warnf("Scope '%s' failed, skipping %d teardown playbook(s)", o.name, len(o.teardown))
		o.exitErr = bodyErr
		return bodyErr
	}

	// Teardown must run even when the body was cancelled.
	err := o.runPhase(context.WithoutCancel(ctx), PhaseTeardown, o.teardown, &o.outcome.Teardown)
	if err != nil {
		o.exitErr = newTeardownError(o.name, err, bodyErr)
		return o.exitErr
	}

	o.exitErr = bodyErr
	return bodyErr
}

// Run is Enter, Call and Exit in one go.
func (o *Orchestrator) Run(ctx context.Context, body func(context.Context) error) error {
	if err := o.Enter(ctx); err != nil {
		return err
	}

	return o.Exit(ctx, o.Call(ctx, body))
}

func (o *Orchestrator) runPhase(
	ctx context.Context,
	phase Phase,
	actions core.ActionList,
	results *core.PhaseResults,
) error {
	if len(actions) == 0 {
		o.log.Debugf("Scope '%s': no %s playbooks", o.name, phase)
		return nil
	}

	o.log.Infof("Scope '%s': running %d %s playbook(s)", o.name, len(actions), phase)

	for _, action := range actions {
		log := o.log.WithField("phase", phase.String()).WithField("action", action.Id())
		for _, l := range o.listeners {
			l.ActionStarted(o.name, phase, action)
		}

		var result core.RunResult
		err := runCatchPanic(func() error {
			var err error
			result, err = o.runner.Execute(ctx, action)
			return err
		})

		for _, l := range o.listeners {
			l.ActionFinished(o.name, phase, action, err)
		}

		if err != nil {
			log.WithError(err).Errorf("%s playbook failed", phase)
			return fmt.Errorf("%s playbook '%s': %w", phase, action.Id(), err)
		}

		if err := results.Record(results.NextKey(action.Id()), result); err != nil {
			return err
		}

		log.Infof("%s playbook finished (%d host(s), %d changed)", phase, len(result), result.Changed())
	}

	return nil
}

func callBody(ctx context.Context, body func(context.Context) error) error {
	errChan := make(chan error, 1)

	go func() {
		returned := false
		defer func() {
			if r := recover(); r != nil {
				errChan <- NewPanicError(r, debug.Stack())
			} else if !returned {
				errChan <- ErrBodyAborted
			}
		}()

		err := body(ctx)
		returned = true
		errChan <- err
	}()

	return <-errChan
}
