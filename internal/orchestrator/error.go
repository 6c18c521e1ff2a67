package orchestrator

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrBodyAborted is reported when the protected body stopped its goroutine
// with runtime.Goexit() (e.g. testing.T.FailNow) instead of returning.
var ErrBodyAborted = errors.New("body aborted before returning")

type PanicError struct {
	Value any
	Stack []byte
}

func NewPanicError(value any, stack []byte) *PanicError {
	return &PanicError{
		Value: value,
		Stack: stack,
	}
}

func (pe *PanicError) Error() string {
	return fmt.Sprintf("panic occurred: %v", pe.Value)
}

func runCatchPanic(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewPanicError(r, debug.Stack())
		}
	}()

	return f()
}

type scopeError struct {
	err   error
	scope string
}

func (e *scopeError) Unwrap() error {
	return e.err
}

// SetupError is returned by Enter when a setup action failed. The wrapped
// error is the action error (*core.ActionFailure, *core.ActionNotFound, ...).
type SetupError struct {
	scopeError
}

func newSetupError(scope string, err error) *SetupError {
	return &SetupError{
		scopeError: scopeError{
			err:   err,
			scope: scope,
		},
	}
}

func (se *SetupError) Error() string {
	return fmt.Sprintf("setup error in scope '%s': %v", se.scope, se.err)
}

// TeardownError is returned by Exit when a teardown action failed. It keeps
// the body error, if any, so that neither failure is lost: errors.Is and
// errors.As see both.
type TeardownError struct {
	scopeError
	BodyErr error
}

func newTeardownError(scope string, err error, bodyErr error) *TeardownError {
	return &TeardownError{
		scopeError: scopeError{
			err:   err,
			scope: scope,
		},
		BodyErr: bodyErr,
	}
}

func (te *TeardownError) Error() string {
	if te.BodyErr != nil {
		return fmt.Sprintf("teardown error in scope '%s': %v (body failed before: %v)", te.scope, te.err, te.BodyErr)
	}

	return fmt.Sprintf("teardown error in scope '%s': %v", te.scope, te.err)
}

// Err returns the teardown action error alone.
func (te *TeardownError) Err() error {
	return te.err
}

func (te *TeardownError) Unwrap() []error {
	if te.BodyErr == nil {
		return []error{te.err}
	}

	return []error{te.err, te.BodyErr}
}
