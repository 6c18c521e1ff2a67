package ansiblefixture

import (
	"context"
	"errors"
	"runtime/debug"
	"testing"

	"ansiblefixture/internal/declaration"
	"ansiblefixture/internal/orchestrator"
	"ansiblefixture/internal/scopemgr"
	"ansiblefixture/pkg/ansiblefixture/core"
)

// A tracked scope names the orchestrator and provides its logger.
type trackedScope interface {
	core.Named
	core.LoggerProvider
}

var _ trackedScope = (*scopemgr.Scope)(nil)

func (s *Session) newOrchestrator(decl declaration.Declaration, scope trackedScope) *orchestrator.Orchestrator {
	opts := []orchestrator.Option{orchestrator.WithName(scope.Name())}
	if s.devops != nil {
		opts = append(opts, orchestrator.WithListener(s.devops))
	}

	return orchestrator.New(
		s.runner,
		scope.Logger().WithField("session", s.id),
		decl.Setup,
		decl.Teardown,
		decl.SkipTeardown,
		opts...,
	)
}

// Fixture runs the setup playbooks of the test right away and registers its
// teardown playbooks with t.Cleanup. Without markers, the declaration of the
// test is looked up by name in the declarations file.
//
// A declaration or setup error ends the test with t.Fatalf before the body
// runs. A failing teardown fails the test with t.Errorf, even when the body
// passed.
func (s *Session) Fixture(t testing.TB, markers ...Marker) *core.Outcome {
	t.Helper()

	name := t.Name()
	scope := s.scopes.NewScope(name)

	if len(markers) == 0 {
		if declared, ok := s.declarations.Markers(name); ok {
			markers = declared
		}
	}

	decl, err := declaration.Resolve(name, markers, s.builder(name))
	if err != nil {
		scope.Finish(err)
		t.Fatalf("%v", err)
	}

	// Failures reported before the fixture belong to the test, not the body.
	failedBefore := t.Failed()

	orch := s.newOrchestrator(decl, scope)
	if err := orch.Enter(context.Background()); err != nil {
		scope.Finish(err)
		t.Fatalf("%v", err)
	}

	t.Cleanup(func() {
		s.exit(t, orch, scope, nil, failedBefore)
	})

	return orch.Outcome()
}

// Options tune a With block.
type Options struct {
	// Do not run the teardown playbooks when the body failed.
	SkipTeardown bool
	// Parameter overrides passed to every playbook of the block.
	Vars map[string]any
}

// With runs the setup playbooks, then body, then the teardown playbooks.
// Body runs on the calling goroutine; t.FailNow and panics inside it still
// run the teardown playbooks.
func (s *Session) With(t testing.TB, setup, teardown []string, body func()) *core.Outcome {
	t.Helper()
	return s.WithOptions(t, Options{}, setup, teardown, body)
}

func (s *Session) WithOptions(
	t testing.TB,
	opts Options,
	setup, teardown []string,
	body func(),
) *core.Outcome {
	t.Helper()

	name := t.Name()
	scope := s.scopes.NewScope(name)
	build := s.builder(name)

	decl := declaration.Declaration{SkipTeardown: opts.SkipTeardown}
	for _, p := range setup {
		decl.Setup = append(decl.Setup, build(p, opts.Vars))
	}
	for _, p := range teardown {
		decl.Teardown = append(decl.Teardown, build(p, opts.Vars))
	}

	failedBefore := t.Failed()

	orch := s.newOrchestrator(decl, scope)
	if err := orch.Enter(context.Background()); err != nil {
		scope.Finish(err)
		t.Fatalf("%v", err)
	}

	returned := false
	defer func() {
		r := recover()

		var bodyErr error
		switch {
		case r != nil:
			bodyErr = orchestrator.NewPanicError(r, debug.Stack())
		case !returned && !t.Skipped():
			bodyErr = orchestrator.ErrBodyAborted
		}

		s.exit(t, orch, scope, bodyErr, failedBefore)

		if r != nil {
			panic(r)
		}
	}()

	body()
	returned = true

	return orch.Outcome()
}

// Runs the teardown phase of a test scope and reports its outcome to t. The
// body counts as failed through t only if t was not failed before it ran.
func (s *Session) exit(
	t testing.TB,
	orch *orchestrator.Orchestrator,
	scope *scopemgr.Scope,
	bodyErr error,
	failedBefore bool,
) {
	if bodyErr == nil && !failedBefore && t.Failed() {
		bodyErr = scopemgr.ErrBodyFailed
	}

	err := orch.Exit(context.Background(), bodyErr)

	var teardownErr *orchestrator.TeardownError
	if errors.As(err, &teardownErr) {
		t.Errorf("teardown error in scope '%s': %v", orch.Name(), teardownErr.Err())
	}

	if err == nil && t.Skipped() {
		scope.Skip("test skipped")
		return
	}

	scope.Finish(err)
}

// Scope is a custom wider scope, e.g. one shared by several tests. The
// caller drives it with Enter, Call and Exit, or Run.
type Scope struct {
	*orchestrator.Orchestrator
	tracked *scopemgr.Scope
}

// Scope resolves the markers into a new custom scope.
func (s *Session) Scope(name string, markers ...Marker) (*Scope, error) {
	tracked := s.scopes.NewScope(name)

	decl, err := declaration.Resolve(name, markers, s.builder(name))
	if err != nil {
		tracked.Finish(err)
		return nil, err
	}

	return &Scope{
		Orchestrator: s.newOrchestrator(decl, tracked),
		tracked:      tracked,
	}, nil
}

func (sc *Scope) Enter(ctx context.Context) error {
	err := sc.Orchestrator.Enter(ctx)
	if err != nil {
		sc.tracked.Finish(err)
	}

	return err
}

func (sc *Scope) Exit(ctx context.Context, bodyErr error) error {
	err := sc.Orchestrator.Exit(ctx, bodyErr)
	if sc.tracked.Status().IsRunning() {
		sc.tracked.Finish(err)
	}

	return err
}

func (sc *Scope) Run(ctx context.Context, body func(context.Context) error) error {
	if err := sc.Enter(ctx); err != nil {
		return err
	}

	return sc.Exit(ctx, sc.Call(ctx, body))
}
