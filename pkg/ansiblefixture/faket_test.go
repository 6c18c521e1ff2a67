package ansiblefixture

import (
	"fmt"
	"runtime"
	"sync"
	"testing"
)

// fakeT records failures instead of failing the real test, so that failing
// scopes can be tested. It runs its body on its own goroutine like the
// testing package does, and runs cleanups after the body even when the body
// called FailNow.
type fakeT struct {
	testing.TB
	name string

	mu       sync.Mutex
	failed   bool
	skipped  bool
	errors   []string
	cleanups []func()
}

func runFakeT(parent testing.TB, name string, body func(t *fakeT)) *fakeT {
	ft := &fakeT{TB: parent, name: name}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer ft.runCleanups()
		body(ft)
	}()
	<-done

	return ft
}

func (ft *fakeT) runCleanups() {
	for i := len(ft.cleanups) - 1; i >= 0; i-- {
		ft.cleanups[i]()
	}
}

func (ft *fakeT) Name() string {
	return ft.name
}

func (ft *fakeT) Helper() {}

func (ft *fakeT) Cleanup(f func()) {
	ft.cleanups = append(ft.cleanups, f)
}

func (ft *fakeT) Errorf(format string, args ...any) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.failed = true
	ft.errors = append(ft.errors, fmt.Sprintf(format, args...))
}

func (ft *fakeT) Error(args ...any) {
	ft.Errorf("%s", fmt.Sprint(args...))
}

func (ft *fakeT) Fatalf(format string, args ...any) {
	ft.Errorf(format, args...)
	runtime.Goexit()
}

func (ft *fakeT) Fatal(args ...any) {
	ft.Error(args...)
	runtime.Goexit()
}

func (ft *fakeT) Fail() {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.failed = true
}

func (ft *fakeT) FailNow() {
	ft.Fail()
	runtime.Goexit()
}

func (ft *fakeT) Failed() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.failed
}

func (ft *fakeT) SkipNow() {
	ft.mu.Lock()
	ft.skipped = true
	ft.mu.Unlock()
	runtime.Goexit()
}

func (ft *fakeT) Skip(args ...any) {
	ft.SkipNow()
}

func (ft *fakeT) Skipped() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.skipped
}

func (ft *fakeT) Errors() []string {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return append([]string(nil), ft.errors...)
}
