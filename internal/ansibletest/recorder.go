package ansibletest

import (
	"context"
	"sync"

	"ansiblefixture/pkg/ansiblefixture/core"
)

// RecordingRunner is an in-memory core.ActionRunner. It records every
// executed action and fails the actions listed in Fail with an
// *core.ActionFailure.
type RecordingRunner struct {
	// Action ids to fail, with the exit code to report.
	Fail map[string]int
	// Action ids to report as missing.
	Missing map[string]bool

	mu       sync.Mutex
	executed []core.Action
}

func NewRecordingRunner() *RecordingRunner {
	return &RecordingRunner{
		Fail:    make(map[string]int),
		Missing: make(map[string]bool),
	}
}

func (r *RecordingRunner) Execute(ctx context.Context, action core.Action) (core.RunResult, error) {
	if r.Missing[action.Id()] {
		return nil, &core.ActionNotFound{Path: action.ResolvedPath()}
	}

	r.mu.Lock()
	r.executed = append(r.executed, action)
	r.mu.Unlock()

	if code, ok := r.Fail[action.Id()]; ok {
		return nil, &core.ActionFailure{Action: action.Id(), ExitCode: code}
	}

	return core.RunResult{
		"localhost": {{Task: action.Id(), Module: "ping", Msg: action.SessionId()}},
	}, nil
}

// Executed returns the ids of the executed actions in order.
func (r *RecordingRunner) Executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return core.ActionList(r.executed).Ids()
}

// Actions returns the executed actions in order.
func (r *RecordingRunner) Actions() []core.Action {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]core.Action(nil), r.executed...)
}
