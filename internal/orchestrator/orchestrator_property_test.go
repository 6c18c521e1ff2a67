package orchestrator

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"ansiblefixture/internal/ansibletest"
	"ansiblefixture/pkg/ansiblefixture/core"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func numbered(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%d.yml", prefix, i)
	}
	return ids
}

// Property: when setup action k fails, actions 0..k ran, nothing after k ran
// and no teardown ran.
func TestSetupShortCircuitProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("no setup action after a failing one runs", prop.ForAll(
		func(n int, failAt int, teardownCount int) bool {
			failAt = failAt % n
			setupIds := numbered("s", n)
			runner := ansibletest.NewRecordingRunner()
			runner.Fail[setupIds[failAt]] = 2

			o := New(runner, quietLogger(), actions(setupIds...), actions(numbered("t", teardownCount)...), false)
			err := o.Run(context.Background(), func(context.Context) error { return nil })
			if err == nil {
				return false
			}

			return slices.Equal(runner.Executed(), setupIds[:failAt+1])
		},
		gen.IntRange(1, 8),
		gen.IntRange(0, 7),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}

// Property: a failing body with skip-teardown leaves no teardown side
// effects; without skip-teardown every teardown action ran, in order.
func TestTeardownPolicyProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("teardown follows the skip policy", prop.ForAll(
		func(setupCount int, teardownCount int, skip bool, bodyFails bool) bool {
			setupIds := numbered("s", setupCount)
			teardownIds := numbered("t", teardownCount)
			runner := ansibletest.NewRecordingRunner()

			o := New(runner, quietLogger(), actions(setupIds...), actions(teardownIds...), skip)
			err := o.Run(context.Background(), func(context.Context) error {
				if bodyFails {
					return errBody
				}
				return nil
			})

			if bodyFails != (err != nil) {
				return false
			}

			want := slices.Clone(setupIds)
			if !(bodyFails && skip) {
				want = append(want, teardownIds...)
			}

			return slices.Equal(runner.Executed(), want) &&
				o.Outcome().Teardown.Len() == len(want)-len(setupIds)
		},
		gen.IntRange(0, 5),
		gen.IntRange(0, 5),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property: running the same action under different correlation ids yields
// independent results.
func TestCorrelationIndependenceProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("results do not leak between sessions", prop.ForAll(
		func(first string, second string) bool {
			if first == second {
				return true
			}

			runner := ansibletest.NewRecordingRunner()
			run := func(session string) core.RunResult {
				o := New(runner, quietLogger(),
					core.ActionList{core.NewAction("play.yml", "/playbooks", session, "test", nil)}, nil, false)
				if err := o.Enter(context.Background()); err != nil {
					return nil
				}
				result, _ := o.Outcome().Setup.Get("play.yml")
				return result
			}

			r1 := run(first)
			r2 := run(second)

			return r1["localhost"][0].Msg == first && r2["localhost"][0].Msg == second
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
