package core

import (
	"fmt"
	"slices"
	"sort"
)

// TaskOutcome is the result of one task on one host.
type TaskOutcome struct {
	Task        string `json:"task"`
	Module      string `json:"module,omitempty"`
	Changed     bool   `json:"changed"`
	Failed      bool   `json:"failed"`
	Skipped     bool   `json:"skipped"`
	Unreachable bool   `json:"unreachable"`
	Msg         string `json:"msg,omitempty"`
}

// RunResult maps a host name to the outcomes of the tasks run on it, in play
// order.
type RunResult map[string][]TaskOutcome

// Hosts returns the host names in lexical order.
func (r RunResult) Hosts() []string {
	hosts := make([]string, 0, len(r))
	for host := range r {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

// Failed returns true if any task failed or any host was unreachable.
func (r RunResult) Failed() bool {
	for _, outcomes := range r {
		for _, o := range outcomes {
			if o.Failed || o.Unreachable {
				return true
			}
		}
	}
	return false
}

// Changed returns the number of tasks that reported a change, across all
// hosts.
func (r RunResult) Changed() int {
	count := 0
	for _, outcomes := range r {
		for _, o := range outcomes {
			if o.Changed {
				count++
			}
		}
	}
	return count
}

type phaseEntry struct {
	id     string
	result RunResult
}

// PhaseResults records the results of the actions of one phase, keyed by
// action identifier, in execution order. Each action is written once.
type PhaseResults struct {
	entries []phaseEntry
}

// Record stores the result for an action. Recording the same action twice is
// an error and leaves the first result in place.
func (p *PhaseResults) Record(id string, result RunResult) error {
	if p.Has(id) {
		return fmt.Errorf("result for action '%s' already recorded", id)
	}

	p.entries = append(p.entries, phaseEntry{id: id, result: result})
	return nil
}

// NextKey returns the key under which the next run of the action should be
// recorded. A playbook listed more than once in a phase gets a numbered key
// for every repetition, e.g. "play.yml#2".
func (p *PhaseResults) NextKey(id string) string {
	key := id
	for n := 2; p.Has(key); n++ {
		key = fmt.Sprintf("%s#%d", id, n)
	}
	return key
}

func (p *PhaseResults) Has(id string) bool {
	return slices.ContainsFunc(p.entries, func(e phaseEntry) bool {
		return e.id == id
	})
}

// Get returns the result recorded for the action.
func (p *PhaseResults) Get(id string) (RunResult, bool) {
	for _, e := range p.entries {
		if e.id == id {
			return e.result, true
		}
	}
	return nil, false
}

// Ids returns the recorded action identifiers in execution order.
func (p *PhaseResults) Ids() []string {
	ids := make([]string, len(p.entries))
	for i, e := range p.entries {
		ids[i] = e.id
	}
	return ids
}

func (p *PhaseResults) Len() int {
	return len(p.entries)
}

// Outcome holds the results of both phases of one orchestration.
type Outcome struct {
	Setup    PhaseResults
	Teardown PhaseResults
}
