package reporter

import (
	"fmt"
	"strings"

	"ansiblefixture/internal/scopemgr"
)

type Summary struct {
	total   int
	passed  int
	failed  int
	skipped int
	running int
	errored int
}

func newSummary(scopes []*scopemgr.Scope) Summary {
	var summary Summary

	for _, scope := range scopes {
		summary.total++
		switch scope.Status() {
		case scopemgr.StatusPassed:
			summary.passed++
		case scopemgr.StatusFailed:
			summary.failed++
		case scopemgr.StatusSkipped:
			summary.skipped++
		case scopemgr.StatusRunning:
			summary.running++
		case scopemgr.StatusError:
			summary.errored++
		default:
			panic("invalid scope status")
		}
	}

	return summary
}

func (s Summary) Status() SummaryStatus {
	if s.errored > 0 {
		return StatusError
	}
	if s.failed > 0 {
		return StatusFailed
	}
	return StatusOk
}

func (s Summary) String() string {
	var out []string

	if s.failed > 0 {
		out = append(out, fmt.Sprintf("failed: %d", s.failed))
	}

	if s.errored > 0 {
		out = append(out, fmt.Sprintf("errored: %d", s.errored))
	}
	if s.skipped > 0 {
		out = append(out, fmt.Sprintf("skipped: %d", s.skipped))
	}
	if s.running > 0 {
		out = append(out, fmt.Sprintf("unfinished: %d", s.running))
	}

	out = append(out, fmt.Sprintf("passed: %d", s.passed))
	out = append(out, fmt.Sprintf("total: %d", s.total))

	return strings.Join(out, "; ")
}
