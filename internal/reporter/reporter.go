// Package reporter prints the end of session report: the captured logs of
// every scope that did not pass and a one line summary.
package reporter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"ansiblefixture/internal/scopemgr"

	"github.com/dustin/go-humanize"
)

var ErrNoScopes = errors.New("no playbook scopes were run")

type Reporter struct {
	out     io.Writer
	width   int
	scopes  []*scopemgr.Scope
	runTime time.Duration
}

// New creates a reporter for the scopes of m, writing to out. A nil out means
// stdout, in which case the width follows the terminal.
func New(out io.Writer, m *scopemgr.Manager) *Reporter {
	width := 80
	if out == nil {
		out = os.Stdout
		width = termWidth()
	}

	return &Reporter{
		out:     out,
		width:   width,
		scopes:  m.Scopes(),
		runTime: m.RunTime(),
	}
}

func (r *Reporter) Summary() Summary {
	return newSummary(r.scopes)
}

func (r *Reporter) PrintReport() error {
	summary := r.Summary()
	if summary.total == 0 {
		return ErrNoScopes
	}

	var captured uint64
	for _, scope := range r.scopes {
		captured += uint64(scope.LogSize())

		status := scope.Status()
		if status.Passed() {
			continue
		}

		printSeparatorWithTitle(r.out, r.width, fmt.Sprintf("%s [%s]", scope.Name(), status))
		if err := scope.Err(); err != nil {
			for _, line := range simpleWordWrap(err.Error(), r.width-4) {
				fmt.Fprintf(r.out, "  %s\n", line)
			}
		}

		fmt.Fprintf(r.out, "Run time: %s\n", scope.RunTime().Round(time.Millisecond))
		fmt.Fprintf(r.out, "Collected logs (%s):\n", humanize.Bytes(uint64(scope.LogSize())))
		for _, line := range scope.LogLines() {
			fmt.Fprintln(r.out, "    ", line)
		}
	}

	printSeparator(r.out, r.width)
	fmt.Fprintf(
		r.out,
		"TEST RESULT: %s. %s\n",
		summary.Status().StringColor(),
		summary.String(),
	)
	fmt.Fprintf(r.out, "Captured %s of scope logs.\n", humanize.Bytes(captured))
	fmt.Fprintf(r.out, "Ran %d playbook scope(s) in %s.\n", summary.total, r.runTime.Round(time.Millisecond))

	return nil
}

// ExitError returns an error when any scope failed or errored.
func (r *Reporter) ExitError() error {
	summary := r.Summary()

	switch summary.Status() {
	case StatusError:
		return fmt.Errorf("%d playbook scope(s) errored and %d failed", summary.errored, summary.failed)
	case StatusFailed:
		return fmt.Errorf("%d playbook scope(s) failed", summary.failed)
	default:
		return nil
	}
}
