// Package devops emits Azure DevOps pipeline logging commands around
// playbook runs.
package devops

import (
	"fmt"

	"ansiblefixture/internal/orchestrator"
	"ansiblefixture/pkg/ansiblefixture/core"
)

func (p *Printer) LogError(msg string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "##vso[task.logissue type=error]%s\n", fmt.Sprintf(msg, a...))
}

func (p *Printer) LogWarning(msg string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "##vso[task.logissue type=warning]%s\n", fmt.Sprintf(msg, a...))
}

func groupKey(scope string, phase orchestrator.Phase, action core.Action) string {
	return fmt.Sprintf("%s/%s/%s", scope, phase, action.Id())
}

// ActionStarted opens a group for the action. Printer implements
// orchestrator.PhaseListener.
func (p *Printer) ActionStarted(scope string, phase orchestrator.Phase, action core.Action) {
	g := p.OpenGroup(fmt.Sprintf("%s %s: %s", scope, phase, action.Id()))

	p.mu.Lock()
	p.open[groupKey(scope, phase, action)] = g
	p.mu.Unlock()
}

// ActionFinished closes the group of the action and reports a failure as a
// pipeline error.
func (p *Printer) ActionFinished(scope string, phase orchestrator.Phase, action core.Action, err error) {
	key := groupKey(scope, phase, action)

	p.mu.Lock()
	g, ok := p.open[key]
	delete(p.open, key)
	p.mu.Unlock()

	if ok {
		g.Close()
	}

	if err != nil {
		p.LogError("%s playbook '%s' of '%s' failed: %v", phase, action.Id(), scope, err)
	}
}
