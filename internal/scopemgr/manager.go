// Package scopemgr keeps track of the scopes of a session: their status and
// the logs captured while they ran.
package scopemgr

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Manager struct {
	log       *logrus.Logger
	startTime time.Time

	mu     sync.Mutex
	scopes []*Scope
}

func NewManager(log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Manager{
		log:       log,
		startTime: time.Now(),
		scopes:    make([]*Scope, 0),
	}
}

// NewScope registers a new running scope. Safe for concurrent use.
func (m *Manager) NewScope(name string) *Scope {
	m.mu.Lock()
	defer m.mu.Unlock()

	scope := newScope(name, uint(len(m.scopes)), m)
	m.scopes = append(m.scopes, scope)
	return scope
}

// Close closes every scope that is still running: with the error when err
// is not nil, as passed otherwise.
func (m *Manager) Close(err error) {
	m.log.Debug("Closing scope manager")
	for _, scope := range m.Scopes() {
		if !scope.Status().IsRunning() {
			continue
		}

		if err != nil {
			scope.Error(err)
		} else {
			scope.Pass()
		}
	}
}

// Scopes returns the registered scopes in registration order.
func (m *Manager) Scopes() []*Scope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Scope(nil), m.scopes...)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scopes)
}

func (m *Manager) RunTime() time.Duration {
	return time.Since(m.startTime)
}
