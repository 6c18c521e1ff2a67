package scopemgr

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"ansiblefixture/internal/orchestrator"
	"ansiblefixture/pkg/ansiblefixture/core"

	"github.com/sirupsen/logrus"
)

// ErrBodyFailed marks an orchestration whose body failed without an error
// value of its own, e.g. a test that called t.Errorf.
var ErrBodyFailed = errors.New("body failed")

type Scope struct {
	name      string
	index     uint
	parent    *Manager
	startTime time.Time
	log       *logrus.Logger
	logBuffer syncBuffer

	mu      sync.Mutex
	endTime time.Time
	status  Status
	reason  string
	err     error
}

// Implementer of logrus.Hook interface to tee log messages from the scope
// logger to the session logger.
type scopeLogTee struct {
	sessionLogger *logrus.Logger
	scopeId       string
}

func (tee scopeLogTee) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (tee scopeLogTee) Fire(entry *logrus.Entry) error {
	newEntry := tee.sessionLogger.WithFields(entry.Data)
	newEntry.Caller = entry.Caller
	newEntry.Log(entry.Level, fmt.Sprintf("[%s] > %s", tee.scopeId, entry.Message))
	return nil
}

func newScope(name string, index uint, parent *Manager) *Scope {
	s := &Scope{
		name:      name,
		index:     index,
		parent:    parent,
		startTime: time.Now(),
		status:    StatusRunning,
		log:       logrus.New(),
	}

	s.log.SetLevel(logrus.TraceLevel)
	s.log.SetOutput(&s.logBuffer)
	s.log.SetFormatter(&logrus.TextFormatter{
		ForceColors:      true,
		DisableTimestamp: false,
	})
	s.log.AddHook(scopeLogTee{
		sessionLogger: parent.log,
		scopeId:       s.Id(),
	})

	return s
}

func (s *Scope) Name() string {
	return s.name
}

// Id is the index and name of the scope, e.g. "0003:TestCreateUser".
func (s *Scope) Id() string {
	return fmt.Sprintf("%04d:%s", s.index, s.name)
}

// Logger returns the logger of the scope. Everything logged to it is kept
// for the report and forwarded to the session logger.
func (s *Scope) Logger() *logrus.Logger {
	return s.log
}

func (s *Scope) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the error the scope was closed with, if any.
func (s *Scope) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Scope) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

func (s *Scope) RunTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusRunning {
		return time.Since(s.startTime)
	}

	return s.endTime.Sub(s.startTime)
}

// LogLines returns the captured log of the scope, one entry per line.
func (s *Scope) LogLines() []string {
	raw := bytes.Split(bytes.TrimRight(s.logBuffer.Bytes(), "\n"), []byte("\n"))
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if len(line) == 0 {
			continue
		}
		lines = append(lines, string(line))
	}

	return lines
}

// LogSize returns the number of bytes captured in the scope log.
func (s *Scope) LogSize() int {
	return s.logBuffer.Len()
}

func (s *Scope) Pass() {
	s.close(StatusPassed, "", nil)
}

func (s *Scope) Fail(reason string) {
	s.close(StatusFailed, reason, nil)
}

func (s *Scope) Error(err error) {
	s.close(StatusError, "", err)
}

func (s *Scope) Skip(reason string) {
	s.close(StatusSkipped, reason, nil)
}

// Finish closes the scope with the status derived from the outcome of its
// orchestration. See StatusOf.
func (s *Scope) Finish(err error) {
	status := StatusOf(err)
	if status == StatusPassed {
		err = nil
	}

	s.close(status, "", err)
}

// StatusOf derives a scope status from the error an orchestration ended
// with. Declaration, setup and teardown errors are ERROR, any other error is
// a failed body.
func StatusOf(err error) Status {
	if err == nil {
		return StatusPassed
	}

	var declErr *core.DeclarationError
	var setupErr *orchestrator.SetupError
	var teardownErr *orchestrator.TeardownError
	if errors.As(err, &declErr) || errors.As(err, &setupErr) || errors.As(err, &teardownErr) {
		return StatusError
	}

	return StatusFailed
}

func (s *Scope) close(status Status, reason string, err error) {
	if status == StatusRunning {
		panic("cannot close scope with status running")
	}

	s.mu.Lock()
	if s.status != StatusRunning {
		previous := s.status
		s.mu.Unlock()
		s.parent.log.Warnf(
			"Attempted to close scope '%s' with status '%s', but it was already closed with status '%s'. Ignoring.",
			s.name,
			status,
			previous,
		)
		return
	}

	s.status = status
	s.reason = reason
	s.err = err
	s.endTime = time.Now()
	s.mu.Unlock()

	entry := logrus.NewEntry(s.log)
	if reason != "" {
		entry = entry.WithField("reason", reason)
	}

	if err != nil {
		entry = entry.WithError(err)
	}

	entry.Log(status.logLevel(), status.String())

	// Nothing is captured after the scope is closed.
	s.log.SetOutput(io.Discard)

	s.parent.log.
		WithField("scope", s.name).
		WithField("status", status.String()).
		Logf(status.logLevel(), "%s: %s", s.name, status)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

func (b *syncBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}
