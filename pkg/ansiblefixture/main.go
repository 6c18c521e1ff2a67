package ansiblefixture

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"ansiblefixture/internal/config"
	"ansiblefixture/pkg/ansiblefixture/core"

	"github.com/sirupsen/logrus"
)

const (
	// Exit code of Main for an invalid configuration.
	ExitUsage = 4

	// Name of the scope wrapping the whole test binary run.
	SessionScope = "session"
)

var ErrScopeNotExited = errors.New("scope was never exited")

var (
	defaultMu      sync.Mutex
	defaultSession *Session
)

// Default returns the session created by Main, or nil.
func Default() *Session {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultSession
}

func setDefault(s *Session) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSession = s
}

// Main creates the default session and runs the tests around the session
// playbooks of the declarations file. Use it from TestMain:
//
//	func TestMain(m *testing.M) {
//		os.Exit(ansiblefixture.Main(m))
//	}
//
// Options are read from the arguments after -args and from the environment:
//
//	go test ./... -args --ansible-playbook-directory=playbooks
func Main(m *testing.M, opts ...Option) int {
	if !flag.Parsed() {
		flag.Parse()
	}

	session, code := newMainSession(filepath.Base(os.Args[0]), flag.Args(), os.Stderr, opts...)
	if session == nil {
		return code
	}

	setDefault(session)
	return session.runMain(m.Run, nil)
}

// Creates the session of Main. Without a session, the returned code is the
// exit code of the test binary.
func newMainSession(name string, args []string, stderr io.Writer, opts ...Option) (*Session, int) {
	cfg, err := config.Parse(name, args)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return nil, ExitUsage
	}

	session, err := NewSession(cfg, opts...)
	if err != nil {
		var cfgErr *core.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			return nil, ExitUsage
		}

		logrus.WithError(err).Error("Failed to create playbook session")
		return nil, 1
	}

	return session, 0
}

// Runs the tests inside the session scope and prints the report to out. The
// exit code is nonzero when a session playbook failed, even if run passed.
func (s *Session) runMain(run func() int, out io.Writer) int {
	code := 0

	markers, ok := s.declarations.SessionMarkers()
	if !ok {
		code = run()
	} else {
		code = s.runSessionScope(markers, run)
	}

	s.scopes.Close(ErrScopeNotExited)

	if s.scopes.Len() > 0 {
		if err := s.Report(out); err != nil {
			s.log.WithError(err).Debug("Playbook scopes did not all pass")
			if code == 0 {
				code = 1
			}
		}
	}

	if code != 0 && s.devops != nil {
		s.devops.LogError("Playbook session '%s' finished with exit code %d", s.id, code)
	}

	return code
}

func (s *Session) runSessionScope(markers []Marker, run func() int) int {
	scope, err := s.Scope(SessionScope, markers...)
	if err != nil {
		s.log.WithError(err).Error("Invalid session playbook declaration")
		return ExitUsage
	}

	code := 0
	err = scope.Run(context.Background(), func(context.Context) error {
		code = run()
		if code != 0 {
			return fmt.Errorf("tests exited with code %d", code)
		}
		return nil
	})

	if err != nil {
		s.log.WithError(err).Error("Session playbooks failed")
		if code == 0 {
			code = 1
		}
	}

	return code
}
