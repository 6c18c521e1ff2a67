package scopemgr

import "github.com/sirupsen/logrus"

type Status int

const (
	StatusRunning Status = iota
	StatusPassed
	StatusFailed
	StatusSkipped
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "RUNNING"
	case StatusPassed:
		return "PASS"
	case StatusFailed:
		return "FAIL"
	case StatusSkipped:
		return "SKIP"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (s Status) logLevel() logrus.Level {
	switch s {
	case StatusFailed, StatusError:
		return logrus.ErrorLevel
	case StatusSkipped:
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}

func (s Status) IsRunning() bool {
	return s == StatusRunning
}

func (s Status) Passed() bool {
	return s == StatusPassed
}

// IsBad returns true if the status is either Failed or Error.
func (s Status) IsBad() bool {
	return s == StatusFailed || s == StatusError
}
