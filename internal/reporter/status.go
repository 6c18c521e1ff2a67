package reporter

import (
	"github.com/fatih/color"
)

type SummaryStatus int

const (
	StatusOk SummaryStatus = iota
	StatusFailed
	StatusError
)

func (ss SummaryStatus) String() string {
	switch ss {
	case StatusOk:
		return "OK"
	case StatusFailed:
		return "FAILED"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (ss SummaryStatus) StringColor() string {
	switch ss {
	case StatusOk:
		return color.GreenString(ss.String())
	case StatusFailed:
		return color.RedString(ss.String())
	case StatusError:
		return color.New(color.FgRed, color.Bold).Sprint(ss.String())
	default:
		return ss.String()
	}
}

func (ss SummaryStatus) IsBad() bool {
	return ss == StatusFailed || ss == StatusError
}
