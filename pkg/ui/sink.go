package ui

import (
	"fmt"
	"time"
)

// ErrorDisplayDuration is how long a transient error stays visible
const ErrorDisplayDuration = 3 * time.Second

// Progress is an optional counter shown next to a status message
type Progress struct {
	Current int
	Total   int
	Note    string
}

// IsZero reports whether there is nothing to show
func (p Progress) IsZero() bool {
	return p.Total == 0 && p.Current == 0 && p.Note == ""
}

// Fraction returns Current/Total clamped to [0, 1]
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Current) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

func (p Progress) String() string {
	s := ""
	if p.Total > 0 {
		s = fmt.Sprintf("%d/%d", p.Current, p.Total)
	}
	if p.Note != "" {
		if s != "" {
			s += ", "
		}
		s += p.Note
	}
	return s
}

// Sink receives user-visible progress of an export run. Implementations
// must be safe for concurrent use.
type Sink interface {
	// Status replaces the current status line
	Status(message string, progress Progress)
	// Error shows a message that disappears after ErrorDisplayDuration
	Error(message string)
	// Done reports a finished run
	Done(message string)
}

// Discard is a Sink that drops everything
var Discard Sink = discard{}

type discard struct{}

func (discard) Status(string, Progress) {}
func (discard) Error(string)            {}
func (discard) Done(string)             {}
