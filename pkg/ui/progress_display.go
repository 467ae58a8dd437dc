package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressDisplay is a single-line Sink for plain terminals
type ProgressDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	status    string
	progress  Progress
	errMsg    string
	errSeq    int
	startTime time.Time
	after     func(d time.Duration, f func())
}

// NewProgressDisplay creates a display writing to out (stdout when nil)
func NewProgressDisplay(out io.Writer) *ProgressDisplay {
	if out == nil {
		out = os.Stdout
	}
	return &ProgressDisplay{
		out:       out,
		startTime: time.Now(),
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Status replaces the status line
func (p *ProgressDisplay) Status(message string, progress Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = message
	p.progress = progress
	p.printLine()
}

// Error shows message on the status line until ErrorDisplayDuration passes
// or another error replaces it
func (p *ProgressDisplay) Error(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.errMsg = message
	p.errSeq++
	seq := p.errSeq
	p.printLine()

	p.after(ErrorDisplayDuration, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.errSeq != seq {
			return
		}
		p.errMsg = ""
		p.printLine()
	})
}

// Done finishes the line and prints a summary
func (p *ProgressDisplay) Done(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.errMsg = ""
	p.errSeq++
	fmt.Fprintf(p.out, "\r\033[2K%s %s %s\n", Green("✓"), message, Dim("("+formatDuration(time.Since(p.startTime))+")"))
}

// printLine redraws the status line; callers hold mu
func (p *ProgressDisplay) printLine() {
	line := Cyan(p.status)
	if !p.progress.IsZero() {
		if p.progress.Total > 0 {
			line += " " + bar(p.progress.Fraction(), 20)
		}
		line += " " + p.progress.String()
	}
	if p.errMsg != "" {
		line += " " + Red("✗ "+p.errMsg)
	}
	fmt.Fprintf(p.out, "\r\033[2K%s", line)
}

func bar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	return "[" + strings.Repeat("━", filled) + strings.Repeat("─", width-filled) + "]"
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
