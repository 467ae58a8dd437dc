package enrich

import (
	"fmt"
	"sync/atomic"
)

// Stats is a point-in-time view of an enrichment run
type Stats struct {
	Done    int
	Total   int
	Skipped int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d/%d, skipped %d", s.Done, s.Total, s.Skipped)
}

// Run holds the counters of a single enrichment run. Each call to Enrich
// gets its own Run, so concurrent runs never share counters.
type Run struct {
	done    atomic.Int64
	total   atomic.Int64
	skipped atomic.Int64
}

func newRun(total int) *Run {
	r := &Run{}
	r.total.Store(int64(total))
	return r
}

// Snapshot returns the current counters
func (r *Run) Snapshot() Stats {
	return Stats{
		Done:    int(r.done.Load()),
		Total:   int(r.total.Load()),
		Skipped: int(r.skipped.Load()),
	}
}

func (r *Run) entryDone() Stats {
	r.done.Add(1)
	return r.Snapshot()
}

func (r *Run) skip() {
	r.skipped.Add(1)
}
