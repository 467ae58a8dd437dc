// Package enrich fetches supplementary per-account statistics for every
// followed account on a bounded, self-throttling worker pool.
package enrich

import (
	"context"
	"time"

	"bilifollow/internal/pool"
	"bilifollow/pkg/bilibili"
	"bilifollow/pkg/logger"
	"bilifollow/pkg/ratelimit"
	"bilifollow/pkg/retry"
)

// DefaultEntryDelay is the pause a worker takes after finishing an entry
const DefaultEntryDelay = 300 * time.Millisecond

// API is the set of per-account endpoints enrichment calls
type API interface {
	RelationStat(ctx context.Context, mid int64) (*bilibili.RelationStat, error)
	UpStat(ctx context.Context, mid int64) (*bilibili.UpStat, error)
	NavNum(ctx context.Context, mid int64) (*bilibili.NavNum, error)
	AccountInfo(ctx context.Context, mid int64) (*bilibili.AccountInfo, error)
}

// Result holds the fields fetched for one account. Nil fields were not
// selected or failed to fetch.
type Result struct {
	Followers  *int64
	Likes      *int64
	VideoCount *int64
	Level      *int
	Official   *bilibili.Official
	// HasOfficial is set when the official field was fetched, even if the
	// account has no verification record.
	HasOfficial bool
}

func (r Result) empty() bool {
	return r.Followers == nil && r.Likes == nil && r.VideoCount == nil && r.Level == nil && !r.HasOfficial
}

// Observer receives a snapshot each time an entry finishes
type Observer func(Stats)

// Config configures an Enricher
type Config struct {
	// Concurrency is the starting worker ceiling of every run
	Concurrency int
	// EntryDelay is the pause after each entry, held by the worker
	EntryDelay time.Duration
	Observer   Observer
}

// Enricher runs enrichment over a list of followed accounts
type Enricher struct {
	api      API
	throttle *ratelimit.Throttle
	config   Config
	wait     func(ctx context.Context, d time.Duration) error
	logger   logger.Logger
}

// New creates an Enricher. The throttle is shared with the API client so
// rate-limit answers lower the pool's ceiling; a nil throttle disables that.
func New(api API, throttle *ratelimit.Throttle, cfg Config, log logger.Logger) *Enricher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if throttle == nil {
		throttle = ratelimit.NewThrottle(cfg.Concurrency, false)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Enricher{api: api, throttle: throttle, config: cfg, wait: retry.Wait, logger: log}
}

type entryResult struct {
	mid    int64
	result Result
}

// Enrich fetches the selected fields for every entry. The returned map is
// keyed by mid and only holds entries with at least one fetched field.
// With nothing selected it returns an empty map without any request.
func (e *Enricher) Enrich(ctx context.Context, entries []bilibili.FollowingEntry, sel FieldSelection) (map[int64]Result, *Run) {
	results := make(map[int64]Result)
	if !sel.Any() || len(entries) == 0 {
		return results, newRun(0)
	}

	run := newRun(len(entries))
	e.throttle.Reset(e.config.Concurrency)

	e.logger.InfoWithFields("Starting enrichment", map[string]interface{}{
		"entries":     len(entries),
		"fields":      sel.Names(),
		"concurrency": e.config.Concurrency,
		"adaptive":    e.throttle.Enabled(),
	})

	tasks := make([]pool.Task[entryResult], len(entries))
	for i := range entries {
		entry := entries[i]
		tasks[i] = func(ctx context.Context) (entryResult, error) {
			return e.enrichEntry(ctx, entry, sel, run)
		}
	}

	failed := 0
	for _, r := range pool.Run(ctx, tasks, e.throttle, e.logger) {
		if !r.IsOk() {
			failed++
			continue
		}
		v := r.Value()
		if v.result.empty() {
			continue
		}
		results[v.mid] = v.result
	}

	stats := run.Snapshot()
	e.logger.InfoWithFields("Enrichment finished", map[string]interface{}{
		"done":        stats.Done,
		"total":       stats.Total,
		"skipped":     stats.Skipped,
		"enriched":    len(results),
		"failed":      failed,
		"reductions":  e.throttle.Reductions(),
		"final_limit": e.throttle.Limit(),
	})

	return results, run
}

// enrichEntry issues the selected sub-requests for one account. A failed
// sub-request only drops its own field.
func (e *Enricher) enrichEntry(ctx context.Context, entry bilibili.FollowingEntry, sel FieldSelection, run *Run) (entryResult, error) {
	var res Result
	log := e.logger.WithField("mid", entry.Mid)

	fail := func(field string, err error) {
		run.skip()
		log.WithError(err).DebugWithFields("Skipped field", map[string]interface{}{"field": field})
	}

	if sel.Followers {
		if s, err := e.api.RelationStat(ctx, entry.Mid); err != nil {
			fail(FieldFollowers, err)
		} else {
			res.Followers = &s.Follower
		}
	}

	if sel.Likes {
		if s, err := e.api.UpStat(ctx, entry.Mid); err != nil {
			fail(FieldLikes, err)
		} else {
			res.Likes = &s.Likes
		}
	}

	if sel.Videos {
		if n, err := e.api.NavNum(ctx, entry.Mid); err != nil {
			fail(FieldVideos, err)
		} else {
			res.VideoCount = &n.Video
		}
	}

	if sel.accountInfo() {
		if info, err := e.api.AccountInfo(ctx, entry.Mid); err != nil {
			fail("account", err)
		} else {
			if sel.Level {
				res.Level = &info.Level
			}
			if sel.Official {
				res.Official = info.Official
				res.HasOfficial = true
			}
		}
	}

	stats := run.entryDone()
	logger.LogEnrichProgress(e.logger, stats.Done, stats.Total, stats.Skipped)
	if e.config.Observer != nil {
		e.config.Observer(stats)
	}

	// The pause only spaces out entries; a cancelled wait keeps what was fetched.
	if err := e.wait(ctx, e.config.EntryDelay); err != nil {
		log.DebugWithFields("Entry delay interrupted", map[string]interface{}{"error": err.Error()})
	}
	return entryResult{mid: entry.Mid, result: res}, nil
}

// Merge returns a copy of entries with fetched fields filled in. Entries
// without a result are returned unchanged; existing fields are never cleared.
func Merge(entries []bilibili.FollowingEntry, results map[int64]Result) []bilibili.FollowingEntry {
	merged := make([]bilibili.FollowingEntry, len(entries))
	copy(merged, entries)

	for i := range merged {
		r, ok := results[merged[i].Mid]
		if !ok {
			continue
		}
		if r.Followers != nil {
			merged[i].Followers = r.Followers
		}
		if r.Likes != nil {
			merged[i].Likes = r.Likes
		}
		if r.VideoCount != nil {
			merged[i].VideoCount = r.VideoCount
		}
		if r.Level != nil {
			merged[i].Level = r.Level
		}
		if r.HasOfficial && r.Official != nil {
			merged[i].Official = r.Official
		}
	}
	return merged
}
