package enrich

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilifollow/pkg/bilibili"
	"bilifollow/pkg/logger"
	"bilifollow/pkg/ratelimit"
)

type fakeAPI struct {
	followers map[int64]int64
	fail      map[string]map[int64]bool

	relationCalls atomic.Int32
	upCalls       atomic.Int32
	navCalls      atomic.Int32
	accountCalls  atomic.Int32
}

func (f *fakeAPI) failing(endpoint string, mid int64) bool {
	return f.fail != nil && f.fail[endpoint][mid]
}

func (f *fakeAPI) RelationStat(ctx context.Context, mid int64) (*bilibili.RelationStat, error) {
	f.relationCalls.Add(1)
	if f.failing("relation", mid) {
		return nil, errors.New("relation failed")
	}
	return &bilibili.RelationStat{Mid: mid, Follower: f.followers[mid]}, nil
}

func (f *fakeAPI) UpStat(ctx context.Context, mid int64) (*bilibili.UpStat, error) {
	f.upCalls.Add(1)
	if f.failing("upstat", mid) {
		return nil, errors.New("upstat failed")
	}
	return &bilibili.UpStat{Likes: mid * 100}, nil
}

func (f *fakeAPI) NavNum(ctx context.Context, mid int64) (*bilibili.NavNum, error) {
	f.navCalls.Add(1)
	if f.failing("navnum", mid) {
		return nil, errors.New("navnum failed")
	}
	return &bilibili.NavNum{Video: mid + 1}, nil
}

func (f *fakeAPI) AccountInfo(ctx context.Context, mid int64) (*bilibili.AccountInfo, error) {
	f.accountCalls.Add(1)
	if f.failing("account", mid) {
		return nil, errors.New("account failed")
	}
	info := &bilibili.AccountInfo{Mid: mid, Level: 6}
	if mid == 1 {
		info.Official = &bilibili.Official{Role: 1, Title: "Known UP"}
	}
	return info, nil
}

func (f *fakeAPI) totalCalls() int32 {
	return f.relationCalls.Load() + f.upCalls.Load() + f.navCalls.Load() + f.accountCalls.Load()
}

func entries(mids ...int64) []bilibili.FollowingEntry {
	out := make([]bilibili.FollowingEntry, len(mids))
	for i, m := range mids {
		out[i] = bilibili.FollowingEntry{Mid: m, Uname: "up"}
	}
	return out
}

func newTestEnricher(api API, cfg Config) (*Enricher, *[]time.Duration) {
	e := New(api, ratelimit.NewThrottle(cfg.Concurrency, true), cfg, logger.NewNopLogger())
	var mu sync.Mutex
	var waits []time.Duration
	e.wait = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		return ctx.Err()
	}
	return e, &waits
}

func TestEnrichNoFieldsMakesNoRequests(t *testing.T) {
	api := &fakeAPI{}
	e, waits := newTestEnricher(api, Config{Concurrency: 4})

	results, run := e.Enrich(context.Background(), entries(1, 2, 3), FieldSelection{})
	assert.Empty(t, results)
	assert.NotNil(t, results)
	assert.Equal(t, int32(0), api.totalCalls())
	assert.Empty(t, *waits)
	assert.Equal(t, Stats{}, run.Snapshot())
}

func TestEnrichFollowers(t *testing.T) {
	api := &fakeAPI{followers: map[int64]int64{1: 10, 2: 20}}
	e, _ := newTestEnricher(api, Config{Concurrency: 6, EntryDelay: DefaultEntryDelay})

	results, run := e.Enrich(context.Background(), entries(1, 2), FieldSelection{Followers: true})
	require.Len(t, results, 2)
	assert.Equal(t, int64(10), *results[1].Followers)
	assert.Equal(t, int64(20), *results[2].Followers)
	assert.Nil(t, results[1].Likes)
	assert.Equal(t, Stats{Done: 2, Total: 2, Skipped: 0}, run.Snapshot())
}

func TestEnrichEntryDelayPerEntry(t *testing.T) {
	api := &fakeAPI{}
	e, waits := newTestEnricher(api, Config{Concurrency: 2, EntryDelay: DefaultEntryDelay})

	e.Enrich(context.Background(), entries(1, 2, 3), FieldSelection{Videos: true})
	assert.Equal(t, []time.Duration{300 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}, *waits)
}

func TestEnrichCancelledDuringDelayKeepsEntry(t *testing.T) {
	api := &fakeAPI{followers: map[int64]int64{7: 70}}
	e, _ := newTestEnricher(api, Config{Concurrency: 1, EntryDelay: DefaultEntryDelay})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.wait = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	results, run := e.Enrich(ctx, entries(7), FieldSelection{Followers: true})
	require.Contains(t, results, int64(7))
	assert.Equal(t, int64(70), *results[7].Followers)
	assert.Equal(t, Stats{Done: 1, Total: 1}, run.Snapshot())
}

func TestEnrichFailureIsolatedToEntry(t *testing.T) {
	api := &fakeAPI{
		followers: map[int64]int64{1: 10, 2: 20, 3: 30},
		fail:      map[string]map[int64]bool{"relation": {2: true}},
	}
	e, _ := newTestEnricher(api, Config{Concurrency: 3})

	results, run := e.Enrich(context.Background(), entries(1, 2, 3), FieldSelection{Followers: true, Likes: true})
	require.Len(t, results, 3)

	assert.Equal(t, int64(10), *results[1].Followers)
	assert.Equal(t, int64(30), *results[3].Followers)

	// Entry 2 keeps its likes but has no follower count.
	assert.Nil(t, results[2].Followers)
	require.NotNil(t, results[2].Likes)
	assert.Equal(t, int64(200), *results[2].Likes)

	assert.Equal(t, Stats{Done: 3, Total: 3, Skipped: 1}, run.Snapshot())
}

func TestEnrichAllFieldsFailedOmitsEntry(t *testing.T) {
	api := &fakeAPI{fail: map[string]map[int64]bool{
		"relation": {2: true},
		"navnum":   {2: true},
	}}
	e, _ := newTestEnricher(api, Config{Concurrency: 2})

	results, run := e.Enrich(context.Background(), entries(1, 2), FieldSelection{Followers: true, Videos: true})
	assert.Contains(t, results, int64(1))
	assert.NotContains(t, results, int64(2))
	assert.Equal(t, Stats{Done: 2, Total: 2, Skipped: 2}, run.Snapshot())
}

func TestEnrichLevelAndOfficialShareOneRequest(t *testing.T) {
	api := &fakeAPI{}
	e, _ := newTestEnricher(api, Config{Concurrency: 2})

	results, _ := e.Enrich(context.Background(), entries(1, 2), FieldSelection{Level: true, Official: true})
	assert.Equal(t, int32(2), api.accountCalls.Load())
	assert.Equal(t, int32(2), api.totalCalls())

	require.Len(t, results, 2)
	assert.Equal(t, 6, *results[1].Level)
	assert.True(t, results[1].HasOfficial)
	assert.Equal(t, "Known UP", results[1].Official.Title)

	// Fetched but unverified is still a value.
	assert.True(t, results[2].HasOfficial)
	assert.Nil(t, results[2].Official)
}

func TestEnrichAccountFailureSkipsOnce(t *testing.T) {
	api := &fakeAPI{fail: map[string]map[int64]bool{"account": {1: true}}}
	e, _ := newTestEnricher(api, Config{Concurrency: 1})

	results, run := e.Enrich(context.Background(), entries(1), FieldSelection{Level: true, Official: true})
	assert.Empty(t, results)
	assert.Equal(t, 1, run.Snapshot().Skipped)
}

func TestEnrichOnlyLevelSelected(t *testing.T) {
	api := &fakeAPI{}
	e, _ := newTestEnricher(api, Config{Concurrency: 1})

	results, _ := e.Enrich(context.Background(), entries(1), FieldSelection{Level: true})
	require.Contains(t, results, int64(1))
	assert.NotNil(t, results[1].Level)
	assert.False(t, results[1].HasOfficial)
	assert.Nil(t, results[1].Official)
}

func TestEnrichObserverSeesEveryEntry(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	api := &fakeAPI{}
	e, _ := newTestEnricher(api, Config{
		Concurrency: 4,
		Observer: func(s Stats) {
			mu.Lock()
			seen = append(seen, s.Done)
			mu.Unlock()
			assert.Equal(t, 10, s.Total)
		},
	})

	e.Enrich(context.Background(), entries(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), FieldSelection{Likes: true})
	sort.Ints(seen)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, seen)
}

func TestEnrichRunsHaveIndependentStats(t *testing.T) {
	api := &fakeAPI{fail: map[string]map[int64]bool{"upstat": {1: true}}}
	e, _ := newTestEnricher(api, Config{Concurrency: 2})

	_, first := e.Enrich(context.Background(), entries(1, 2), FieldSelection{Likes: true})
	_, second := e.Enrich(context.Background(), entries(3), FieldSelection{Likes: true})

	assert.Equal(t, Stats{Done: 2, Total: 2, Skipped: 1}, first.Snapshot())
	assert.Equal(t, Stats{Done: 1, Total: 1, Skipped: 0}, second.Snapshot())
}

func TestEnrichResetsThrottle(t *testing.T) {
	throttle := ratelimit.NewThrottle(8, true)
	throttle.OnRateLimited()
	throttle.OnRateLimited()
	require.Equal(t, 3, throttle.Limit())

	e := New(&fakeAPI{}, throttle, Config{Concurrency: 8}, logger.NewNopLogger())
	e.wait = func(ctx context.Context, d time.Duration) error { return nil }

	e.Enrich(context.Background(), entries(1), FieldSelection{Videos: true})
	assert.Equal(t, 8, throttle.Limit())
	assert.Equal(t, 0, throttle.Reductions())
}

// rateLimitedAPI lowers the shared throttle on the first call, the way the
// API client does on a 429, and records peak concurrency afterwards.
type rateLimitedAPI struct {
	fakeAPI
	throttle *ratelimit.Throttle
	once     sync.Once
	lowered  atomic.Bool
	running  atomic.Int32
	peak     atomic.Int32
	started  atomic.Int32
}

func (r *rateLimitedAPI) NavNum(ctx context.Context, mid int64) (*bilibili.NavNum, error) {
	n := r.running.Add(1)
	defer r.running.Add(-1)
	r.once.Do(func() {
		r.throttle.OnRateLimited()
		r.lowered.Store(true)
	})
	if r.started.Add(1) > 20 {
		for {
			p := r.peak.Load()
			if n <= p || r.peak.CompareAndSwap(p, n) {
				break
			}
		}
	}
	time.Sleep(5 * time.Millisecond)
	return &bilibili.NavNum{Video: 1}, nil
}

func TestEnrichRateLimitLowersConcurrency(t *testing.T) {
	throttle := ratelimit.NewThrottle(8, true)
	api := &rateLimitedAPI{throttle: throttle}
	e := New(api, throttle, Config{Concurrency: 8}, logger.NewNopLogger())
	e.wait = func(ctx context.Context, d time.Duration) error { return nil }

	mids := make([]int64, 60)
	for i := range mids {
		mids[i] = int64(i + 1)
	}
	results, run := e.Enrich(context.Background(), entries(mids...), FieldSelection{Videos: true})

	assert.Len(t, results, 60)
	assert.Equal(t, 60, run.Snapshot().Done)
	assert.Equal(t, 4, throttle.Limit())
	assert.LessOrEqual(t, api.peak.Load(), int32(4))
}

func TestMergeAugmentsEntries(t *testing.T) {
	followers := int64(99)
	level := 5
	existingLikes := int64(7)
	sign := "bio"

	list := []bilibili.FollowingEntry{
		{Mid: 1, Uname: "a", Sign: &sign, Likes: &existingLikes},
		{Mid: 2, Uname: "b"},
	}
	merged := Merge(list, map[int64]Result{
		1: {Followers: &followers, Level: &level, HasOfficial: true},
	})

	require.Len(t, merged, 2)
	assert.Equal(t, "a", merged[0].Uname)
	assert.Equal(t, "bio", merged[0].Bio())
	assert.Equal(t, int64(99), *merged[0].Followers)
	assert.Equal(t, 5, *merged[0].Level)
	assert.Equal(t, int64(7), *merged[0].Likes)
	assert.Nil(t, merged[0].Official)
	assert.Equal(t, list[1], merged[1])

	// The input slice is not modified.
	assert.Nil(t, list[0].Followers)
}

func TestFieldSelection(t *testing.T) {
	sel := SelectionFromNames([]string{"followers", " LEVEL ", "bogus"})
	assert.True(t, sel.Any())
	assert.Equal(t, []string{"followers", "level"}, sel.Names())
	assert.Equal(t, 2, sel.Requests())

	both := FieldSelection{Level: true, Official: true, Likes: true}
	assert.Equal(t, 2, both.Requests())

	assert.False(t, FieldSelection{}.Any())
	assert.Empty(t, FieldSelection{}.Names())
}
