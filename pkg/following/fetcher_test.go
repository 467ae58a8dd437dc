package following

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilifollow/pkg/bilibili"
	"bilifollow/pkg/logger"
)

type fakePages struct {
	mu      sync.Mutex
	total   int
	failAt  int
	calls   []int
	sizes   []int
	active  int
	overlap bool
}

func (f *fakePages) Followings(ctx context.Context, vmid int64, page, pageSize int) (*bilibili.FollowingPage, error) {
	f.mu.Lock()
	f.active++
	if f.active > 1 {
		f.overlap = true
	}
	f.calls = append(f.calls, page)
	f.sizes = append(f.sizes, pageSize)
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if page == f.failAt {
		return nil, errors.New("page failed")
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, f.total)
	var list []bilibili.FollowingEntry
	for i := start; i < end; i++ {
		list = append(list, bilibili.FollowingEntry{Mid: int64(i + 1), Uname: fmt.Sprintf("up%d", i+1)})
	}
	return &bilibili.FollowingPage{Total: f.total, List: list}, nil
}

func newTestFetcher(api PageAPI, cfg Config) (*Fetcher, *[]time.Duration) {
	f := NewFetcher(api, cfg, logger.NewNopLogger())
	var waits []time.Duration
	f.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return f, &waits
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 50, 0},
		{1, 50, 1},
		{50, 50, 1},
		{51, 50, 2},
		{120, 50, 3},
		{120, 20, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.total, tt.size), "total=%d size=%d", tt.total, tt.size)
	}
}

func TestFetchAllPagesSequentially(t *testing.T) {
	api := &fakePages{total: 120}
	var progress []string
	f, waits := newTestFetcher(api, Config{
		PageSize:  50,
		PageDelay: DefaultPageDelay,
		OnPage: func(page, totalPages, fetched int) {
			progress = append(progress, fmt.Sprintf("page %d of %d", page, totalPages))
		},
	})

	entries, err := f.FetchAll(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, entries, 120)
	assert.Equal(t, []int{1, 2, 3}, api.calls)
	assert.False(t, api.overlap)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, *waits)
	assert.Equal(t, []string{"page 1 of 3", "page 2 of 3", "page 3 of 3"}, progress)

	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.Mid)
	}
}

func TestFetchAllRealDelay(t *testing.T) {
	api := &fakePages{total: 3}
	f := NewFetcher(api, Config{PageSize: 1, PageDelay: 20 * time.Millisecond}, logger.NewNopLogger())

	start := time.Now()
	entries, err := f.FetchAll(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestFetchAllClampsPageSize(t *testing.T) {
	api := &fakePages{total: 60}
	f, _ := newTestFetcher(api, Config{PageSize: 500})
	assert.Equal(t, bilibili.MaxPageSize, f.PageSize())

	_, err := f.FetchAll(context.Background(), 1)
	require.NoError(t, err)
	for _, size := range api.sizes {
		assert.LessOrEqual(t, size, 50)
	}
	assert.Equal(t, []int{1, 2}, api.calls)
}

func TestFetchAllEmptyList(t *testing.T) {
	api := &fakePages{total: 0}
	f, waits := newTestFetcher(api, Config{PageSize: 50})

	entries, err := f.FetchAll(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, []int{1}, api.calls)
	assert.Empty(t, *waits)
}

func TestFetchAllAbortsOnPageFailure(t *testing.T) {
	api := &fakePages{total: 150, failAt: 2}
	f, _ := newTestFetcher(api, Config{PageSize: 50})

	entries, err := f.FetchAll(context.Background(), 1)
	require.Error(t, err)
	assert.Nil(t, entries)
	assert.Contains(t, err.Error(), "page 2 of 3")
	assert.Equal(t, []int{1, 2}, api.calls)
}

func TestFetchAllFirstPageFailure(t *testing.T) {
	api := &fakePages{total: 10, failAt: 1}
	f, _ := newTestFetcher(api, Config{PageSize: 50})

	_, err := f.FetchAll(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 1")
}
