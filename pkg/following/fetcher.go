// Package following walks every page of an account's followings list.
package following

import (
	"context"
	"fmt"
	"time"

	"bilifollow/pkg/bilibili"
	"bilifollow/pkg/logger"
	"bilifollow/pkg/retry"
)

// DefaultPageDelay is the pause between consecutive page requests
const DefaultPageDelay = 500 * time.Millisecond

// PageAPI fetches one page of followings
type PageAPI interface {
	Followings(ctx context.Context, vmid int64, page, pageSize int) (*bilibili.FollowingPage, error)
}

// ProgressFunc is called after each page with the 1-based page number
type ProgressFunc func(page, totalPages, fetched int)

// Config configures a Fetcher
type Config struct {
	PageSize  int
	PageDelay time.Duration
	// OnPage is optional
	OnPage ProgressFunc
}

// Fetcher pages through the followings endpoint strictly one page at a time
type Fetcher struct {
	api    PageAPI
	config Config
	wait   func(ctx context.Context, d time.Duration) error
	logger logger.Logger
}

// NewFetcher creates a Fetcher. Page sizes above the API maximum are clamped.
func NewFetcher(api PageAPI, cfg Config, log logger.Logger) *Fetcher {
	if cfg.PageSize <= 0 || cfg.PageSize > bilibili.MaxPageSize {
		cfg.PageSize = bilibili.MaxPageSize
	}
	if cfg.PageDelay < 0 {
		cfg.PageDelay = 0
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{api: api, config: cfg, wait: retry.Wait, logger: log}
}

// PageSize returns the effective page size
func (f *Fetcher) PageSize() int {
	return f.config.PageSize
}

// TotalPages returns ceil(total/pageSize)
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// FetchAll returns every followed account of vmid in API order. Page 1 tells
// the total; the remaining pages are fetched sequentially with PageDelay
// between requests. Any page failure aborts the walk.
func (f *Fetcher) FetchAll(ctx context.Context, vmid int64) ([]bilibili.FollowingEntry, error) {
	first, err := f.api.Followings(ctx, vmid, 1, f.config.PageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch following page 1: %w", err)
	}

	totalPages := TotalPages(first.Total, f.config.PageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	entries := make([]bilibili.FollowingEntry, 0, max(first.Total, len(first.List)))
	entries = append(entries, first.List...)
	f.progress(1, totalPages, len(entries))

	for page := 2; page <= totalPages; page++ {
		if err := f.wait(ctx, f.config.PageDelay); err != nil {
			return nil, err
		}

		p, err := f.api.Followings(ctx, vmid, page, f.config.PageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch following page %d of %d: %w", page, totalPages, err)
		}
		entries = append(entries, p.List...)
		f.progress(page, totalPages, len(entries))
	}

	return entries, nil
}

func (f *Fetcher) progress(page, totalPages, fetched int) {
	logger.LogPageProgress(f.logger, page, totalPages, fetched)
	if f.config.OnPage != nil {
		f.config.OnPage(page, totalPages, fetched)
	}
}
