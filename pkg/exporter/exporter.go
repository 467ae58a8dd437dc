package exporter

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"bilifollow/pkg/bilibili"
	"bilifollow/pkg/config"
	"bilifollow/pkg/enrich"
	"bilifollow/pkg/following"
	"bilifollow/pkg/identity"
	"bilifollow/pkg/logger"
	"bilifollow/pkg/ratelimit"
	"bilifollow/pkg/render"
	"bilifollow/pkg/storage"
	"bilifollow/pkg/ui"
)

// Options wires the parts of a run that do not come from configuration
type Options struct {
	// Sink receives progress; nil discards it
	Sink ui.Sink
	// Notifier sends desktop notifications when enabled in the config
	Notifier *ui.Notifier
	// AccountLookup returns the DedeUserID of the stored account, the last
	// identity source tried
	AccountLookup func() (string, error)
	Logger        logger.Logger
	// API replaces the HTTP client, mainly in tests
	API API
}

// Summary describes a finished run
type Summary struct {
	Path     string
	Mid      int64
	Entries  int
	Enriched int
	Stats    enrich.Stats
	// Reductions is how often rate limiting lowered the concurrency
	Reductions int
	Elapsed    time.Duration
}

// Exporter orchestrates a single export
type Exporter struct {
	identity  *identity.Chain
	fetcher   *following.Fetcher
	enricher  *enrich.Enricher
	throttle  *ratelimit.Throttle
	storage   *storage.Manager
	selection enrich.FieldSelection
	sink      ui.Sink
	notifier  *ui.Notifier
	config    *config.Config
	logger    logger.Logger
	now       func() time.Time
}

// New creates an Exporter from cfg
func New(cfg *config.Config, opts Options) (*Exporter, error) {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	sink := opts.Sink
	if sink == nil {
		sink = ui.Discard
	}

	throttle := ratelimit.NewThrottle(cfg.Enrich.Concurrency, cfg.Enrich.Adaptive)

	api := opts.API
	if api == nil {
		var pacer ratelimit.Pacer
		if window := ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute); window != nil {
			pacer = window
		}
		api = bilibili.NewClient(bilibili.Session{
			SESSDATA:   cfg.Bilibili.SESSDATA,
			BiliJCT:    cfg.Bilibili.BiliJCT,
			DedeUserID: cfg.Bilibili.DedeUserID,
			UserAgent:  cfg.Bilibili.UserAgent,
		}, bilibili.Options{
			BaseURL:    cfg.Bilibili.BaseURL,
			Timeout:    cfg.Bilibili.Timeout,
			MaxRetries: cfg.Enrich.MaxRetries,
			Pacer:      pacer,
			Throttle:   throttle,
			Logger:     log,
		})
	}

	store, err := storage.NewManager(cfg.Output.Directory, cfg.Output.OverwriteExisting)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	resolvers := []identity.Resolver{
		identity.NavResolver{API: api},
		identity.CookieResolver{DedeUserID: cfg.Bilibili.DedeUserID},
	}
	if opts.AccountLookup != nil {
		resolvers = append(resolvers, identity.AccountResolver{Lookup: opts.AccountLookup})
	}

	e := &Exporter{
		identity:  identity.NewChain(log, resolvers...),
		throttle:  throttle,
		storage:   store,
		selection: enrich.SelectionFromNames(cfg.Enrich.Fields()),
		sink:      sink,
		notifier:  opts.Notifier,
		config:    cfg,
		logger:    log,
		now:       time.Now,
	}

	e.fetcher = following.NewFetcher(api, following.Config{
		PageSize:  cfg.Pagination.PageSize,
		PageDelay: cfg.Pagination.PageDelay,
		OnPage:    e.onPage,
	}, log)

	e.enricher = enrich.New(api, throttle, enrich.Config{
		Concurrency: cfg.Enrich.Concurrency,
		EntryDelay:  cfg.Enrich.EntryDelay,
		Observer:    e.onEnriched,
	}, log)

	return e, nil
}

// Run performs the export and returns where the document was saved
func (e *Exporter) Run(ctx context.Context) (*Summary, error) {
	start := e.now()

	e.sink.Status("resolving user", ui.Progress{})
	mid, err := e.identity.Resolve(ctx)
	if err != nil {
		return nil, e.fail("resolve user", err)
	}

	e.logger.InfoWithFields("Exporting following list", map[string]interface{}{
		"mid":       mid,
		"page_size": e.fetcher.PageSize(),
		"fields":    e.selection.Names(),
	})

	entries, err := e.fetcher.FetchAll(ctx, mid)
	if err != nil {
		return nil, e.fail("fetch following list", err)
	}

	summary := &Summary{Mid: mid, Entries: len(entries)}

	if e.selection.Any() && len(entries) > 0 {
		e.sink.Status("enriching", ui.Progress{Total: len(entries)})
		results, run := e.enricher.Enrich(ctx, entries, e.selection)
		if ctx.Err() != nil {
			return nil, e.fail("enrich", ctx.Err())
		}
		entries = enrich.Merge(entries, results)
		summary.Enriched = len(results)
		summary.Stats = run.Snapshot()
		summary.Reductions = e.throttle.Reductions()
	}

	e.sink.Status("rendering", ui.Progress{})
	doc, err := render.Render(entries, render.Options{
		Now:      start,
		Sort:     e.config.Output.Sort,
		Filter:   e.config.Output.Filter,
		PageSize: e.fetcher.PageSize(),
	})
	if err != nil {
		return nil, e.fail("render", err)
	}

	path, err := e.storage.SaveDocument(bytes.NewReader(doc), start)
	if err != nil {
		return nil, e.fail("save", err)
	}

	summary.Path = path
	summary.Elapsed = e.now().Sub(start)

	e.logger.InfoWithFields("Export finished", map[string]interface{}{
		"path":       path,
		"entries":    summary.Entries,
		"enriched":   summary.Enriched,
		"skipped":    summary.Stats.Skipped,
		"reductions": summary.Reductions,
	})

	e.sink.Done("saved " + path)
	if e.notify(e.config.Notifications.OnComplete) {
		e.notifier.SendSuccess("Export complete", fmt.Sprintf("%d accounts saved to %s", summary.Entries, path))
	}

	return summary, nil
}

func (e *Exporter) onPage(page, totalPages, fetched int) {
	e.sink.Status(fmt.Sprintf("page %d of %d", page, totalPages), ui.Progress{
		Current: page,
		Total:   totalPages,
		Note:    fmt.Sprintf("%d accounts", fetched),
	})
}

func (e *Exporter) onEnriched(stats enrich.Stats) {
	e.sink.Status("enriching", ui.Progress{
		Current: stats.Done,
		Total:   stats.Total,
		Note:    fmt.Sprintf("skipped %d", stats.Skipped),
	})
}

// fail reports a terminal error once and returns it wrapped
func (e *Exporter) fail(stage string, err error) error {
	wrapped := fmt.Errorf("%s: %w", stage, err)
	e.logger.WithError(err).ErrorWithFields("Export failed", map[string]interface{}{"stage": stage})
	e.sink.Error(wrapped.Error())
	if e.notify(e.config.Notifications.OnError) {
		e.notifier.SendError("Export failed", wrapped.Error())
	}
	return wrapped
}

func (e *Exporter) notify(event bool) bool {
	return e.notifier != nil && e.config.Notifications.Enabled && event
}
