package exporter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilifollow/pkg/config"
	errs "bilifollow/pkg/errors"
	"bilifollow/pkg/logger"
	"bilifollow/pkg/storage"
	"bilifollow/pkg/ui"
)

type recordingSink struct {
	mu       sync.Mutex
	statuses []string
	errors   []string
	dones    []string
}

func (s *recordingSink) Status(message string, progress ui.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := progress.String(); p != "" {
		message += " " + p
	}
	s.statuses = append(s.statuses, message)
}

func (s *recordingSink) Error(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, message)
}

func (s *recordingSink) Done(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dones = append(s.dones, message)
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return nil
}

// fakeAPI serves a three-account following list split over two pages
type fakeAPI struct {
	loggedIn       bool
	failPage       int
	failFollowerOf int64

	mu    sync.Mutex
	vmids []string
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, data string) {
		fmt.Fprintf(w, `{"code":0,"message":"0","data":%s}`, data)
	}

	mux.HandleFunc("/x/web-interface/nav", func(w http.ResponseWriter, r *http.Request) {
		if !f.loggedIn {
			fmt.Fprint(w, `{"code":-101,"message":"账号未登录","data":{"isLogin":false}}`)
			return
		}
		write(w, `{"isLogin":true,"mid":1001,"uname":"me"}`)
	})

	mux.HandleFunc("/x/relation/followings", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.vmids = append(f.vmids, r.URL.Query().Get("vmid"))
		f.mu.Unlock()

		assert.Equal(t, "2", r.URL.Query().Get("ps"))
		pn := r.URL.Query().Get("pn")
		if pn == strconv.Itoa(f.failPage) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		switch pn {
		case "1":
			write(w, `{"total":3,"list":[{"mid":11,"uname":"Alice","face":"","sign":"drawing"},{"mid":12,"uname":"Bob","face":"","sign":null}]}`)
		default:
			write(w, `{"total":3,"list":[{"mid":13,"uname":"Carol","face":"","sign":"music"}]}`)
		}
	})

	mux.HandleFunc("/x/relation/stat", func(w http.ResponseWriter, r *http.Request) {
		mid, _ := strconv.ParseInt(r.URL.Query().Get("vmid"), 10, 64)
		if mid == f.failFollowerOf {
			fmt.Fprint(w, `{"code":-352,"message":"risk control","data":null}`)
			return
		}
		write(w, fmt.Sprintf(`{"mid":%d,"following":0,"follower":%d}`, mid, mid*100))
	})

	return mux
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Bilibili.BaseURL = baseURL
	cfg.Pagination.PageSize = 2
	cfg.Pagination.PageDelay = 0
	cfg.Enrich.EntryDelay = 0
	cfg.Enrich.MaxRetries = 0
	cfg.Enrich.Concurrency = 2
	cfg.Output.Directory = t.TempDir()
	return cfg
}

func newTestExporter(t *testing.T, api *fakeAPI, mutate func(*config.Config), opts Options) (*Exporter, *config.Config, *recordingSink) {
	t.Helper()
	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)

	cfg := testConfig(t, server.URL)
	if mutate != nil {
		mutate(cfg)
	}

	sink := &recordingSink{}
	opts.Sink = sink
	opts.Logger = logger.NewTestLogger()

	exp, err := New(cfg, opts)
	require.NoError(t, err)
	return exp, cfg, sink
}

func TestRunExportsEnrichedDocument(t *testing.T) {
	api := &fakeAPI{loggedIn: true, failFollowerOf: 12}
	exp, cfg, sink := newTestExporter(t, api, func(c *config.Config) {
		c.Enrich.Followers = true
	}, Options{})

	summary, err := exp.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1001), summary.Mid)
	assert.Equal(t, 3, summary.Entries)
	assert.Equal(t, 2, summary.Enriched)
	assert.Equal(t, 3, summary.Stats.Done)
	assert.Equal(t, 3, summary.Stats.Total)
	assert.Equal(t, 1, summary.Stats.Skipped)
	assert.Equal(t, []string{"1001", "1001"}, api.vmids)

	assert.Equal(t, cfg.Output.Directory, filepath.Dir(summary.Path))
	assert.True(t, strings.HasPrefix(filepath.Base(summary.Path), storage.FilePrefix))

	content, err := os.ReadFile(summary.Path)
	require.NoError(t, err)
	html := string(content)
	for _, mid := range []string{"11", "12", "13"} {
		assert.Contains(t, html, `data-mid="`+mid+`"`)
	}
	assert.Contains(t, html, "https://space.bilibili.com/13")

	assert.Contains(t, sink.statuses, "resolving user")
	assert.Contains(t, sink.statuses, "page 1 of 2 1/2, 2 accounts")
	assert.Contains(t, sink.statuses, "page 2 of 2 2/2, 3 accounts")
	assert.Contains(t, sink.statuses, "enriching 3/3, skipped 1")
	assert.Contains(t, sink.statuses, "rendering")
	assert.Empty(t, sink.errors)
	assert.Equal(t, []string{"saved " + summary.Path}, sink.dones)
}

func TestRunWithoutFieldsSkipsEnrichment(t *testing.T) {
	api := &fakeAPI{loggedIn: true, failFollowerOf: -1}
	exp, _, sink := newTestExporter(t, api, nil, Options{})

	summary, err := exp.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Entries)
	assert.Zero(t, summary.Enriched)
	assert.Zero(t, summary.Stats.Total)
	for _, s := range sink.statuses {
		assert.False(t, strings.HasPrefix(s, "enriching"), s)
	}
}

func TestRunFallsBackToCookieIdentity(t *testing.T) {
	api := &fakeAPI{loggedIn: false}
	exp, _, _ := newTestExporter(t, api, func(c *config.Config) {
		c.Bilibili.DedeUserID = "2002"
	}, Options{})

	summary, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2002), summary.Mid)
	assert.Equal(t, []string{"2002", "2002"}, api.vmids)
}

func TestRunFallsBackToStoredAccount(t *testing.T) {
	api := &fakeAPI{loggedIn: false}
	exp, _, _ := newTestExporter(t, api, nil, Options{
		AccountLookup: func() (string, error) { return "3003", nil },
	})

	summary, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3003), summary.Mid)
}

func TestRunIdentityFailureIsTerminal(t *testing.T) {
	api := &fakeAPI{loggedIn: false}
	sender := &recordingSender{}
	exp, cfg, sink := newTestExporter(t, api, func(c *config.Config) {
		c.Notifications.Enabled = true
	}, Options{Notifier: ui.NewNotifierWithSender(sender, nil)})

	_, err := exp.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsIdentity(err))

	require.Len(t, sink.errors, 1)
	assert.Contains(t, sink.errors[0], "log in")
	assert.Empty(t, sink.dones)
	assert.Empty(t, api.vmids)
	assert.Equal(t, []string{"Export failed"}, sender.titles)

	files, err := os.ReadDir(cfg.Output.Directory)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRunPageFailureAborts(t *testing.T) {
	api := &fakeAPI{loggedIn: true, failPage: 2}
	exp, cfg, sink := newTestExporter(t, api, func(c *config.Config) {
		c.Enrich.Followers = true
	}, Options{})

	_, err := exp.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2 of 2")

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Code)

	assert.Len(t, sink.errors, 1)
	assert.Empty(t, sink.dones)
	for _, s := range sink.statuses {
		assert.False(t, strings.HasPrefix(s, "enriching"), s)
	}

	files, err := os.ReadDir(cfg.Output.Directory)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRunNotifiesOnSuccess(t *testing.T) {
	api := &fakeAPI{loggedIn: true}
	sender := &recordingSender{}
	exp, _, _ := newTestExporter(t, api, func(c *config.Config) {
		c.Notifications.Enabled = true
	}, Options{Notifier: ui.NewNotifierWithSender(sender, nil)})

	_, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Export complete"}, sender.titles)
}

func TestRunCancelled(t *testing.T) {
	api := &fakeAPI{loggedIn: true}
	exp, _, sink := newTestExporter(t, api, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exp.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.dones)
}
