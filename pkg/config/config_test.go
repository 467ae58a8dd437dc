package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Pagination.PageSize != 50 {
		t.Errorf("Expected default page size to be 50, got %d", config.Pagination.PageSize)
	}

	if config.Pagination.PageDelay != 500*time.Millisecond {
		t.Errorf("Expected default page delay to be 500ms, got %v", config.Pagination.PageDelay)
	}

	if config.Enrich.EntryDelay != 300*time.Millisecond {
		t.Errorf("Expected default entry delay to be 300ms, got %v", config.Enrich.EntryDelay)
	}

	if len(config.Enrich.Fields()) != 0 {
		t.Errorf("Expected no enrichment fields by default, got %v", config.Enrich.Fields())
	}

	require.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BILIFOLLOW_SESSDATA", "env-sessdata")
	t.Setenv("BILIFOLLOW_DEDE_USER_ID", "42")
	t.Setenv("BILIFOLLOW_CONCURRENCY", "9")
	t.Setenv("BILIFOLLOW_ADAPTIVE", "false")
	t.Setenv("BILIFOLLOW_FIELDS", "followers,level")
	t.Setenv("BILIFOLLOW_OUTPUT_DIR", "/tmp/exports")
	t.Setenv("BILIFOLLOW_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "env-sessdata", config.Bilibili.SESSDATA)
	assert.Equal(t, "42", config.Bilibili.DedeUserID)
	assert.Equal(t, 9, config.Enrich.Concurrency)
	assert.False(t, config.Enrich.Adaptive)
	assert.Equal(t, []string{"followers", "level"}, config.Enrich.Fields())
	assert.Equal(t, "/tmp/exports", config.Output.Directory)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("BILIFOLLOW_CONCURRENCY", "many")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BILIFOLLOW_CONCURRENCY")
}

func TestSetFields(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{name: "single", input: "followers", want: []string{"followers"}},
		{name: "aliases and spaces", input: " like , video ", want: []string{"likes", "videos"}},
		{name: "all", input: "all", want: []string{"followers", "likes", "videos", "level", "official"}},
		{name: "none", input: "none", want: nil},
		{name: "empty", input: "", want: nil},
		{name: "unknown", input: "followers,coins", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e EnrichConfig
			err := e.SetFields(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Fields())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "page size too large", mutate: func(c *Config) { c.Pagination.PageSize = 51 }, wantError: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.Enrich.Concurrency = 0 }, wantError: true},
		{name: "negative retries", mutate: func(c *Config) { c.Enrich.MaxRetries = -1 }, wantError: true},
		{name: "invalid sort", mutate: func(c *Config) { c.Output.Sort = "random" }, wantError: true},
		{name: "invalid log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantError: true},
		{name: "sort is case insensitive", mutate: func(c *Config) { c.Output.Sort = "Followers" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"output":      "/flag/output",
		"concurrency": 7,
		"adaptive":    false,
		"max-retries": 0,
		"fields":      "likes",
		"sort":        "name",
		"log-level":   "error",
	}

	require.NoError(t, config.MergeCommandLineFlags(flags))

	assert.Equal(t, "/flag/output", config.Output.Directory)
	assert.Equal(t, 7, config.Enrich.Concurrency)
	assert.False(t, config.Enrich.Adaptive)
	assert.Equal(t, 0, config.Enrich.MaxRetries)
	assert.Equal(t, []string{"likes"}, config.Enrich.Fields())
	assert.Equal(t, "name", config.Output.Sort)
	assert.Equal(t, "error", config.Logging.Level)

	assert.Error(t, config.MergeCommandLineFlags(map[string]interface{}{"fields": "bogus"}))
}

func TestSaveAndLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "bilifollow.yaml")

	config := DefaultConfig()
	config.Bilibili.SESSDATA = "saved-sessdata"
	config.Enrich.Concurrency = 4
	config.Enrich.Followers = true

	require.NoError(t, config.Save(configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(configPath))

	assert.Equal(t, "saved-sessdata", loaded.Bilibili.SESSDATA)
	assert.Equal(t, 4, loaded.Enrich.Concurrency)
	assert.True(t, loaded.Enrich.Followers)
}

func TestLoadPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := []byte("enrich:\n  concurrency: 3\n  followers: true\noutput:\n  directory: /from/file\n")
	require.NoError(t, os.WriteFile(configPath, content, 0644))

	t.Setenv("BILIFOLLOW_OUTPUT_DIR", "/from/env")

	config, err := Load(configPath, map[string]interface{}{"concurrency": 5})
	require.NoError(t, err)

	assert.Equal(t, 5, config.Enrich.Concurrency, "flags win over file")
	assert.Equal(t, "/from/env", config.Output.Directory, "env wins over file")
	assert.True(t, config.Enrich.Followers)
}
