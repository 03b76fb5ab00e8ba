package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"instapi/pkg/config"
	"instapi/pkg/models"
	"instapi/pkg/paginate"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile, logLevel, username, cacheDir, sessionBackend = "", "", "", "", ""
	noColor, quiet, verbose = false, false, false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigShowAppliesFlags(t *testing.T) {
	inTempDir(t)
	t.Setenv(config.EnvPassword, "hunter2")
	out, err := run(t, "config", "show", "--no-color", "-q", "-u", "alice", "--session-backend", "none")
	require.NoError(t, err)

	var shown config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "alice", shown.Instagram.Username)
	assert.Equal(t, config.BackendNone, shown.Session.Backend)
	assert.NotContains(t, out, "hunter2")
}

func TestConfigInit(t *testing.T) {
	dir := inTempDir(t)
	_, err := run(t, "config", "init", "-q")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, ".instapi.yaml"))

	_, err = run(t, "config", "init", "-q")
	assert.ErrorContains(t, err, "already exists")
}

func TestRejectsInvalidBackend(t *testing.T) {
	inTempDir(t)
	_, err := run(t, "config", "show", "-q", "--session-backend", "s3")
	assert.ErrorContains(t, err, "unknown session backend")
}

func TestLimitFrom(t *testing.T) {
	assert.False(t, limitFrom(0).Bounded())
	assert.Equal(t, paginate.Max(5), limitFrom(5))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short caption", truncate("short\n caption", 60))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestFetchAllBoundsWorkers(t *testing.T) {
	var items []models.Resource
	for i := 0; i < 10; i++ {
		r, err := models.NewImage(models.Candidate{URL: "https://cdn/x.jpg", Width: i + 1, Height: 1})
		require.NoError(t, err)
		items = append(items, r)
	}

	var inFlight, peak, seen atomic.Int32
	err := fetchAll(context.Background(), paginate.Slice(items), 3, func(ctx context.Context, r models.Resource) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		seen.Add(1)
		inFlight.Add(-1)
	})
	require.NoError(t, err)
	assert.Equal(t, int32(10), seen.Load())
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestFetchAllReturnsListingError(t *testing.T) {
	boom := errors.New("page 2 failed")
	var saved atomic.Int32
	err := fetchAll(context.Background(), paginate.Fail[models.Resource](boom), 2, func(context.Context, models.Resource) {
		saved.Add(1)
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, saved.Load())
}
