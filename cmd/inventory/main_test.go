package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/inventar/internal/config"
)

func TestParseFlagsAliases(t *testing.T) {
	short, err := parseFlags([]string{"-h", "127.0.0.1", "-p", "8080", "-c", "/tmp/cache", "-l", "app.log"}, io.Discard)
	require.NoError(t, err)
	long, err := parseFlags([]string{"-host", "127.0.0.1", "-port", "8080", "-cache", "/tmp/cache", "-log", "app.log"}, io.Discard)
	require.NoError(t, err)

	for _, opts := range []*options{short, long} {
		assert.Equal(t, "127.0.0.1", opts.host)
		assert.Equal(t, 8080, opts.port)
		assert.Equal(t, "/tmp/cache", opts.cache)
		assert.Equal(t, "app.log", opts.logPath)
		assert.True(t, opts.set["host"] && opts.set["port"] && opts.set["cache"] && opts.set["log"])
	}
}

func TestParseFlagsErrors(t *testing.T) {
	_, err := parseFlags([]string{"-help"}, io.Discard)
	assert.True(t, errors.Is(err, flag.ErrHelp))

	_, err = parseFlags([]string{"-p", "80", "extra"}, io.Discard)
	assert.Error(t, err)

	_, err = parseFlags([]string{"-p", "eighty"}, io.Discard)
	assert.Error(t, err)
}

func TestApplyOnlyOverridesGivenFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-p", "9000"}, io.Discard)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8000
	cfg.Cache.Dir = "/srv/inventory"

	opts.apply(cfg)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/srv/inventory", cfg.Cache.Dir)
}

func TestPrepareCacheCreatesLayout(t *testing.T) {
	cfg := &config.Config{}
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "nested", "cache")

	require.NoError(t, prepareCache(cfg))
	for _, dir := range []string{cfg.Cache.Dir, cfg.UploadsDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// Existing directories are fine.
	require.NoError(t, prepareCache(cfg))
}

func TestHashPassword(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, cmdHashPassword(nil, strings.NewReader("s3cret\n"), &out))

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))

	out.Reset()
	require.NoError(t, cmdHashPassword([]string{"-password", "other"}, strings.NewReader(""), &out))
	hash = strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("other")))

	assert.Error(t, cmdHashPassword(nil, strings.NewReader(""), io.Discard))
}

func TestLevelRouterSplitsStreams(t *testing.T) {
	var stdout, stderr bytes.Buffer
	handler, err := newLevelRouter(config.LogConfig{Level: "info", Format: "json"}, &stdout, &stderr)
	require.NoError(t, err)

	logger := slog.New(handler).With("component", "test")
	logger.Debug("hidden")
	logger.Info("hello")
	logger.Warn("careful")
	logger.Error("broken")

	assert.NotContains(t, stdout.String(), "hidden")
	assert.Contains(t, stdout.String(), `"msg":"hello"`)
	assert.Contains(t, stdout.String(), `"msg":"careful"`)
	assert.NotContains(t, stdout.String(), "broken")
	assert.Contains(t, stderr.String(), `"msg":"broken"`)
	assert.Contains(t, stderr.String(), `"component":"test"`)

	assert.False(t, handler.Enabled(context.Background(), slog.LevelDebug))
}

func TestLevelRouterRejectsUnknownLevel(t *testing.T) {
	_, err := newLevelRouter(config.LogConfig{Level: "loud", Format: "text"}, io.Discard, io.Discard)
	assert.Error(t, err)
}
