package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instapi/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info console", &config.LoggingConfig{Level: "info"}, false},
		{"debug json", &config.LoggingConfig{Level: "debug", Format: "json"}, false},
		{"empty level defaults to info", &config.LoggingConfig{}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "instapi.log")

	l, err := New(&config.LoggingConfig{Level: "info", Format: "json", File: path})
	require.NoError(t, err)

	l.WithField("user_pk", int64(42)).Info("followers fetched")
	l.Debug("below threshold")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, `"message":"followers fetched"`)
	assert.Contains(t, content, `"user_pk":42`)
	assert.Contains(t, content, `"app":"instapi"`)
	assert.NotContains(t, content, "below threshold")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level   string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"trace", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	l, err := New(&config.LoggingConfig{Level: "info"})
	require.NoError(t, err)

	parent := l.(*zerologLogger)
	child := parent.WithFields(map[string]interface{}{"a": 1}).(*zerologLogger)

	assert.Empty(t, parent.fields)
	assert.Equal(t, 1, child.fields["a"])
	assert.Same(t, parent, parent.WithError(nil))
}

func TestTestLoggerCaptures(t *testing.T) {
	tl := NewTestLogger()
	boom := errors.New("boom")

	tl.WithField("endpoint", "users/1/info/").WithError(boom).Warn("retrying")
	tl.InfoWithFields("done", map[string]interface{}{"pages": 3})

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "WARN", msgs[0].Level)
	assert.Equal(t, "users/1/info/", msgs[0].Fields["endpoint"])
	assert.Same(t, boom, msgs[0].Error)
	assert.Equal(t, 3, msgs[1].Fields["pages"])

	assert.True(t, tl.HasMessage("done"))
	assert.Len(t, tl.GetMessagesByLevel("INFO"), 1)

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestLogRequestLevels(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "users/1/info/", 200, 15*time.Millisecond)
	LogRequest(tl, "GET", "users/1/info/", 404, time.Millisecond)
	LogRequest(tl, "POST", "media/1/like/", 503, time.Millisecond)

	levels := make([]string, 0, 3)
	for _, m := range tl.GetMessages() {
		levels = append(levels, m.Level)
	}
	assert.Equal(t, []string{"DEBUG", "WARN", "ERROR"}, levels)
	assert.Equal(t, int64(15), tl.GetMessages()[0].Fields["duration_ms"])
}

func TestLogDownload(t *testing.T) {
	tl := NewTestLogger()

	LogDownload(tl, "https://cdn/x.jpg", "/tmp/x.jpg", nil)
	LogDownload(tl, "https://cdn/y.jpg", "/tmp/y.jpg", errors.New("disk full"))

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "INFO", msgs[0].Level)
	assert.Equal(t, "ERROR", msgs[1].Level)
	assert.True(t, strings.HasSuffix(msgs[1].Fields["path"].(string), "y.jpg"))
}

func TestGlobalLogger(t *testing.T) {
	tl := NewTestLogger()
	SetLogger(tl)
	t.Cleanup(func() { SetLogger(nil) })

	GetLogger().Info("via global")
	assert.True(t, tl.HasMessage("via global"))
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.WithFields(map[string]interface{}{"x": 1}).WithError(errors.New("x")).Error("ignored")
	assert.NotNil(t, l.GetZerolog())
}
