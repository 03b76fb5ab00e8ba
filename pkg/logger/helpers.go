package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest records one remote call at a level derived from its status.
func LogRequest(l Logger, method, endpoint string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"endpoint":    endpoint,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("remote call failed", fields)
	case statusCode >= 400:
		l.WarnWithFields("remote call rejected", fields)
	default:
		l.DebugWithFields("remote call completed", fields)
	}
}

// LogDownload records the outcome of a media download.
func LogDownload(l Logger, url, path string, err error) {
	entry := l.WithFields(map[string]interface{}{
		"url":  url,
		"path": path,
	})
	if err != nil {
		entry.WithError(err).Error("download failed")
		return
	}
	entry.Info("download completed")
}

// NewNopLogger creates a logger that discards everything.
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string)                                   {}
func (nopLogger) Info(string)                                    {}
func (nopLogger) Warn(string)                                    {}
func (nopLogger) Error(string)                                   {}
func (n nopLogger) WithField(string, interface{}) Logger         { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger     { return n }
func (n nopLogger) WithError(error) Logger                       { return n }
func (n nopLogger) WithContext(context.Context) Logger           { return n }
func (nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (nopLogger) ErrorWithFields(string, map[string]interface{}) {}

func (nopLogger) GetZerolog() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
