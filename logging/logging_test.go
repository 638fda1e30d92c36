package logging

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromEnv(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"dpanic":  zapcore.DPanicLevel,
		"panic":   zapcore.PanicLevel,
		"fatal":   zapcore.FatalLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for raw, want := range cases {
		assert.Equal(t, want, levelFromEnv(raw), "input %q", raw)
	}
}

func TestNewSessionID_Unique(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestNew_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/krusty.log"

	logger, err := New(path)
	assert.NoError(t, err)
	assert.NotNil(t, logger)

	logger.Info("hello")
	_ = logger.Sync()

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestWithSession_AddsField(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(dir + "/krusty.log")
	assert.NoError(t, err)

	scoped := WithSession(logger, "abc-123")
	assert.NotNil(t, scoped)
}
