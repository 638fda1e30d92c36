// Package logging configures krusty's structured logger: level from
// $LOG_LEVEL, console encoder in development, JSON + rotated file in
// $ENV=prod.
package logging

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewSessionID returns a fresh v4 UUID, generated once per shell instance
// and attached to every subsequent log line as the "session_id" field so
// that one krusty invocation's lines can be correlated in a shared log
// file.
func NewSessionID() string {
	return uuid.NewString()
}

// New builds the process-wide logger. filename is the rotated log file
// path (lumberjack); pass "" for the default "krusty.log" in the current
// directory.
func New(filename string) (*zap.Logger, error) {
	if filename == "" {
		filename = "krusty.log"
	}

	level := levelFromEnv(os.Getenv("LOG_LEVEL"))

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	prod := strings.ToLower(os.Getenv("ENV")) == "prod"

	var encoder zapcore.Encoder
	if prod {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	rotator := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	var writeSyncer zapcore.WriteSyncer
	if prod {
		writeSyncer = zapcore.AddSync(rotator)
	} else {
		writeSyncer = zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout), zapcore.AddSync(rotator))
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)), nil
}

// WithSession returns a child logger carrying a "session_id" field, scoping
// every subsequent line to this shell instance.
func WithSession(logger *zap.Logger, sessionID string) *zap.Logger {
	return logger.With(zap.String("session_id", sessionID))
}

func levelFromEnv(raw string) zapcore.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	case "dpanic":
		return zap.DPanicLevel
	case "panic":
		return zap.PanicLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}
