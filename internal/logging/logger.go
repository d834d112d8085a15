// Package logging holds the process-wide zap loggers.  Log and SLog are
// no-op loggers until Init is called, so packages and tests may log freely.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log  = zap.NewNop()
	SLog = Log.Sugar()
)

// Init builds the loggers for the given environment.  "prod" and
// "production" get JSON output at info level; anything else gets the
// console development encoder at debug level.  level, when non-empty,
// overrides the default level.
func Init(env, level string) error {
	var cfg zap.Config
	switch strings.ToLower(env) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Replace(l)
	return nil
}

// Replace swaps the global loggers.  Tests use it with zaptest/observer.
func Replace(l *zap.Logger) {
	Log = l
	SLog = l.Sugar()
}

// Sync flushes buffered entries.  Errors from syncing a terminal are
// ignored.
func Sync() {
	_ = Log.Sync()
}
