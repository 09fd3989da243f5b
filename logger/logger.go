// Package logger holds the process-wide zap logger. Every helper is a no-op
// until Initialize succeeds, so packages may log from tests and init paths.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const appName = "pokerunboard"

var global *zap.Logger

// Initialize builds the global logger for level ("debug", "info", "warn",
// "error"). Debug uses the console encoder, every other level JSON.
func Initialize(level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	built, err := cfg.Build()
	if err != nil {
		return err
	}
	global = built.With(zap.String("app", appName))
	zap.ReplaceGlobals(global)
	return nil
}

// Sync flushes buffered entries; call it once before exit
func Sync() {
	if global != nil {
		_ = global.Sync()
	}
}

// Component returns a child logger tagged with component=name
func Component(name string) *zap.Logger {
	if global == nil {
		return zap.NewNop()
	}
	return global.With(zap.String("component", name))
}

func Debug(msg string, fields ...zap.Field) {
	if global != nil {
		global.Debug(msg, fields...)
	}
}

func Info(msg string, fields ...zap.Field) {
	if global != nil {
		global.Info(msg, fields...)
	}
}

func Warn(msg string, fields ...zap.Field) {
	if global != nil {
		global.Warn(msg, fields...)
	}
}

func Error(msg string, fields ...zap.Field) {
	if global != nil {
		global.Error(msg, fields...)
	}
}

// GetLogger returns the global logger, nil before Initialize
func GetLogger() *zap.Logger {
	return global
}
