package log

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls the process-wide logger.
type Config struct {
	// Name is attached to every entry and names the emitting service.
	Name string `conf:"name" yaml:"name" json:"name"`
	// Level is one of debug, info, warn, error.
	Level string `conf:"level" yaml:"level" json:"level"`
	// Format is json or console.
	Format string `conf:"format" yaml:"format" json:"format"`
	File   File   `conf:"file" yaml:"file" json:"file"`
}

// File configures optional rotated file output in addition to stdout.
type File struct {
	Enabled    bool   `conf:"enabled" yaml:"enabled" json:"enabled"`
	Path       string `conf:"path" yaml:"path" json:"path"`
	MaxSizeMB  int    `conf:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `conf:"max_backups" yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `conf:"max_age_days" yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `conf:"compress" yaml:"compress" json:"compress"`
}

// Logger writes structured entries enriched by context hooks.
type Logger struct {
	core  zapcore.Core
	level zap.AtomicLevel
	name  string

	mu    sync.RWMutex
	hooks []Hook
}

// New builds a Logger from the given config. Unknown levels and formats fall
// back to info/json rather than failing startup.
func New(cfg Config) *Logger {
	level := zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	var enc zapcore.Encoder
	if cfg.Format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}

	if cfg.File.Enabled && cfg.File.Path != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}))
	}

	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(sinks...), level)

	return &Logger{
		core:  core,
		level: level,
		name:  cfg.Name,
	}
}

// AddHook registers a hook applied to every subsequent entry.
func (l *Logger) AddHook(hook Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.hooks = append(l.hooks, hook)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.DebugLevel, msg, fields)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields)
}

// Enabled reports whether entries at the given level would be written.
func (l *Logger) Enabled(level zapcore.Level) bool {
	return l.level.Enabled(level)
}

func (l *Logger) log(ctx context.Context, level zapcore.Level, msg string, fields []Field) {
	if !l.level.Enabled(level) {
		return
	}

	l.mu.RLock()
	hooks := l.hooks
	l.mu.RUnlock()

	for _, hook := range hooks {
		fields = hook.Apply(ctx, msg, fields...)
	}

	entry := zapcore.Entry{
		Level:      level,
		Time:       time.Now(),
		LoggerName: l.name,
		Message:    msg,
	}

	if ce := l.core.Check(entry, nil); ce != nil {
		ce.Write(fields...)
	}
}

// global is the logger behind the package-level functions. It starts with a
// usable default so early logs before SetGlobalConfig are not lost.
var global atomic.Pointer[Logger]

//nolint:gochecknoinits // Bootstrap logger before config load.
func init() {
	global.Store(New(Config{Name: "counselhub", Level: "info"}))
}

// SetGlobalConfig replaces the global logger with one built from cfg.
// Hooks registered on the previous logger are carried over.
func SetGlobalConfig(cfg Config) {
	prev := global.Load()
	next := New(cfg)

	prev.mu.RLock()
	next.hooks = append(next.hooks, prev.hooks...)
	prev.mu.RUnlock()

	global.Store(next)
}

// GetGlobalLogger returns the logger behind the package-level functions.
func GetGlobalLogger() *Logger {
	return global.Load()
}

func Debug(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Debug(ctx, msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Info(ctx, msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Warn(ctx, msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Error(ctx, msg, fields...)
}

// DebugEnabled reports whether debug entries would be written. Callers use it
// to skip building expensive debug-only fields.
func DebugEnabled(ctx context.Context) bool {
	_ = ctx

	return GetGlobalLogger().Enabled(zapcore.DebugLevel)
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
