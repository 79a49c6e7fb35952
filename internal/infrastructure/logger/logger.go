// Package logger builds the zap loggers used across the POS backend and the
// gin and gorm adapters that feed request and SQL logs into them.
package logger

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config selects level, encoding and destination. Output is "stdout",
// "stderr" or a file path; files are rotated by size and age.
type Config struct {
	Level      string
	Format     string // json or console
	Output     string
	TimeFormat string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultConfig logs info and above as JSON to stdout
func DefaultConfig() *Config {
	return &Config{Level: "info", Format: "json", Output: "stdout", TimeFormat: defaultTimeFormat}
}

var levels = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
	"fatal":   zapcore.FatalLevel,
}

// parseLevel falls back to info for unknown names
func parseLevel(name string) zapcore.Level {
	if lvl, ok := levels[strings.ToLower(name)]; ok {
		return lvl
	}
	return zapcore.InfoLevel
}

// New builds a logger from cfg. Entries at error and above carry a stack
// trace.
func New(cfg *Config) (*zap.Logger, error) {
	out, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(newEncoder(cfg.Format, cmp.Or(cfg.TimeFormat, defaultTimeFormat)), out, parseLevel(cfg.Level))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newEncoder(format, timeLayout string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	ec.FunctionKey = zapcore.OmitKey

	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func openOutput(cfg *Config) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Output), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Output,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}), nil
}

// Sync flushes buffered entries. Syncing a terminal fails on some systems;
// those errors are dropped.
func Sync(logger *zap.Logger) error {
	err := logger.Sync()
	if err == nil {
		return nil
	}
	if msg := err.Error(); strings.Contains(msg, "inappropriate ioctl") || strings.Contains(msg, "invalid argument") {
		return nil
	}
	return err
}
