// Package logging builds the process logger: slog with an optional rotating
// file sink.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"log_level"`
	// Format is json or text.
	Format string `mapstructure:"log_format"`
	// Output is stdout, stderr, file or both (stdout and file).
	Output string `mapstructure:"log_output"`
	File   string `mapstructure:"log_file"`

	MaxSizeMB  int  `mapstructure:"log_max_size_mb"`
	MaxBackups int  `mapstructure:"log_max_backups"`
	MaxAgeDays int  `mapstructure:"log_max_age_days"`
	Compress   bool `mapstructure:"log_compress"`
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger for cfg. The closer releases the log file, if any.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	switch cfg.Output {
	case "stderr":
		out = os.Stderr
	case "file", "both":
		if cfg.File == "" {
			cfg.File = "logs/marketfront.log"
		}
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, err
		}
		rot := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		closer = rot
		out = rot
		if cfg.Output == "both" {
			out = io.MultiWriter(os.Stdout, rot)
		}
	}

	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}
	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}
	return slog.New(h), closer, nil
}

// Init builds the logger and installs it as the slog and log default.
func Init(cfg Config) (*slog.Logger, io.Closer, error) {
	l, c, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(l)
	return l, c, nil
}
