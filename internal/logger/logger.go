// Package logger builds the request and application logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shrimpli/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "shrimpli"

// New returns an httplog logger writing to stdout and, when cfg.Log.File is
// set, to a size rotated file. The returned closer releases the file.
func New(cfg *config.Config) (*httplog.Logger, io.Closer, error) {
	const op = "logger.New"

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return nil, nil, fmt.Errorf("%s: invalid log level %q: %w", op, cfg.Log.Level, err)
	}

	var (
		w      io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)

	if cfg.Log.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
		}
		w = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	logger := httplog.NewLogger(serviceName, httplog.Options{
		LogLevel:       level,
		JSON:           cfg.Log.JSON || cfg.Env != config.EnvDev,
		Concise:        cfg.Env == config.EnvDev,
		RequestHeaders: cfg.Env == config.EnvDev,
		Tags: map[string]string{
			"env": cfg.Env,
		},
		Writer: w,
	})

	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
