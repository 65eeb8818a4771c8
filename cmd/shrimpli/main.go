package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vadimbarashkov/shrimpli/internal/app"
	"github.com/vadimbarashkov/shrimpli/internal/config"
	"github.com/vadimbarashkov/shrimpli/internal/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("shrimpli exited with error", slog.Any("err", err))
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	l, closer, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := app.Run(ctx, cfg, l); err != nil {
		l.Error("application stopped", slog.Any("err", err))
		return err
	}

	return nil
}
