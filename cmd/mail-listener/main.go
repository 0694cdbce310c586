package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"grievance/internal/config"
	"grievance/internal/intake"
	"grievance/internal/listener"
	"grievance/internal/pipeline"
	"grievance/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(cfg.LogLevel))); err != nil {
		lvl = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(log)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := listener.MakeConnector(ctx, cfg)
	must(err)
	svc, err := intake.Build(cfg, db, log)
	must(err)

	l := listener.NewService(db, cfg, conn, pipeline.NewProcessingService(db, svc, log), log)
	must(l.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
