package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelcm/marketing-intel/internal/config"
	"github.com/angelcm/marketing-intel/internal/export"
	"github.com/angelcm/marketing-intel/internal/httpx"
	"github.com/angelcm/marketing-intel/internal/ingest"
	"github.com/angelcm/marketing-intel/internal/report"
	"github.com/angelcm/marketing-intel/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	st := store.NewMemoryStore()
	loader := ingest.NewLoader(cl, logger, cfg.Policy)
	etl := ingest.NewETL(loader, st, logger, cfg.SourceSet())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if set := cfg.SourceSet(); len(set.Marketing) > 0 && set.Business.Location != "" {
		if _, err := etl.Run(ctx); err != nil {
			logger.Warn("initial load failed", slog.String("err", err.Error()))
		}
	}

	r := httpx.NewRouter(logger, httpx.Deps{
		Store:    st,
		ETL:      etl,
		Reports:  report.NewService(st),
		Exporter: export.NewExporter(cl, cfg.SinkURL, cfg.SinkSecret, logger),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", slog.String("port", cfg.Port), slog.Int("sources", len(cfg.Sources)))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
