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

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/evacflow/internal/api"
	"github.com/gyaneshwarpardhi/evacflow/internal/config"
	"github.com/gyaneshwarpardhi/evacflow/internal/engine"
	"github.com/gyaneshwarpardhi/evacflow/internal/report"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve [scenario]",
		Short: "Serve the simulation API with scenario hot-reload",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runServe(args[0], addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	return cmd
}

func runServe(path, addr string) error {
	cfg, closer, err := loadScenario(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(path)
	if err != nil {
		return err
	}

	// ── Sinks ─────────────────────────────────────────────────────────────────
	sinks, err := report.FromConfig(cfg)
	if err != nil {
		return err
	}
	defer sinks.Close()
	var runs api.RunIndex
	if s, err := sinks.Get("sqlite"); err == nil {
		runs = s.(*report.SQLiteSink)
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, cfg, sinks)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.ScenarioConfig) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: scenario invalid", "err", err)
			return
		}
		eng.SwapScenario(newCfg)
		slog.Info("scenario hot-reloaded", "version", newCfg.Version, "bim_files", len(newCfg.BimFiles))
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("scenario watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	// Synchronous simulations may take up to the engine timeout.
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.New(eng, loader, runs),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: time.Duration(cfg.Engine.TimeoutSeconds+30) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop worker pools
	eng.Shutdown()
	slog.Info("goodbye")
	return nil
}
