package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/hangman-rooms/internal/config"
	"github.com/DoyleJ11/hangman-rooms/internal/controller"
	"github.com/DoyleJ11/hangman-rooms/internal/history"
	"github.com/DoyleJ11/hangman-rooms/internal/httpapi"
	"github.com/DoyleJ11/hangman-rooms/internal/hub"
	"github.com/DoyleJ11/hangman-rooms/internal/logging"
	"github.com/DoyleJ11/hangman-rooms/internal/room"
	"github.com/DoyleJ11/hangman-rooms/internal/ws"
)

const (
	releaseVersion  = "0.1.0"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "load .env:", err)
		os.Exit(1)
	}
	cfg := &config.Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func newCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hangman-rooms",
		Short:   "Two-player word guessing rooms over websockets.",
		Args:    cobra.NoArgs,
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	config.BindFlags(cmd.Flags(), cfg)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func run(parent context.Context, cfg *config.Config) error {
	log, err := logging.New(cfg.LogLevel, cfg.DevLogs)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	rec := history.Nop()
	if cfg.HistoryEnabled() {
		db, err := history.OpenPostgres(cfg.DatabaseURL, log.Named("history"))
		if err != nil {
			return err
		}
		rec = db
		log.Info("round archive enabled")
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, room.Options{
		GracePeriod: cfg.GracePeriod,
		Recorder:    rec,
		Logger:      log,
	})
	ctrl := controller.New(h, log)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(ctrl, rec, log, ws.Options{
			OriginPatterns: cfg.OriginPatterns,
			OutboxSize:     cfg.OutboxSize,
			IdleTimeout:    cfg.IdleTimeout,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		h.Shutdown()
		return multierr.Combine(srv.Shutdown(sctx), rec.Close())
	})
	return g.Wait()
}
