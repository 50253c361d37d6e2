package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/batch"
	"github.com/spigell/cv-screener/internal/notify"
	"github.com/spigell/cv-screener/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the screening operations over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "listen address (overrides server.listen)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	notifier, err := newNotifier(s.cfg.Notify, s.logger)
	if err != nil {
		s.logger.Warn("batch events disabled", zap.Error(err))
		notifier = notify.Nop{}
	}
	defer notifier.Close()

	sc := s.cfg.Server
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		sc.Listen = listen
	}
	srv := server.New(server.Deps{
		Parser:       s.pipeline,
		Batch:        batch.New(s.pipeline, s.cfg.Batch.Concurrency, notifier, s.logger),
		Matcher:      s.matcher,
		Filters:      s.cfg.Matching.Filters,
		Authenticity: s.analyzer,
		Logger:       s.logger,
	}, server.Options{
		AppName:     app,
		BodyLimit:   sc.BodyLimitMB * 1024 * 1024,
		ParseLimit:  sc.ParseLimit,
		ParseWindow: sc.ParseWindow,
		MatchLimit:  sc.MatchLimit,
		MatchWindow: sc.MatchWindow,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(sc.Listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.String("reason", "signal received"))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
