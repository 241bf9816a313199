package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tellerline/teller/internal/api"
	"github.com/tellerline/teller/internal/metrics"
)

func newServeCommand(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, *configPath, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func runServe(ctx context.Context, configPath, addr string) error {
	var collector metrics.Collector = metrics.NoOpCollector{}
	var registry *prometheus.Registry

	conf, configDir, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if conf.Server.Metrics {
		registry = prometheus.NewRegistry()
		pc := metrics.NewPrometheusCollector("teller")
		if err := pc.Register(registry); err != nil {
			return err
		}
		collector = pc
	}

	a, err := newApp(conf, configDir, collector)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := api.Config{
		Addr:         a.cfg.Server.Addr,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}
	if addr != "" {
		cfg.Addr = addr
	}

	srv, err := api.NewServer(a.dir, a.engine, a.gateway, cfg, api.Options{
		Logger:         a.logger,
		Registry:       registry,
		HashPasswords:  a.cfg.Auth.HashPasswords,
		FirstAccountID: a.cfg.Bank.FirstAccountID,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
		return err
	}
	return nil
}
