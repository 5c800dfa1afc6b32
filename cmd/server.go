package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/International-Combat-Archery-Alliance/zoom-relay/api"
	"github.com/International-Combat-Archery-Alliance/zoom-relay/config"
	"github.com/International-Combat-Archery-Alliance/zoom-relay/metrics"
	"github.com/International-Combat-Archery-Alliance/zoom-relay/relay"
	"github.com/International-Combat-Archery-Alliance/zoom-relay/telemetry"
	"github.com/International-Combat-Archery-Alliance/zoom-relay/zoom"
	"github.com/spf13/viper"
)

const serviceName = "zoom-relay"

func runServer(ctx context.Context, v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	env := api.ParseEnvironment(cfg.Environment)
	logger := newLogger(env, cfg.Log.Level)

	if cfg.SSMParameterPrefix != "" {
		ssmClient, err := config.NewSSMClient(ctx)
		if err != nil {
			return err
		}
		if err := config.LoadSSMSecrets(ctx, ssmClient, &cfg); err != nil {
			return err
		}
		logger.Info("Loaded secrets from SSM", slog.String("prefix", cfg.SSMParameterPrefix))
	}

	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.Config{
		Exporter:     cfg.Tracing.Exporter,
		ServiceName:  serviceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Failed to flush traces", slog.String("error", err.Error()))
		}
	}()

	zoomClient := zoom.NewClient(cfg.ZoomClientConfig(), metrics.InstrumentRoundTripper(http.DefaultTransport))

	relayAPI := api.NewAPI(zoomClient, logger, api.Settings{
		Env:            env,
		WebhookSecret:  cfg.Webhook.Secret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RelayOptions: relay.Options{
			DefaultEventID: cfg.Zoom.EventID,
			TicketTypeID:   cfg.Zoom.TicketTypeID,
		},
	})

	h, err := relayAPI.Handler()
	if err != nil {
		return err
	}

	s := &http.Server{
		Handler:      h,
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}

	logger.Info("Server running", slog.String("addr", ln.Addr().String()))

	return serve(ctx, s, ln, cfg.Server.WriteTimeout, logger)
}

// serve runs s until ctx is done, then waits up to drainTimeout for requests
// in flight. Request contexts are not derived from ctx, so a shutdown signal
// lets a started registration finish instead of cancelling its Zoom calls.
func serve(ctx context.Context, s *http.Server, ln net.Listener, drainTimeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	logger.Info("Server stopped")

	return nil
}

func newLogger(env api.Environment, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	if env == api.LOCAL {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
