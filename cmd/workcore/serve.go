package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"workcore/internal/core"
	"workcore/internal/httpapi"
	"workcore/internal/identity"
	"workcore/internal/infra/redisstream"
	"workcore/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), flags)
		},
	}
}

func serve(ctx context.Context, flags *rootFlags) error {
	cfg, err := flags.load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer syncLogger(logger)

	store, release, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		return err
	}
	opts := []core.Option{
		core.WithLogger(logger),
		core.WithMetricsRecorder(metrics),
		core.WithFanout(cfg.Fanout),
	}

	checks := []func(context.Context) error{
		func(ctx context.Context) error { return ping(ctx, store) },
	}
	if cfg.Audit.Enabled() {
		pub, err := redisstream.New(redisstream.NewClient(cfg.Audit.Redis), cfg.Audit.Redis.Stream, cfg.Audit.Redis.MaxLen)
		if err != nil {
			return err
		}
		defer pub.Close()
		opts = append(opts, core.WithAuditPublisher(pub))
		checks = append(checks, func(ctx context.Context) error { return pub.Ping(ctx, time.Second) })
		logger.Info("audit stream enabled", zap.String("addr", cfg.Audit.Redis.Addr), zap.String("stream", pub.Stream()))
	}

	svc, err := core.NewService(store, opts...)
	if err != nil {
		return err
	}
	tokens, err := identity.NewTokens(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := httpapi.NewRouter(httpapi.Deps{
		Service:   svc,
		Tokens:    tokens,
		Logger:    logger,
		Gatherer:  reg,
		RateLimit: cfg.HTTP.RateLimit,
		RateBurst: cfg.HTTP.RateBurst,
		Ready: func(ctx context.Context) error {
			for _, check := range checks {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.String("storage", string(cfg.Storage.Driver)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
