package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"qexpand/internal/config"
	"qexpand/internal/httpapi"
	"qexpand/internal/manager"
)

const shutdownTimeout = 5 * time.Second

// runServe serves the HTTP API until SIGINT/SIGTERM or ctx is canceled.
// The model loads in the background; /health reports unhealthy until it
// is ready. A ConfigurationError from initialization stops the process.
func runServe(ctx context.Context, cfg config.Config) error {
	log := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(cfg, log, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	httpapi.SetLogger(log)
	httpapi.SetBaseContext(ctx)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)

	opts := httpapi.Options{Tracker: a.tracker, APIKeys: cfg.APIKeys, Version: Version}
	if a.queue != nil {
		opts.Queue = a.queue
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(service{mgr: a.mgr, eng: a.eng}, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("model", cfg.ModelID).Msg("qexpand listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()
	// a.Close runs only after wg.Wait, so Teardown never overtakes Initialize.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.mgr.Initialize(ctx); err != nil {
			if manager.IsConfiguration(err) {
				errCh <- err
				return
			}
			log.Error().Err(err).Msg("initialize")
		}
	}()

	if a.worker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.worker.Run(ctx)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case runErr = <-errCh:
		stop()
	}

	// Graceful shutdown
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	wg.Wait()
	return runErr
}
