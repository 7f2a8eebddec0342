package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"qexpand/internal/common/fsutil"
	"qexpand/internal/config"
	"qexpand/internal/expand"
	"qexpand/internal/manager"
	"qexpand/internal/queue"
	"qexpand/internal/registry"
	"qexpand/internal/tracking"
	"qexpand/pkg/types"
)

// app holds every long-lived component of one process.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	mgr     *manager.Manager
	eng     *expand.Engine
	queue   *queue.Queue
	worker  *queue.Worker
	tracker *tracking.Async
}

// buildApp wires the components described by cfg. withQueue opens the
// overload queue when cfg names one. Nothing is loaded yet; call
// Initialize on a.mgr.
func buildApp(cfg config.Config, log zerolog.Logger, withQueue bool) (*app, error) {
	gen, err := manager.NewGenerationConfig(manager.GenerationOptions{
		ModelID:        cfg.ModelID,
		MaxLength:      cfg.MaxLength,
		MaxNewTokens:   cfg.MaxNewTokens,
		Temperature:    cfg.Temperature,
		TopP:           cfg.TopP,
		PromptTemplate: cfg.PromptTemplate,
		AnswerMarker:   cfg.AnswerMarker,
	})
	if err != nil {
		return nil, &manager.ConfigurationError{Key: "prompt_template", Msg: err.Error()}
	}

	var hub *registry.Hub
	if cfg.AllowDownload == nil || *cfg.AllowDownload {
		hub = registry.NewHub(cfg.HubURL)
	}
	reg, err := registry.New(registry.Options{
		Dir:          cfg.ModelsDir,
		ArtifactRepo: cfg.ArtifactRepo,
		Artifacts:    cfg.Artifacts,
		Hub:          hub,
		Logger:       &log,
	})
	if err != nil {
		return nil, &manager.ConfigurationError{Key: "models_dir", Msg: err.Error()}
	}

	a := &app{cfg: cfg, log: log}
	a.mgr = manager.NewWithConfig(manager.ManagerConfig{
		Generation:        gen,
		Loader:            manager.NewLlamaLoader(reg, cfg.Threads, &log),
		Device:            manager.DevicePreference(cfg.Device),
		ContextSize:       cfg.ContextSize,
		Threads:           cfg.Threads,
		GPULayers:         cfg.GPULayers,
		FallbackGPULayers: cfg.FallbackGPULayers,
		MaxQueueDepth:     cfg.MaxQueueDepth,
		MaxWait:           time.Duration(cfg.MaxWaitSeconds) * time.Second,
		DrainTimeout:      time.Duration(cfg.DrainTimeoutSeconds) * time.Second,
		Logger:            &log,
	})
	a.eng = expand.New(a.mgr, expand.Options{
		MockDelay: time.Duration(cfg.MockDelayMS) * time.Millisecond,
		Logger:    &log,
	})

	inner, err := openTracker(cfg.Tracking)
	if err != nil {
		return nil, err
	}
	a.tracker = tracking.NewAsync(inner, &log)

	if withQueue && cfg.QueueDBPath != "" {
		path, err := fsutil.DBPath(cfg.QueueDBPath)
		if err != nil {
			_ = a.tracker.Close()
			return nil, err
		}
		q, err := queue.Open(path, queue.Options{
			Visibility:  time.Duration(cfg.QueueVisibilitySeconds) * time.Second,
			MaxAttempts: cfg.QueueMaxAttempts,
		})
		if err != nil {
			_ = a.tracker.Close()
			return nil, fmt.Errorf("open queue: %w", err)
		}
		a.queue = q
		a.worker = queue.NewWorker(q, a.eng, queue.WorkerOptions{
			PollInterval: time.Duration(cfg.QueuePollIntervalMillis) * time.Millisecond,
			Logger:       &log,
			Ready:        a.mgr.Ready,
			OnDone: func(query string, res expand.Result, took time.Duration) {
				a.tracker.Submit(tracking.Record{
					OriginalQuery:  query,
					ExpandedQuery:  res.Expanded,
					ProcessingTime: took,
					Degraded:       res.Degraded,
				})
			},
		})
	}
	return a, nil
}

// openTracker picks the tracking backend: MLflow when a URI is set, else
// SQLite when a path is set, else nothing.
func openTracker(t config.Tracking) (tracking.Tracker, error) {
	tags := tracking.DefaultTags(t.Environment)
	switch {
	case t.MLflowURI != "":
		return tracking.NewMLflow(t.MLflowURI, t.Experiment, tags, nil), nil
	case t.SQLitePath != "":
		path, err := fsutil.DBPath(t.SQLitePath)
		if err != nil {
			return nil, err
		}
		st, err := tracking.OpenSQLite(path, tags)
		if err != nil {
			return nil, fmt.Errorf("open tracking db: %w", err)
		}
		return st, nil
	}
	return tracking.Nop{}, nil
}

// Close releases everything in reverse order of construction.
func (a *app) Close() error {
	a.mgr.Teardown()
	var errs []error
	if a.queue != nil {
		errs = append(errs, a.queue.Close())
	}
	errs = append(errs, a.tracker.Close())
	return errors.Join(errs...)
}

// service adapts the manager and engine to the HTTP layer.
type service struct {
	mgr *manager.Manager
	eng *expand.Engine
}

func (s service) Ready() bool                  { return s.mgr.Ready() }
func (s service) Status() types.StatusResponse { return s.mgr.Status() }
func (s service) Expand(ctx context.Context, query string) (expand.Result, error) {
	return s.eng.ExpandResult(ctx, query)
}
