package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qexpand/internal/expand"
	"qexpand/internal/manager"
	"qexpand/internal/queue"
	"qexpand/internal/tracking"
	"qexpand/pkg/types"
)

// QueuedPlaceholder is the expanded_query of a queued request.
const QueuedPlaceholder = "Request queued for processing"

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Ready() bool
	Status() types.StatusResponse
	Expand(ctx context.Context, query string) (expand.Result, error)
}

// Queue is the overload queue used for use_queue requests.
type Queue interface {
	Send(ctx context.Context, query string) (string, error)
	Status(ctx context.Context) (types.QueueStatus, error)
	Get(ctx context.Context, id string) (types.QueueJob, error)
}

// Recorder receives completed expansions. Submit must not block.
type Recorder interface {
	Submit(r tracking.Record)
}

// Options wires the optional collaborators into the mux.
type Options struct {
	// Queue enables use_queue and the /queue endpoints. Nil disables them.
	Queue Queue
	// Tracker receives every answered expansion. Nil disables tracking.
	Tracker Recorder
	// APIKeys protect POST /expand and /queue/*. Empty means open access.
	APIKeys []string
	Version string
}

func NewMux(svc Service, opts Options) http.Handler {
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc, opts: opts}

	r.Get("/", h.info)
	r.Get("/health", h.health)
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAPIKey(opts.APIKeys))
		r.Post("/expand", h.expand)
		r.Get("/queue/status", h.queueStatus)
		r.Get("/queue/{id}", h.queueJob)
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

type handlers struct {
	svc  Service
	opts Options
}

// info godoc
// @Summary  Service information
// @Tags     system
// @Produce  json
// @Success  200 {object} types.InfoResponse
// @Router   / [get]
func (h *handlers) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.InfoResponse{
		Message: "LLM Query Expansion Service",
		Version: h.opts.Version,
		Docs:    "/swagger/index.html",
		Health:  "/health",
	})
}

// health godoc
// @Summary  Model health
// @Tags     system
// @Produce  json
// @Success  200 {object} types.HealthResponse
// @Router   /health [get]
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	resp := types.HealthResponse{Status: "unhealthy"}
	if h.svc.Ready() {
		resp = types.HealthResponse{Status: "healthy", ModelLoaded: true, Strategy: h.svc.Status().Strategy}
	}
	writeJSON(w, http.StatusOK, resp)
}

// expand godoc
// @Summary  Expand a search query
// @Tags     expand
// @Accept   json
// @Produce  json
// @Param    request body types.ExpandRequest true "Query to expand"
// @Success  200 {object} types.ExpandResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  415 {object} types.ErrorResponse
// @Failure  500 {object} types.ErrorResponse
// @Failure  503 {object} types.ErrorResponse
// @Router   /expand [post]
func (h *handlers) expand(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lvl := requestLogLevel(r)

	// Content-Type check
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		h.fail(w, r, lvl, start, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}
	// Limit body size (configurable, default 1MiB)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.ExpandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, lvl, start, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.fail(w, r, lvl, start, http.StatusBadRequest, "query is required", nil)
		return
	}
	if !h.svc.Ready() {
		h.fail(w, r, lvl, start, http.StatusServiceUnavailable, "Model not ready", nil)
		return
	}

	if req.UseQueue && h.opts.Queue != nil {
		id, err := h.opts.Queue.Send(r.Context(), req.Query)
		if err != nil {
			h.fail(w, r, lvl, start, http.StatusInternalServerError, "failed to queue request", err)
			return
		}
		expandRequestsTotal.WithLabelValues("queued").Inc()
		if ev := requestEvent(r, lvl, LevelInfo); ev != nil {
			ev.Str("job", id).Msg("expand queued")
		}
		writeJSON(w, http.StatusOK, types.ExpandResponse{
			OriginalQuery:  req.Query,
			ExpandedQuery:  QueuedPlaceholder,
			ProcessingTime: time.Since(start).Seconds(),
			Queued:         true,
			JobID:          id,
		})
		return
	}

	// Join server base context with request context so shutdown cancels the wait too.
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if expandTimeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, expandTimeout)
		defer tcancel()
	}
	res, err := h.svc.Expand(ctx, req.Query)
	if err != nil {
		// Client went away or the server is shutting down; nobody reads the answer.
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			expandRequestsTotal.WithLabelValues("canceled").Inc()
			return
		}
		status, msg := errorStatus(err)
		if status == http.StatusTooManyRequests {
			IncrementBackpressure("expand")
		}
		h.fail(w, r, lvl, start, status, msg, err)
		return
	}

	took := time.Since(start)
	outcome := "real"
	if res.Degraded {
		outcome = "mock"
	}
	expandRequestsTotal.WithLabelValues(outcome).Inc()
	expandLatency.Observe(took.Seconds())
	if h.opts.Tracker != nil {
		h.opts.Tracker.Submit(tracking.Record{
			OriginalQuery:  req.Query,
			ExpandedQuery:  res.Expanded,
			ProcessingTime: took,
			Degraded:       res.Degraded,
			Timestamp:      start,
		})
	}
	if ev := requestEvent(r, lvl, LevelInfo); ev != nil {
		ev.Str("query", req.Query).Str("expanded", res.Expanded).Bool("degraded", res.Degraded).Dur("dur", took).Msg("expanded query")
	}
	writeJSON(w, http.StatusOK, types.ExpandResponse{
		OriginalQuery:  req.Query,
		ExpandedQuery:  res.Expanded,
		ProcessingTime: took.Seconds(),
		Degraded:       res.Degraded,
	})
}

// queueStatus godoc
// @Summary  Overload queue depth
// @Tags     queue
// @Produce  json
// @Success  200 {object} types.QueueStatus
// @Router   /queue/status [get]
func (h *handlers) queueStatus(w http.ResponseWriter, r *http.Request) {
	if h.opts.Queue == nil {
		writeJSON(w, http.StatusOK, types.QueueStatus{QueueEnabled: false})
		return
	}
	st, err := h.opts.Queue.Status(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, types.QueueStatus{QueueEnabled: true, Error: err.Error()})
		return
	}
	st.QueueEnabled = true
	writeJSON(w, http.StatusOK, st)
}

// queueJob godoc
// @Summary  Queued job result
// @Tags     queue
// @Produce  json
// @Param    id path string true "Job id"
// @Success  200 {object} types.QueueJob
// @Failure  404 {object} types.ErrorResponse
// @Router   /queue/{id} [get]
func (h *handlers) queueJob(w http.ResponseWriter, r *http.Request) {
	if h.opts.Queue == nil {
		writeJSONError(w, http.StatusNotFound, "queue not enabled")
		return
	}
	job, err := h.opts.Queue.Get(r.Context(), chi.URLParam(r, "id"))
	if queue.IsNotFound(err) {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// errorStatus maps well-known errors to HTTP status codes.
func errorStatus(err error) (int, string) {
	var he HTTPError
	switch {
	case expand.IsNotReady(err):
		return http.StatusServiceUnavailable, "Model not ready"
	case manager.IsTooBusy(err):
		return http.StatusTooManyRequests, err.Error()
	case manager.IsDependencyUnavailable(err):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "expansion timed out"
	case errors.As(err, &he):
		return he.StatusCode(), he.Error()
	}
	return http.StatusInternalServerError, err.Error()
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, lvl LogLevel, start time.Time, status int, msg string, err error) {
	expandErrorsTotal.Inc()
	expandRequestsTotal.WithLabelValues("error").Inc()
	at := LevelInfo
	if status >= 500 {
		at = LevelError
	}
	if ev := requestEvent(r, lvl, at); ev != nil {
		ev.Int("status", status).Dur("dur", time.Since(start)).AnErr("error", err).Msg(msg)
	}
	writeJSONError(w, status, msg)
}
