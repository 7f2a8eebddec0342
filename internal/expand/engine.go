package expand

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"qexpand/internal/manager"
)

// DefaultMockDelay models real latency on the mock path.
const DefaultMockDelay = 100 * time.Millisecond

// Lifecycle is the part of the model manager the engine depends on.
// *manager.Manager satisfies it.
type Lifecycle interface {
	Handles() (manager.Handles, bool)
	BeginGeneration(ctx context.Context) (func(), error)
	GenerationConfig() manager.GenerationConfig
}

// Options tunes an Engine. Zero values take defaults.
type Options struct {
	MockDelay time.Duration
	Logger    *zerolog.Logger
}

// Result is the outcome of one expansion.
type Result struct {
	Original string
	Expanded string
	// Degraded is true when the mock strategy produced Expanded.
	Degraded bool
}

// Engine expands queries using whatever handles the lifecycle holds. It
// keeps no model state of its own and is safe for concurrent use.
type Engine struct {
	lc        Lifecycle
	cfg       manager.GenerationConfig
	mockDelay time.Duration
	log       zerolog.Logger
}

// New returns an Engine bound to lc.
func New(lc Lifecycle, opts Options) *Engine {
	e := &Engine{
		lc:        lc,
		cfg:       lc.GenerationConfig(),
		mockDelay: opts.MockDelay,
		log:       zerolog.Nop(),
	}
	if e.mockDelay <= 0 {
		e.mockDelay = DefaultMockDelay
	}
	if opts.Logger != nil {
		e.log = opts.Logger.With().Str("component", "expand").Logger()
	}
	return e
}

// Expand returns the expanded form of query. See ExpandResult.
func (e *Engine) Expand(ctx context.Context, query string) (string, error) {
	r, err := e.ExpandResult(ctx, query)
	if err != nil {
		return "", err
	}
	return r.Expanded, nil
}

// ExpandResult expands query. It fails only with ErrNotReady, or with
// ctx.Err() when the caller stops waiting; generation failures degrade to
// the mock strategy. A generation that is already running is not
// interrupted by ctx: it completes in the background and frees its slot.
func (e *Engine) ExpandResult(ctx context.Context, query string) (Result, error) {
	h, ok := e.lc.Handles()
	if !ok {
		return Result{}, ErrNotReady
	}
	done := make(chan Result, 1)
	runCtx := context.WithoutCancel(ctx)
	go func() { done <- e.dispatch(runCtx, h, query) }()
	select {
	case r := <-done:
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (e *Engine) dispatch(ctx context.Context, h manager.Handles, query string) Result {
	start := time.Now()
	if h.Strategy == manager.StrategyReal {
		out, err := e.expandReal(ctx, h, query)
		if err == nil {
			observeExpansion(string(manager.StrategyReal), false, time.Since(start))
			return Result{Original: query, Expanded: out}
		}
		generationFailuresTotal.Inc()
		e.log.Error().Err(generationFailure{err: err}).Str("query", query).Msg("real model expansion failed, using mock strategy")
	}
	out := e.expandMock(ctx, h, query)
	observeExpansion(string(manager.StrategyMock), true, time.Since(start))
	return Result{Original: query, Expanded: out, Degraded: true}
}
