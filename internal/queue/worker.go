package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"qexpand/internal/expand"
)

const defaultPollInterval = 500 * time.Millisecond

// Expander is the slice of the expansion engine the worker needs.
type Expander interface {
	ExpandResult(ctx context.Context, query string) (expand.Result, error)
}

// WorkerOptions tunes a Worker. Zero values take defaults.
type WorkerOptions struct {
	PollInterval time.Duration
	BatchSize    int
	Logger       *zerolog.Logger
	// Ready gates Receive; jobs stay queued while it reports false.
	Ready func() bool
	// OnDone is called after each successful expansion.
	OnDone func(query string, res expand.Result, took time.Duration)
}

// Worker drains the queue through an Expander, one job at a time.
type Worker struct {
	q      *Queue
	exp    Expander
	poll   time.Duration
	batch  int
	log    zerolog.Logger
	ready  func() bool
	onDone func(query string, res expand.Result, took time.Duration)
}

// NewWorker returns a worker consuming q.
func NewWorker(q *Queue, exp Expander, opts WorkerOptions) *Worker {
	w := &Worker{q: q, exp: exp, poll: opts.PollInterval, batch: opts.BatchSize, log: zerolog.Nop(), ready: opts.Ready, onDone: opts.OnDone}
	if w.poll <= 0 {
		w.poll = defaultPollInterval
	}
	if w.batch <= 0 {
		w.batch = 1
	}
	if opts.Logger != nil {
		w.log = opts.Logger.With().Str("component", "queue-worker").Logger()
	}
	return w
}

// Run processes jobs until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	t := time.NewTicker(w.poll)
	defer t.Stop()
	for {
		n, err := w.ProcessOnce(ctx)
		if err != nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("queue receive failed")
		}
		if n > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// ProcessOnce claims one batch and handles it. It returns the number of
// jobs completed or failed; jobs handed back because the engine is not ready
// are not counted.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	if w.ready != nil && !w.ready() {
		return 0, nil
	}
	msgs, err := w.q.Receive(ctx, w.batch)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range msgs {
		if w.handle(ctx, m) {
			n++
		}
	}
	return n, nil
}

func (w *Worker) handle(ctx context.Context, m Message) bool {
	start := time.Now()
	res, err := w.exp.ExpandResult(ctx, m.Query)
	// Record on a fresh context so a shutdown still releases the job.
	rctx := context.WithoutCancel(ctx)
	if expand.IsNotReady(err) {
		w.log.Debug().Str("job", m.ID).Msg("engine not ready; job released")
		if rerr := w.q.Release(rctx, m.ID); rerr != nil {
			w.log.Error().Err(rerr).Str("job", m.ID).Msg("release job")
		}
		return false
	}
	if err != nil {
		w.log.Warn().Err(err).Str("job", m.ID).Int("attempt", m.Attempts).Msg("queued expansion failed")
		if ferr := w.q.Fail(rctx, m.ID, err); ferr != nil {
			w.log.Error().Err(ferr).Str("job", m.ID).Msg("mark job failed")
		}
		return true
	}
	if err := w.q.Complete(ctx, m.ID, res.Expanded); err != nil {
		w.log.Error().Err(err).Str("job", m.ID).Msg("mark job done")
		return true
	}
	took := time.Since(start)
	w.log.Debug().Str("job", m.ID).Dur("took", took).Bool("degraded", res.Degraded).Msg("queued expansion done")
	if w.onDone != nil {
		w.onDone(m.Query, res, took)
	}
	return true
}
