package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const defaultWriteTimeout = 15 * time.Second

var trackingFailuresTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "qexpand",
		Subsystem: "tracking",
		Name:      "failures_total",
		Help:      "Expansion records that could not be written",
	},
)

func init() {
	prometheus.MustRegister(trackingFailuresTotal)
}

// Async writes records in the background. Submit never blocks on the
// tracker and never returns an error; failures are logged and counted.
type Async struct {
	t   Tracker
	log zerolog.Logger
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewAsync wraps t. A nil logger discards log output.
func NewAsync(t Tracker, logger *zerolog.Logger) *Async {
	a := &Async{t: t, log: zerolog.Nop()}
	if logger != nil {
		a.log = logger.With().Str("component", "tracking").Logger()
	}
	return a
}

// Submit schedules r for writing. Records submitted after Close are dropped.
func (a *Async) Submit(r Record) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	go func() {
		defer a.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				trackingFailuresTotal.Inc()
				a.log.Error().Interface("panic", p).Msg("tracker panicked")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), defaultWriteTimeout)
		defer cancel()
		if err := a.t.LogExpansion(ctx, r); err != nil {
			trackingFailuresTotal.Inc()
			a.log.Error().Err(err).Str("query", r.OriginalQuery).Msg("error logging expansion")
		}
	}()
}

// Close waits for pending writes and closes the tracker.
func (a *Async) Close() error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.wg.Wait()
	return a.t.Close()
}
