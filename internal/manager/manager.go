package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Manager owns the tokenizer and model handles for the process.
type Manager struct {
	mu    sync.RWMutex
	state ModelState
	tok   Tokenizer
	model Model

	gen        GenerationConfig
	loader     Loader
	credential func() string
	probe      func() bool
	device     DevicePreference
	plans      PlanOptions

	// Admission: one in-flight generation, bounded waiters.
	genCh         chan struct{}
	queueCh       chan struct{}
	maxQueueDepth int
	maxWait       time.Duration
	drainTimeout  time.Duration

	publisher EventPublisher
	log       zerolog.Logger

	startTime      time.Time
	loadsTotal     atomic.Uint64
	fallbacksTotal atomic.Uint64
	// teardowns lets an Initialize racing a Teardown drop its handles.
	teardowns atomic.Uint64
}

// New builds a Manager with the given loader and defaults for everything else.
func New(loader Loader, gen GenerationConfig) *Manager {
	return NewWithConfig(ManagerConfig{Loader: loader, Generation: gen})
}

// Ready reports whether handles are loaded and the engine may serve.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Ready && m.tok != nil && m.model != nil
}

// State returns a snapshot of the lifecycle state.
func (m *Manager) State() ModelState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Handles returns the loaded handles when ready.
func (m *Manager) Handles() (Handles, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.state.Ready || m.tok == nil || m.model == nil {
		return Handles{}, false
	}
	return Handles{
		Strategy:  m.state.Strategy,
		Device:    m.state.Device,
		Tokenizer: m.tok,
		Model:     m.model,
	}, true
}

// GenerationConfig returns the immutable generation settings.
func (m *Manager) GenerationConfig() GenerationConfig { return m.gen }

// SetEventPublisher replaces the lifecycle event sink. Nil restores the no-op sink.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		p = noopPublisher{}
	}
	m.publisher = p
}

func (m *Manager) events() EventPublisher {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.publisher
}

// setStage records a transition without touching readiness.
func (m *Manager) setStage(stage Stage, dev Device) {
	m.mu.Lock()
	m.state.Stage = stage
	m.state.Device = dev
	m.mu.Unlock()
	m.log.Info().Str("stage", string(stage)).Str("device", string(dev)).Msg("model stage")
	m.events().Publish(Event{Name: "stage", Stage: stage, Fields: map[string]any{"device": string(dev)}})
}
