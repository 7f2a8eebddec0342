package manager

import (
	"runtime"
	"runtime/debug"
	"time"
)

// Teardown drains in-flight generation, releases the handles and resets
// readiness. It is safe to call before Initialize and more than once.
//   - Sets the stage to draining so BeginGeneration rejects new work.
//   - Waits up to the drain timeout for queued and in-flight calls.
//   - Closes the model, drops both handles and forces a GC pass.
func (m *Manager) Teardown() {
	m.mu.Lock()
	m.teardowns.Add(1)
	model := m.model
	hadHandles := m.tok != nil || model != nil
	m.state.Ready = false
	if hadHandles {
		m.state.Stage = StageDraining
	}
	m.mu.Unlock()

	if !hadHandles {
		m.mu.Lock()
		m.state = ModelState{Stage: StageTornDown, Device: m.state.Device, Err: m.state.Err}
		m.mu.Unlock()
		return
	}
	m.events().Publish(Event{Name: "teardown_start", Stage: StageDraining})

	deadline := time.Now().Add(m.drainTimeout)
	for {
		qlen := len(m.queueCh)
		inflight := len(m.genCh)
		if inflight == 0 && qlen == 0 {
			break
		}
		if time.Now().After(deadline) {
			m.log.Warn().Int("inflight", inflight).Int("queue", qlen).Msg("teardown drain timed out")
			m.events().Publish(Event{Name: "teardown_timeout", Stage: StageDraining, Fields: map[string]any{"inflight": inflight, "queue": qlen}})
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if model != nil {
		if err := model.Close(); err != nil {
			m.log.Warn().Err(err).Msg("model close failed")
		}
	}

	m.mu.Lock()
	m.tok = nil
	m.model = nil
	m.state = ModelState{Stage: StageTornDown, Device: m.state.Device}
	m.mu.Unlock()

	runtime.GC()
	debug.FreeOSMemory()
	m.log.Info().Msg("model cleanup completed")
	m.events().Publish(Event{Name: "teardown_done", Stage: StageTornDown})
}
