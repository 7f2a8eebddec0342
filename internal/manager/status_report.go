package manager

import (
	"time"

	"qexpand/pkg/types"
)

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	st := m.state
	m.mu.RUnlock()
	now := time.Now()
	return types.StatusResponse{
		Model:          m.gen.ModelID(),
		Stage:          string(st.Stage),
		Device:         string(st.Device),
		Strategy:       string(st.Strategy),
		Ready:          st.Ready,
		Error:          st.Err,
		QueueLen:       len(m.queueCh),
		Inflight:       len(m.genCh),
		MaxQueueDepth:  cap(m.queueCh),
		LoadsTotal:     m.loadsTotal.Load(),
		FallbacksTotal: m.fallbacksTotal.Load(),
		UptimeSeconds:  int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
}
