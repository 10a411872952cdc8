package monitoring

import "time"

// Snapshot returns current values for the JSON health endpoint
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	if s.TotalRequests > 0 {
		s.AvgRequestMilli = s.totalDuration / float64(s.TotalRequests) * 1000
	}
	return s
}
