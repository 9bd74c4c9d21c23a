package metrics

import (
	"context"
	"sync"
)

// MemoryRecorder keeps counters in process. Counters reset on restart.
type MemoryRecorder struct {
	mu     sync.Mutex
	counts map[Outcome]int64
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{counts: make(map[Outcome]int64)}
}

func (m *MemoryRecorder) Record(_ context.Context, outcome Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[outcome]++
	return nil
}

func (m *MemoryRecorder) Snapshot(_ context.Context) (map[Outcome]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Outcome]int64, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out, nil
}
