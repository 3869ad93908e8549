package middleware

import (
	"maps"
	"sync"
	"time"

	"github.com/roach88/tea"
)

// Metrics holds dispatch metrics for a single message.
type Metrics struct {
	Start    time.Time
	Duration time.Duration
	Kind     string

	// Seq is the 1-based position of the message among those this
	// middleware has seen.
	Seq int64
}

// MetricsCollector receives the metrics of one dispatch. It runs on the
// update loop and must return quickly.
type MetricsCollector func(m *Metrics)

// MetricsMiddleware times the rest of the chain for every message.
func MetricsMiddleware[E, S, M any](kind KindFunc[M], collect MetricsCollector) tea.Middleware[E, S, M] {
	kind = kindOrType(kind)
	return func(_ E, _ func() S, next tea.Dispatch[M]) tea.Dispatch[M] {
		var seq int64
		return func(msg M) {
			seq++
			m := &Metrics{
				Start: time.Now(),
				Kind:  kind(msg),
				Seq:   seq,
			}

			next(msg)

			m.Duration = time.Since(m.Start)
			collect(m)
		}
	}
}

// DistributeMetrics creates a collector that distributes metrics to multiple collectors.
func DistributeMetrics(collectors ...MetricsCollector) MetricsCollector {
	return func(m *Metrics) {
		for _, c := range collectors {
			c(m)
		}
	}
}

// KindStats aggregates the dispatches of one message kind.
type KindStats struct {
	Count int64         `json:"count"`
	Total time.Duration `json:"total_ns"`
	Max   time.Duration `json:"max_ns"`
}

// Stats aggregates metrics per message kind. Its Collect method is a
// MetricsCollector. The zero value is ready to use.
//
// Thread-safety: safe for concurrent use.
type Stats struct {
	mu    sync.Mutex
	kinds map[string]KindStats
}

// NewStats creates an empty aggregator.
func NewStats() *Stats {
	return &Stats{kinds: make(map[string]KindStats)}
}

// Collect adds m to the aggregate.
func (s *Stats) Collect(m *Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kinds == nil {
		s.kinds = make(map[string]KindStats)
	}
	k := s.kinds[m.Kind]
	k.Count++
	k.Total += m.Duration
	k.Max = max(k.Max, m.Duration)
	s.kinds[m.Kind] = k
}

// Snapshot returns a copy of the aggregate keyed by message kind.
func (s *Stats) Snapshot() map[string]KindStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kinds == nil {
		return map[string]KindStats{}
	}
	return maps.Clone(s.kinds)
}

// Total returns the number of messages collected.
func (s *Stats) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, k := range s.kinds {
		n += k.Count
	}
	return n
}
