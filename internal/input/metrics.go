package input

import (
	"sync/atomic"
	"time"
)

// Metrics counts what chains did during the life of the process.
type Metrics struct {
	chainsEntered atomic.Uint64
	activations   atomic.Uint64
	timeouts      atomic.Uint64
	aborts        atomic.Uint64
	escapes       atomic.Uint64
	unbound       atomic.Uint64
	groupRepeats  atomic.Uint64
	reentries     atomic.Uint64
	spawnFailures atomic.Uint64

	// Longest time spent inside one top-level chain.
	peakChain atomic.Int64

	startTime time.Time

	enabled atomic.Bool
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{startTime: time.Now()}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables metrics collection.
func (m *Metrics) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// IsEnabled returns whether metrics collection is enabled.
func (m *Metrics) IsEnabled() bool {
	return m != nil && m.enabled.Load()
}

// RecordChain records how one :enter frame ended.
// d is only used for top-level frames.
func (m *Metrics) RecordChain(outcome Outcome, topLevel bool, d time.Duration) {
	if !m.IsEnabled() {
		return
	}

	m.chainsEntered.Add(1)
	switch outcome {
	case OutcomeActivated:
		m.activations.Add(1)
	case OutcomeTimedOut:
		m.timeouts.Add(1)
	case OutcomeAborted:
		m.aborts.Add(1)
	case OutcomeEscaped:
		m.escapes.Add(1)
	case OutcomeUnbound:
		m.unbound.Add(1)
	}

	if !topLevel {
		return
	}
	ns := d.Nanoseconds()
	for {
		current := m.peakChain.Load()
		if ns <= current {
			break
		}
		if m.peakChain.CompareAndSwap(current, ns) {
			break
		}
	}
}

// RecordGroupRepeat records one repeated :group command.
func (m *Metrics) RecordGroupRepeat() {
	if !m.IsEnabled() {
		return
	}
	m.groupRepeats.Add(1)
}

// RecordReentry records a chain started by the key that left a group.
func (m *Metrics) RecordReentry() {
	if !m.IsEnabled() {
		return
	}
	m.reentries.Add(1)
}

// RecordSpawnFailure records a command that could not be started.
func (m *Metrics) RecordSpawnFailure() {
	if !m.IsEnabled() {
		return
	}
	m.spawnFailures.Add(1)
}

// MetricsSnapshot holds a point-in-time view of metrics.
type MetricsSnapshot struct {
	ChainsEntered uint64
	Activations   uint64
	Timeouts      uint64
	Aborts        uint64
	Escapes       uint64
	Unbound       uint64
	GroupRepeats  uint64
	Reentries     uint64
	SpawnFailures uint64

	PeakChain time.Duration
	Uptime    time.Duration
}

// Snapshot returns a point-in-time view of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		ChainsEntered: m.chainsEntered.Load(),
		Activations:   m.activations.Load(),
		Timeouts:      m.timeouts.Load(),
		Aborts:        m.aborts.Load(),
		Escapes:       m.escapes.Load(),
		Unbound:       m.unbound.Load(),
		GroupRepeats:  m.groupRepeats.Load(),
		Reentries:     m.reentries.Load(),
		SpawnFailures: m.spawnFailures.Load(),
		PeakChain:     time.Duration(m.peakChain.Load()),
		Uptime:        time.Since(m.startTime),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.chainsEntered.Store(0)
	m.activations.Store(0)
	m.timeouts.Store(0)
	m.aborts.Store(0)
	m.escapes.Store(0)
	m.unbound.Store(0)
	m.groupRepeats.Store(0)
	m.reentries.Store(0)
	m.spawnFailures.Store(0)
	m.peakChain.Store(0)
	m.startTime = time.Now()
}
