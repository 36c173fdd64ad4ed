package logward

import (
	"sync"
	"time"
)

// latencyWindow is the number of successful-send latency samples kept for
// the rolling average, oldest evicted first.
const latencyWindow = 100

// Metrics is a point-in-time snapshot of a client's delivery counters.
// Counters are monotonically non-decreasing between resets.
type Metrics struct {
	LogsSent            int64   `json:"logsSent"`
	LogsDropped         int64   `json:"logsDropped"`
	Errors              int64   `json:"errors"`
	Retries             int64   `json:"retries"`
	CircuitBreakerTrips int64   `json:"circuitBreakerTrips"`
	AvgLatencyMs        float64 `json:"avgLatencyMs"`
}

// metricsRecorder tracks delivery counters and the latency window. Methods
// are safe for concurrent use, and are no-ops when the recorder is
// disabled. Readers only ever get snapshots.
type metricsRecorder struct {
	mtx     sync.Mutex
	enabled bool // immutable after construction
	sent    int64
	dropped int64
	errors  int64
	retries int64
	trips   int64
	latency *ringBuffer[time.Duration]
}

func newMetricsRecorder(enabled bool) *metricsRecorder {
	return &metricsRecorder{
		enabled: enabled,
		latency: newRingBuffer[time.Duration](latencyWindow),
	}
}

func (m *metricsRecorder) addSent(n int) {
	if !m.enabled {
		return
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.sent += int64(n)
}

func (m *metricsRecorder) incDropped() {
	if !m.enabled {
		return
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.dropped++
}

func (m *metricsRecorder) incErrors() {
	if !m.enabled {
		return
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.errors++
}

func (m *metricsRecorder) addRetries(n int) {
	if !m.enabled || n <= 0 {
		return
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.retries += int64(n)
}

func (m *metricsRecorder) incTrips() {
	if !m.enabled {
		return
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.trips++
}

func (m *metricsRecorder) observeLatency(d time.Duration) {
	if !m.enabled {
		return
	}
	m.latency.add(d)
}

// snapshot copies the counters and computes the mean of the latency
// window.
func (m *metricsRecorder) snapshot() Metrics {
	if !m.enabled {
		return Metrics{}
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	var (
		total time.Duration
		count int
	)
	m.latency.walk(func(d time.Duration) error {
		total += d
		count++
		return nil
	})

	var avg float64
	if count > 0 {
		avg = float64(total) / float64(count) / float64(time.Millisecond)
	}

	return Metrics{
		LogsSent:            m.sent,
		LogsDropped:         m.dropped,
		Errors:              m.errors,
		Retries:             m.retries,
		CircuitBreakerTrips: m.trips,
		AvgLatencyMs:        avg,
	}
}

// reset zeroes every counter and discards the latency window.
func (m *metricsRecorder) reset() {
	if !m.enabled {
		return
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.sent = 0
	m.dropped = 0
	m.errors = 0
	m.retries = 0
	m.trips = 0
	m.latency.reset()
}
