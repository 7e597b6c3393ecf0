package localnav

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

const defaultLatencyWindow = 1000

// LatencyStats describes cycle times in milliseconds.
type LatencyStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean_ms"`
	P50   float64 `json:"p50_ms"`
	P99   float64 `json:"p99_ms"`
	Max   float64 `json:"max_ms"`
}

// latencyWindow keeps the most recent cycle times.
type latencyWindow struct {
	mu      sync.Mutex
	samples []float64
	next    int
	size    int
}

func newLatencyWindow(size int) *latencyWindow {
	return &latencyWindow{samples: make([]float64, 0, size), size: size}
}

func (w *latencyWindow) add(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.samples) < w.size {
		w.samples = append(w.samples, ms)
		return
	}
	w.samples[w.next] = ms
	w.next = (w.next + 1) % w.size
}

func (w *latencyWindow) summary() (LatencyStats, error) {
	w.mu.Lock()
	data := stats.Float64Data(append([]float64(nil), w.samples...))
	w.mu.Unlock()

	if data.Len() == 0 {
		return LatencyStats{}, errors.New("no cycles have completed")
	}
	mean, err := data.Mean()
	if err != nil {
		return LatencyStats{}, err
	}
	p50, err := data.Percentile(50)
	if err != nil {
		return LatencyStats{}, err
	}
	p99, err := data.Percentile(99)
	if err != nil {
		return LatencyStats{}, err
	}
	maxLatency, err := data.Max()
	if err != nil {
		return LatencyStats{}, err
	}
	return LatencyStats{Count: data.Len(), Mean: mean, P50: p50, P99: p99, Max: maxLatency}, nil
}
