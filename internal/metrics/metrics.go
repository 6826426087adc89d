package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex        sync.RWMutex
	cacheHits    int64
	cacheMisses  int64
	notFound     int64
	successes    map[string]int64
	failures     map[string]int64
	durations    map[string][]time.Duration
	healthStatus map[string]bool
	startTime    time.Time
}

type Snapshot struct {
	Uptime       time.Duration              `json:"uptime"`
	Lookups      int64                      `json:"lookups"`
	CacheHits    int64                      `json:"cache_hits"`
	CacheMisses  int64                      `json:"cache_misses"`
	HitRatio     float64                    `json:"hit_ratio"`
	NotFound     int64                      `json:"not_found"`
	CacheEntries int                        `json:"cache_entries"`
	Strategies   map[string]StrategyMetrics `json:"strategies"`
	Upstreams    map[string]bool            `json:"upstreams"`
}

type StrategyMetrics struct {
	Successes   int64         `json:"successes"`
	Failures    int64         `json:"failures"`
	AvgDuration time.Duration `json:"avg_duration"`
	P50Duration time.Duration `json:"p50_duration"`
	P95Duration time.Duration `json:"p95_duration"`
	P99Duration time.Duration `json:"p99_duration"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		successes:    make(map[string]int64),
		failures:     make(map[string]int64),
		durations:    make(map[string][]time.Duration),
		healthStatus: make(map[string]bool),
		startTime:    time.Now(),
	}
}

func (m *Metrics) RecordCacheHit() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.cacheHits++
}

func (m *Metrics) RecordCacheMiss() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.cacheMisses++
}

func (m *Metrics) RecordNotFound() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.notFound++
}

// RecordAttempt stores the outcome of one strategy run. Only the latest
// maxSamples durations per strategy are kept.
func (m *Metrics) RecordAttempt(strategy string, d time.Duration, ok bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if ok {
		m.successes[strategy]++
	} else {
		m.failures[strategy]++
	}

	m.durations[strategy] = append(m.durations[strategy], d)
	if len(m.durations[strategy]) > maxSamples {
		m.durations[strategy] = m.durations[strategy][1:]
	}
}

func (m *Metrics) UpdateHealthStatus(upstream string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStatus[upstream] = healthy
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:      time.Since(m.startTime),
		Lookups:     m.cacheHits + m.cacheMisses,
		CacheHits:   m.cacheHits,
		CacheMisses: m.cacheMisses,
		NotFound:    m.notFound,
		Strategies:  make(map[string]StrategyMetrics),
		Upstreams:   make(map[string]bool, len(m.healthStatus)),
	}

	if snap.Lookups > 0 {
		snap.HitRatio = float64(m.cacheHits) / float64(snap.Lookups)
	}

	for name, healthy := range m.healthStatus {
		snap.Upstreams[name] = healthy
	}

	for name, durations := range m.durations {
		sm := StrategyMetrics{
			Successes: m.successes[name],
			Failures:  m.failures[name],
		}

		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			sm.AvgDuration = average(sorted)
			sm.P50Duration = percentile(sorted, 0.50)
			sm.P95Duration = percentile(sorted, 0.95)
			sm.P99Duration = percentile(sorted, 0.99)
		}

		snap.Strategies[name] = sm
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
