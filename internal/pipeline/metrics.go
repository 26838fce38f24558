package pipeline

import (
	"encoding/json"
	"sync"
	"time"
)

// Metrics holds request-gateway counters since process start.
type Metrics struct {
	TotalRequests   int       `json:"total_requests"`
	CacheHits       int       `json:"cache_hits"`
	RateLimited     int       `json:"rate_limited"`
	PipelineRuns    int       `json:"pipeline_runs"`
	FallbackRuns    int       `json:"fallback_runs"`
	ErrorCount      int       `json:"error_count"`
	LastRun         time.Time `json:"last_run"`
	LastRunDuration string    `json:"last_run_duration"`

	mu sync.RWMutex
}

func (m *Metrics) recordRequest()   { m.mu.Lock(); m.TotalRequests++; m.mu.Unlock() }
func (m *Metrics) recordCacheHit()  { m.mu.Lock(); m.CacheHits++; m.mu.Unlock() }
func (m *Metrics) recordRateLimit() { m.mu.Lock(); m.RateLimited++; m.mu.Unlock() }
func (m *Metrics) recordError()     { m.mu.Lock(); m.ErrorCount++; m.mu.Unlock() }

func (m *Metrics) recordRun(usedFallback bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PipelineRuns++
	if usedFallback {
		m.FallbackRuns++
	}
	m.LastRun = time.Now()
	m.LastRunDuration = duration.String()
}

// Snapshot returns current metrics as indented JSON.
func (m *Metrics) Snapshot() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, _ := json.MarshalIndent(m, "", "  ")
	return string(data)
}
