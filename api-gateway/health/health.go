package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tair/storefront/pkg/logger"
)

// Health states.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// InstanceHealth is the result of probing one upstream instance.
type InstanceHealth struct {
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	LatencyMS int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// GatewayHealth is the aggregated readiness report.
type GatewayHealth struct {
	Gateway   string           `json:"gateway"`
	Mode      string           `json:"mode"`
	Status    string           `json:"status"`
	Instances []InstanceHealth `json:"instances"`
	Uptime    float64          `json:"uptime_seconds"`
}

// Checker probes the upstream instances.
type Checker struct {
	mode      string
	instances []string
	path      string
	client    *http.Client
	startTime time.Time
}

// NewChecker builds a checker. With no instances (demo mode) the gateway is
// always ready.
func NewChecker(mode string, instances []string, path string) *Checker {
	return &Checker{
		mode:      mode,
		instances: instances,
		path:      path,
		client:    &http.Client{Timeout: 5 * time.Second},
		startTime: time.Now(),
	}
}

// CheckInstance probes one upstream instance
func (h *Checker) CheckInstance(ctx context.Context, base string) InstanceHealth {
	start := time.Now()
	result := InstanceHealth{URL: base, Timestamp: start}

	url := strings.TrimRight(strings.TrimSpace(base), "/") + h.path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("Failed to create request: %v", err)
		return result
	}

	resp, err := h.client.Do(req)
	result.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("Failed to reach instance: %v", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		result.Status = StatusHealthy
	} else {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("Unexpected status code: %d", resp.StatusCode)
	}
	return result
}

// CheckAll probes every instance concurrently.
func (h *Checker) CheckAll(ctx context.Context) GatewayHealth {
	results := make([]InstanceHealth, len(h.instances))
	var wg sync.WaitGroup
	for i, base := range h.instances {
		wg.Add(1)
		go func(i int, base string) {
			defer wg.Done()
			results[i] = h.CheckInstance(ctx, base)
			if results[i].Status != StatusHealthy {
				logger.Warn(ctx).
					Str("instance", base).
					Str("error", results[i].Error).
					Msg("Upstream health check failed")
			}
		}(i, base)
	}
	wg.Wait()

	return GatewayHealth{
		Gateway:   "storefront-gateway",
		Mode:      h.mode,
		Status:    overall(results),
		Instances: results,
		Uptime:    time.Since(h.startTime).Seconds(),
	}
}

func overall(results []InstanceHealth) string {
	if len(results) == 0 {
		return StatusHealthy
	}
	healthy := 0
	for _, r := range results {
		if r.Status == StatusHealthy {
			healthy++
		}
	}
	switch {
	case healthy == len(results):
		return StatusHealthy
	case healthy > 0:
		return StatusDegraded
	}
	return StatusUnhealthy
}

// QuickCheck reports the gateway itself without probing upstreams.
func (h *Checker) QuickCheck() map[string]any {
	return map[string]any{
		"status":    StatusHealthy,
		"gateway":   "storefront-gateway",
		"mode":      h.mode,
		"uptime":    time.Since(h.startTime).Seconds(),
		"timestamp": time.Now(),
	}
}
