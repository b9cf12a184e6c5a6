package loadbalancer

import (
	"sync"

	"github.com/tair/storefront/pkg/logger"
)

// RoundRobin hands out upstream base URLs in turn.
type RoundRobin struct {
	servers []string
	current int
	mu      sync.Mutex
}

// NewRoundRobin creates a balancer over servers. An empty pool yields "".
func NewRoundRobin(servers []string) *RoundRobin {
	logger.Logger.Info().
		Int("server_count", len(servers)).
		Strs("servers", servers).
		Msg("Round-robin load balancer initialized")

	return &RoundRobin{servers: append([]string{}, servers...)}
}

// Next returns the next server in round-robin order
func (rr *RoundRobin) Next() string {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if len(rr.servers) == 0 {
		return ""
	}
	server := rr.servers[rr.current]
	rr.current = (rr.current + 1) % len(rr.servers)
	return server
}

// Servers returns a copy of the pool.
func (rr *RoundRobin) Servers() []string {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return append([]string{}, rr.servers...)
}

// Stats describes the balancer for the gateway overview.
func (rr *RoundRobin) Stats() map[string]any {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	return map[string]any{
		"algorithm":     "round-robin",
		"server_count":  len(rr.servers),
		"servers":       append([]string{}, rr.servers...),
		"current_index": rr.current,
	}
}
