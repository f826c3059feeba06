package health

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"sudooom.storefront/internal/realtime"
)

// Status health snapshot
type Status struct {
	Service  string            `json:"service"`
	NATS     string            `json:"nats"`
	Redis    string            `json:"redis"`
	Channels map[string]string `json:"channels"`
}

// ChannelReporter anything with a realtime state, e.g. a chat session
type ChannelReporter interface {
	State() realtime.State
}

// Checker health checker
type Checker struct {
	nc          *nats.Conn
	redisClient *redis.Client
	channels    map[string]ChannelReporter
}

// NewChecker creates a Checker. nc and redisClient may be nil when not configured.
func NewChecker(nc *nats.Conn, redisClient *redis.Client) *Checker {
	return &Checker{
		nc:          nc,
		redisClient: redisClient,
		channels:    make(map[string]ChannelReporter),
	}
}

// Watch adds a realtime channel to the report. Not safe after serving starts.
func (h *Checker) Watch(name string, ch ChannelReporter) {
	h.channels[name] = ch
}

// Check runs the checks
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		Service:  "console",
		Channels: make(map[string]string, len(h.channels)),
	}

	switch {
	case h.nc == nil:
		status.NATS = "not configured"
	case h.nc.IsConnected():
		status.NATS = "connected"
	default:
		status.NATS = "disconnected"
	}

	if h.redisClient != nil {
		redisCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := h.redisClient.Ping(redisCtx).Err(); err == nil {
			status.Redis = "connected"
		} else {
			status.Redis = "disconnected"
		}
	} else {
		status.Redis = "not configured"
	}

	for name, ch := range h.channels {
		status.Channels[name] = ch.State().String()
	}

	return status
}

// IsReady every watched channel is connected and every configured backend is reachable.
func (h *Checker) IsReady(ctx context.Context) bool {
	status := h.Check(ctx)
	if status.NATS == "disconnected" || status.Redis == "disconnected" {
		return false
	}
	for _, s := range status.Channels {
		if s != realtime.StateConnected.String() {
			return false
		}
	}
	return true
}
