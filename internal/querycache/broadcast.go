package querycache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// invalidation wire message
type invalidation struct {
	Origin string `json:"origin"`
	Prefix string `json:"prefix"`
	At     int64  `json:"at"`
}

// Broadcaster shares invalidations between console processes over NATS.
// Local invalidations are applied first and then published; remote ones are
// applied to the local cache. A process ignores its own messages.
type Broadcaster struct {
	nc      *nats.Conn
	subject string
	origin  string
	local   *Cache
	sub     *nats.Subscription
	timeout time.Duration
	logger  *slog.Logger
}

// NewBroadcaster creates a Broadcaster bound to local.
func NewBroadcaster(nc *nats.Conn, subject string, local *Cache) *Broadcaster {
	return &Broadcaster{
		nc:      nc,
		subject: subject,
		origin:  uuid.NewString(),
		local:   local,
		timeout: 10 * time.Second,
		logger:  slog.Default(),
	}
}

// Origin id stamped on published messages.
func (b *Broadcaster) Origin() string {
	return b.origin
}

// Start subscribes to remote invalidations.
func (b *Broadcaster) Start() error {
	sub, err := b.nc.Subscribe(b.subject, b.handle)
	if err != nil {
		return err
	}
	b.sub = sub
	b.logger.Info("Cache invalidation broadcast started", "subject", b.subject, "origin", b.origin)
	return nil
}

// Stop unsubscribes.
func (b *Broadcaster) Stop() {
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			b.logger.Warn("Failed to unsubscribe invalidations", "error", err)
		}
		b.sub = nil
	}
}

// Invalidate refetches locally, then tells the other processes.
func (b *Broadcaster) Invalidate(ctx context.Context, prefix Key) {
	b.local.Invalidate(ctx, prefix)

	data, err := json.Marshal(invalidation{Origin: b.origin, Prefix: string(prefix), At: time.Now().UnixMilli()})
	if err != nil {
		b.logger.Error("Failed to marshal invalidation", "error", err)
		return
	}
	if err := b.nc.Publish(b.subject, data); err != nil {
		b.logger.Warn("Failed to publish invalidation", "prefix", prefix, "error", err)
	}
}

func (b *Broadcaster) handle(msg *nats.Msg) {
	var inv invalidation
	if err := json.Unmarshal(msg.Data, &inv); err != nil {
		b.logger.Warn("Dropping malformed invalidation", "error", err)
		return
	}
	if inv.Origin == b.origin {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	b.local.invalidate(ctx, Key(inv.Prefix), "remote")
}
