package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"sudooom.storefront/internal/config"
	"sudooom.storefront/internal/token"
)

// Connector opens one connection per domain from the shared config.
type Connector struct {
	cfg           config.RealtimeConfig
	tokens        token.Store
	logger        *slog.Logger
	onStateChange func(Domain, State)
}

// NewConnector creates a Connector. tokens may be nil.
func NewConnector(cfg config.RealtimeConfig, tokens token.Store, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{cfg: cfg, tokens: tokens, logger: logger}
}

// OnStateChange sets a callback for state changes of connections opened after this call.
func (c *Connector) OnStateChange(fn func(Domain, State)) {
	c.onStateChange = fn
}

// Open dials the socket for domain.
func (c *Connector) Open(ctx context.Context, domain Domain) (Channel, error) {
	endpoint, err := c.Endpoint(domain)
	if err != nil {
		return nil, err
	}

	conn, err := Dial(ctx, Options{
		Domain:           domain,
		URL:              endpoint,
		HandshakeTimeout: c.cfg.HandshakeTimeout,
		ReconnectWait:    c.cfg.ReconnectWait,
		MaxReconnects:    c.cfg.MaxReconnects,
		PingInterval:     c.cfg.PingInterval,
		QueueSize:        c.cfg.QueueSize,
		Token:            c.tokenSource(),
		Logger:           c.logger,
		OnStateChange:    c.onStateChange,
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Endpoint full socket URL for domain.
func (c *Connector) Endpoint(domain Domain) (string, error) {
	var path string
	switch domain {
	case DomainChat:
		path = c.cfg.ChatPath
	case DomainAdminChat:
		path = c.cfg.AdminChatPath
	case DomainNotification:
		path = c.cfg.NotificationPath
	default:
		return "", fmt.Errorf("unknown realtime domain %q", domain)
	}

	base, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parse socket url: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return base.String(), nil
}

// tokenSource reads the token fresh for every handshake so a re-login is
// picked up on reconnect.
func (c *Connector) tokenSource() TokenSource {
	if c.tokens == nil {
		return nil
	}
	return func(ctx context.Context) (string, error) {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return "", err
		}
		if tok == "" {
			c.logger.Warn("No auth token stored, connecting anonymously")
			return "", nil
		}
		if info := token.Inspect(tok); info.Parsed && info.Expired {
			c.logger.Warn("Auth token looks expired", "subject", info.Subject, "expires_at", info.ExpiresAt)
		}
		return tok, nil
	}
}
