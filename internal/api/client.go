package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"sudooom.storefront/internal/config"
	"sudooom.storefront/internal/token"
	appErrors "sudooom.storefront/pkg/errors"
)

// Response backend envelope: {"code": 0, "message": "success", "data": ...}
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the storefront REST backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  token.Store
	logger  *slog.Logger
}

// NewClient creates a Client. tokens may be nil for anonymous calls.
func NewClient(cfg config.APIConfig, tokens token.Store, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger,
	}
}

// do sends one request and decodes the data part of the reply into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			c.logger.Warn("Failed to read auth token", "error", err)
		} else if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return appErrors.ErrNetwork.Wrap(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.ErrNetwork.Wrap(err)
	}

	if err := checkStatus(resp.StatusCode, payload); err != nil {
		c.logger.Info("Request rejected",
			"method", method, "path", path, "status", resp.StatusCode, "request_id", requestID, "error", err)
		return err
	}

	if out == nil {
		return nil
	}
	if err := decode(payload, out); err != nil {
		c.logger.Warn("Undecodable response", "method", method, "path", path, "request_id", requestID, "error", err)
		return appErrors.ErrDecodeFailed.Wrap(err)
	}
	return nil
}

// checkStatus turns an HTTP failure, or an envelope with a non-zero code, into an AppError.
func checkStatus(status int, payload []byte) error {
	code := gjson.GetBytes(payload, "code")
	message := serverMessage(payload)

	if status == http.StatusUnauthorized {
		e := appErrors.ErrUnauthorized.Wrap(fmt.Errorf("status %d", status))
		if message != "" {
			e = e.WithMessage(message)
		}
		return e
	}

	if status < 200 || status > 299 {
		e := appErrors.ErrRequestRejected.Wrap(fmt.Errorf("status %d", status))
		if message != "" {
			e = e.WithMessage(message)
		}
		return e
	}

	// the backend answers 200 with a business code on failure
	if code.Exists() && code.Int() != appErrors.CodeSuccess {
		e := appErrors.ErrRequestRejected.Wrap(fmt.Errorf("code %d", code.Int()))
		if message != "" {
			e = e.WithMessage(message)
		}
		return e
	}
	return nil
}

func serverMessage(payload []byte) string {
	if !gjson.ValidBytes(payload) {
		return ""
	}
	for _, path := range []string{"message", "error.message", "error"} {
		if r := gjson.GetBytes(payload, path); r.Type == gjson.String && r.String() != "" {
			if r.String() == "success" {
				continue
			}
			return r.String()
		}
	}
	return ""
}

// decode accepts both the envelope and a bare resource body
func decode(payload []byte, out any) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return errors.New("empty body")
	}
	if gjson.GetBytes(payload, "code").Exists() && gjson.GetBytes(payload, "data").Exists() {
		var env Response
		if err := json.Unmarshal(payload, &env); err != nil {
			return err
		}
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(payload, out)
}
