// Package api implements the HTTP transport and the auth interceptor chain
// for the admin backend: bearer/CSRF attach, single-flight token refresh with
// queued retry, and envelope normalization.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/D-Rayno/g-agency-admin-go/internal/errs"
	"github.com/D-Rayno/g-agency-admin-go/internal/keystore"
)

// defaultTimeout bounds every request; exceeding it surfaces errs.ErrTimeout
// to the caller and is never retried automatically.
const defaultTimeout = 30 * time.Second

// Config describes one logical backend.
type Config struct {
	BaseURL string
	Keys    keystore.Store

	// Notifier receives user-visible error/success toasts. Defaults to NopNotifier.
	Notifier Notifier
	Logger   *zap.Logger

	// OnSessionExpired runs after a failed refresh tears the session down
	// (the mobile shell navigates to the login screen here).
	OnSessionExpired func()

	// Timeout overrides the 30s default. Tests only.
	Timeout time.Duration
}

// Client is a configured HTTP transport for one base URL. All verb methods
// resolve with the parsed envelope on any HTTP response and return an error
// only on network failure, timeout, or a session teardown by the interceptor.
type Client struct {
	http     *http.Client
	baseURL  string
	notifier Notifier
	log      *zap.Logger
	auth     *authTransport
}

// New constructs a Client with the auth interceptor chain installed.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api: base URL required")
	}
	if cfg.Keys == nil {
		return nil, errors.New("api: keystore required")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	at := newAuthTransport(base, cfg.Keys, cfg.Notifier, cfg.Logger, cfg.OnSessionExpired, cfg.Timeout)
	return &Client{
		http:     &http.Client{Transport: at, Timeout: cfg.Timeout},
		baseURL:  base,
		notifier: cfg.Notifier,
		log:      cfg.Logger,
		auth:     at,
	}, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return c.do(ctx, http.MethodGet, path, nil, query)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.do(ctx, http.MethodPut, path, body, nil)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.do(ctx, http.MethodPatch, path, body, nil)
}

// Delete issues a DELETE request. Body is optional (bulk deletes carry IDs).
func (c *Client) Delete(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.do(ctx, http.MethodDelete, path, body, nil)
}

// GetRaw fetches a binary payload (exports) and returns body bytes plus the
// Content-Type. Non-2xx responses are decoded as envelopes for the message.
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, query)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", c.transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode >= 400 {
		var env Envelope
		_ = json.Unmarshal(raw, &env)
		apiErr := &APIError{Status: resp.StatusCode, Message: extractMessage(&env, resp.Status), Errors: env.Errors}
		c.notifier.Error("Error", apiErr.Message)
		return nil, "", apiErr
	}
	return raw, resp.Header.Get("Content-Type"), nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, query url.Values) (*Envelope, error) {
	req, err := c.newRequest(ctx, method, path, body, query)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	env := &Envelope{}
	if jsonErr := json.Unmarshal(raw, env); jsonErr != nil {
		// Non-JSON body (proxies, hard 5xx). Synthesize an envelope.
		env = &Envelope{Success: resp.StatusCode < 300, Message: strings.TrimSpace(string(raw))}
	}

	c.log.Debug("http",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Message: extractMessage(env, resp.Status),
			Errors:  env.Errors,
		}
		c.notifier.Error("Error", apiErr.Message)
		return env, apiErr
	}
	return env, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, query url.Values) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// transportError normalizes network-level failures. Session teardown already
// fired its own notification inside the interceptor; everything else toasts here.
func (c *Client) transportError(err error) error {
	if errors.Is(err, errs.ErrSessionExpired) {
		return err
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if uerr.Timeout() || errors.Is(uerr, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", errs.ErrTimeout, uerr.Err)
		} else {
			err = uerr.Err
		}
	}
	c.notifier.Error("Error", err.Error())
	return err
}
