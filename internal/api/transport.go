package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/D-Rayno/g-agency-admin-go/internal/errs"
	"github.com/D-Rayno/g-agency-admin-go/internal/keystore"
	"github.com/D-Rayno/g-agency-admin-go/internal/model"
)

const (
	csrfHeader = "X-XSRF-TOKEN"
	csrfPath   = "/auth/csrf"
	loginPath  = "/auth/login"
	refrPath   = "/auth/refresh"
)

// Per-request retry flags, carried in the context so a retried clone never
// re-enters the same recovery path (at most one auth retry and one CSRF retry
// per request).
type ctxKey int

const (
	ctxAuthRetried ctxKey = iota
	ctxCSRFRetried
)

func marked(ctx context.Context, k ctxKey) bool {
	v, _ := ctx.Value(k).(bool)
	return v
}

// authTransport is the interceptor chain: it owns the per-client session
// state (cached CSRF token, in-flight refresh) and is the only code path
// allowed to touch it. Refresh is single-flight: concurrent 401s block on one
// refresh call and all replay once it settles.
type authTransport struct {
	base     http.RoundTripper
	inner    *http.Client // bypasses this transport, for refresh/CSRF calls
	baseURL  string
	keys     keystore.Store
	notifier Notifier
	log      *zap.Logger
	timeout  time.Duration

	onExpired func()

	refresh singleflight.Group

	csrfMu sync.Mutex
	csrf   string
}

func newAuthTransport(baseURL string, keys keystore.Store, n Notifier, log *zap.Logger, onExpired func(), timeout time.Duration) *authTransport {
	return &authTransport{
		base:      http.DefaultTransport,
		inner:     &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		keys:      keys,
		notifier:  n,
		log:       log,
		timeout:   timeout,
		onExpired: onExpired,
	}
}

// sessionPath reports whether the path belongs to the login/refresh flow.
// Those requests never carry a bearer token and never trigger a refresh: a
// 401 there means wrong credentials, not session expiry.
func sessionPath(path string) bool {
	return strings.HasSuffix(path, loginPath) || strings.HasSuffix(path, refrPath)
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	r := req.Clone(ctx)

	if !sessionPath(r.URL.Path) {
		if tok, err := t.keys.Get(ctx, keystore.KeyAccessToken); err == nil && tok != "" {
			r.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	if lang, err := t.keys.Get(ctx, keystore.KeyLanguage); err == nil && lang != "" {
		r.Header.Set("Accept-Language", lang)
	}
	if mutating(r.Method) && !sessionPath(r.URL.Path) {
		if tok, err := t.csrfToken(ctx); err == nil {
			r.Header.Set(csrfHeader, tok)
		} else {
			t.log.Warn("csrf token fetch failed", zap.Error(err))
		}
	}

	resp, err := t.base.RoundTrip(r)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized &&
		!sessionPath(r.URL.Path) && !marked(ctx, ctxAuthRetried):
		return t.retryAfterRefresh(req, resp, r.Header.Get("Authorization"))

	case resp.StatusCode == http.StatusForbidden &&
		mutating(r.Method) && !marked(ctx, ctxCSRFRetried):
		return t.maybeRetryCSRF(req, resp)
	}
	return resp, nil
}

// retryAfterRefresh runs the single-flight refresh and replays the original
// request exactly once with the new token. A failed refresh is fatal to the
// session: tokens are cleared and the session-expired hook fires. staleAuth
// is the Authorization header the 401'd request carried; if storage already
// holds a different token the refresh already happened and is skipped.
func (t *authTransport) retryAfterRefresh(orig *http.Request, resp *http.Response, staleAuth string) (*http.Response, error) {
	drain(resp)

	if _, err, _ := t.refresh.Do("refresh", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		if tok, err := t.keys.Get(ctx, keystore.KeyAccessToken); err == nil && tok != "" && "Bearer "+tok != staleAuth {
			return nil, nil
		}
		if err := t.doRefresh(); err != nil {
			// Teardown belongs to the flight, not the waiters: one failed
			// refresh means one notice and one navigation, however many
			// requests were queued on it.
			t.failSession(err)
			return nil, err
		}
		return nil, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrSessionExpired, err)
	}

	retry, err := redo(orig, ctxAuthRetried)
	if err != nil {
		return nil, err
	}
	// Re-enter the chain so the replay picks up the fresh bearer token.
	return t.RoundTrip(retry)
}

// doRefresh exchanges the stored refresh token for a new pair and persists
// both tokens before returning, so every queued caller replays against
// storage that already holds the new session.
func (t *authTransport) doRefresh() error {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	rt, err := t.keys.Get(ctx, keystore.KeyRefreshToken)
	if err != nil || rt == "" {
		return errs.ErrNoRefreshToken
	}

	body, _ := json.Marshal(map[string]string{"refreshToken": rt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+refrPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.inner.Do(req)
	if err != nil {
		return fmt.Errorf("refresh call: %w", err)
	}
	defer resp.Body.Close()

	env := &Envelope{}
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		return fmt.Errorf("refresh decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		return fmt.Errorf("refresh rejected: %s", extractMessage(env, resp.Status))
	}

	var pair model.TokenPair
	if err := env.Decode(&pair); err != nil {
		return err
	}
	if pair.AccessToken == "" {
		return fmt.Errorf("refresh returned empty access token")
	}
	if err := t.keys.Set(ctx, keystore.KeyAccessToken, pair.AccessToken); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if pair.RefreshToken != "" {
		if err := t.keys.Set(ctx, keystore.KeyRefreshToken, pair.RefreshToken); err != nil {
			return fmt.Errorf("persist refresh token: %w", err)
		}
	}
	t.log.Info("session refreshed")
	return nil
}

// failSession clears local tokens and routes the user back to login.
func (t *authTransport) failSession(cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	_ = t.keys.Delete(ctx, keystore.KeyAccessToken)
	_ = t.keys.Delete(ctx, keystore.KeyRefreshToken)

	t.csrfMu.Lock()
	t.csrf = ""
	t.csrfMu.Unlock()

	t.log.Warn("session torn down", zap.Error(cause))
	t.notifier.Error("Session Expired", "Please sign in again.")
	if t.onExpired != nil {
		t.onExpired()
	}
}

// maybeRetryCSRF inspects a 403 for the CSRF marker; if present it refetches
// the token and replays the request once. Any other 403 passes through.
func (t *authTransport) maybeRetryCSRF(orig *http.Request, resp *http.Response) (*http.Response, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	var env Envelope
	_ = json.Unmarshal(raw, &env)
	if !isCSRFError(&env) {
		resp.Body = io.NopCloser(bytes.NewReader(raw))
		return resp, nil
	}

	t.csrfMu.Lock()
	t.csrf = ""
	t.csrfMu.Unlock()

	retry, err := redo(orig, ctxCSRFRetried)
	if err != nil {
		return nil, err
	}
	t.log.Debug("csrf retry", zap.String("path", orig.URL.Path))
	return t.RoundTrip(retry)
}

func isCSRFError(env *Envelope) bool {
	if strings.Contains(strings.ToLower(env.Message), "csrf") {
		return true
	}
	for field := range env.Errors {
		if strings.Contains(strings.ToLower(field), "csrf") {
			return true
		}
	}
	return false
}

// csrfToken returns the cached anti-forgery token, fetching it lazily on
// first use. Only one fetch proceeds at a time.
func (t *authTransport) csrfToken(ctx context.Context) (string, error) {
	t.csrfMu.Lock()
	defer t.csrfMu.Unlock()
	if t.csrf != "" {
		return t.csrf, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+csrfPath, nil)
	if err != nil {
		return "", err
	}
	if tok, kerr := t.keys.Get(ctx, keystore.KeyAccessToken); kerr == nil && tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := t.inner.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	env := &Envelope{}
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		return "", err
	}
	var payload struct {
		Token string `json:"csrf_token"`
	}
	if err := env.Decode(&payload); err != nil {
		return "", err
	}
	if payload.Token == "" {
		return "", fmt.Errorf("empty csrf token (status %d)", resp.StatusCode)
	}
	t.csrf = payload.Token
	return t.csrf, nil
}

// redo clones the original request with its retry flag set and the body
// rewound from GetBody.
func redo(orig *http.Request, flag ctxKey) (*http.Request, error) {
	retry := orig.Clone(context.WithValue(orig.Context(), flag, true))
	if orig.GetBody != nil {
		body, err := orig.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return retry, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
}
