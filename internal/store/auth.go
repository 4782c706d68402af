package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/D-Rayno/g-agency-admin-go/internal/errs"
	"github.com/D-Rayno/g-agency-admin-go/internal/keystore"
	"github.com/D-Rayno/g-agency-admin-go/internal/model"
)

// AuthAPI is the slice of the auth service the session store depends on.
type AuthAPI interface {
	Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error)
	Logout(ctx context.Context) error
	Check(ctx context.Context) (model.AuthCheck, error)
}

// fallbackAccessTTL is assumed when the server reports no expiry and the
// access token carries no exp claim.
const fallbackAccessTTL = 15 * time.Minute

// Auth owns the session: LOGGED_OUT -> (login) -> LOGGED_IN -> (logout or
// refresh failure) -> LOGGED_OUT. Tokens are persisted to the keystore before
// the in-memory state flips, so a restart recovers the session from storage.
type Auth struct {
	mu   sync.Mutex
	svc  AuthAPI
	keys keystore.Store
	log  *zap.Logger

	authenticated bool
	session       model.Session
	errMsg        string
}

func NewAuth(svc AuthAPI, keys keystore.Store, log *zap.Logger) *Auth {
	if log == nil {
		log = zap.NewNop()
	}
	return &Auth{svc: svc, keys: keys, log: log}
}

// Login authenticates with the admin password and device fingerprint. Never
// retried automatically; a failure records the server's message and stays
// logged out.
func (a *Auth) Login(ctx context.Context, password string, dev model.DeviceInfo) error {
	pair, err := a.svc.Login(ctx, model.LoginRequest{
		Password:    password,
		DeviceID:    dev.DeviceID,
		DeviceName:  dev.DeviceName,
		DeviceModel: dev.DeviceModel,
		OSVersion:   dev.OSVersion,
		AppVersion:  dev.AppVersion,
		FCMToken:    dev.FCMToken,
	})
	if err != nil {
		return a.loginFailed(err)
	}

	exp := tokenExpiry(pair)

	// Persist before flipping in-memory state.
	if err := a.keys.Set(ctx, keystore.KeyAccessToken, pair.AccessToken); err != nil {
		return a.loginFailed(err)
	}
	if err := a.keys.Set(ctx, keystore.KeyRefreshToken, pair.RefreshToken); err != nil {
		return a.loginFailed(err)
	}
	if err := a.keys.Set(ctx, keystore.KeyExpiresAt, exp.Format(time.RFC3339)); err != nil {
		return a.loginFailed(err)
	}

	a.mu.Lock()
	a.session = model.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    exp,
	}
	a.authenticated = true
	a.errMsg = ""
	a.mu.Unlock()

	a.log.Info("logged in", zap.String("device", dev.DeviceID), zap.Time("expires", exp))
	return nil
}

// Logout tells the server best-effort, then unconditionally clears local
// tokens and flips to logged out.
func (a *Auth) Logout(ctx context.Context) {
	if err := a.svc.Logout(ctx); err != nil {
		a.log.Warn("server logout failed", zap.Error(err))
	}
	a.clearLocal(ctx)
}

// ForceLogout clears local session state without a server call; the
// interceptor's session-expired hook lands here.
func (a *Auth) ForceLogout(ctx context.Context) {
	a.clearLocal(ctx)
}

// loginFailed records the user-facing message and keeps the session logged
// out; rejected credentials and failed token persistence land here alike.
func (a *Auth) loginFailed(err error) error {
	a.mu.Lock()
	a.authenticated = false
	a.errMsg = errMessage(err)
	a.mu.Unlock()
	return err
}

func (a *Auth) clearLocal(ctx context.Context) {
	_ = a.keys.Delete(ctx, keystore.KeyAccessToken)
	_ = a.keys.Delete(ctx, keystore.KeyRefreshToken)
	_ = a.keys.Delete(ctx, keystore.KeyExpiresAt)

	a.mu.Lock()
	a.authenticated = false
	a.session = model.Session{}
	a.mu.Unlock()
}

// CheckAuth validates the stored session against the check endpoint. A
// missing local token short-circuits to logged out; a failed check forces a
// full logout.
func (a *Auth) CheckAuth(ctx context.Context) (bool, error) {
	tok, err := a.keys.Get(ctx, keystore.KeyAccessToken)
	if err != nil || tok == "" {
		a.mu.Lock()
		a.authenticated = false
		a.mu.Unlock()
		return false, nil
	}

	if _, err := a.svc.Check(ctx); err != nil {
		a.Logout(ctx)
		return false, err
	}

	a.mu.Lock()
	a.authenticated = true
	a.mu.Unlock()
	return true, nil
}

// Load restores session state from the keystore on process start.
func (a *Auth) Load(ctx context.Context) error {
	access, err := a.keys.Get(ctx, keystore.KeyAccessToken)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		return err
	}
	refresh, _ := a.keys.Get(ctx, keystore.KeyRefreshToken)
	var exp time.Time
	if raw, err := a.keys.Get(ctx, keystore.KeyExpiresAt); err == nil {
		exp, _ = time.Parse(time.RFC3339, raw)
	}

	a.mu.Lock()
	a.session = model.Session{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}
	a.authenticated = access != ""
	a.mu.Unlock()
	return nil
}

// Authenticated reports the in-memory session state.
func (a *Auth) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authenticated
}

// Session returns a copy of the current session.
func (a *Auth) Session() model.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// Err returns the last login error message, empty when clear.
func (a *Auth) Err() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errMsg
}

// tokenExpiry prefers the server-reported expiry, then the token's own exp
// claim (parsed without validation; we never verify signatures client-side),
// then expiresIn, then a fixed fallback.
func tokenExpiry(pair model.TokenPair) time.Time {
	if !pair.ExpiresAt.IsZero() {
		return pair.ExpiresAt
	}
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(pair.AccessToken, &claims,
		func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	if pair.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(pair.ExpiresIn) * time.Second)
	}
	return time.Now().Add(fallbackAccessTTL)
}
