package service

import (
	"context"
	"errors"

	"github.com/D-Rayno/g-agency-admin-go/internal/api"
	"github.com/D-Rayno/g-agency-admin-go/internal/model"
)

// Auth wraps the /auth endpoint family.
type Auth struct {
	api *api.Client
}

// NewAuth constructs the auth facade.
func NewAuth(c *api.Client) *Auth {
	return &Auth{api: c}
}

// Login authenticates with the admin password and device fingerprint.
// A 401 here is a credentials failure and never triggers the refresh flow.
func (s *Auth) Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error) {
	if req.Password == "" || req.DeviceID == "" {
		return model.TokenPair{}, errors.New("password and device id required")
	}
	env, err := s.api.Post(ctx, "/auth/login", req)
	if err != nil {
		return model.TokenPair{}, err
	}
	var pair model.TokenPair
	if err := env.Decode(&pair); err != nil {
		return model.TokenPair{}, err
	}
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. The interceptor chain has
// its own internal refresh path; this method exists for explicit callers.
func (s *Auth) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	env, err := s.api.Post(ctx, "/auth/refresh", map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return model.TokenPair{}, err
	}
	var pair model.TokenPair
	if err := env.Decode(&pair); err != nil {
		return model.TokenPair{}, err
	}
	return pair, nil
}

// Check validates the current session against the lightweight check endpoint.
func (s *Auth) Check(ctx context.Context) (model.AuthCheck, error) {
	env, err := s.api.Get(ctx, "/auth/check", nil)
	if err != nil {
		return model.AuthCheck{}, err
	}
	var out model.AuthCheck
	if err := env.Decode(&out); err != nil {
		return model.AuthCheck{}, err
	}
	return out, nil
}

// Logout invalidates the current session server-side.
func (s *Auth) Logout(ctx context.Context) error {
	_, err := s.api.Post(ctx, "/auth/logout", nil)
	return err
}

// LogoutAll invalidates every session of the account.
func (s *Auth) LogoutAll(ctx context.Context) error {
	_, err := s.api.Post(ctx, "/auth/logout-all", nil)
	return err
}

// LogoutDevice invalidates the session of one device.
func (s *Auth) LogoutDevice(ctx context.Context, deviceID string) error {
	_, err := s.api.Post(ctx, "/auth/logout-device", map[string]string{"deviceId": deviceID})
	return err
}

// Sessions lists the devices holding active sessions.
func (s *Auth) Sessions(ctx context.Context) ([]model.DeviceSession, error) {
	env, err := s.api.Get(ctx, "/auth/sessions", nil)
	if err != nil {
		return nil, err
	}
	var out []model.DeviceSession
	if err := env.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns session/device counters for the account.
func (s *Auth) Stats(ctx context.Context) (model.AuthStats, error) {
	env, err := s.api.Get(ctx, "/auth/stats", nil)
	if err != nil {
		return model.AuthStats{}, err
	}
	var out model.AuthStats
	if err := env.Decode(&out); err != nil {
		return model.AuthStats{}, err
	}
	return out, nil
}

// SecurityAlerts lists recent security events.
func (s *Auth) SecurityAlerts(ctx context.Context) ([]model.SecurityAlert, error) {
	env, err := s.api.Get(ctx, "/auth/security-alerts", nil)
	if err != nil {
		return nil, err
	}
	var out []model.SecurityAlert
	if err := env.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateFCMToken registers the push-notification token for this device.
func (s *Auth) UpdateFCMToken(ctx context.Context, token string) error {
	_, err := s.api.Post(ctx, "/auth/update-fcm-token", map[string]string{"fcmToken": token})
	return err
}
