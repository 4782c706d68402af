// Package keystore provides the secure key-value store used for tokens and
// persisted preferences. Values are opaque strings; callers must tolerate
// read-after-write ordering but no atomic multi-key updates.
package keystore

import (
	"context"
	"sync"

	"github.com/D-Rayno/g-agency-admin-go/internal/errs"
)

// Well-known keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyExpiresAt    = "expires_at"
	KeyDeviceID     = "device_id"
	KeyLanguage     = "language"
	KeyPushEnabled  = "push_enabled"
	KeyFCMToken     = "fcm_token"
)

// Store is an async-safe key-value store for secrets and preferences.
// Get returns errs.ErrNotFound for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Memory is an in-process Store, used in tests and as a fallback.
type Memory struct {
	mu sync.RWMutex
	kv map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{kv: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}
