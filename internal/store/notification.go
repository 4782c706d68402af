package store

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/D-Rayno/g-agency-admin-go/internal/keystore"
)

// FCMRegistrar pushes a device push-token to the backend.
type FCMRegistrar interface {
	UpdateFCMToken(ctx context.Context, token string) error
}

// Notification holds push/language preferences. Preferences persist through
// the keystore; the language preference is picked up by the transport's
// Accept-Language header on the next request.
type Notification struct {
	keys keystore.Store
	auth FCMRegistrar
	log  *zap.Logger
}

func NewNotification(auth FCMRegistrar, keys keystore.Store, log *zap.Logger) *Notification {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notification{keys: keys, auth: auth, log: log}
}

// PushEnabled reports the persisted push preference (default true).
func (n *Notification) PushEnabled(ctx context.Context) bool {
	raw, err := n.keys.Get(ctx, keystore.KeyPushEnabled)
	if err != nil {
		return true
	}
	enabled, err := strconv.ParseBool(raw)
	return err == nil && enabled
}

func (n *Notification) SetPushEnabled(ctx context.Context, enabled bool) error {
	return n.keys.Set(ctx, keystore.KeyPushEnabled, strconv.FormatBool(enabled))
}

// Language returns the persisted language preference, empty when unset.
func (n *Notification) Language(ctx context.Context) string {
	lang, _ := n.keys.Get(ctx, keystore.KeyLanguage)
	return lang
}

func (n *Notification) SetLanguage(ctx context.Context, lang string) error {
	if lang == "" {
		return n.keys.Delete(ctx, keystore.KeyLanguage)
	}
	return n.keys.Set(ctx, keystore.KeyLanguage, lang)
}

// RegisterFCMToken pushes the device token to the server and persists it
// locally only after the server accepted it.
func (n *Notification) RegisterFCMToken(ctx context.Context, token string) error {
	if err := n.auth.UpdateFCMToken(ctx, token); err != nil {
		return err
	}
	if err := n.keys.Set(ctx, keystore.KeyFCMToken, token); err != nil {
		n.log.Warn("persist fcm token failed", zap.Error(err))
	}
	return nil
}
