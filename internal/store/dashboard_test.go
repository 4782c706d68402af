package store

import (
	"context"
	"errors"
	"testing"

	"github.com/D-Rayno/g-agency-admin-go/internal/keystore"
	"github.com/D-Rayno/g-agency-admin-go/internal/model"
)

type fakeStats struct {
	calls  int
	evErr  error
	events model.EventStats
	users  model.UserStats
	regs   model.RegistrationStats
}

func (f *fakeStats) Stats(context.Context) (model.EventStats, error) {
	f.calls++
	return f.events, f.evErr
}

type fakeUserStats struct{ users model.UserStats }

func (f fakeUserStats) Stats(context.Context) (model.UserStats, error) { return f.users, nil }

type fakeRegStats struct{ regs model.RegistrationStats }

func (f fakeRegStats) Stats(context.Context) (model.RegistrationStats, error) { return f.regs, nil }

func TestDashboard_FetchAndCache(t *testing.T) {
	t.Parallel()

	evs := &fakeStats{events: model.EventStats{Total: 4, Published: 3}}
	d := NewDashboard(evs, fakeUserStats{users: model.UserStats{Total: 120}}, fakeRegStats{regs: model.RegistrationStats{Total: 310}}, nil)
	ctx := context.Background()

	stats, err := d.Fetch(ctx, false)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if stats.Events.Total != 4 || stats.Users.Total != 120 || stats.Registrations.Total != 310 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if _, err := d.Fetch(ctx, false); err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if evs.calls != 1 {
		t.Fatalf("cache miss: %d stats calls", evs.calls)
	}

	if _, err := d.Fetch(ctx, true); err != nil {
		t.Fatalf("forced fetch: %v", err)
	}
	if evs.calls != 2 {
		t.Fatalf("force ignored: %d stats calls", evs.calls)
	}
}

func TestDashboard_FailureKeepsPrevious(t *testing.T) {
	t.Parallel()

	evs := &fakeStats{events: model.EventStats{Total: 4}}
	d := NewDashboard(evs, fakeUserStats{}, fakeRegStats{}, nil)
	ctx := context.Background()

	if _, err := d.Fetch(ctx, false); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	evs.evErr = errors.New("stats backend down")
	stats, err := d.Fetch(ctx, true)
	if err == nil {
		t.Fatalf("want fetch error")
	}
	if stats.Events.Total != 4 {
		t.Fatalf("previous stats lost: %+v", stats)
	}
	if d.Err() != "stats backend down" {
		t.Fatalf("want error message, got %q", d.Err())
	}
}

type fakeRegistrar struct {
	tokens []string
	err    error
}

func (f *fakeRegistrar) UpdateFCMToken(_ context.Context, token string) error {
	if f.err != nil {
		return f.err
	}
	f.tokens = append(f.tokens, token)
	return nil
}

func TestNotification_Preferences(t *testing.T) {
	t.Parallel()

	keys := keystore.NewMemory()
	n := NewNotification(&fakeRegistrar{}, keys, nil)
	ctx := context.Background()

	if !n.PushEnabled(ctx) {
		t.Fatalf("push must default to enabled")
	}
	if err := n.SetPushEnabled(ctx, false); err != nil {
		t.Fatalf("set push: %v", err)
	}
	if n.PushEnabled(ctx) {
		t.Fatalf("push still enabled after opt-out")
	}

	if n.Language(ctx) != "" {
		t.Fatalf("language must default to empty")
	}
	if err := n.SetLanguage(ctx, "fr"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	if n.Language(ctx) != "fr" {
		t.Fatalf("language not persisted")
	}
	if err := n.SetLanguage(ctx, ""); err != nil {
		t.Fatalf("clear language: %v", err)
	}
	if n.Language(ctx) != "" {
		t.Fatalf("language not cleared")
	}
}

func TestNotification_RegisterFCMToken(t *testing.T) {
	t.Parallel()

	keys := keystore.NewMemory()
	reg := &fakeRegistrar{err: errors.New("rejected")}
	n := NewNotification(reg, keys, nil)
	ctx := context.Background()

	// server rejection: nothing persisted locally
	if err := n.RegisterFCMToken(ctx, "tok-1"); err == nil {
		t.Fatalf("want registration error")
	}
	if _, err := keys.Get(ctx, keystore.KeyFCMToken); err == nil {
		t.Fatalf("token persisted despite server rejection")
	}

	reg.err = nil
	if err := n.RegisterFCMToken(ctx, "tok-1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got, _ := keys.Get(ctx, keystore.KeyFCMToken); got != "tok-1" {
		t.Fatalf("token not persisted: %q", got)
	}
	if len(reg.tokens) != 1 || reg.tokens[0] != "tok-1" {
		t.Fatalf("server not called: %+v", reg.tokens)
	}
}
