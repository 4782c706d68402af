package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/D-Rayno/g-agency-admin-go/internal/model"
)

const dashboardCacheTimeout = 5 * time.Minute

// Stats sources, one per resource.
type (
	EventStatser interface {
		Stats(ctx context.Context) (model.EventStats, error)
	}
	UserStatser interface {
		Stats(ctx context.Context) (model.UserStats, error)
	}
	RegistrationStatser interface {
		Stats(ctx context.Context) (model.RegistrationStats, error)
	}
)

// Dashboard aggregates the three per-resource stats blocks under one cache
// window.
type Dashboard struct {
	mu   sync.Mutex
	log  *zap.Logger
	evs  EventStatser
	usrs UserStatser
	regs RegistrationStatser

	stats     model.DashboardStats
	lastFetch time.Time
	errMsg    string
}

func NewDashboard(evs EventStatser, usrs UserStatser, regs RegistrationStatser, log *zap.Logger) *Dashboard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dashboard{log: log, evs: evs, usrs: usrs, regs: regs}
}

// Fetch returns the aggregated stats, served from cache within the window
// unless forced. A failure leaves the previous stats untouched.
func (d *Dashboard) Fetch(ctx context.Context, force bool) (model.DashboardStats, error) {
	d.mu.Lock()
	if !force && !d.lastFetch.IsZero() && time.Since(d.lastFetch) < dashboardCacheTimeout {
		s := d.stats
		d.mu.Unlock()
		return s, nil
	}
	d.mu.Unlock()

	events, err := d.evs.Stats(ctx)
	if err != nil {
		return d.fail(err)
	}
	users, err := d.usrs.Stats(ctx)
	if err != nil {
		return d.fail(err)
	}
	regs, err := d.regs.Stats(ctx)
	if err != nil {
		return d.fail(err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats = model.DashboardStats{Events: events, Users: users, Registrations: regs}
	d.lastFetch = time.Now()
	d.errMsg = ""
	return d.stats, nil
}

// Err returns the last fetch error message, empty when clear.
func (d *Dashboard) Err() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errMsg
}

func (d *Dashboard) fail(err error) (model.DashboardStats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errMsg = errMessage(err)
	return d.stats, err
}
