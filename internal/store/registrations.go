package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/D-Rayno/g-agency-admin-go/internal/model"
	"github.com/D-Rayno/g-agency-admin-go/internal/service"
)

const registrationsCacheTimeout = 3 * time.Minute

// Registrations holds the paginated registration list plus the check-in flow.
type Registrations struct {
	*Resource[model.Registration]
	svc *service.Registrations
}

func NewRegistrations(svc *service.Registrations, log *zap.Logger) *Registrations {
	return &Registrations{
		Resource: NewResource(svc.List, svc.Get,
			func(r model.Registration) int64 { return r.ID },
			registrationsCacheTimeout, log),
		svc: svc,
	}
}

func (s *Registrations) Create(ctx context.Context, eventID, userID int64) (int64, error) {
	return s.Resource.Create(ctx, func(ctx context.Context) (int64, error) {
		return s.svc.Create(ctx, eventID, userID)
	})
}

// Cancel marks the registration cancelled optimistically.
func (s *Registrations) Cancel(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, model.RegistrationCancelled)
}

// Confirm marks a verified registration attended (QR check-in), optimistically.
func (s *Registrations) Confirm(ctx context.Context, id int64) error {
	return s.Resource.Update(ctx, id,
		func(r *model.Registration) { r.Status = model.RegistrationAttended },
		func(ctx context.Context) (model.Registration, error) {
			return s.svc.Confirm(ctx, id)
		})
}

// Verify resolves a scanned QR payload; it does not touch the cached list.
func (s *Registrations) Verify(ctx context.Context, qrCode string) (model.Registration, error) {
	return s.svc.Verify(ctx, qrCode)
}

func (s *Registrations) Delete(ctx context.Context, id int64) error {
	return s.Resource.Delete(ctx, id, func(ctx context.Context) error {
		return s.svc.Delete(ctx, id)
	})
}

func (s *Registrations) setStatus(ctx context.Context, id int64, status model.RegistrationStatus) error {
	return s.Resource.Update(ctx, id,
		func(r *model.Registration) { r.Status = status },
		func(ctx context.Context) (model.Registration, error) {
			return s.svc.SetStatus(ctx, id, status)
		})
}
