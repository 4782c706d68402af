package service

import (
	"context"
	"fmt"

	"github.com/D-Rayno/g-agency-admin-go/internal/api"
	"github.com/D-Rayno/g-agency-admin-go/internal/model"
)

// Registrations wraps the /registrations resource, including QR check-in.
type Registrations struct {
	api *api.Client
}

func NewRegistrations(c *api.Client) *Registrations {
	return &Registrations{api: c}
}

func (s *Registrations) List(ctx context.Context, filters map[string]string, page int) ([]model.Registration, model.PageMeta, error) {
	env, err := s.api.Get(ctx, "/registrations", listQuery(filters, page))
	if err != nil {
		return nil, model.PageMeta{}, err
	}
	var items []model.Registration
	meta, err := env.DecodePage(&items)
	if err != nil {
		return nil, model.PageMeta{}, err
	}
	return items, meta, nil
}

func (s *Registrations) Get(ctx context.Context, id int64) (model.Registration, error) {
	env, err := s.api.Get(ctx, fmt.Sprintf("/registrations/%d", id), nil)
	if err != nil {
		return model.Registration{}, err
	}
	var reg model.Registration
	if err := env.Decode(&reg); err != nil {
		return model.Registration{}, err
	}
	return reg, nil
}

func (s *Registrations) Create(ctx context.Context, eventID, userID int64) (int64, error) {
	env, err := s.api.Post(ctx, "/registrations", map[string]int64{
		"event_id": eventID,
		"user_id":  userID,
	})
	if err != nil {
		return 0, err
	}
	var out created
	if err := env.Decode(&out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// SetStatus patches the registration status (cancel, confirm, mark attended).
func (s *Registrations) SetStatus(ctx context.Context, id int64, status model.RegistrationStatus) (model.Registration, error) {
	env, err := s.api.Patch(ctx, fmt.Sprintf("/registrations/%d", id), map[string]string{"status": string(status)})
	if err != nil {
		return model.Registration{}, err
	}
	var reg model.Registration
	if err := env.Decode(&reg); err != nil {
		return model.Registration{}, err
	}
	return reg, nil
}

func (s *Registrations) Delete(ctx context.Context, id int64) error {
	_, err := s.api.Delete(ctx, fmt.Sprintf("/registrations/%d", id), nil)
	return err
}

// Verify resolves a scanned QR payload to its registration.
func (s *Registrations) Verify(ctx context.Context, qrCode string) (model.Registration, error) {
	env, err := s.api.Post(ctx, "/registrations/verify", map[string]string{"qr_code": qrCode})
	if err != nil {
		return model.Registration{}, err
	}
	var reg model.Registration
	if err := env.Decode(&reg); err != nil {
		return model.Registration{}, err
	}
	return reg, nil
}

// Confirm marks a verified registration as attended.
func (s *Registrations) Confirm(ctx context.Context, id int64) (model.Registration, error) {
	env, err := s.api.Post(ctx, "/registrations/confirm", map[string]int64{"registration_id": id})
	if err != nil {
		return model.Registration{}, err
	}
	var reg model.Registration
	if err := env.Decode(&reg); err != nil {
		return model.Registration{}, err
	}
	return reg, nil
}

func (s *Registrations) Stats(ctx context.Context) (model.RegistrationStats, error) {
	env, err := s.api.Get(ctx, "/registrations/stats", nil)
	if err != nil {
		return model.RegistrationStats{}, err
	}
	var out model.RegistrationStats
	if err := env.Decode(&out); err != nil {
		return model.RegistrationStats{}, err
	}
	return out, nil
}
