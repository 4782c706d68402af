package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/D-Rayno/g-agency-admin-go/internal/model"
	"github.com/D-Rayno/g-agency-admin-go/internal/service"
)

const eventsCacheTimeout = 5 * time.Minute

// Events holds the paginated event list plus event-specific mutations.
type Events struct {
	*Resource[model.Event]
	svc *service.Events
}

func NewEvents(svc *service.Events, log *zap.Logger) *Events {
	return &Events{
		Resource: NewResource(svc.List, svc.Get,
			func(e model.Event) int64 { return e.ID },
			eventsCacheTimeout, log),
		svc: svc,
	}
}

// Create posts the new event and repulls the authoritative list.
func (s *Events) Create(ctx context.Context, in model.EventInput) (int64, error) {
	return s.Resource.Create(ctx, func(ctx context.Context) (int64, error) {
		return s.svc.Create(ctx, in)
	})
}

// Update patches the event optimistically.
func (s *Events) Update(ctx context.Context, id int64, in model.EventInput) error {
	return s.Resource.Update(ctx, id,
		func(e *model.Event) { applyEventInput(e, in) },
		func(ctx context.Context) (model.Event, error) {
			return s.svc.Update(ctx, id, in)
		})
}

// SetPublished toggles publication optimistically.
func (s *Events) SetPublished(ctx context.Context, id int64, published bool) error {
	return s.Update(ctx, id, model.EventInput{Published: &published})
}

// Delete removes the event optimistically.
func (s *Events) Delete(ctx context.Context, id int64) error {
	return s.Resource.Delete(ctx, id, func(ctx context.Context) error {
		return s.svc.Delete(ctx, id)
	})
}

func applyEventInput(e *model.Event, in model.EventInput) {
	if in.Title != "" {
		e.Title = in.Title
	}
	if in.Category != "" {
		e.Category = in.Category
	}
	if in.Location != "" {
		e.Location = in.Location
	}
	if in.Capacity != nil {
		e.Capacity = *in.Capacity
	}
	if in.Published != nil {
		e.Published = *in.Published
	}
	if in.StartsAt != nil {
		e.StartsAt = *in.StartsAt
	}
	if in.EndsAt != nil {
		e.EndsAt = *in.EndsAt
	}
}
