package service

import (
	"context"
	"fmt"

	"github.com/D-Rayno/g-agency-admin-go/internal/api"
	"github.com/D-Rayno/g-agency-admin-go/internal/model"
)

// Events wraps the /events resource.
type Events struct {
	api *api.Client
}

func NewEvents(c *api.Client) *Events {
	return &Events{api: c}
}

func (s *Events) List(ctx context.Context, filters map[string]string, page int) ([]model.Event, model.PageMeta, error) {
	env, err := s.api.Get(ctx, "/events", listQuery(filters, page))
	if err != nil {
		return nil, model.PageMeta{}, err
	}
	var items []model.Event
	meta, err := env.DecodePage(&items)
	if err != nil {
		return nil, model.PageMeta{}, err
	}
	return items, meta, nil
}

func (s *Events) Get(ctx context.Context, id int64) (model.Event, error) {
	env, err := s.api.Get(ctx, fmt.Sprintf("/events/%d", id), nil)
	if err != nil {
		return model.Event{}, err
	}
	var ev model.Event
	if err := env.Decode(&ev); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

func (s *Events) Create(ctx context.Context, in model.EventInput) (int64, error) {
	env, err := s.api.Post(ctx, "/events", in)
	if err != nil {
		return 0, err
	}
	var out created
	if err := env.Decode(&out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (s *Events) Update(ctx context.Context, id int64, in model.EventInput) (model.Event, error) {
	env, err := s.api.Patch(ctx, fmt.Sprintf("/events/%d", id), in)
	if err != nil {
		return model.Event{}, err
	}
	var ev model.Event
	if err := env.Decode(&ev); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

func (s *Events) Delete(ctx context.Context, id int64) error {
	_, err := s.api.Delete(ctx, fmt.Sprintf("/events/%d", id), nil)
	return err
}

func (s *Events) Stats(ctx context.Context) (model.EventStats, error) {
	env, err := s.api.Get(ctx, "/events/stats", nil)
	if err != nil {
		return model.EventStats{}, err
	}
	var out model.EventStats
	if err := env.Decode(&out); err != nil {
		return model.EventStats{}, err
	}
	return out, nil
}
