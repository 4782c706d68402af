package service

import (
	"context"
	"fmt"

	"github.com/D-Rayno/g-agency-admin-go/internal/api"
	"github.com/D-Rayno/g-agency-admin-go/internal/model"
)

// Users wraps the /users resource.
type Users struct {
	api *api.Client
}

func NewUsers(c *api.Client) *Users {
	return &Users{api: c}
}

func (s *Users) List(ctx context.Context, filters map[string]string, page int) ([]model.User, model.PageMeta, error) {
	env, err := s.api.Get(ctx, "/users", listQuery(filters, page))
	if err != nil {
		return nil, model.PageMeta{}, err
	}
	var items []model.User
	meta, err := env.DecodePage(&items)
	if err != nil {
		return nil, model.PageMeta{}, err
	}
	return items, meta, nil
}

func (s *Users) Get(ctx context.Context, id int64) (model.User, error) {
	env, err := s.api.Get(ctx, fmt.Sprintf("/users/%d", id), nil)
	if err != nil {
		return model.User{}, err
	}
	var u model.User
	if err := env.Decode(&u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (s *Users) Create(ctx context.Context, in model.UserInput) (int64, error) {
	env, err := s.api.Post(ctx, "/users", in)
	if err != nil {
		return 0, err
	}
	var out created
	if err := env.Decode(&out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (s *Users) Update(ctx context.Context, id int64, in model.UserInput) (model.User, error) {
	env, err := s.api.Patch(ctx, fmt.Sprintf("/users/%d", id), in)
	if err != nil {
		return model.User{}, err
	}
	var u model.User
	if err := env.Decode(&u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// SetBlocked toggles the block flag; the server's authoritative user is returned.
func (s *Users) SetBlocked(ctx context.Context, id int64, blocked bool) (model.User, error) {
	return s.Update(ctx, id, model.UserInput{Blocked: &blocked})
}

func (s *Users) Delete(ctx context.Context, id int64) error {
	_, err := s.api.Delete(ctx, fmt.Sprintf("/users/%d", id), nil)
	return err
}

func (s *Users) Stats(ctx context.Context) (model.UserStats, error) {
	env, err := s.api.Get(ctx, "/users/stats", nil)
	if err != nil {
		return model.UserStats{}, err
	}
	var out model.UserStats
	if err := env.Decode(&out); err != nil {
		return model.UserStats{}, err
	}
	return out, nil
}
