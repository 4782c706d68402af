package service

import (
	"context"
	"errors"

	"github.com/D-Rayno/g-agency-admin-go/internal/api"
)

// Bulk wraps the /bulk/{resource} batched-mutation endpoints.
type Bulk struct {
	api *api.Client
}

func NewBulk(c *api.Client) *Bulk {
	return &Bulk{api: c}
}

type bulkResult struct {
	Affected int `json:"affected"`
}

// Update applies one patch to many IDs of a resource. Returns the number of
// affected rows as reported by the server.
func (s *Bulk) Update(ctx context.Context, resource string, ids []int64, patch map[string]any) (int, error) {
	if len(ids) == 0 {
		return 0, errors.New("bulk update: no ids")
	}
	env, err := s.api.Put(ctx, "/bulk/"+resource, map[string]any{"ids": ids, "patch": patch})
	if err != nil {
		return 0, err
	}
	var out bulkResult
	if err := env.Decode(&out); err != nil {
		return 0, err
	}
	return out.Affected, nil
}

// Delete removes many IDs of a resource in one call.
func (s *Bulk) Delete(ctx context.Context, resource string, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, errors.New("bulk delete: no ids")
	}
	env, err := s.api.Delete(ctx, "/bulk/"+resource, map[string]any{"ids": ids})
	if err != nil {
		return 0, err
	}
	var out bulkResult
	if err := env.Decode(&out); err != nil {
		return 0, err
	}
	return out.Affected, nil
}

// Create inserts many records of a resource in one call.
func (s *Bulk) Create(ctx context.Context, resource string, items []map[string]any) (int, error) {
	if len(items) == 0 {
		return 0, errors.New("bulk create: no items")
	}
	env, err := s.api.Post(ctx, "/bulk/"+resource, map[string]any{"items": items})
	if err != nil {
		return 0, err
	}
	var out bulkResult
	if err := env.Decode(&out); err != nil {
		return 0, err
	}
	return out.Affected, nil
}
