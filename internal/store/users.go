package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/D-Rayno/g-agency-admin-go/internal/model"
	"github.com/D-Rayno/g-agency-admin-go/internal/service"
)

const usersCacheTimeout = 3 * time.Minute

// Users holds the paginated user list plus block/unblock mutations.
type Users struct {
	*Resource[model.User]
	svc *service.Users
}

func NewUsers(svc *service.Users, log *zap.Logger) *Users {
	return &Users{
		Resource: NewResource(svc.List, svc.Get,
			func(u model.User) int64 { return u.ID },
			usersCacheTimeout, log),
		svc: svc,
	}
}

func (s *Users) Create(ctx context.Context, in model.UserInput) (int64, error) {
	return s.Resource.Create(ctx, func(ctx context.Context) (int64, error) {
		return s.svc.Create(ctx, in)
	})
}

func (s *Users) Update(ctx context.Context, id int64, in model.UserInput) error {
	return s.Resource.Update(ctx, id,
		func(u *model.User) { applyUserInput(u, in) },
		func(ctx context.Context) (model.User, error) {
			return s.svc.Update(ctx, id, in)
		})
}

// SetBlocked flips the block flag optimistically.
func (s *Users) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	return s.Resource.Update(ctx, id,
		func(u *model.User) { u.Blocked = blocked },
		func(ctx context.Context) (model.User, error) {
			return s.svc.SetBlocked(ctx, id, blocked)
		})
}

// ToggleBlocked inverts the current flag. Concurrent toggles of the same user
// are not deduplicated; the last server response wins.
func (s *Users) ToggleBlocked(ctx context.Context, id int64) error {
	cur, ok := s.find(id)
	if !ok {
		return fmt.Errorf("user %d: %w", id, errNotInList)
	}
	return s.SetBlocked(ctx, id, !cur.Blocked)
}

func (s *Users) Delete(ctx context.Context, id int64) error {
	return s.Resource.Delete(ctx, id, func(ctx context.Context) error {
		return s.svc.Delete(ctx, id)
	})
}

func (s *Users) find(id int64) (model.User, bool) {
	for _, u := range s.Items() {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

func applyUserInput(u *model.User, in model.UserInput) {
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if in.Phone != "" {
		u.Phone = in.Phone
	}
	if in.Blocked != nil {
		u.Blocked = *in.Blocked
	}
}
