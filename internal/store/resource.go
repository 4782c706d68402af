// Package store holds client-side state: paginated lists with time-based
// cache invalidation, optimistic mutations with snapshot rollback, and the
// session state machine.
package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/D-Rayno/g-agency-admin-go/internal/api"
	"github.com/D-Rayno/g-agency-admin-go/internal/model"
)

// errNotInList is returned when a toggle targets an entity outside the
// currently loaded page.
var errNotInList = errors.New("not in current list")

// Lister fetches one page of a resource.
type Lister[T any] func(ctx context.Context, filters map[string]string, page int) ([]T, model.PageMeta, error)

// Getter fetches one entity by ID.
type Getter[T any] func(ctx context.Context, id int64) (T, error)

// Resource is the paginated store shared by events/users/registrations: one
// list + one selected-detail slot + cache metadata. T must be a plain value
// struct so a slice clone is a full snapshot.
type Resource[T any] struct {
	mu  sync.Mutex
	log *zap.Logger

	list    Lister[T]
	get     Getter[T]
	id      func(T) int64
	timeout time.Duration

	items     []T
	meta      model.PageMeta
	filters   map[string]string
	page      int
	lastFetch time.Time

	// gen guards against out-of-order responses: a fetch result is dropped
	// if another fetch started after it.
	gen uint64

	loading  bool
	mutating map[int64]bool
	errMsg   string

	selected   *T
	selectedAt time.Time
}

// NewResource builds a store over the given capabilities. timeout is the
// cache window (3-5 minutes per resource).
func NewResource[T any](list Lister[T], get Getter[T], id func(T) int64, timeout time.Duration, log *zap.Logger) *Resource[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resource[T]{
		list:     list,
		get:      get,
		id:       id,
		timeout:  timeout,
		log:      log,
		mutating: make(map[int64]bool),
	}
}

// Fetch loads one page. The network call is skipped when the cache window is
// still open, filters and page are unchanged, and the list is non-empty.
func (r *Resource[T]) Fetch(ctx context.Context, filters map[string]string, page int, force bool) error {
	r.mu.Lock()
	should := force ||
		r.lastFetch.IsZero() ||
		time.Since(r.lastFetch) >= r.timeout ||
		!maps.Equal(filters, r.filters) ||
		page != r.page
	if !should && len(r.items) > 0 {
		r.mu.Unlock()
		return nil
	}
	r.gen++
	gen := r.gen
	r.loading = true
	r.mu.Unlock()

	items, meta, err := r.list(ctx, filters, page)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		// A later fetch superseded this one; its result owns the state.
		r.log.Debug("stale list response discarded", zap.Int("page", page))
		return nil
	}
	r.loading = false
	if err != nil {
		r.errMsg = errMessage(err)
		return err
	}
	r.items = items
	r.meta = meta
	r.filters = maps.Clone(filters)
	r.page = page
	r.lastFetch = time.Now()
	r.errMsg = ""
	return nil
}

// Refresh forces a refetch of the current filters and page.
func (r *Resource[T]) Refresh(ctx context.Context) error {
	r.mu.Lock()
	filters := maps.Clone(r.filters)
	page := r.page
	r.mu.Unlock()
	return r.Fetch(ctx, filters, page, true)
}

// Select returns the detailed entity, served from the selected-detail cache
// when it matches the ID and the window is open.
func (r *Resource[T]) Select(ctx context.Context, id int64, force bool) (T, error) {
	r.mu.Lock()
	if !force && r.selected != nil && r.id(*r.selected) == id && time.Since(r.selectedAt) < r.timeout {
		v := *r.selected
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	v, err := r.get(ctx, id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		var zero T
		r.errMsg = errMessage(err)
		return zero, err
	}
	r.selected = &v
	r.selectedAt = time.Now()
	r.errMsg = ""
	return v, nil
}

// Update applies an optimistic in-place patch, then reconciles with the
// server's authoritative value. On failure the pre-mutation snapshot is
// restored verbatim. Concurrent mutations of the same ID are not serialized;
// the last response wins.
func (r *Resource[T]) Update(ctx context.Context, id int64, apply func(*T), remote func(context.Context) (T, error)) error {
	r.mu.Lock()
	snapItems := slices.Clone(r.items)
	snapSel := r.snapshotSelected()
	for i := range r.items {
		if r.id(r.items[i]) == id {
			apply(&r.items[i])
		}
	}
	if r.selected != nil && r.id(*r.selected) == id {
		apply(r.selected)
	}
	r.mutating[id] = true
	r.mu.Unlock()

	val, err := remote(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mutating, id)
	if err != nil {
		r.items = snapItems
		r.selected = snapSel
		r.errMsg = errMessage(err)
		return err
	}
	for i := range r.items {
		if r.id(r.items[i]) == id {
			r.items[i] = val
		}
	}
	if r.selected != nil && r.id(*r.selected) == id {
		*r.selected = val
	}
	r.errMsg = ""
	return nil
}

// Delete removes the entity optimistically; the removal is final on success
// and rolled back (original position included) on failure.
func (r *Resource[T]) Delete(ctx context.Context, id int64, remote func(context.Context) error) error {
	r.mu.Lock()
	snapItems := slices.Clone(r.items)
	snapSel := r.snapshotSelected()
	kept := make([]T, 0, len(r.items))
	for _, it := range r.items {
		if r.id(it) != id {
			kept = append(kept, it)
		}
	}
	r.items = kept
	if r.selected != nil && r.id(*r.selected) == id {
		r.selected = nil
	}
	r.mutating[id] = true
	r.mu.Unlock()

	err := remote(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mutating, id)
	if err != nil {
		r.items = snapItems
		r.selected = snapSel
		r.errMsg = errMessage(err)
		return err
	}
	if r.meta.Total > 0 {
		r.meta.Total--
	}
	r.errMsg = ""
	return nil
}

// Create has no optimistic insert (the server assigns the ID); on success the
// authoritative list is repulled with a forced refresh.
func (r *Resource[T]) Create(ctx context.Context, remote func(context.Context) (int64, error)) (int64, error) {
	id, err := remote(ctx)
	if err != nil {
		r.mu.Lock()
		r.errMsg = errMessage(err)
		r.mu.Unlock()
		return 0, err
	}
	if rerr := r.Refresh(ctx); rerr != nil {
		r.log.Warn("refresh after create failed", zap.Error(rerr))
	}
	return id, nil
}

// Items returns a copy of the current list.
func (r *Resource[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}

// Meta returns the current pagination block.
func (r *Resource[T]) Meta() model.PageMeta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meta
}

// Filters returns a copy of the active filters.
func (r *Resource[T]) Filters() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.filters)
}

// Err returns the last error message shown to the UI, empty when clear.
func (r *Resource[T]) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errMsg
}

// Loading reports whether a list fetch is in flight.
func (r *Resource[T]) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// InProgress reports whether a mutation for the given ID is in flight.
func (r *Resource[T]) InProgress(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutating[id]
}

func (r *Resource[T]) snapshotSelected() *T {
	if r.selected == nil {
		return nil
	}
	c := *r.selected
	return &c
}

// errMessage extracts the user-facing message: the envelope's message for API
// errors, the plain error text otherwise.
func errMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
