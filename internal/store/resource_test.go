package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/D-Rayno/g-agency-admin-go/internal/api"
	"github.com/D-Rayno/g-agency-admin-go/internal/model"
)

func eventID(e model.Event) int64 { return e.ID }

func events(ids ...int64) []model.Event {
	out := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Event{ID: id, Title: "ev", Category: "sport"})
	}
	return out
}

func TestFetch_CacheHit(t *testing.T) {
	t.Parallel()

	calls := 0
	list := func(_ context.Context, _ map[string]string, _ int) ([]model.Event, model.PageMeta, error) {
		calls++
		return events(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), model.PageMeta{CurrentPage: 1, LastPage: 3, Total: 25, PerPage: 10}, nil
	}
	r := NewResource(list, nil, eventID, 5*time.Minute, zap.NewNop())

	filters := map[string]string{"category": "sport"}
	if err := r.Fetch(context.Background(), filters, 1, false); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	first := r.Items()

	// identical args within the cache window: zero network calls
	if err := r.Fetch(context.Background(), map[string]string{"category": "sport"}, 1, false); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if calls != 1 {
		t.Fatalf("want 1 list call, got %d", calls)
	}
	if !reflect.DeepEqual(first, r.Items()) {
		t.Fatalf("cached list changed")
	}
	if r.Meta().LastPage != 3 {
		t.Fatalf("meta lost: %+v", r.Meta())
	}
}

func TestFetch_Invalidation(t *testing.T) {
	t.Parallel()

	calls := 0
	list := func(_ context.Context, _ map[string]string, _ int) ([]model.Event, model.PageMeta, error) {
		calls++
		return events(1), model.PageMeta{CurrentPage: 1, LastPage: 1, Total: 1, PerPage: 10}, nil
	}
	r := NewResource(list, nil, eventID, 40*time.Millisecond, zap.NewNop())
	ctx := context.Background()
	f := map[string]string{"q": "a"}

	_ = r.Fetch(ctx, f, 1, false) // 1
	_ = r.Fetch(ctx, f, 1, true)  // 2: force
	_ = r.Fetch(ctx, f, 2, false) // 3: page changed
	_ = r.Fetch(ctx, map[string]string{"q": "b"}, 2, false) // 4: filters changed
	time.Sleep(60 * time.Millisecond)
	_ = r.Fetch(ctx, map[string]string{"q": "b"}, 2, false) // 5: cache expired

	if calls != 5 {
		t.Fatalf("want 5 list calls, got %d", calls)
	}
}

func TestFetch_FailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	fail := false
	list := func(_ context.Context, _ map[string]string, _ int) ([]model.Event, model.PageMeta, error) {
		if fail {
			return nil, model.PageMeta{}, &api.APIError{Status: 500, Message: "downstream exploded"}
		}
		return events(1, 2), model.PageMeta{Total: 2}, nil
	}
	r := NewResource(list, nil, eventID, time.Minute, zap.NewNop())
	ctx := context.Background()

	if err := r.Fetch(ctx, nil, 1, false); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	before := r.Items()

	fail = true
	if err := r.Fetch(ctx, nil, 1, true); err == nil {
		t.Fatalf("want fetch error")
	}
	if !reflect.DeepEqual(before, r.Items()) {
		t.Fatalf("failed fetch overwrote state")
	}
	if r.Err() != "downstream exploded" {
		t.Fatalf("want server message, got %q", r.Err())
	}
}

func TestDelete_OptimisticRollback(t *testing.T) {
	t.Parallel()

	list := func(_ context.Context, _ map[string]string, _ int) ([]model.Event, model.PageMeta, error) {
		return events(41, 42, 43), model.PageMeta{Total: 3}, nil
	}
	r := NewResource(list, nil, eventID, time.Minute, zap.NewNop())
	ctx := context.Background()
	if err := r.Fetch(ctx, nil, 1, false); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	before := r.Items()

	err := r.Delete(ctx, 42, func(context.Context) error {
		// the removal is visible before the server confirms
		for _, e := range r.Items() {
			if e.ID == 42 {
				t.Errorf("event 42 still present during optimistic delete")
			}
		}
		return &api.APIError{Status: 500, Message: "deadlock detected"}
	})
	if err == nil {
		t.Fatalf("want delete error")
	}
	if !reflect.DeepEqual(before, r.Items()) {
		t.Fatalf("rollback not verbatim:\nwant %+v\ngot  %+v", before, r.Items())
	}
	if r.Items()[1].ID != 42 {
		t.Fatalf("event 42 not restored at original position")
	}
	if r.Err() != "deadlock detected" {
		t.Fatalf("want server message, got %q", r.Err())
	}
	if r.InProgress(42) {
		t.Fatalf("in-progress flag not cleared")
	}
}

func TestDelete_SuccessIsFinal(t *testing.T) {
	t.Parallel()

	list := func(_ context.Context, _ map[string]string, _ int) ([]model.Event, model.PageMeta, error) {
		return events(1, 2), model.PageMeta{Total: 2}, nil
	}
	r := NewResource(list, nil, eventID, time.Minute, zap.NewNop())
	ctx := context.Background()
	_ = r.Fetch(ctx, nil, 1, false)

	if err := r.Delete(ctx, 2, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(r.Items()) != 1 || r.Items()[0].ID != 1 {
		t.Fatalf("unexpected list after delete: %+v", r.Items())
	}
	if r.Meta().Total != 1 {
		t.Fatalf("total not decremented: %+v", r.Meta())
	}
}

func TestUpdate_ReconcileAndRollback(t *testing.T) {
	t.Parallel()

	list := func(_ context.Context, _ map[string]string, _ int) ([]model.Event, model.PageMeta, error) {
		return []model.Event{{ID: 1, Title: "old", Capacity: 10}}, model.PageMeta{Total: 1}, nil
	}
	r := NewResource(list, nil, eventID, time.Minute, zap.NewNop())
	ctx := context.Background()
	_ = r.Fetch(ctx, nil, 1, false)

	// success: the server's authoritative value wins over the local patch
	err := r.Update(ctx, 1,
		func(e *model.Event) { e.Title = "optimistic" },
		func(context.Context) (model.Event, error) {
			return model.Event{ID: 1, Title: "authoritative", Capacity: 12}, nil
		})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := r.Items()[0]; got.Title != "authoritative" || got.Capacity != 12 {
		t.Fatalf("not reconciled: %+v", got)
	}

	before := r.Items()
	err = r.Update(ctx, 1,
		func(e *model.Event) { e.Title = "doomed" },
		func(context.Context) (model.Event, error) {
			return model.Event{}, errors.New("network down")
		})
	if err == nil {
		t.Fatalf("want update error")
	}
	if !reflect.DeepEqual(before, r.Items()) {
		t.Fatalf("rollback not verbatim: %+v", r.Items())
	}
	if r.Err() != "network down" {
		t.Fatalf("want error message, got %q", r.Err())
	}
}

func TestCreate_ForcesRefresh(t *testing.T) {
	t.Parallel()

	calls := 0
	list := func(_ context.Context, _ map[string]string, _ int) ([]model.Event, model.PageMeta, error) {
		calls++
		return events(1), model.PageMeta{Total: 1}, nil
	}
	r := NewResource(list, nil, eventID, time.Minute, zap.NewNop())
	ctx := context.Background()
	_ = r.Fetch(ctx, nil, 1, false)

	id, err := r.Create(ctx, func(context.Context) (int64, error) { return 7, nil })
	if err != nil || id != 7 {
		t.Fatalf("create: id=%d err=%v", id, err)
	}
	if calls != 2 {
		t.Fatalf("want forced refresh after create, got %d list calls", calls)
	}

	if _, err := r.Create(ctx, func(context.Context) (int64, error) { return 0, errors.New("invalid") }); err == nil {
		t.Fatalf("want create error")
	}
	if calls != 2 {
		t.Fatalf("failed create must not refresh")
	}
}

func TestFetch_StaleResponseDiscarded(t *testing.T) {
	t.Parallel()

	slowStarted := make(chan struct{})
	release := make(chan struct{})
	list := func(_ context.Context, filters map[string]string, _ int) ([]model.Event, model.PageMeta, error) {
		if filters["q"] == "slow" {
			close(slowStarted)
			<-release
			return events(100), model.PageMeta{Total: 1}, nil
		}
		return events(200), model.PageMeta{Total: 1}, nil
	}
	r := NewResource(list, nil, eventID, time.Minute, zap.NewNop())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- r.Fetch(ctx, map[string]string{"q": "slow"}, 1, false) }()
	<-slowStarted

	if err := r.Fetch(ctx, map[string]string{"q": "fast"}, 1, false); err != nil {
		t.Fatalf("fast fetch: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("slow fetch: %v", err)
	}

	if got := r.Items(); len(got) != 1 || got[0].ID != 200 {
		t.Fatalf("stale slow response overwrote newer state: %+v", got)
	}
	if !reflect.DeepEqual(r.Filters(), map[string]string{"q": "fast"}) {
		t.Fatalf("filters overwritten: %+v", r.Filters())
	}
}

func TestSelect_CachedByID(t *testing.T) {
	t.Parallel()

	gets := 0
	get := func(_ context.Context, id int64) (model.Event, error) {
		gets++
		return model.Event{ID: id, Title: "detail"}, nil
	}
	r := NewResource[model.Event](nil, get, eventID, time.Minute, zap.NewNop())
	ctx := context.Background()

	if _, err := r.Select(ctx, 5, false); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := r.Select(ctx, 5, false); err != nil {
		t.Fatalf("select cached: %v", err)
	}
	if gets != 1 {
		t.Fatalf("want cached detail, got %d calls", gets)
	}
	if _, err := r.Select(ctx, 6, false); err != nil {
		t.Fatalf("select other: %v", err)
	}
	if _, err := r.Select(ctx, 6, true); err != nil {
		t.Fatalf("select forced: %v", err)
	}
	if gets != 3 {
		t.Fatalf("want refetch on other id and on force, got %d calls", gets)
	}
}
