package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/D-Rayno/g-agency-admin-go/internal/api"
	"github.com/D-Rayno/g-agency-admin-go/internal/keystore"
	"github.com/D-Rayno/g-agency-admin-go/internal/model"
)

func newTestClient(t *testing.T, h http.Handler) *api.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := api.New(api.Config{
		BaseURL: srv.URL,
		Keys:    keystore.NewMemory(),
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestEvents_List_QueryShaping(t *testing.T) {
	t.Parallel()

	var gotQuery map[string][]string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"data": []model.Event{{ID: 1, Title: "Ski Trip"}},
				"meta": model.PageMeta{CurrentPage: 2, LastPage: 4, Total: 31, PerPage: 10},
			},
		})
	})

	s := NewEvents(newTestClient(t, mux))
	items, meta, err := s.List(context.Background(), map[string]string{
		"category": "sport",
		"search":   "", // empty filters are dropped
	}, 2)
	require.NoError(t, err)

	require.Equal(t, []string{"sport"}, gotQuery["category"])
	require.Equal(t, []string{"2"}, gotQuery["page"])
	require.NotContains(t, gotQuery, "search")

	require.Len(t, items, 1)
	require.Equal(t, "Ski Trip", items[0].Title)
	require.Equal(t, 31, meta.Total)
	require.Equal(t, 4, meta.LastPage)
}

func TestEvents_Update_PartialPatch(t *testing.T) {
	t.Parallel()

	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /events/7", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    model.Event{ID: 7, Title: "Renamed", Capacity: 50},
		})
	})

	s := NewEvents(newTestClient(t, mux))
	capacity := 50
	ev, err := s.Update(context.Background(), 7, model.EventInput{Title: "Renamed", Capacity: &capacity})
	require.NoError(t, err)
	require.Equal(t, "Renamed", ev.Title)

	// omitempty: untouched fields stay off the wire
	require.Equal(t, "Renamed", body["title"])
	require.Equal(t, float64(50), body["capacity"])
	require.NotContains(t, body, "location")
	require.NotContains(t, body, "published")
}

func TestRegistrations_VerifyAndConfirm(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /registrations/verify", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "QR-abc123", body["qr_code"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    model.Registration{ID: 5, Status: model.RegistrationConfirmed, UserName: "Ada"},
		})
	})
	mux.HandleFunc("POST /registrations/confirm", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, int64(5), body["registration_id"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    model.Registration{ID: 5, Status: model.RegistrationAttended},
		})
	})

	s := NewRegistrations(newTestClient(t, mux))
	ctx := context.Background()

	reg, err := s.Verify(ctx, "QR-abc123")
	require.NoError(t, err)
	require.Equal(t, int64(5), reg.ID)
	require.Equal(t, model.RegistrationConfirmed, reg.Status)

	reg, err = s.Confirm(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, model.RegistrationAttended, reg.Status)
}

func TestUsers_SetBlocked(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /users/3", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, true, body["is_blocked"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    model.User{ID: 3, Name: "Ada", Blocked: true},
		})
	})

	s := NewUsers(newTestClient(t, mux))
	u, err := s.SetBlocked(context.Background(), 3, true)
	require.NoError(t, err)
	require.True(t, u.Blocked)
}

func TestEvents_NotFound(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /events/99", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "Event not found",
		})
	})

	s := NewEvents(newTestClient(t, mux))
	_, err := s.Get(context.Background(), 99)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Equal(t, "Event not found", apiErr.Message)
}
