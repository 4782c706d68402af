package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/D-Rayno/g-agency-admin-go/internal/errs"
	"github.com/D-Rayno/g-agency-admin-go/internal/model"
)

// Envelope is the wrapper every backend response uses.
type Envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Decode unmarshals the envelope payload into v.
func (e *Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// page is the paginated variant: data wraps a list plus meta.
type page struct {
	Data json.RawMessage `json:"data"`
	Meta model.PageMeta  `json:"meta"`
}

// DecodePage unmarshals a paginated payload into items and returns the meta block.
func (e *Envelope) DecodePage(items any) (model.PageMeta, error) {
	var p page
	if err := json.Unmarshal(e.Data, &p); err != nil {
		return model.PageMeta{}, err
	}
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, items); err != nil {
			return model.PageMeta{}, err
		}
	}
	return p.Meta, nil
}

// APIError is a non-2xx response surfaced to the caller, carrying the
// human-readable message extracted from the envelope.
type APIError struct {
	Status  int
	Message string
	Errors  map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

// Unwrap maps the status to a stable sentinel so callers can errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return errs.ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return errs.ErrNotFound
	case e.Status == http.StatusTooManyRequests:
		return errs.ErrRateLimited
	case e.Status == http.StatusForbidden && isCSRFError(&Envelope{Message: e.Message, Errors: e.Errors}):
		return errs.ErrCSRF
	case len(e.Errors) > 0:
		return errs.ErrValidation
	}
	return nil
}

// extractMessage picks the toast text: envelope message, else the first
// validation error (by sorted field name, for determinism), else fallback.
func extractMessage(env *Envelope, fallback string) string {
	if env == nil {
		return fallback
	}
	if env.Message != "" {
		return env.Message
	}
	if len(env.Errors) > 0 {
		fields := make([]string, 0, len(env.Errors))
		for f := range env.Errors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			if msgs := env.Errors[f]; len(msgs) > 0 {
				return msgs[0]
			}
		}
	}
	return fallback
}
