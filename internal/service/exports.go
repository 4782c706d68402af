package service

import (
	"context"

	"github.com/D-Rayno/g-agency-admin-go/internal/api"
)

// Exports wraps the /exports/{resource}/{format} download endpoints.
type Exports struct {
	api *api.Client
}

func NewExports(c *api.Client) *Exports {
	return &Exports{api: c}
}

// CSV downloads a filtered resource dump as CSV bytes.
func (s *Exports) CSV(ctx context.Context, resource string, filters map[string]string) ([]byte, error) {
	raw, _, err := s.api.GetRaw(ctx, "/exports/"+resource+"/csv", listQuery(filters, 0))
	return raw, err
}

// Excel downloads a filtered resource dump as an Excel workbook.
func (s *Exports) Excel(ctx context.Context, resource string, filters map[string]string) ([]byte, error) {
	raw, _, err := s.api.GetRaw(ctx, "/exports/"+resource+"/excel", listQuery(filters, 0))
	return raw, err
}
