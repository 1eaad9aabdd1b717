package ocrapi

import (
	"bytes"
	"context"
	"net/http"

	"unitcam/internal/services"
)

// Row is one stored (value, unit) pair from /data.
type Row struct {
	Value Value  `json:"value"`
	Unit  string `json:"unit"`
}

// Rows lists stored pairs. Rows missing a value or unit are dropped.
func (c *Client) Rows(ctx context.Context) ([]Row, error) {
	const op = "list rows"
	status, data, err := c.do(ctx, http.MethodGet, "/data", nil, op)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, component, op, "", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env envelope
		if err := decode(op, status, trimmed, &env); err != nil {
			return nil, services.Wrap(services.ErrFetch, component, op, "", err)
		}
		if !env.ok(status) || status >= 300 {
			return nil, services.Wrap(services.ErrFetch, component, op, "", env.serverError(op, status))
		}
		return []Row{}, nil
	}
	var parsed []Row
	if err := decode(op, status, trimmed, &parsed); err != nil {
		return nil, services.Wrap(services.ErrFetch, component, op, "", err)
	}
	rows := make([]Row, 0, len(parsed))
	for _, row := range parsed {
		if row.Value.IsZero() || row.Unit == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ClearData deletes every stored pair via /clear-data and returns the server's
// confirmation text, if any.
func (c *Client) ClearData(ctx context.Context) (string, error) {
	const op = "clear data"
	status, data, err := c.do(ctx, http.MethodPost, "/clear-data", nil, op)
	if err != nil {
		return "", err
	}
	var parsed envelope
	if err := decode(op, status, data, &parsed); err != nil {
		return "", err
	}
	if !parsed.ok(status) {
		return "", parsed.serverError(op, status)
	}
	return parsed.Message, nil
}
