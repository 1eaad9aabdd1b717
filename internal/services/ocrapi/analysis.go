package ocrapi

import (
	"context"
	"net/http"

	"unitcam/internal/services"
)

// Dataset maps a unit to its values in appearance order.
type Dataset map[string][]float64

type analysisResponse struct {
	envelope
	Data map[string][]float64 `json:"data"`
}

// AnalysisData fetches the unit-keyed dataset from /analysis-data. Every
// failure is tagged services.ErrFetch in addition to its cause.
func (c *Client) AnalysisData(ctx context.Context) (Dataset, error) {
	const op = "analysis data"
	status, data, err := c.do(ctx, http.MethodGet, "/analysis-data", nil, op)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, component, op, "", err)
	}
	var parsed analysisResponse
	if err := decode(op, status, data, &parsed); err != nil {
		return nil, services.Wrap(services.ErrFetch, component, op, "", err)
	}
	if !parsed.ok(status) {
		return nil, services.Wrap(services.ErrFetch, component, op, "", parsed.serverError(op, status))
	}
	out := make(Dataset, len(parsed.Data))
	for unit, values := range parsed.Data {
		if values == nil {
			values = []float64{}
		}
		out[unit] = values
	}
	return out, nil
}
