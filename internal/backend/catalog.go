package backend

import (
	"context"
	"net/http"

	"vidsub/internal/services"
)

// Health is the payload of GET /api/health.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Healthy reports whether the service declared itself healthy.
func (h Health) Healthy() bool {
	return h.Status == "healthy"
}

// Languages fetches the translation catalog as code -> display name. The
// "original" sentinel is included when the service lists it.
func (c *Client) Languages(ctx context.Context) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.catalogTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/api/languages", nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, services.StageCatalog, "languages", "build request", err)
	}
	resp, err := c.do(req, services.StageCatalog, "languages")
	if err != nil {
		return nil, err
	}
	var payload struct {
		Languages map[string]string `json:"languages"`
	}
	if err := decodeJSON(resp, services.StageCatalog, "languages", &payload); err != nil {
		return nil, err
	}
	if payload.Languages == nil {
		return nil, missingField(services.StageCatalog, "languages", "languages")
	}
	return payload.Languages, nil
}

// Health queries the service health endpoint.
func (c *Client) Health(ctx context.Context) (Health, error) {
	ctx, cancel := context.WithTimeout(ctx, c.catalogTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return Health{}, services.Wrap(services.ErrTransport, "", "health", "build request", err)
	}
	resp, err := c.do(req, "", "health")
	if err != nil {
		return Health{}, err
	}
	var health Health
	if err := decodeJSON(resp, "", "health", &health); err != nil {
		return Health{}, err
	}
	return health, nil
}
