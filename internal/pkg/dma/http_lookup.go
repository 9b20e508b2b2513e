package dma

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type lookupResponse struct {
	Zip     string `json:"zip"`
	DMACode int    `json:"dma_code"`
}

// HTTPLookup resolves zip codes against an external zip-to-DMA service that
// answers GET /zip/{zip} with {"zip": "...", "dma_code": 501}.
type HTTPLookup struct {
	client *resty.Client
}

func NewHTTPLookup(baseURL string, timeout time.Duration) *HTTPLookup {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() >= http.StatusInternalServerError
	})
	return &HTTPLookup{client: client}
}

// Lookup is a LookupFunc.
func (h *HTTPLookup) Lookup(ctx context.Context, zip string) (int, error) {
	var out lookupResponse
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParam("zip", zip).
		SetResult(&out).
		Get("/zip/{zip}")
	if err != nil {
		return 0, fmt.Errorf("zip lookup request failed: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return 0, ErrNoRegion
	case resp.IsError():
		return 0, fmt.Errorf("zip lookup returned status %d", resp.StatusCode())
	case out.DMACode <= 0:
		return 0, ErrNoRegion
	}
	return out.DMACode, nil
}
