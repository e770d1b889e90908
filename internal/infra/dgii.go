package infra

// dgii.go
// HTTP client for the DGII taxpayer registry (RNC lookup). Used to enrich the
// customer name on fiscal-credit sales. All calls go through the circuit
// breaker so a downed registry degrades to "no enrichment" instead of slowing
// every checkout.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// RNCInfo is the registry's answer for one taxpayer.
type RNCInfo struct {
	RNC    string `json:"rnc"`
	Name   string `json:"name"`
	Status string `json:"status"` // "ACTIVO" | "SUSPENDIDO" | …
}

type DGIIClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewDGIIClient(baseURL string, cb *CircuitBreaker) *DGIIClient {
	return &DGIIClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		cb:         cb,
	}
}

// CBState exposes the breaker state for the health endpoint.
func (c *DGIIClient) CBState() CBState {
	return c.cb.State()
}

// LookupRNC queries the registry through the circuit breaker.
func (c *DGIIClient) LookupRNC(ctx context.Context, rnc string) (string, bool, error) {
	var info RNCInfo
	err := c.cb.Execute(func() error {
		u := fmt.Sprintf("%s/GetContribuyentes?value=%s", c.baseURL, url.QueryEscape(rnc))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("dgii: create request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("dgii: registry unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("dgii: registry returned %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			return fmt.Errorf("dgii: decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return info.Name, info.Status == "ACTIVO", nil
}
