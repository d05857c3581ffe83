// Package gossip pkg/gossip/client.go fetches node observations from
// relay endpoints.
package gossip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/meshmon/meshmon/pkg/models"
)

var (
	errNoEndpoints    = errors.New("no relay endpoints configured")
	errAllRelaysDown  = errors.New("all relay endpoints failed")
	errUnexpectedCode = errors.New("unexpected status code")
)

const (
	defaultRequestTimeout = 15 * time.Second
	maxResponseBytes      = 32 << 20 // 32 MiB
)

// relayResponse is the envelope relays serve at /gossip/nodes.
type relayResponse struct {
	Nodes []models.Observation `json:"nodes"`
}

// Client polls a set of relay endpoints for node observations. Every
// endpoint is queried each cycle; overlapping reports are expected and
// left for the reconciler to dedupe.
type Client struct {
	endpoints  []string
	httpClient *http.Client
}

// NewClient creates a client for the given relay base URLs.
func NewClient(endpoints []string) *Client {
	return &Client{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}
}

// Fetch gathers observations from all relays. Individual relay failures
// are logged and tolerated; it errors only when no relay answered.
func (c *Client) Fetch(ctx context.Context) ([]models.Observation, error) {
	if len(c.endpoints) == 0 {
		return nil, errNoEndpoints
	}

	var (
		observations []models.Observation
		answered     int
	)

	for _, endpoint := range c.endpoints {
		obs, err := c.fetchOne(ctx, endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			log.Printf("Relay %s failed: %v", endpoint, err)

			continue
		}

		answered++

		observations = append(observations, obs...)
	}

	if answered == 0 {
		return nil, errAllRelaysDown
	}

	return observations, nil
}

func (c *Client) fetchOne(ctx context.Context, endpoint string) ([]models.Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/gossip/nodes", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing relay response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errUnexpectedCode, resp.StatusCode)
	}

	var envelope relayResponse

	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	if err := decoder.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return envelope.Nodes, nil
}
