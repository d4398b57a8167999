// Package beacon resolves consensus-layer facts for circuits.
package beacon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"DeferredWitnessCircuit/modules/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Client talks to a beacon proof service.
type Client struct {
	rpcURL     string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

func NewClient(rpcURL string, opts ...Option) *Client {
	c := &Client{
		rpcURL:     strings.TrimRight(rpcURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type validatorsResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Result  struct {
		ValidatorsRoot hexutil.Bytes `json:"validatorsRoot"`
	} `json:"result"`
}

// GetValidatorsRoot returns the raw validators root committed to by the
// beacon block with the given root. The length of the answer is not checked.
func (c *Client) GetValidatorsRoot(ctx context.Context, blockRoot common.Hash) ([]byte, error) {
	url := fmt.Sprintf("%s/api/beacon/validator/%s", c.rpcURL, blockRoot.Hex())
	log := logger.Logger().With().Str("url", url).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("beacon: get validators root: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("beacon: get validators root: unexpected status %s", resp.Status)
	}

	var body validatorsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("beacon: decode validators root response: %w", err)
	}
	if !body.Success {
		return nil, fmt.Errorf("beacon: validators root request failed: %s", body.Error)
	}

	log.Debug().Dur("took", time.Since(start)).Msg("fetched validators root")
	return body.Result.ValidatorsRoot, nil
}

// Fetch makes the client a validators root datasource.Source.
func (c *Client) Fetch(ctx context.Context, blockRoot common.Hash) ([]byte, error) {
	return c.GetValidatorsRoot(ctx, blockRoot)
}
