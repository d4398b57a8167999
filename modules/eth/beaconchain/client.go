// Package beaconchain queries the beaconcha.in explorer API.
package beaconchain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"DeferredWitnessCircuit/modules/logger"
)

const DefaultAPIURL = "https://beaconcha.in"

// APIClient is a beaconcha.in client authenticated with an API key.
type APIClient struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewAPIClient(apiURL, apiKey string) *APIClient {
	return &APIClient{
		apiURL:     strings.TrimRight(apiURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type APIResponse[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data"`
}

type ExecutionBlockConsensusData struct {
	Slot uint64 `json:"slot"`
}

type ExecutionBlock struct {
	BlockNumber  uint64                      `json:"blockNumber"`
	PosConsensus ExecutionBlockConsensusData `json:"posConsensus"`
}

// GetExecutionBlocks fetches the execution blocks with the given numbers.
func (c *APIClient) GetExecutionBlocks(ctx context.Context, blockNumbers []uint64) ([]ExecutionBlock, error) {
	ids := make([]string, len(blockNumbers))
	for i, n := range blockNumbers {
		ids[i] = strconv.FormatUint(n, 10)
	}
	url := fmt.Sprintf("%s/api/v1/execution/block/%s", c.apiURL, strings.Join(ids, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("beaconchain: get execution blocks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("beaconchain: get execution blocks: unexpected status %s", resp.Status)
	}

	var body APIResponse[[]ExecutionBlock]
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("beaconchain: decode execution blocks: %w", err)
	}

	log := logger.Logger()
	log.Debug().Str("blocks", strings.Join(ids, ",")).Int("nbResults", len(body.Data)).Msg("fetched execution blocks")
	return body.Data, nil
}

// ConsensusSlot returns the beacon slot that included the execution block.
func (c *APIClient) ConsensusSlot(ctx context.Context, blockNumber uint64) (uint64, error) {
	blocks, err := c.GetExecutionBlocks(ctx, []uint64{blockNumber})
	if err != nil {
		return 0, err
	}
	if len(blocks) != 1 {
		return 0, fmt.Errorf("beaconchain: expected 1 execution block for %d, got %d", blockNumber, len(blocks))
	}
	return blocks[0].PosConsensus.Slot, nil
}

// Fetch makes the client a slot datasource.Source.
func (c *APIClient) Fetch(ctx context.Context, blockNumber uint64) (uint64, error) {
	return c.ConsensusSlot(ctx, blockNumber)
}
