package extService

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ShiShi-CZ/LennyTheMatchmaker/config"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/models/external"
)

// StatsClient reads completed matches from the game-stats service.
type StatsClient struct {
	url    string
	client *http.Client
}

func NewStatsClient(cfg *config.Config) *StatsClient {
	return &StatsClient{
		url:    cfg.StatsAPIURL,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *StatsClient) FetchCompletedMatches() ([]external.Stats_Match, error) {
	resp, err := c.client.Get(c.url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats service returned %d", resp.StatusCode)
	}

	var matches []external.Stats_Match
	if err := json.NewDecoder(resp.Body).Decode(&matches); err != nil {
		return nil, fmt.Errorf("error parsing stats response: %v", err)
	}
	return matches, nil
}
