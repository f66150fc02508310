package extService

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ShiShi-CZ/LennyTheMatchmaker/config"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/models/external"
)

// BracketClient talks to the bracket service. Participants and match
// results are scoped to a single tournament slug.
type BracketClient struct {
	baseURL string
	apiKey  string
	slug    string
	client  *http.Client
}

func NewBracketClient(cfg *config.Config) *BracketClient {
	return &BracketClient{
		baseURL: cfg.BracketAPIURL,
		apiKey:  cfg.BracketAPIKey,
		slug:    cfg.TournamentSlug,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *BracketClient) endpoint(path string) string {
	return fmt.Sprintf("%s/tournaments/%s%s?api_key=%s", c.baseURL, url.PathEscape(c.slug), path, url.QueryEscape(c.apiKey))
}

func (c *BracketClient) do(method, requestURL string, body any) (*http.Response, error) {
	var buf *bytes.Buffer
	if body != nil {
		buf = &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, err
		}
	}

	var req *http.Request
	var err error
	if buf != nil {
		req, err = http.NewRequest(method, requestURL, buf)
	} else {
		req, err = http.NewRequest(method, requestURL, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("bracket service returned %d for %s %s", resp.StatusCode, method, requestURL)
	}
	return resp, nil
}

// CreateParticipant registers a team on the bracket and returns the
// participant id the bracket assigned to it.
func (c *BracketClient) CreateParticipant(name string) (int64, error) {
	payload := map[string]any{
		"participant": map[string]any{"name": name},
	}

	resp, err := c.do(http.MethodPost, c.endpoint("/participants.json"), payload)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var env external.Bracket_ParticipantEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return 0, fmt.Errorf("error parsing participant response: %v", err)
	}
	return env.Participant.ID, nil
}

func (c *BracketClient) DestroyParticipant(id int64) error {
	resp, err := c.do(http.MethodDelete, c.endpoint(fmt.Sprintf("/participants/%d.json", id)), nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// FetchTournament returns the tournament with participants and
// matches included, the ground truth for who is scheduled against whom.
func (c *BracketClient) FetchTournament() (*external.Bracket_Tournament, error) {
	requestURL := c.endpoint(".json") + "&include_participants=1&include_matches=1"

	resp, err := c.do(http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env external.Bracket_TournamentEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("error parsing tournament response: %v", err)
	}
	return &env.Tournament, nil
}

func (c *BracketClient) UpdateMatchResult(matchID int64, score string, winnerID int64) error {
	payload := map[string]any{
		"match": map[string]any{
			"scores_csv": score,
			"winner_id":  winnerID,
		},
	}

	resp, err := c.do(http.MethodPut, c.endpoint(fmt.Sprintf("/matches/%d.json", matchID)), payload)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
