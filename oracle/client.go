package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// ErrRequestFailed is returned when the battle log API cannot be reached or rejects the request.
var ErrRequestFailed = errors.New("battle log request failed")

// DefaultBaseURL is the public battle log API.
const DefaultBaseURL = "https://api.clashroyale.com"

// APIClient looks match outcomes up in a player's battle log
type APIClient struct {
	httpClient *http.Client
	BaseURL    string
	token      string
	logger     *zap.Logger
}

// NewClient creates a battle log client
func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *APIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &APIClient{
		httpClient: &http.Client{Timeout: timeout},
		BaseURL:    baseURL,
		token:      token,
		logger:     logger,
	}
}

var _ Oracle = (*APIClient)(nil)

// Lookup finds the most recent one-versus-one battle between the two tags in A's battle log.
func (c *APIClient) Lookup(ctx context.Context, q Query) (Result, error) {
	tagA := NormalizeTag(q.TagA)
	tagB := NormalizeTag(q.TagB)
	if tagA == "" || tagB == "" {
		return Result{}, fmt.Errorf("%w: both player tags are required", ErrRequestFailed)
	}

	battles, err := c.battleLog(ctx, tagA)
	if err != nil {
		return Result{}, err
	}

	// The log is ordered newest first.
	for _, b := range battles {
		if len(b.Team) != 1 || len(b.Opponent) != 1 {
			continue
		}
		if NormalizeTag(b.Opponent[0].Tag) != tagB {
			continue
		}

		battleTime, err := time.Parse(battleTimeLayout, b.BattleTime)
		if err != nil {
			c.logger.Warn("Skipping battle with unreadable time",
				zap.String("battle_time", b.BattleTime),
				zap.Error(err),
			)
			continue
		}
		if !q.Since.IsZero() && battleTime.Before(q.Since) {
			continue
		}

		res := Result{
			BattleTime: battleTime,
			CrownsA:    b.Team[0].Crowns,
			CrownsB:    b.Opponent[0].Crowns,
		}
		switch {
		case res.CrownsA > res.CrownsB:
			res.Verdict = VerdictAWins
		case res.CrownsB > res.CrownsA:
			res.Verdict = VerdictBWins
		default:
			res.Verdict = VerdictDraw
		}
		return res, nil
	}

	return Result{Verdict: VerdictNotFound}, nil
}

func (c *APIClient) battleLog(ctx context.Context, tag string) ([]battle, error) {
	endpoint := fmt.Sprintf("%s/v1/players/%s/battlelog", c.BaseURL, url.PathEscape(tag))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("Fetching battle log", zap.String("tag", tag))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, string(body))
	}

	var battles []battle
	if err := json.NewDecoder(resp.Body).Decode(&battles); err != nil {
		return nil, fmt.Errorf("%w: failed to decode battle log: %v", ErrRequestFailed, err)
	}
	return battles, nil
}
