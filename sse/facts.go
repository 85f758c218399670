package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ElevenAndOne/mia"
)

// Interface compliance check.
var _ mia.FactClient = (*Client)(nil)

// factsResponse is the wire shape of the fact endpoint payload.
type factsResponse struct {
	Platform    string  `json:"platform"`
	Currency    string  `json:"currency"`
	Spend       float64 `json:"spend"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	CTR         float64 `json:"ctr"`
}

// Facts fetches an account performance snapshot once. Retry policy belongs
// to the caller.
func (c *Client) Facts(ctx context.Context, req mia.FactRequest) (mia.Facts, error) {
	q := url.Values{}
	q.Set("session_id", req.SessionID)
	if req.Platform != "" {
		q.Set("platform", string(req.Platform))
	}
	if !req.From.IsZero() {
		q.Set("from", req.From.Format(time.DateOnly))
	}
	if !req.To.IsZero() {
		q.Set("to", req.To.Format(time.DateOnly))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+factsPath+"?"+q.Encode(), nil)
	if err != nil {
		return mia.Facts{}, fmt.Errorf("sse: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return mia.Facts{}, fmt.Errorf("sse: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return mia.Facts{}, fmt.Errorf("sse: unexpected status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var payload factsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return mia.Facts{}, fmt.Errorf("sse: decode facts: %w", err)
	}

	return mia.Facts{
		Platform:    mia.Platform(payload.Platform),
		Currency:    payload.Currency,
		Spend:       payload.Spend,
		Clicks:      payload.Clicks,
		Impressions: payload.Impressions,
		CTR:         payload.CTR,
	}, nil
}
