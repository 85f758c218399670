// Package sse implements the mia streaming backend contract: an HTTP POST
// returning a text/event-stream-shaped body of "data: <json>" events, plus
// the discrete fact and link-flow collaborator endpoints.
package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ElevenAndOne/mia"
)

const (
	streamPath = "/v1/insights/stream"
	factsPath  = "/v1/facts"
)

// Interface compliance check.
var _ mia.Source = (*Client)(nil)

// Client implements [mia.Source] for the insight streaming endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new [Client] for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// streamRequestBody is the wire shape of the stream request.
type streamRequestBody struct {
	SessionID string   `json:"session_id"`
	From      string   `json:"from,omitempty"`
	To        string   `json:"to,omitempty"`
	Platforms []string `json:"platforms,omitempty"`
	Combined  bool     `json:"combined,omitempty"`
}

// Stream opens a streaming request and returns a [mia.Stream] of decoded
// events. The returned stream owns the response body; cancellation flows
// through ctx.
func (c *Client) Stream(ctx context.Context, req mia.StreamRequest) (mia.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("sse: %w", err)
	}

	body, err := json.Marshal(buildStreamBody(req))
	if err != nil {
		return nil, fmt.Errorf("sse: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+streamPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sse: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sse: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail := readErrorBody(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("sse: unexpected status %d: %s", resp.StatusCode, detail)
	}

	return newStream(ctx, resp.Body), nil
}

func buildStreamBody(req mia.StreamRequest) streamRequestBody {
	b := streamRequestBody{
		SessionID: req.SessionID,
		Combined:  req.Combined,
	}
	if !req.From.IsZero() {
		b.From = req.From.Format(time.DateOnly)
	}
	if !req.To.IsZero() {
		b.To = req.To.Format(time.DateOnly)
	}
	for _, p := range req.Platforms {
		b.Platforms = append(b.Platforms, string(p))
	}
	return b
}

// readErrorBody extracts a short error detail from a non-200 response.
func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 1024))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return "no response body"
	}
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	return string(bytes.TrimSpace(data))
}
