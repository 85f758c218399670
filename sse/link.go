package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ElevenAndOne/mia"
)

const (
	linkStartPath  = "/v1/link/start"
	linkStatusPath = "/v1/link/status"
)

// Interface compliance check.
var _ mia.Linker = (*LinkFlow)(nil)

// LinkFlow implements [mia.Linker] against the linking endpoints: one POST
// to start the flow, then status polling until the backend reports linked,
// cancelled, or failed. The flow is user-paced; callers bound it with ctx.
type LinkFlow struct {
	client       *Client
	pollInterval time.Duration
}

// LinkOption configures a [LinkFlow].
type LinkOption func(*LinkFlow)

// WithPollInterval sets the status polling cadence.
func WithPollInterval(d time.Duration) LinkOption {
	return func(l *LinkFlow) { l.pollInterval = d }
}

// NewLinkFlow creates a LinkFlow sharing the client's base URL and transport.
func NewLinkFlow(client *Client, opts ...LinkOption) *LinkFlow {
	l := &LinkFlow{
		client:       client,
		pollInterval: 2 * time.Second,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

type linkStartResponse struct {
	FlowID string `json:"flow_id"`
}

type linkStatusResponse struct {
	Status string `json:"status"` // pending|linked|cancelled|failed
	Detail string `json:"detail,omitempty"`
}

// Link starts the flow and polls until it resolves. Returns nil on success,
// mia.ErrLinkCancelled when the user abandoned the flow, and a descriptive
// error on failure.
func (l *LinkFlow) Link(ctx context.Context, platform mia.Platform) error {
	flowID, err := l.start(ctx, platform)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		status, err := l.status(ctx, flowID)
		if err != nil {
			return err
		}
		switch status.Status {
		case "pending":
			continue
		case "linked":
			return nil
		case "cancelled":
			return mia.ErrLinkCancelled
		default:
			detail := status.Detail
			if detail == "" {
				detail = status.Status
			}
			return fmt.Errorf("sse: link flow failed: %s", detail)
		}
	}
}

func (l *LinkFlow) start(ctx context.Context, platform mia.Platform) (string, error) {
	body := fmt.Sprintf(`{"platform":%q}`, platform)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.client.baseURL+linkStartPath, strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("sse: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sse: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sse: unexpected status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var payload linkStartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("sse: decode link start: %w", err)
	}
	if payload.FlowID == "" {
		return "", fmt.Errorf("sse: link start returned no flow ID")
	}
	return payload.FlowID, nil
}

func (l *LinkFlow) status(ctx context.Context, flowID string) (linkStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.client.baseURL+linkStatusPath+"?flow_id="+flowID, nil)
	if err != nil {
		return linkStatusResponse{}, fmt.Errorf("sse: %w", err)
	}

	resp, err := l.client.httpClient.Do(req)
	if err != nil {
		return linkStatusResponse{}, fmt.Errorf("sse: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return linkStatusResponse{}, fmt.Errorf("sse: unexpected status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var payload linkStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return linkStatusResponse{}, fmt.Errorf("sse: decode link status: %w", err)
	}
	return payload, nil
}
