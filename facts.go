package mia

import (
	"context"
	"time"
)

// Facts is the payload of a discrete fact endpoint: a snapshot of account
// performance consumed as message content during the fact-reveal phase.
type Facts struct {
	Platform    Platform
	Currency    string
	Spend       float64
	Clicks      int
	Impressions int
	CTR         float64
}

// FactRequest identifies which account snapshot to fetch.
type FactRequest struct {
	SessionID string
	Platform  Platform
	From      time.Time
	To        time.Time
}

// FactClient fetches a fact snapshot once. Retry and caching policy belong
// to the implementation, not to the conversation core.
type FactClient interface {
	Facts(ctx context.Context, req FactRequest) (Facts, error)
}

// Linker triggers an external account-linking flow and blocks until it
// resolves. A user-abandoned flow returns ErrLinkCancelled; any other
// non-nil error is a failure. The core does not know how the flow works,
// only that it resolves.
type Linker interface {
	Link(ctx context.Context, platform Platform) error
}
