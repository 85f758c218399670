package mock

import (
	"context"

	"github.com/ElevenAndOne/mia"
)

// Interface compliance checks.
var (
	_ mia.FactClient = (*FactClient)(nil)
	_ mia.Linker     = (*Linker)(nil)
)

// FactClient is a test double for mia.FactClient. FactsFn panics when nil.
type FactClient struct {
	FactsFn func(ctx context.Context, req mia.FactRequest) (mia.Facts, error)
}

// Facts delegates to FactsFn.
func (c *FactClient) Facts(ctx context.Context, req mia.FactRequest) (mia.Facts, error) {
	return c.FactsFn(ctx, req)
}

// StaticFacts returns a FactClient that always succeeds with facts.
func StaticFacts(facts mia.Facts) *FactClient {
	return &FactClient{
		FactsFn: func(context.Context, mia.FactRequest) (mia.Facts, error) {
			return facts, nil
		},
	}
}

// Linker is a test double for mia.Linker. LinkFn is nil-safe: a nil
// Linker.LinkFn resolves successfully, the common case in machine tests.
type Linker struct {
	LinkFn func(ctx context.Context, platform mia.Platform) error
}

// Link delegates to LinkFn.
func (l *Linker) Link(ctx context.Context, platform mia.Platform) error {
	if l.LinkFn == nil {
		return nil
	}
	return l.LinkFn(ctx, platform)
}
