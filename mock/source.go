// Package mock provides test doubles for the mia interfaces.
package mock

import (
	"context"
	"io"

	"github.com/ElevenAndOne/mia"
)

// Interface compliance check.
var _ mia.Source = (*Source)(nil)

// Source is a test double for mia.Source. StreamFn panics when nil.
type Source struct {
	StreamFn func(ctx context.Context, req mia.StreamRequest) (mia.Stream, error)
}

// Stream delegates to StreamFn.
func (s *Source) Stream(ctx context.Context, req mia.StreamRequest) (mia.Stream, error) {
	return s.StreamFn(ctx, req)
}

// ScriptedStream returns a Stream that yields the given deltas in order,
// then io.EOF. It honors ctx cancellation between events, which makes it
// useful for abort and timeout tests. If block is non-nil, the stream
// waits on it before each Next, letting tests control delivery pacing.
func ScriptedStream(ctx context.Context, deltas []string, block <-chan struct{}) *Stream {
	i := 0
	return &Stream{
		NextFn: func() (mia.Event, error) {
			if block != nil {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-block:
				}
			} else if err := ctx.Err(); err != nil {
				return nil, err
			}
			if i >= len(deltas) {
				return nil, io.EOF
			}
			d := deltas[i]
			i++
			return mia.EventTextDelta{Delta: d}, nil
		},
	}
}
