package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ElevenAndOne/mia"
)

// Wire format: each event is "data: <json>\n\n" where the JSON payload is
// exactly one of {text}, {done}, {error}.
var (
	dataPrefix = []byte("data:")
	eventDelim = []byte("\n\n")
)

// stream implements [mia.Stream] by splitting the response body into
// delimiter-separated events. Raw bytes accumulate in a buffer and are only
// decoded once a complete event is present, so partial multi-byte UTF-8
// sequences and half-delivered JSON survive chunk boundaries intact.
type stream struct {
	body  io.ReadCloser
	ctx   context.Context
	state mia.StreamState
	buf   []byte // undecoded remainder carried across reads
	text  strings.Builder
	err   error // terminal error, if any
}

// wireEvent is the decoded payload of one complete event.
type wireEvent struct {
	Text  *string `json:"text"`
	Done  bool    `json:"done"`
	Error *string `json:"error"`
}

// Interface compliance check.
var _ mia.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser) *stream {
	return &stream{
		body:  body,
		ctx:   ctx,
		state: mia.StreamStateNew,
	}
}

// Next returns the next text delta from the stream.
// Returns io.EOF when the stream completes, either via an explicit done
// event or natural end of the response body.
func (s *stream) Next() (mia.Event, error) {
	switch s.state {
	case mia.StreamStateComplete:
		return nil, io.EOF
	case mia.StreamStateError:
		return nil, s.err
	case mia.StreamStateClosed:
		return nil, mia.ErrStreamClosed
	}

	for {
		raw, ok := s.nextRawEvent()
		if !ok {
			if err := s.fill(); err != nil {
				if err == io.EOF {
					// Trailing partial event, if any, is dropped: without
					// its delimiter it was never complete.
					s.state = mia.StreamStateComplete
					return nil, io.EOF
				}
				s.terminate(err)
				return nil, s.err
			}
			continue
		}

		s.state = mia.StreamStateStreaming

		evt, ok := parseEvent(raw)
		if !ok {
			// Malformed complete event: skip, do not abort the stream.
			continue
		}

		switch {
		case evt.Error != nil:
			s.terminate(&mia.ProtocolError{Message: *evt.Error})
			return nil, s.err
		case evt.Done:
			s.state = mia.StreamStateComplete
			return nil, io.EOF
		case evt.Text != nil:
			s.text.WriteString(*evt.Text)
			return mia.EventTextDelta{Delta: *evt.Text}, nil
		default:
			// Valid JSON but none of the three shapes: skip.
		}
	}
}

// State returns the current stream state.
func (s *stream) State() mia.StreamState {
	return s.state
}

// Text returns the narrative accumulated so far.
func (s *stream) Text() (string, error) {
	if s.state == mia.StreamStateNew {
		return "", mia.ErrStreamNotReady
	}
	return s.text.String(), nil
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != mia.StreamStateComplete && s.state != mia.StreamStateError {
		s.state = mia.StreamStateClosed
	}
	return s.body.Close()
}

func (s *stream) terminate(err error) {
	s.state = mia.StreamStateError
	s.err = err
}

// nextRawEvent pops the next complete event from the buffer. Returns false
// when no complete event is buffered yet.
func (s *stream) nextRawEvent() ([]byte, bool) {
	i := bytes.Index(s.buf, eventDelim)
	if i < 0 {
		return nil, false
	}
	raw := s.buf[:i]
	s.buf = s.buf[i+len(eventDelim):]
	return raw, true
}

// fill reads more bytes from the body into the buffer.
func (s *stream) fill() error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	chunk := make([]byte, 4096)
	n, err := s.body.Read(chunk)
	if n > 0 {
		s.buf = append(s.buf, chunk[:n]...)
		// A read can return data and EOF together; surface the data first.
		if err == io.EOF && bytes.Contains(s.buf, eventDelim) {
			return nil
		}
	}
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		if cerr := s.ctx.Err(); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sse: read: %w", err)
	}
	return nil
}

// parseEvent strips the data prefix and decodes the payload. Returns false
// for events without the prefix or with unparseable JSON.
func parseEvent(raw []byte) (wireEvent, bool) {
	raw = bytes.TrimRight(raw, "\r\n ")
	if !bytes.HasPrefix(raw, dataPrefix) {
		return wireEvent{}, false
	}
	payload := bytes.TrimLeft(bytes.TrimPrefix(raw, dataPrefix), " ")

	var evt wireEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return wireEvent{}, false
	}
	return evt, true
}
