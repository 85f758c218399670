package sse_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ElevenAndOne/mia"
	"github.com/ElevenAndOne/mia/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linkServer serves the link endpoints: start hands out a flow ID, status
// reports "pending" for the first pendingPolls polls and final afterwards.
func linkServer(t *testing.T, pendingPolls int32, final string) *httptest.Server {
	t.Helper()
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/link/start":
			var body map[string]string
			data, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(data, &body))
			assert.Equal(t, "meta", body["platform"])
			_, _ = io.WriteString(w, `{"flow_id":"flow-1"}`)
		case "/v1/link/status":
			assert.Equal(t, "flow-1", r.URL.Query().Get("flow_id"))
			if atomic.AddInt32(&polls, 1) <= pendingPolls {
				_, _ = io.WriteString(w, `{"status":"pending"}`)
				return
			}
			fmt.Fprintf(w, `{"status":%q,"detail":"token rejected"}`, final)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLinkFlow_Linked(t *testing.T) {
	t.Parallel()
	srv := linkServer(t, 2, "linked")

	flow := sse.NewLinkFlow(sse.New(srv.URL), sse.WithPollInterval(time.Millisecond))
	err := flow.Link(context.Background(), mia.PlatformMeta)
	assert.NoError(t, err)
}

func TestLinkFlow_Cancelled(t *testing.T) {
	t.Parallel()
	srv := linkServer(t, 0, "cancelled")

	flow := sse.NewLinkFlow(sse.New(srv.URL), sse.WithPollInterval(time.Millisecond))
	err := flow.Link(context.Background(), mia.PlatformMeta)
	assert.ErrorIs(t, err, mia.ErrLinkCancelled)
}

func TestLinkFlow_Failed(t *testing.T) {
	t.Parallel()
	srv := linkServer(t, 0, "failed")

	flow := sse.NewLinkFlow(sse.New(srv.URL), sse.WithPollInterval(time.Millisecond))
	err := flow.Link(context.Background(), mia.PlatformMeta)
	require.Error(t, err)
	assert.NotErrorIs(t, err, mia.ErrLinkCancelled)
	assert.Contains(t, err.Error(), "token rejected")
}

func TestLinkFlow_ContextCancelled(t *testing.T) {
	t.Parallel()
	// Status never resolves; the caller's context bounds the flow.
	srv := linkServer(t, 1<<30, "linked")

	ctx, cancel := context.WithCancel(context.Background())
	flow := sse.NewLinkFlow(sse.New(srv.URL), sse.WithPollInterval(time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- flow.Link(ctx, mia.PlatformMeta) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Link did not return after cancellation")
	}
}

func TestLinkFlow_StartFailure(t *testing.T) {
	t.Parallel()

	t.Run("non-200", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		flow := sse.NewLinkFlow(sse.New(srv.URL), sse.WithPollInterval(time.Millisecond))
		err := flow.Link(context.Background(), mia.PlatformMeta)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("missing flow ID", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		}))
		defer srv.Close()

		flow := sse.NewLinkFlow(sse.New(srv.URL), sse.WithPollInterval(time.Millisecond))
		err := flow.Link(context.Background(), mia.PlatformMeta)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no flow ID")
	})
}
