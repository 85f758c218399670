package sse_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ElevenAndOne/mia"
	"github.com/ElevenAndOne/mia/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_RequestFormat(t *testing.T) {
	t.Parallel()

	var captured []byte
	var method, path, contentType, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		method = r.Method
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		accept = r.Header.Get("Accept")

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "data: {\"done\":true}\n\n")
	}))
	defer srv.Close()

	client := sse.New(srv.URL)
	s, err := client.Stream(context.Background(), mia.StreamRequest{
		SessionID: "sess-42",
		From:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Platforms: []mia.Platform{mia.PlatformGoogleAds, mia.PlatformMeta},
		Combined:  true,
	})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/v1/insights/stream", path)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "text/event-stream", accept)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(captured, &body))
	assert.Equal(t, "sess-42", body["session_id"])
	assert.Equal(t, "2026-08-01", body["from"])
	assert.Equal(t, "2026-08-31", body["to"])
	assert.Equal(t, true, body["combined"])
	platforms := body["platforms"].([]interface{})
	require.Len(t, platforms, 2)
	assert.Equal(t, "google_ads", platforms[0])
	assert.Equal(t, "meta", platforms[1])
}

func TestClient_OmitsZeroDates(t *testing.T) {
	t.Parallel()

	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "data: {\"done\":true}\n\n")
	}))
	defer srv.Close()

	client := sse.New(srv.URL)
	s, err := client.Stream(context.Background(), mia.StreamRequest{SessionID: "s1"})
	require.NoError(t, err)
	defer s.Close()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(captured, &body))
	assert.NotContains(t, body, "from")
	assert.NotContains(t, body, "to")
	assert.NotContains(t, body, "platforms")
}

func TestClient_ValidatesBeforeDialing(t *testing.T) {
	t.Parallel()

	// An unroutable base URL proves validation rejects before any dial.
	client := sse.New("http://127.0.0.1:0")
	_, err := client.Stream(context.Background(), mia.StreamRequest{})
	assert.ErrorIs(t, err, mia.ErrValidation)
}

func TestClient_NonOKStatus(t *testing.T) {
	t.Parallel()

	t.Run("json error detail", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"error":"rate limited"}`)
		}))
		defer srv.Close()

		client := sse.New(srv.URL)
		_, err := client.Stream(context.Background(), mia.StreamRequest{SessionID: "s1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.Contains(t, err.Error(), "rate limited")
	})

	t.Run("plain text detail", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "backend exploded")
		}))
		defer srv.Close()

		client := sse.New(srv.URL)
		_, err := client.Stream(context.Background(), mia.StreamRequest{SessionID: "s1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "backend exploded")
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := sse.New(srv.URL)
		_, err := client.Stream(context.Background(), mia.StreamRequest{SessionID: "s1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no response body")
	})
}

func TestClient_WithHTTPClient(t *testing.T) {
	t.Parallel()

	used := false
	hc := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			used = true
			return http.DefaultTransport.RoundTrip(r)
		}),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "data: {\"done\":true}\n\n")
	}))
	defer srv.Close()

	client := sse.New(srv.URL, sse.WithHTTPClient(hc))
	s, err := client.Stream(context.Background(), mia.StreamRequest{SessionID: "s1"})
	require.NoError(t, err)
	defer s.Close()
	assert.True(t, used)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
