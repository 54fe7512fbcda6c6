package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osanai/playdeck/internal/domain/track"
)

func TestResolve(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/v1/items/item-42/stream", r.URL.Path)
		assert.Equal(t, "Bearer test_key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"url": "https://media.example.com/item-42.mp3", "expires_in": 3600}`)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, APIKey: "test_key"})
	require.NoError(t, err)

	trk := track.Track{ID: "42", Source: "item-42", Type: track.MediaTypeAudiobook}

	url, err := client.Resolve(context.Background(), trk)
	assert.NoError(t, err)
	assert.Equal(t, "https://media.example.com/item-42.mp3", url)

	// Second resolve is served from cache
	urlCached, err := client.Resolve(context.Background(), trk)
	assert.NoError(t, err)
	assert.Equal(t, url, urlCached)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResolve_NoStreamURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"url": ""}`)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Resolve(context.Background(), track.Track{ID: "1", Source: "item-1"})
	assert.ErrorIs(t, err, ErrNoStream)
}

func TestResolve_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"code": 404, "message": "item not found"}`)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Resolve(context.Background(), track.Track{ID: "1", Source: "missing"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "item not found")
}

func TestResolve_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"url": "https://media.example.com/retry.mp3"}`)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)
	client.retryDelay = 10 * time.Millisecond

	url, err := client.Resolve(context.Background(), track.Track{ID: "1", Source: "flaky"})
	assert.NoError(t, err)
	assert.Equal(t, "https://media.example.com/retry.mp3", url)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestResolve_MissingSource(t *testing.T) {
	client, err := New(Config{BaseURL: "https://catalog.example.com"})
	require.NoError(t, err)

	_, err = client.Resolve(context.Background(), track.Track{ID: "1"})
	assert.Error(t, err)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
