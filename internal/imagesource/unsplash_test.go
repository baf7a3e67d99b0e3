package imagesource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func photo(id string) map[string]interface{} {
	return map[string]interface{}{
		"id":              id,
		"description":     "Sunset over the lake",
		"alt_description": "orange sky",
		"color":           "#f3a",
		"width":           4000,
		"height":          3000,
		"likes":           120,
		"urls":            map[string]string{"regular": "https://images.example.com/" + id + "?w=1080"},
		"user":            map[string]string{"name": "Ann"},
	}
}

func TestUnsplashSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/photos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Client-ID key-1", r.Header.Get("Authorization"))
		assert.Equal(t, "sunset", r.URL.Query().Get("query"))
		assert.Equal(t, "7", r.URL.Query().Get("page"))
		assert.Equal(t, "latest", r.URL.Query().Get("order_by"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []interface{}{photo("a"), photo("b"), map[string]interface{}{"id": "no-url"}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	u := NewUnsplash(UnsplashConfig{Endpoint: srv.URL, AccessKey: "key-1"}, zap.NewNop())
	imgs, err := u.Search(context.Background(), "sunset", 7, 10, OrderLatest)
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.Equal(t, "a", imgs[0].ID)
	assert.Equal(t, "Ann", imgs[0].Author)
	assert.Equal(t, "sunset over the lake orange sky", imgs[0].Text())
}

func TestUnsplashRandomWithoutTopic(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/photos/random", func(w http.ResponseWriter, r *http.Request) {
		_, hasQuery := r.URL.Query()["query"]
		assert.False(t, hasQuery)
		assert.Equal(t, "30", r.URL.Query().Get("count"))
		json.NewEncoder(w).Encode([]interface{}{photo("r1")})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	u := NewUnsplash(UnsplashConfig{Endpoint: srv.URL}, zap.NewNop())
	imgs, err := u.Random(context.Background(), 99, "")
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, "r1", imgs[0].ID)
}

func TestUnsplashAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Rate Limit Exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	u := NewUnsplash(UnsplashConfig{Endpoint: srv.URL}, zap.NewNop())
	_, err := u.Search(context.Background(), "x", 1, 10, OrderRelevant)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestUnsplashQuotaFailsFast(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{"results": []interface{}{photo("q")}})
	}))
	defer srv.Close()

	// one request per hour with a burst of five: the sixth call would wait
	// about an hour, far beyond MaxWait
	u := NewUnsplash(UnsplashConfig{Endpoint: srv.URL, RequestsPerHour: 1, MaxWait: 10 * time.Millisecond}, zap.NewNop())
	for i := 0; i < 5; i++ {
		_, err := u.Search(context.Background(), "sunset", 1, 10, OrderRelevant)
		require.NoError(t, err)
	}

	start := time.Now()
	_, err := u.Search(context.Background(), "sunset", 1, 10, OrderRelevant)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int32(5), hits.Load())
}
