package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "en-US", r.Header.Get("Accept-Language"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewRestyClient(5 * time.Second)
	resp, err := c.Get(context.Background(), srv.URL, map[string]string{"Accept-Language": "en-US"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "ok", string(resp.Body()))
}

func TestDoEncodesJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var got map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "b", got["a"])
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewRestyClient(5 * time.Second)
	resp, err := c.Do(context.Background(), "post", srv.URL, nil, map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode())
}

func TestDoTransportError(t *testing.T) {
	c := NewRestyClient(time.Second)
	_, err := c.Get(context.Background(), "http://127.0.0.1:1/unreachable", nil)
	require.Error(t, err)
}
