package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRemote_Fetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Email\nx@y.com\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path, err := NewRemote().Fetch(context.Background(), srv.URL+"/exports/leads.csv", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "leads.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Email\nx@y.com\n", string(data))
}

func TestRemote_Fetch_HTTP_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	r := NewRemote()
	r.retry.InitialBackoff = time.Millisecond
	r.retry.MaxBackoff = time.Millisecond
	r.limiter = rate.NewLimiter(rate.Inf, 1)

	path, err := r.Fetch(context.Background(), srv.URL+"/leads.csv", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestRemote_Fetch_HTTP_PermanentFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewRemote().Fetch(context.Background(), srv.URL+"/leads.csv", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestRemote_Fetch_BadInputs(t *testing.T) {
	r := NewRemote()

	_, err := r.Fetch(context.Background(), "gopher://host/file.csv", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")

	_, err = r.Fetch(context.Background(), "https://host.example/", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no file name")
}
