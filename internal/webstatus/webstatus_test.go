package webstatus

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res, err := Check(context.Background(), srv.URL, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, res.Online)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Positive(t, res.ResponseTime)
}

func TestCheckServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res, err := Check(context.Background(), srv.URL, 5*time.Second)
	require.NoError(t, err)
	assert.False(t, res.Online)
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func TestCheckUnreachable(t *testing.T) {
	_, err := Check(context.Background(), "http://127.0.0.1:1", 500*time.Millisecond)
	assert.Error(t, err)
}

func TestCheckPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	res := CheckPort("127.0.0.1", port, time.Second)
	assert.True(t, res.Open)

	closed := CheckPort("127.0.0.1", 1, 500*time.Millisecond)
	assert.False(t, closed.Open)
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://example.com", NormalizeURL("example.com"))
	assert.Equal(t, "http://example.com", NormalizeURL("http://example.com"))
	assert.Equal(t, "https://example.com", NormalizeURL("https://example.com"))
}
