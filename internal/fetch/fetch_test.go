package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, cacheDir string) *Client {
	t.Helper()
	c, err := New("test", Config{CacheDir: cacheDir}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestGetCachesSecondRead(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	c := newTestClient(t, t.TempDir())

	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Contains(t, string(body), "hello")
	require.EqualValues(t, 1, hits.Load())

	body, err = c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Contains(t, string(body), "hello")
	require.EqualValues(t, 1, hits.Load())
}

func TestGetStripsSoftHyphens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Volka­novski and Makha­chev&shy;"))
	}))
	defer srv.Close()

	c := newTestClient(t, t.TempDir())
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "Volkanovski and Makhachev", string(body))
}

func TestGetWrapsNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, t.TempDir())
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNetwork))
}

func TestClearCacheForcesRefetch(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("page"))
	}))
	defer srv.Close()

	c := newTestClient(t, t.TempDir())

	_, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NoError(t, c.ClearCache())

	_, err = c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.EqualValues(t, 2, hits.Load())
}

func TestGetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1 id="t">UFC 300</h1></body></html>`))
	}))
	defer srv.Close()

	c := newTestClient(t, t.TempDir())
	doc, err := c.GetDocument(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "UFC 300", doc.Find("h1#t").Text())
}

func TestNoCacheDirDisablesCache(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("page"))
	}))
	defer srv.Close()

	c := newTestClient(t, "")
	_, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.EqualValues(t, 2, hits.Load())
}
