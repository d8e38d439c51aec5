package freq

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureListLocalCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "en.txt")
	require.NoError(t, os.WriteFile(path, []byte("the 1\n"), 0o644))

	// An unroutable URL proves nothing is fetched.
	downloaded, err := EnsureList(context.Background(), "http://127.0.0.1:0/never", path)
	require.NoError(t, err)
	assert.False(t, downloaded)
}

func TestEnsureListDownloads(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if filepath.Ext(r.URL.Path) == ".gz" {
			gz := gzip.NewWriter(w)
			_, _ = gz.Write([]byte("apple 3\n"))
			_ = gz.Close()
			return
		}
		_, _ = w.Write([]byte("the 9\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()

	plain := filepath.Join(dir, "plain.txt")
	downloaded, err := EnsureList(context.Background(), srv.URL+"/en_50k.txt", plain)
	require.NoError(t, err)
	assert.True(t, downloaded)
	b, err := os.ReadFile(plain)
	require.NoError(t, err)
	assert.Equal(t, "the 9\n", string(b))

	gzPath := filepath.Join(dir, "sub", "gz.txt")
	_, err = EnsureList(context.Background(), srv.URL+"/en_50k.txt.gz", gzPath)
	require.NoError(t, err)
	b, err = os.ReadFile(gzPath)
	require.NoError(t, err)
	assert.True(t, bytes.Equal([]byte("apple 3\n"), b))

	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestEnsureListHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "missing.txt")
	_, err := EnsureList(context.Background(), srv.URL+"/x.txt", path)
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
