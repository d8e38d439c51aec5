package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newDictDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ability.json"), []byte(`{"word":"ability"}`), 0o644))
	return dir
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGetEntry(t *testing.T) {
	h := New(newDictDir(t), nil).Handler()

	rec := get(t, h, "/api/dict/Ability")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"word":"ability"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, CacheControl, rec.Header().Get("Cache-Control"))
}

func TestGetEntryNotFound(t *testing.T) {
	h := New(newDictDir(t), nil).Handler()

	for _, path := range []string{"/api/dict/zebra", "/api/dict/.hidden"} {
		rec := get(t, h, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Word not found", body["error"])
		assert.Empty(t, rec.Header().Get("Cache-Control"))
	}
}

func TestDirSourceRejectsPaths(t *testing.T) {
	src := DirSource{Dir: newDictDir(t)}
	for _, w := range []string{"", "../ability", `a\b`, ".ability"} {
		_, err := src.Entry(context.Background(), w)
		assert.ErrorIs(t, err, ErrNotFound, w)
	}
	b, err := src.Entry(context.Background(), "ability")
	require.NoError(t, err)
	assert.Equal(t, `{"word":"ability"}`, string(b))
}

func TestGetEntryInternalError(t *testing.T) {
	dir := newDictDir(t)
	// A directory where a file is expected makes ReadFile fail with something other than not-exist.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "broken.json"), 0o755))

	rec := get(t, New(dir, nil).Handler(), "/api/dict/broken")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestProxyEntry(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", CacheControl)
		if r.URL.Path == "/api/dict/missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Word not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"word":"ability"}`))
	}))
	defer upstream.Close()

	u, err := url.Parse(upstream.URL)
	require.NoError(t, err)
	s := New("", nil)
	s.Upstream = u
	h := s.Handler()

	rec := get(t, h, "/api/dict/ABILITY")
	assert.Equal(t, "/api/dict/ability", gotPath)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"word":"ability"}`, rec.Body.String())
	assert.Equal(t, CacheControl, rec.Header().Get("Cache-Control"))

	rec = get(t, h, "/api/dict/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProxyEscapesWord(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	u, err := url.Parse(upstream.URL)
	require.NoError(t, err)
	s := New("", nil)
	s.Upstream = u

	rec := get(t, s.Handler(), "/api/dict/ice%20cream")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/dict/ice%20cream", gotPath)
}

func TestEntryURL(t *testing.T) {
	base, err := url.Parse("http://upstream.test/root/")
	require.NoError(t, err)

	for _, word := range []string{"", ".", ".."} {
		_, ok := entryURL(base, word)
		assert.False(t, ok, "word %q", word)
	}

	cases := map[string]string{
		"ability": "http://upstream.test/root/api/dict/ability",
		"a/b":     "http://upstream.test/root/api/dict/a%2Fb",
		"...":     "http://upstream.test/root/api/dict/...",
		"café":    "http://upstream.test/root/api/dict/caf%C3%A9",
	}
	for word, want := range cases {
		got, ok := entryURL(base, word)
		require.True(t, ok, "word %q", word)
		assert.Equal(t, want, got.String())
	}
}

func TestProxyUpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	u, err := url.Parse(upstream.URL)
	require.NoError(t, err)
	upstream.Close()

	s := New("", nil)
	s.Upstream = u
	rec := get(t, s.Handler(), "/api/dict/ability")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal proxy error", body["error"])
	assert.NotEmpty(t, body["details"])
}

func TestHealthz(t *testing.T) {
	rec := get(t, New(t.TempDir(), nil).Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
