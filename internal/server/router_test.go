package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/code-lens/internal/config"
	"github.com/sevigo/code-lens/internal/core"
	"github.com/sevigo/code-lens/internal/prompt"
	"github.com/sevigo/code-lens/internal/review"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// unreachableConfig has no remote credential and points the local tier at a
// binary that does not exist.
func unreachableConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", MaxRequestBytes: 1 << 20},
		Remote: config.RemoteConfig{Timeout: time.Second},
		Local: config.LocalConfig{
			Model:          "codellama",
			URL:            config.DefaultOllamaURL,
			Command:        filepath.Join(t.TempDir(), "ollama-missing"),
			Mode:           config.LocalModeExec,
			PromptVia:      config.PromptViaStdin,
			Timeout:        5 * time.Second,
			MaxOutputBytes: 1 << 20,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	steps, err := review.BuildChain(t.Context(), cfg, http.DefaultClient, discardLogger())
	require.NoError(t, err)
	pm, err := prompt.NewManager()
	require.NoError(t, err)
	d := review.NewDispatcher(pm, steps, review.FallbackFor(cfg), discardLogger())
	return NewRouter(cfg, d, discardLogger())
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t, unreachableConfig(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouter_Review_UnreachableLocalModel(t *testing.T) {
	r := newTestRouter(t, unreachableConfig(t))

	body := `{"code":"def f():\n    return 1","language":"python"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/review", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp core.ReviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Error)
	assert.Contains(t, resp.Review, "Ollama")
	assert.Contains(t, resp.Review, "ollama-missing")
}

func TestRouter_Review_MissingCode(t *testing.T) {
	r := newTestRouter(t, unreachableConfig(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/review", strings.NewReader(`{"code":"","language":"go"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Code is required"}`, rec.Body.String())
}

func TestRouter_Review_WhitespaceCodeIsNotRejected(t *testing.T) {
	r := newTestRouter(t, unreachableConfig(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/review", strings.NewReader(`{"code":"   ","language":"go"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp core.ReviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Error)
	assert.Contains(t, resp.Review, "Ollama")
}

func TestRouter_Review_UndecodableBody(t *testing.T) {
	r := newTestRouter(t, unreachableConfig(t))

	for _, body := range []string{`not json`, `{"code":123,"language":"go"}`} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/review", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code, body)
		var resp core.ReviewResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Error)
		assert.Contains(t, resp.Review, "## Error Processing Request", body)
	}
}

func TestRouter_Review_MethodNotAllowed(t *testing.T) {
	r := newTestRouter(t, unreachableConfig(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/review", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_ServeAndStop(t *testing.T) {
	cfg := unreachableConfig(t)
	pm, err := prompt.NewManager()
	require.NoError(t, err)
	srv := NewServer(cfg, review.NewDispatcher(pm, nil, review.FallbackFor(cfg), discardLogger()), discardLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Stop())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
