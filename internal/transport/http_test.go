package transport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	paths []string
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.paths = append(h.paths, r.URL.Path)
	w.WriteHeader(http.StatusAccepted)
}

func TestHTTPServer_MCP(t *testing.T) {
	handler := &recordingHandler{}
	server := httptest.NewServer(NewServer(handler, AuthMiddleware("token")))
	t.Cleanup(server.Close)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/mcp", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, []string{"/mcp"}, handler.paths)
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestHTTPServer_MCPRequiresToken(t *testing.T) {
	handler := &recordingHandler{}
	server := httptest.NewServer(NewServer(handler, AuthMiddleware("token")))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/mcp", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Empty(t, handler.paths)
}

func TestHTTPServer_Health(t *testing.T) {
	server := httptest.NewServer(NewServer(&recordingHandler{}, AuthMiddleware("token")))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "ok", string(body))
}
