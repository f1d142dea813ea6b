package mock

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stubrunner/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	writeMapping(t, dir, "ping.json", `{"request":{"method":"GET","urlPath":"/ping"},"response":{"body":"pong"}}`)

	s, err := NewServer("billing", "127.0.0.1", dir, opts...)
	require.NoError(t, err)
	return s, dir
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_StartServeStop(t *testing.T) {
	s, _ := newTestServer(t)
	port := freePort(t)
	ctx := context.Background()

	require.NoError(t, s.StartOnPort(ctx, port))
	assert.True(t, s.IsRunning())
	assert.Equal(t, port, s.Port())

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, s.WaitForReady(waitCtx))

	code, body := get(t, fmt.Sprintf("http://127.0.0.1:%d/ping", port))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pong", body)

	// starting again on the same port is a no-op
	require.NoError(t, s.StartOnPort(ctx, port))

	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop(ctx))

	// the port is free again
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	l.Close()
}

func TestServer_BindError(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()
	port := occupied.Addr().(*net.TCPAddr).Port

	s, _ := newTestServer(t)
	err = s.StartOnPort(context.Background(), port)

	var bindErr *api.BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "billing", bindErr.Alias)
	assert.Equal(t, port, bindErr.Port)
	assert.False(t, s.IsRunning())
}

func TestServer_MissingMappings(t *testing.T) {
	_, err := NewServer("billing", "127.0.0.1", filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestServer_CORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, WithCORS(true))
	port := freePort(t)
	require.NoError(t, s.StartOnPort(context.Background(), port))
	defer s.Stop(context.Background())

	req, err := http.NewRequest(http.MethodOptions, fmt.Sprintf("http://127.0.0.1:%d/ping", port), nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://app.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_Reload(t *testing.T) {
	s, dir := newTestServer(t)
	require.Len(t, s.Mappings(), 1)

	writeMapping(t, dir, "health.yaml", "request:\n  urlPath: /health\nresponse:\n  status: 204\n")
	require.NoError(t, s.Reload())
	assert.Len(t, s.Mappings(), 2)

	writeMapping(t, dir, "broken.json", "{not json")
	assert.Error(t, s.Reload())
	assert.Len(t, s.Mappings(), 2, "failed reload keeps the previous mappings")
	require.NoError(t, os.Remove(filepath.Join(dir, "broken.json")))
}
