package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"stubrunner/internal/api"
	"stubrunner/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminHandler(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "billing-stubs")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ping.json"), []byte(pingMapping("billing")), 0o644))

	sc := testConfig(t)
	sc.PortRange = config.PortRangeConfig{Min: 21600, Max: 21610}
	sc.Repository.StubsDir = root
	sc.Dependencies = map[string]config.DependencyConfig{"billing": {Path: "billing-stubs"}}
	a := newTestApp(t, sc)

	_, err := a.Start(context.Background())
	require.NoError(t, err)

	srv := httptest.NewServer(a.AdminHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/collaborators")
	require.NoError(t, err)
	var running []api.Collaborator
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&running))
	resp.Body.Close()
	require.Len(t, running, 1)
	assert.Equal(t, "billing", running[0].Alias)
	assert.True(t, running[0].Registered)

	resp, err = http.Get(srv.URL + "/collaborators/ledger")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminHandler_BeforeStart(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	srv := httptest.NewServer(a.AdminHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/collaborators")
	require.NoError(t, err)
	defer resp.Body.Close()

	var running []api.Collaborator
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&running))
	assert.Empty(t, running)
}
