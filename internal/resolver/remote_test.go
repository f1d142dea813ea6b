package resolver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"stubrunner/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMetadata = `<?xml version="1.0" encoding="UTF-8"?>
<metadata>
  <groupId>com.example</groupId>
  <artifactId>payments-stubs</artifactId>
  <versioning>
    <latest>1.2.0</latest>
    <release>1.2.0</release>
    <versions>
      <version>1.0.0</version>
      <version>1.2.0</version>
    </versions>
  </versioning>
</metadata>`

type fakeRepository struct {
	server    *httptest.Server
	downloads atomic.Int32
	probeCode int
}

func newFakeRepository(t *testing.T) *fakeRepository {
	t.Helper()
	repo := &fakeRepository{probeCode: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/maven2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(repo.probeCode)
	})
	mux.HandleFunc("/maven2/com/example/payments-stubs/maven-metadata.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testMetadata))
	})
	mux.HandleFunc("/maven2/com/example/payments-stubs/1.2.0/payments-stubs-1.2.0.jar", func(w http.ResponseWriter, r *http.Request) {
		repo.downloads.Add(1)
		_, _ = w.Write([]byte("PK-artifact"))
	})

	repo.server = httptest.NewServer(mux)
	t.Cleanup(repo.server.Close)
	return repo
}

func (f *fakeRepository) root() string {
	return f.server.URL + "/maven2"
}

func coords() api.Coordinates {
	return api.NewCoordinates("com.example", "payments-stubs")
}

func TestRemoteResolve_Latest(t *testing.T) {
	repo := newFakeRepository(t)
	cache := t.TempDir()

	r := NewRemote(repo.root(), cache)
	loc, err := r.Resolve(context.Background(), coords())
	require.NoError(t, err)

	want := filepath.Join(cache, "com", "example", "payments-stubs", "1.2.0", "payments-stubs-1.2.0.jar")
	assert.Equal(t, want, loc.Path())
	assert.Equal(t, "file", loc.URI.Scheme)

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "PK-artifact", string(data))

	metadataFiles, err := filepath.Glob(filepath.Join(cache, "com", "example", "payments-stubs", "maven-metadata*.xml"))
	require.NoError(t, err)
	assert.Empty(t, metadataFiles, "metadata must be purged after resolution")
}

func TestRemoteResolve_ReusesCachedArtifact(t *testing.T) {
	repo := newFakeRepository(t)
	cache := t.TempDir()
	r := NewRemote(repo.root(), cache)

	_, err := r.Resolve(context.Background(), coords())
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), coords().WithVersion("1.2.0"))
	require.NoError(t, err)

	assert.Equal(t, int32(1), repo.downloads.Load())
}

func TestRemoteResolve_RejectsVersionOutsideCache(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/maven2", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/maven2/com/example/payments-stubs/maven-metadata.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<metadata><versioning><latest>../../evil</latest><release>../../evil</release>` +
			`<versions><version>../../evil</version></versions></versioning></metadata>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	root := t.TempDir()
	cache := filepath.Join(root, "cache")
	r := NewRemote(srv.URL+"/maven2", cache)
	_, err := r.Resolve(context.Background(), coords())

	var resErr *api.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, api.ReasonUnresolved, resErr.Reason)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, "cache", e.Name(), "nothing may be written outside the cache")
	}
}

func TestCheckVersion(t *testing.T) {
	for _, v := range []string{"1.0.0", "2.1.0-SNAPSHOT", "1.0.0+build.5"} {
		assert.NoError(t, checkVersion(v), v)
	}
	for _, v := range []string{"../x", "..", "1.0/evil", `1.0\evil`, "."} {
		assert.Error(t, checkVersion(v), v)
	}
}

func TestRemoteResolve_ProbeStatus(t *testing.T) {
	repo := newFakeRepository(t)
	repo.probeCode = http.StatusServiceUnavailable

	r := NewRemote(repo.root(), t.TempDir())
	_, err := r.Resolve(context.Background(), coords())

	var resErr *api.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, api.ReasonStatus, resErr.Reason)
	assert.Equal(t, http.StatusServiceUnavailable, resErr.StatusCode)
	assert.Equal(t, int32(0), repo.downloads.Load())
}

func TestRemoteResolve_MissingVersion(t *testing.T) {
	repo := newFakeRepository(t)
	r := NewRemote(repo.root(), t.TempDir())

	_, err := r.Resolve(context.Background(), coords().WithVersion("9.9.9"))

	var resErr *api.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, api.ReasonUnresolved, resErr.Reason)
	assert.Equal(t, http.StatusNotFound, resErr.StatusCode)
}

func TestRemoteResolve_HostResolutionFailure(t *testing.T) {
	dnsErr := &net.DNSError{Err: "no such host", Name: "repo.invalid", IsNotFound: true}
	client := &http.Client{Transport: &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, &net.OpError{Op: "dial", Net: network, Err: dnsErr}
		},
	}}
	cache := t.TempDir()

	r := NewRemote("http://repo.invalid/maven2", cache, WithHTTPClient(client))
	_, err := r.Resolve(context.Background(), coords())

	var resErr *api.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, api.ReasonHostResolution, resErr.Reason)

	var target *net.DNSError
	assert.True(t, errors.As(err, &target))

	entries, err := os.ReadDir(cache)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing may be fetched after a failed probe")
}

func TestRemoteResolve_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	root := server.URL
	server.Close()

	r := NewRemote(root, t.TempDir())
	_, err := r.Resolve(context.Background(), coords())

	var resErr *api.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, api.ReasonConnectivity, resErr.Reason)
}

func TestRemoteResolve_RejectsTransitive(t *testing.T) {
	repo := newFakeRepository(t)
	r := NewRemote(repo.root(), t.TempDir())

	c := coords()
	c.Transitive = true
	_, err := r.Resolve(context.Background(), c)

	var resErr *api.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, api.ReasonUnsupported, resErr.Reason)
}
