package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"stubrunner/internal/api"
	"stubrunner/pkg/logging"

	"golang.org/x/sync/singleflight"
)

// Remote resolves artifacts from a Maven-layout HTTP repository and caches
// them locally.
type Remote struct {
	root       string
	local      *Local
	httpClient *http.Client

	// deduplicates concurrent resolutions of the same coordinates
	group singleflight.Group
}

// NewRemote creates a resolver for the repository at root, caching into
// cacheDir.
func NewRemote(root, cacheDir string, opts ...Option) *Remote {
	r := &Remote{
		root:       strings.TrimSuffix(root, "/"),
		local:      &Local{cacheDir: cacheDir, quiet: true},
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the repository root URL.
func (r *Remote) Root() string {
	return r.root
}

// Resolve downloads coords into the cache (unless already cached) and
// returns the cached location.
func (r *Remote) Resolve(ctx context.Context, coords api.Coordinates) (api.ArtifactLocation, error) {
	if coords.Transitive {
		return api.ArtifactLocation{}, r.fail(coords, api.ReasonUnsupported, 0,
			errors.New("transitive resolution is not supported"))
	}

	result, err, shared := r.group.Do(coords.String(), func() (interface{}, error) {
		return r.resolve(ctx, coords)
	})
	if err != nil {
		return api.ArtifactLocation{}, err
	}
	if shared {
		logging.Debug("Resolver", "Shared in-flight resolution of %s", coords)
	}
	return result.(api.ArtifactLocation), nil
}

func (r *Remote) resolve(ctx context.Context, coords api.Coordinates) (api.ArtifactLocation, error) {
	if err := r.probe(ctx, coords); err != nil {
		return api.ArtifactLocation{}, err
	}
	logging.Info("Resolver", "Resolving %s from %s", coords, r.root)

	// Metadata is only trusted for this resolution.
	defer func() {
		if err := r.local.purgeMetadata(coords); err != nil {
			logging.WarnErr("Resolver", err, "Failed to purge cached metadata for %s", coords)
		}
	}()

	version := coords.Version
	if coords.IsLatest() {
		v, err := r.fetchVersion(ctx, coords)
		if err != nil {
			return api.ArtifactLocation{}, err
		}
		version = v
		logging.Info("Resolver", "Latest version of %s is %s", coords, version)
	}

	if err := r.download(ctx, coords, version); err != nil {
		return api.ArtifactLocation{}, err
	}

	return r.local.lookup(coords.WithVersion(version))
}

// probe checks that the repository root answers before anything is fetched.
func (r *Remote) probe(ctx context.Context, coords api.Coordinates) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.root, nil)
	if err != nil {
		return r.fail(coords, api.ReasonConnectivity, 0, err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return r.transportFailure(coords, err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return r.fail(coords, api.ReasonStatus, resp.StatusCode, nil)
	}
	return nil
}

func (r *Remote) fetchVersion(ctx context.Context, coords api.Coordinates) (string, error) {
	url := r.root + "/" + remoteModulePath(coords) + "/" + metadataFileName
	dest := filepath.Join(moduleDir(r.local.cacheDir, coords), cachedMetadataName)

	if err := r.fetchToFile(ctx, coords, url, dest); err != nil {
		return "", err
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		return "", r.fail(coords, api.ReasonUnresolved, 0, err)
	}
	m, err := parseMetadata(data)
	if err != nil {
		return "", r.fail(coords, api.ReasonUnresolved, 0, err)
	}
	version := m.pickVersion()
	if version == "" {
		return "", r.fail(coords, api.ReasonUnresolved, 0, errors.New("metadata lists no versions"))
	}
	return version, nil
}

func (r *Remote) download(ctx context.Context, coords api.Coordinates, version string) error {
	if err := checkVersion(version); err != nil {
		return r.fail(coords.WithVersion(version), api.ReasonUnresolved, 0, err)
	}
	dest := artifactPath(r.local.cacheDir, coords, version)
	if isFile(dest) {
		logging.Info("Resolver", "Using cached artifact %s", dest)
		return nil
	}

	url := r.root + "/" + remoteArtifactPath(coords, version)
	logging.Info("Resolver", "Downloading %s", url)
	if err := r.fetchToFile(ctx, coords.WithVersion(version), url, dest); err != nil {
		return err
	}
	logging.Info("Resolver", "Download complete: %s", dest)
	return nil
}

// fetchToFile GETs url and writes the body to dest through a temp file.
func (r *Remote) fetchToFile(ctx context.Context, coords api.Coordinates, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return r.fail(coords, api.ReasonConnectivity, 0, err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return r.transportFailure(coords, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return r.fail(coords, api.ReasonUnresolved, resp.StatusCode, fmt.Errorf("%s not found", url))
	case resp.StatusCode != http.StatusOK:
		return r.fail(coords, api.ReasonStatus, resp.StatusCode, nil)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return r.fail(coords, api.ReasonUnresolved, 0, fmt.Errorf("create cache dir: %w", err))
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return r.fail(coords, api.ReasonUnresolved, 0, fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return r.transportFailure(coords, fmt.Errorf("write %s: %w", filepath.Base(dest), copyErr))
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return r.fail(coords, api.ReasonUnresolved, 0, fmt.Errorf("close temp file: %w", closeErr))
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return r.fail(coords, api.ReasonUnresolved, 0, fmt.Errorf("rename %s: %w", filepath.Base(dest), err))
	}
	return nil
}

// transportFailure classifies a failed round trip. DNS errors are told apart
// from every other connectivity problem.
func (r *Remote) transportFailure(coords api.Coordinates, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return r.fail(coords, api.ReasonHostResolution, 0, err)
	}
	return r.fail(coords, api.ReasonConnectivity, 0, err)
}

func (r *Remote) fail(coords api.Coordinates, reason api.ResolutionReason, status int, err error) error {
	return &api.ResolutionError{
		Coordinates: coords,
		Repository:  r.root,
		Reason:      reason,
		StatusCode:  status,
		Err:         err,
	}
}
