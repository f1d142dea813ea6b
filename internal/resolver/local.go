package resolver

import (
	"context"
	"os"
	"path/filepath"

	"stubrunner/internal/api"
	"stubrunner/pkg/logging"
)

// Local resolves artifacts from the on-disk cache only.
type Local struct {
	cacheDir string
	quiet    bool
}

// NewLocal creates a resolver reading from cacheDir.
func NewLocal(cacheDir string) *Local {
	return &Local{cacheDir: cacheDir}
}

// CacheDir returns the cache root.
func (l *Local) CacheDir() string {
	return l.cacheDir
}

// Resolve returns the cached artifact for coords. For "latest" the highest
// version directory that contains the artifact wins.
func (l *Local) Resolve(ctx context.Context, coords api.Coordinates) (api.ArtifactLocation, error) {
	if coords.Transitive {
		return api.ArtifactLocation{}, &api.ResolutionError{
			Coordinates: coords,
			Repository:  l.cacheDir,
			Reason:      api.ReasonUnsupported,
		}
	}
	if err := ctx.Err(); err != nil {
		return api.ArtifactLocation{}, &api.ResolutionError{Coordinates: coords, Repository: l.cacheDir, Reason: api.ReasonConnectivity, Err: err}
	}

	if !l.quiet {
		logging.Warn("Resolver", "Resolving %s from local cache %s, remote repository checks are bypassed", coords, l.cacheDir)
	}
	return l.lookup(coords)
}

func (l *Local) lookup(coords api.Coordinates) (api.ArtifactLocation, error) {
	notFound := &api.ResolutionError{
		Coordinates: coords,
		Repository:  l.cacheDir,
		Reason:      api.ReasonUnresolved,
	}

	if !coords.IsLatest() {
		p := artifactPath(l.cacheDir, coords, coords.Version)
		if !isFile(p) {
			return api.ArtifactLocation{}, notFound
		}
		return api.LocationFromPath(p), nil
	}

	entries, err := os.ReadDir(moduleDir(l.cacheDir, coords))
	if err != nil {
		return api.ArtifactLocation{}, notFound
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	for _, v := range sortVersionsDesc(versions) {
		p := artifactPath(l.cacheDir, coords, v)
		if isFile(p) {
			logging.Debug("Resolver", "Pinned %s to cached version %s", coords, v)
			return api.LocationFromPath(p), nil
		}
	}
	return api.ArtifactLocation{}, notFound
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// purgeMetadata removes cached maven-metadata*.xml files of the module.
func (l *Local) purgeMetadata(coords api.Coordinates) error {
	matches, err := filepath.Glob(filepath.Join(moduleDir(l.cacheDir, coords), "maven-metadata*.xml"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
