package resolver

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"stubrunner/internal/api"
)

const metadataFileName = "maven-metadata.xml"

// cachedMetadataName is the name the remote metadata is stored under in the
// cache. It matches the maven-metadata*.xml purge pattern.
const cachedMetadataName = "maven-metadata-stubrunner.xml"

func groupPath(group string) string {
	return strings.ReplaceAll(group, ".", "/")
}

func artifactFileName(coords api.Coordinates, version string) string {
	return fmt.Sprintf("%s-%s.%s", coords.Module, version, coords.Ext())
}

// moduleDir is the cache directory holding every version of a module.
func moduleDir(cacheDir string, coords api.Coordinates) string {
	return filepath.Join(cacheDir, filepath.FromSlash(groupPath(coords.Group)), coords.Module)
}

// checkVersion rejects versions that would leave the module directory.
func checkVersion(version string) error {
	if version == "." || strings.Contains(version, "..") || strings.ContainsAny(version, `/\`) {
		return fmt.Errorf("invalid version %q", version)
	}
	return nil
}

func artifactPath(cacheDir string, coords api.Coordinates, version string) string {
	return filepath.Join(moduleDir(cacheDir, coords), version, artifactFileName(coords, version))
}

// remoteModulePath is the repository-relative path of a module.
func remoteModulePath(coords api.Coordinates) string {
	return path.Join(groupPath(coords.Group), coords.Module)
}

func remoteArtifactPath(coords api.Coordinates, version string) string {
	return path.Join(remoteModulePath(coords), version, artifactFileName(coords, version))
}
