package api

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strconv"
)

const (
	// LatestVersion pins resolution to the newest published artifact.
	LatestVersion = "latest"

	// DefaultExtension is the packaging of stub artifacts (zip structured).
	DefaultExtension = "jar"
)

// Dependency describes one collaborator of the service under test.
// Alias is the logical service name used for discovery lookups and
// MappingsPath locates the collaborator's mapping files inside the unpacked
// stub artifact.
type Dependency struct {
	Alias        string `json:"alias" yaml:"alias"`
	MappingsPath string `json:"path" yaml:"path"`
}

// Coordinates identify the stub-definitions artifact in a repository.
type Coordinates struct {
	Group      string `json:"group"`
	Module     string `json:"module"`
	Version    string `json:"version"`
	Extension  string `json:"extension"`
	Transitive bool   `json:"transitive"`
}

// NewCoordinates returns coordinates pinned to the latest version with
// transitive resolution disabled.
func NewCoordinates(group, module string) Coordinates {
	return Coordinates{
		Group:     group,
		Module:    module,
		Version:   LatestVersion,
		Extension: DefaultExtension,
	}
}

// WithVersion returns a copy of the coordinates pinned to version.
func (c Coordinates) WithVersion(version string) Coordinates {
	c.Version = version
	return c
}

// IsLatest reports whether the coordinates ask for the newest version.
func (c Coordinates) IsLatest() bool {
	return c.Version == "" || c.Version == LatestVersion
}

// Ext returns the artifact extension, falling back to DefaultExtension.
func (c Coordinates) Ext() string {
	if c.Extension == "" {
		return DefaultExtension
	}
	return c.Extension
}

// String renders the coordinates as group:module:version.
func (c Coordinates) String() string {
	version := c.Version
	if version == "" {
		version = LatestVersion
	}
	return fmt.Sprintf("%s:%s:%s", c.Group, c.Module, version)
}

// ArtifactLocation is where a resolved stub artifact lives on disk.
type ArtifactLocation struct {
	URI *url.URL
}

// LocationFromPath builds a file:// location for an on-disk artifact.
func LocationFromPath(path string) ArtifactLocation {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return ArtifactLocation{URI: &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}}
}

// Path returns the local filesystem path of the location, or "" when the
// location does not point at a local file.
func (l ArtifactLocation) Path() string {
	if l.URI == nil {
		return ""
	}
	if l.URI.Scheme != "" && l.URI.Scheme != "file" {
		return ""
	}
	return filepath.FromSlash(l.URI.Path)
}

// String returns the URI of the location.
func (l ArtifactLocation) String() string {
	if l.URI == nil {
		return ""
	}
	return l.URI.String()
}

// Collaborator is the running view of one stubbed dependency.
type Collaborator struct {
	Alias      string `json:"alias"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Registered bool   `json:"registered"`
}

// Address returns host:port of the collaborator's mock server.
func (c Collaborator) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL returns the base HTTP URL of the collaborator's mock server.
func (c Collaborator) URL() string {
	return "http://" + c.Address()
}
