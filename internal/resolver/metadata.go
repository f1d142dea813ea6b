package resolver

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// metadata is the subset of maven-metadata.xml the resolver reads.
type metadata struct {
	XMLName    xml.Name `xml:"metadata"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
	Versioning struct {
		Latest   string   `xml:"latest"`
		Release  string   `xml:"release"`
		Versions []string `xml:"versions>version"`
	} `xml:"versioning"`
}

func parseMetadata(data []byte) (*metadata, error) {
	var m metadata
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", metadataFileName, err)
	}
	return &m, nil
}

// pickVersion chooses latest, then release, then the highest listed version.
func (m *metadata) pickVersion() string {
	if v := strings.TrimSpace(m.Versioning.Latest); v != "" {
		return v
	}
	if v := strings.TrimSpace(m.Versioning.Release); v != "" {
		return v
	}
	return highestVersion(m.Versioning.Versions)
}
