package runner

import (
	"path/filepath"
)

// Arguments is the per-collaborator configuration of a StubRunner. Build it
// with NewArguments; it is not modified afterwards.
type Arguments struct {
	StubsRootDir string
	MappingsPath string
	RegistryPort int
	MinPort      int
	MaxPort      int
	BasePath     string
	// Projects names the stub artifacts the batch serves.
	Projects []string
}

// NewArguments copies its inputs into an Arguments value.
func NewArguments(stubsRootDir, mappingsPath string, registryPort, minPort, maxPort int, basePath string, projects []string) Arguments {
	return Arguments{
		StubsRootDir: stubsRootDir,
		MappingsPath: mappingsPath,
		RegistryPort: registryPort,
		MinPort:      minPort,
		MaxPort:      maxPort,
		BasePath:     basePath,
		Projects:     append([]string(nil), projects...),
	}
}

// MappingsDir is where the collaborator's mapping files live.
func (a Arguments) MappingsDir() string {
	return filepath.Join(a.StubsRootDir, filepath.FromSlash(a.MappingsPath))
}
