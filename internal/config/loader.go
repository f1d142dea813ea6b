package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"stubrunner/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/stubrunner"
	configFileName = "config.yaml"
)

// GetDefaultConfigPath returns ~/.config/stubrunner, or the working directory
// when the home directory cannot be determined.
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from configPath, which is either a
// config.yaml file or a directory containing one. The file is decoded on top
// of the defaults, the microservice descriptor (if any) is merged in and the
// result is validated.
func LoadConfig(configPath string) (StubRunnerConfig, error) {
	configFilePath, configDir := resolveConfigFile(configPath)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
		return StubRunnerConfig{}, err
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return StubRunnerConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	if config.Descriptor != "" {
		descriptorPath := config.Descriptor
		if !filepath.IsAbs(descriptorPath) {
			descriptorPath = filepath.Join(configDir, descriptorPath)
		}
		descriptor, err := LoadDescriptor(descriptorPath)
		if err != nil {
			return StubRunnerConfig{}, err
		}
		if err := config.ApplyDescriptor(descriptor); err != nil {
			return StubRunnerConfig{}, err
		}
		logging.Debug("ConfigLoader", "Merged %d dependencies from descriptor %s", len(descriptor.Dependencies), descriptorPath)
	}

	config.Repository.CacheDir = expandHome(config.Repository.CacheDir)
	if config.Repository.StubsDir != "" && !filepath.IsAbs(config.Repository.StubsDir) {
		config.Repository.StubsDir = filepath.Join(configDir, config.Repository.StubsDir)
	}

	if err := config.Validate(); err != nil {
		return StubRunnerConfig{}, fmt.Errorf("invalid configuration in %s: %w", configFilePath, err)
	}
	return config, nil
}

func resolveConfigFile(configPath string) (file, dir string) {
	if configPath == "" {
		configPath = GetDefaultConfigPath()
	}
	if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
		return configPath, filepath.Dir(configPath)
	}
	if filepath.Ext(configPath) == ".yaml" || filepath.Ext(configPath) == ".yml" {
		return configPath, filepath.Dir(configPath)
	}
	return filepath.Join(configPath, configFileName), configPath
}

func expandHome(path string) string {
	if path == "~" || (len(path) > 1 && path[:2] == "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
