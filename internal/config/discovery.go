package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileName is looked up in the working directory and inside a
// directory passed as the config path.
const DefaultFileName = "config.yaml"

// EnvConfigPath overrides the config location when no flag is given.
const EnvConfigPath = "NIFTYAPES_CONFIG"

// Discover resolves the config path. Priority order: explicit flag value,
// $NIFTYAPES_CONFIG, ./config.yaml.
func Discover(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}

	if path := os.Getenv(EnvConfigPath); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("$%s points to %q which does not exist", EnvConfigPath, path)
	}

	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName, nil
	}

	return "", fmt.Errorf("no config found (checked: --config, $%s, ./%s)", EnvConfigPath, DefaultFileName)
}

// ResolveFile turns a config path into an absolute file path. A directory
// resolves to the config.yaml inside it.
func ResolveFile(configPath string) (string, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, DefaultFileName)
		if _, err := os.Stat(absPath); err != nil {
			return "", fmt.Errorf("directory provided but %s not found: %s", DefaultFileName, absPath)
		}
	}
	return absPath, nil
}
