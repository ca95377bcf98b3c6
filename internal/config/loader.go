package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads the bridge configuration. Values missing from the file keep
// their defaults.
// Search order: customPath -> ~/.retrobridge/config.yaml -> ./configs/retrobridge.yaml -> embedded default
func Load(customPath string) (Config, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		return Parse(customPath, data)
	}

	// Try user config directory
	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			return Parse(userCfgPath, data)
		}
	}

	// Try local configs directory
	local := filepath.Join("configs", "retrobridge.yaml")
	if data, err := os.ReadFile(local); err == nil {
		return Parse(local, data)
	}

	// Use embedded default YAML
	cfg, err := Parse("embedded", defaultYAML)
	if err != nil {
		cfg = Default() // Fallback to hardcoded if embed fails
		cfg.expandPaths()
	}
	return cfg, nil
}

// Parse validates data against the schema and decodes it over the defaults.
// name is used in error messages and recorded as the config source.
func Parse(name string, data []byte) (Config, error) {
	if err := validate(name, data); err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", name, err)
	}
	cfg.Source = name
	cfg.expandPaths()
	return cfg, nil
}

func (c *Config) expandPaths() {
	for _, p := range []*string{&c.Core, &c.Game, &c.SystemDir, &c.SaveDir, &c.Database, &c.SSH.HostKey} {
		*p = ExpandHome(*p)
	}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".retrobridge", filename)
}
