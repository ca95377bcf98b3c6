// Package config provides YAML-based configuration loading for the bridge:
// which core and game to run, where saves live, input mapping and the SSH
// server.
package config

import "time"

// Config is the top-level bridge configuration.
type Config struct {
	Core        string  `yaml:"core"` // core path or registered name
	Game        string  `yaml:"game"`
	SystemDir   string  `yaml:"system_dir"`
	SaveDir     string  `yaml:"save_dir"`
	Shader      string  `yaml:"shader"`
	RefreshRate float64 `yaml:"refresh_rate"`
	GraphicsAPI int     `yaml:"graphics_api"`
	Locale      string  `yaml:"locale"` // empty: detect from the environment
	Database    string  `yaml:"database"`
	LogLevel    string  `yaml:"log_level"`

	Input InputConfig `yaml:"input"`
	SSH   SSHConfig   `yaml:"ssh"`

	// Source is the file the config was read from, or "embedded".
	Source string `yaml:"-"`
}

// InputConfig defines how host input reaches the controller ports.
type InputConfig struct {
	KeyboardController int               `yaml:"keyboard_controller"` // 1-based
	QueueCapacity      int               `yaml:"queue_capacity"`
	KeyReleaseMS       int               `yaml:"key_release_ms"`
	Keys               map[string]string `yaml:"keys"` // host key name -> joypad name
}

// SSHConfig defines the SSH server used by the serve command.
type SSHConfig struct {
	Address            string `yaml:"address"`
	HostKey            string `yaml:"host_key"`
	IdleTimeoutMinutes int    `yaml:"idle_timeout_minutes"`
}

// KeyRelease returns how long after a terminal key press the matching
// release is synthesized.
func (c InputConfig) KeyRelease() time.Duration {
	return time.Duration(c.KeyReleaseMS) * time.Millisecond
}

// IdleTimeout returns the SSH idle timeout; zero disables it.
func (c SSHConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMinutes) * time.Minute
}
