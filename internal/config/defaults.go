package config

import (
	_ "embed"
)

//go:embed defaults/retrobridge.yaml
var defaultYAML []byte

//go:embed schema.cue
var schemaCUE []byte

// Default returns the built-in configuration. It matches the embedded
// defaults/retrobridge.yaml and is used if that file cannot be parsed.
func Default() Config {
	return Config{
		Core:        "sandbox",
		SystemDir:   "~/.retrobridge/system",
		SaveDir:     "~/.retrobridge/saves",
		Shader:      "default",
		RefreshRate: 60,
		GraphicsAPI: 3,
		Database:    "~/.retrobridge/retrobridge.db",
		LogLevel:    "info",
		Input: InputConfig{
			KeyboardController: 1,
			QueueCapacity:      512,
			KeyReleaseMS:       120,
			Keys:               map[string]string{},
		},
		SSH: SSHConfig{
			Address:            ":23234",
			HostKey:            "~/.retrobridge/ssh_host_ed25519",
			IdleTimeoutMinutes: 30,
		},
		Source: "embedded",
	}
}
