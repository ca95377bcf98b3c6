package core

import (
	"fmt"
	"strings"
)

// Shader selects the post-processing effect a core applies to its output.
type Shader int

const (
	ShaderDefault Shader = iota
	ShaderCRT
	ShaderLCD
	ShaderSharp
)

// String returns the config name of the shader.
func (s Shader) String() string {
	switch s {
	case ShaderDefault:
		return "default"
	case ShaderCRT:
		return "crt"
	case ShaderLCD:
		return "lcd"
	case ShaderSharp:
		return "sharp"
	default:
		return "unknown"
	}
}

// ParseShader converts a config name into a Shader.
// The empty string selects the default shader.
func ParseShader(name string) (Shader, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return ShaderDefault, nil
	case "crt":
		return ShaderCRT, nil
	case "lcd":
		return ShaderLCD, nil
	case "sharp":
		return ShaderSharp, nil
	}
	return ShaderDefault, fmt.Errorf("unknown shader %q", name)
}

// CreateParams carries everything a core needs at creation time.
// Values come from environment queries and configuration; the bridge does
// not interpret them.
type CreateParams struct {
	GraphicsAPIVersion int     // major version of the graphics API (2 or 3)
	CorePath           string  // identifies the core implementation
	SystemDir          string  // BIOS and system files
	SaveDir            string  // core-managed save files
	Shader             Shader  // output effect
	RefreshRate        float64 // display refresh rate in Hz
	Locale             string  // base language code, e.g. "en"
}

// SaveBlob is serialized core state or save-RAM.
// Its layout is owned by the core and never inspected by the bridge.
type SaveBlob []byte

// Empty reports whether the blob carries no data.
func (b SaveBlob) Empty() bool {
	return len(b) == 0
}

// Variable is a runtime tuning option exposed by a core.
type Variable struct {
	Key         string
	Value       string
	Description string // optional, filled by the core
}
