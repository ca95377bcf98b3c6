package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/vovakirdan/retrobridge/internal/core"
)

// Fallbacks for environment queries.
const (
	DefaultLocale      = "en"
	DefaultRefreshRate = 60.0
	DefaultGraphicsAPI = 3
)

// DetectLocale returns the base language code for explicit, or for the
// process environment (LC_ALL, LC_MESSAGES, LANG) when explicit is empty.
// Unparseable or neutral locales ("C", "POSIX") yield DefaultLocale.
func DetectLocale(explicit string) string {
	candidates := []string{explicit, os.Getenv("LC_ALL"), os.Getenv("LC_MESSAGES"), os.Getenv("LANG")}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		return baseLanguage(c)
	}
	return DefaultLocale
}

// baseLanguage turns a POSIX or BCP 47 locale like "pt_BR.UTF-8" into its
// base language code ("pt").
func baseLanguage(locale string) string {
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return DefaultLocale
	}
	base, conf := tag.Base()
	if conf == language.No {
		return DefaultLocale
	}
	return base.String()
}

// CreateParams builds the core creation parameters from the config,
// filling environment-derived values that the config leaves unset.
func (c Config) CreateParams() (core.CreateParams, error) {
	shader, err := core.ParseShader(c.Shader)
	if err != nil {
		return core.CreateParams{}, fmt.Errorf("config: %w", err)
	}
	refresh := c.RefreshRate
	if refresh <= 0 {
		refresh = DefaultRefreshRate
	}
	gfx := c.GraphicsAPI
	if gfx == 0 {
		gfx = DefaultGraphicsAPI
	}
	return core.CreateParams{
		GraphicsAPIVersion: gfx,
		CorePath:           c.Core,
		SystemDir:          c.SystemDir,
		SaveDir:            c.SaveDir,
		Shader:             shader,
		RefreshRate:        refresh,
		Locale:             DetectLocale(c.Locale),
	}, nil
}
