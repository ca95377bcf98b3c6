// Package registry provides a global registry for core factories.
// Cores register themselves in init() functions, so the command layer can
// resolve a configured core path without hardcoded dependencies.
package registry

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/vovakirdan/retrobridge/internal/binding"
	"github.com/vovakirdan/retrobridge/internal/core"
)

// CoreInfo describes a registered core.
type CoreInfo struct {
	// Name is the identifier used in config and core paths (e.g. "sandbox").
	Name string

	// Title is a human-readable name for listings.
	Title string

	// Extensions lists the game file extensions the core accepts.
	Extensions []string
}

// Factory creates a fresh, uncreated core instance.
type Factory func() binding.Core

var (
	factories = make(map[string]Factory)
	infos     = make(map[string]CoreInfo)
	mu        sync.RWMutex
)

// Register adds a core factory to the registry.
// Panics if a core with the same name is already registered.
func Register(info CoreInfo, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[info.Name]; exists {
		panic(fmt.Sprintf("registry: core %q already registered", info.Name))
	}
	factories[info.Name] = f
	infos[info.Name] = info
}

// List returns all registered cores, sorted by name.
func List() []CoreInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]CoreInfo, 0, len(infos))
	for _, info := range infos {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// CoreName derives a core name from a core path: the directory, the
// extension and a trailing "_libretro" are stripped, so
// "/opt/cores/sandbox_libretro.so" names "sandbox".
func CoreName(corePath string) string {
	base := filepath.Base(corePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, "_libretro")
	return strings.ToLower(base)
}

// Resolve creates the core named by corePath. Unknown cores fail with
// core.ErrInit.
func Resolve(corePath string) (binding.Core, CoreInfo, error) {
	name := CoreName(corePath)

	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[name]
	if !ok {
		return nil, CoreInfo{}, fmt.Errorf("registry: unknown core %q: %w", name, core.ErrInit)
	}
	return f(), infos[name], nil
}

// Exists checks if a core with the given name is registered.
func Exists(name string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[name]
	return ok
}
