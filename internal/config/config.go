// Package config implements spec.md §6's Configuration object: the
// runtime/workspace/diagnostics knobs the rest of the engine reads,
// loaded from a YAML file via gopkg.in/yaml.v3 and matched against the
// workspace file tree with github.com/bmatcuk/doublestar/v4 — the same
// "direct match, then bare-basename fallback" idiom termfx-morfx's
// FileWalker uses for its own include/exclude glob handling.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// RuntimeVersion selects the primitive numeric and library surface a file
// is checked against (spec.md §6).
type RuntimeVersion string

const (
	Lua51     RuntimeVersion = "Lua51"
	LuaJIT    RuntimeVersion = "LuaJIT"
	Lua52     RuntimeVersion = "Lua52"
	Lua53     RuntimeVersion = "Lua53"
	Lua54     RuntimeVersion = "Lua54"
	LuaLatest RuntimeVersion = "LuaLatest"
)

// Runtime is spec.md §6's `runtime.*` subset.
type Runtime struct {
	Version             RuntimeVersion `yaml:"version"`
	RequireLikeFunction []string       `yaml:"requireLikeFunction"`
	RequirePattern      []string       `yaml:"requirePattern"`
}

// Workspace is spec.md §6's `workspace.*` subset governing file
// discovery.
type Workspace struct {
	IgnoreDir      []string `yaml:"ignoreDir"`
	IgnoreGlobs    []string `yaml:"ignoreGlobs"`
	Library        []string `yaml:"library"`
	WorkspaceRoots []string `yaml:"workspaceRoots"`
	Encoding       string   `yaml:"encoding"`
	Extensions     []string `yaml:"extensions"`
}

// Diagnostics is spec.md §6's `diagnostics` subset — consumed by the
// diagnostic layer, not by the core inference engine itself, but kept
// alongside the rest of Configuration since it loads from the same file.
type Diagnostics struct {
	Enabled  map[string]bool   `yaml:"enabled"`
	Severity map[string]string `yaml:"severity"`
}

// Configuration is the root object spec.md §6 describes.
type Configuration struct {
	Runtime     Runtime     `yaml:"runtime"`
	Workspace   Workspace   `yaml:"workspace"`
	Diagnostics Diagnostics `yaml:"diagnostics"`
}

// Default returns the configuration a workspace with no config file gets:
// Lua 5.4 (mirroring the teacher's AnalysisConfig default-on-zero-value
// pattern), `require`/`import` as require-like names, the two standard
// require patterns, and `.lua` as the only recognized extension.
func Default() *Configuration {
	return &Configuration{
		Runtime: Runtime{
			Version:             Lua54,
			RequireLikeFunction: []string{"require", "import"},
			RequirePattern:      []string{"?.lua", "?/init.lua"},
		},
		Workspace: Workspace{
			IgnoreDir:  []string{".git", "node_modules"},
			Encoding:   "utf-8",
			Extensions: []string{".lua"},
		},
	}
}

// Load reads and parses a YAML configuration file, filling any field the
// file omits from Default() rather than leaving it zero — a partial
// config (just `runtime.version: Lua51`, say) shouldn't also disable
// require detection.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsRequireLike reports whether name should be treated as a require call
// (spec.md §6's `runtime.requireLikeFunction`), beyond the built-in
// `require`/`import` internal/semantic always recognizes.
func (c *Configuration) IsRequireLike(name string) bool {
	for _, n := range c.Runtime.RequireLikeFunction {
		if n == name {
			return true
		}
	}
	return false
}

// Ignored reports whether path (relative to a workspace root) matches
// one of workspace.ignoreDir's path segments or workspace.ignoreGlobs'
// patterns — direct doublestar match first, falling back to a bare
// basename match for patterns with no path separator, matching
// termfx-morfx's FileWalker.matchPattern.
func (c *Configuration) Ignored(path string) bool {
	for _, dir := range c.Workspace.IgnoreDir {
		for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
			if seg == dir {
				return true
			}
		}
	}
	for _, pattern := range c.Workspace.IgnoreGlobs {
		if matched, err := doublestar.Match(pattern, filepath.ToSlash(path)); err == nil && matched {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if matched, err := doublestar.Match(pattern, filepath.Base(path)); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Accepted reports whether path's extension is one workspace.extensions
// lists (case-insensitive) — the "non-Lua files are ignored" rule
// spec.md §6 states for input file discovery.
func (c *Configuration) Accepted(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.Workspace.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
