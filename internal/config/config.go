// Package config reads ~/.config/notefeed/config.yaml. Parsing is tolerant:
// a missing or malformed file falls back to defaults so the tool works out
// of the box.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DataDirEnv relocates the whole store root.
	DataDirEnv = "NOTEFEED_DATA_DIR"
	// SessionIDEnv scopes the viewer's exchange files so concurrent viewer
	// instances do not collide.
	SessionIDEnv = "NOTEFEED_SESSION_ID"
)

// Config carries the settings the tool reads at startup.
type Config struct {
	NotesPath       string
	DataDir         string
	FetchTimeoutSec int
	FetchMaxWorkers int
	FetchMaxPerFeed int // 0 = unlimited
	ExtractContent  bool
}

// Load parses the user config file, applying defaults for anything missing.
func Load() (Config, error) {
	c := Config{
		NotesPath:       "~/notes",
		FetchTimeoutSec: 30,
		FetchMaxWorkers: 5,
		FetchMaxPerFeed: 100,
	}
	path, err := defaultConfigPath()
	if err != nil {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, nil
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return c, nil
	}

	if v, ok := doc["notes_path"].(string); ok && strings.TrimSpace(v) != "" {
		c.NotesPath = v
	}
	if v, ok := doc["data_dir"].(string); ok && strings.TrimSpace(v) != "" {
		c.DataDir = v
	}
	if fetch, ok := doc["fetch"].(map[string]any); ok {
		if v, ok := intValue(fetch["timeout"]); ok && v > 0 {
			c.FetchTimeoutSec = v
		}
		if v, ok := intValue(fetch["max_workers"]); ok && v > 0 {
			c.FetchMaxWorkers = v
		}
		if v, ok := intValue(fetch["max_per_feed"]); ok && v >= 0 {
			c.FetchMaxPerFeed = v
		}
		if v, ok := fetch["extract_content"].(bool); ok {
			c.ExtractContent = v
		}
	}
	return c, nil
}

// ResolveDataDir picks the store root: environment override first, then the
// config file, then ~/.notefeed.
func (c Config) ResolveDataDir() string {
	if v := strings.TrimSpace(os.Getenv(DataDirEnv)); v != "" {
		return ExpandPath(v)
	}
	if strings.TrimSpace(c.DataDir) != "" {
		return ExpandPath(c.DataDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".notefeed"
	}
	return filepath.Join(home, ".notefeed")
}

// SessionID identifies one viewer invocation. The pid default keeps
// concurrent instances apart without any coordination.
func SessionID() string {
	if v := strings.TrimSpace(os.Getenv(SessionIDEnv)); v != "" {
		return v
	}
	return strconv.Itoa(os.Getpid())
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "notefeed", "config.yaml"), nil
}

// ExpandPath expands a leading ~ and environment variables in a path.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
		}
	}
	return p
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}
