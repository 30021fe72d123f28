// Package config handles clox.toml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "clox.toml"

// Config represents a clox.toml configuration.
type Config struct {
	Run    Run    `toml:"run"`
	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`
	Log    Log    `toml:"log"`

	// Dir is the directory containing the clox.toml file (set at load time).
	Dir string `toml:"-"`
}

// Run configures script execution.
type Run struct {
	Trace       bool `toml:"trace"`
	Disassemble bool `toml:"disassemble"`
}

// Cache configures the compiled-chunk cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Server configures the evaluation service.
type Server struct {
	Addr string `toml:"addr"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no clox.toml exists.
func Default() *Config {
	return &Config{
		Cache:  Cache{Path: filepath.Join(".clox", "cache.db")},
		Server: Server{Addr: ":4567"},
	}
}

// Load parses a clox.toml file from the given directory. Keys that are
// absent keep their defaults; unknown keys are an error.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if c.Cache.Path == "" {
		c.Cache.Path = Default().Cache.Path
	}
	if c.Server.Addr == "" {
		c.Server.Addr = Default().Server.Addr
	}

	return c, nil
}

// FindAndLoad walks up from startDir to find a clox.toml file,
// then loads and returns the config. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// CachePath returns the cache database path. Relative paths are resolved
// against the directory holding clox.toml.
func (c *Config) CachePath() string {
	return c.resolve(c.Cache.Path)
}

// LogPath returns the log file path, or "" to log to stderr.
func (c *Config) LogPath() string {
	if c.Log.File == "" {
		return ""
	}
	return c.resolve(c.Log.File)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}
