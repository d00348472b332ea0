// Package config loads the .phpreflect.toml project file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"

	"github.com/dhamidi/phpreflect/php/broker"
	"github.com/dhamidi/phpreflect/php/builtin"
)

// FileName is the configuration file looked up in a project root.
const FileName = ".phpreflect.toml"

type Config struct {
	Extensions   []string `toml:"extensions"`
	Exclude      []string `toml:"exclude"`
	RetainTokens bool     `toml:"retain_tokens"`
	Stubs        []string `toml:"stubs"`
	Watch        Watch    `toml:"watch"`
	Log          Log      `toml:"log"`

	// dir is the directory relative stub paths resolve against.
	dir string
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

func Default() *Config {
	return &Config{
		Extensions: append([]string(nil), broker.DefaultExtensions...),
		Watch:      Watch{Debounce: 100 * time.Millisecond},
		dir:        ".",
	}
}

// Load reads the configuration at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.dir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if len(cfg.Extensions) == 0 {
		cfg.Extensions = append([]string(nil), broker.DefaultExtensions...)
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 100 * time.Millisecond
	}
	if _, err := cfg.ExcludeGlobs(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDir loads FileName from dir.
func LoadDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, FileName))
}

// ExcludeGlobs compiles the exclude patterns. '/' separates path segments,
// so "*" does not cross directories while "**" does.
func (c *Config) ExcludeGlobs() ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(c.Exclude))
	for _, pattern := range c.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Catalog loads the embedded builtin catalog extended by the configured
// stub files.
func (c *Config) Catalog() (*builtin.Catalog, error) {
	paths := make([]string, len(c.Stubs))
	for i, stub := range c.Stubs {
		if filepath.IsAbs(stub) {
			paths[i] = stub
		} else {
			paths[i] = filepath.Join(c.dir, stub)
		}
	}
	return builtin.Load(paths...)
}

// BrokerOptions translates the configuration into broker options.
func (c *Config) BrokerOptions() ([]broker.Option, error) {
	globs, err := c.ExcludeGlobs()
	if err != nil {
		return nil, err
	}
	opts := []broker.Option{
		broker.WithExtensions(c.Extensions...),
		broker.WithExclude(globs...),
		broker.WithRetainTokens(c.RetainTokens),
	}
	if len(c.Stubs) > 0 {
		catalog, err := c.Catalog()
		if err != nil {
			return nil, err
		}
		opts = append(opts, broker.WithCatalog(catalog))
	}
	return opts, nil
}
