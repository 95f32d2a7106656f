// Package config loads markdocs settings from YAML and applies defaults.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/markdocs/internal/nav"
)

// ErrInvalid reports a configuration value that cannot be used.
var ErrInvalid = errors.Base("invalid configuration")

// FileNames are searched in the working directory when no path is given.
var FileNames = []string{"markdocs.yaml", "markdocs.yml"}

// Config is the complete run configuration.
type Config struct {
	Module     string   `yaml:"module"`
	Output     string   `yaml:"output"`
	ConfigName string   `yaml:"config_name"`
	SearchPath []string `yaml:"search_path"`
	Exclude    []string `yaml:"exclude"`
	Indent     int      `yaml:"indent"`
	CacheSize  int      `yaml:"cache_size"`
	Jobs       int      `yaml:"jobs,omitempty"`
}

// file mirrors Config with pointers so unset keys keep their defaults.
type file struct {
	Module     *string  `yaml:"module"`
	Output     *string  `yaml:"output"`
	ConfigName *string  `yaml:"config_name"`
	SearchPath []string `yaml:"search_path"`
	Exclude    []string `yaml:"exclude"`
	Indent     *int     `yaml:"indent"`
	CacheSize  *int     `yaml:"cache_size"`
	Jobs       *int     `yaml:"jobs"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Output:     filepath.Join("..", "docs"),
		ConfigName: nav.DefaultFileName,
		SearchPath: []string{"."},
		Indent:     1,
		CacheSize:  256,
		Jobs:       runtime.GOMAXPROCS(0),
	}
}

// Find returns the config file to load. An explicit path must exist; without
// one the working directory is searched and "" means no file was found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, name := range FileNames {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", nil
}

// LoadFile reads a YAML config file and merges it over the current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Errorf("reading config file: %w", err)
	}
	return c.Load(data)
}

// Load merges YAML data over the current values. Unknown keys are rejected.
func (c *Config) Load(data []byte) error {
	var loaded file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&loaded); err != nil && !errors.Is(err, io.EOF) {
		return errors.Errorf("parsing YAML config: %w", err)
	}
	c.merge(&loaded)
	return nil
}

func (c *Config) merge(loaded *file) {
	if loaded.Module != nil {
		c.Module = *loaded.Module
	}
	if loaded.Output != nil {
		c.Output = *loaded.Output
	}
	if loaded.ConfigName != nil {
		c.ConfigName = *loaded.ConfigName
	}
	if loaded.SearchPath != nil {
		c.SearchPath = loaded.SearchPath
	}
	if loaded.Exclude != nil {
		c.Exclude = loaded.Exclude
	}
	if loaded.Indent != nil {
		c.Indent = *loaded.Indent
	}
	if loaded.CacheSize != nil {
		c.CacheSize = *loaded.CacheSize
	}
	if loaded.Jobs != nil {
		c.Jobs = *loaded.Jobs
	}
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.Module == "" {
		return errors.Errorf("%w: module name is required", ErrInvalid)
	}
	for _, part := range strings.Split(c.Module, ".") {
		if part == "" {
			return errors.Errorf("%w: malformed module name %q", ErrInvalid, c.Module)
		}
	}
	if c.Output == "" {
		return errors.Errorf("%w: output directory is required", ErrInvalid)
	}
	if c.ConfigName == "" || strings.ContainsAny(c.ConfigName, `/\`) {
		return errors.Errorf("%w: config_name must be a plain file name, got %q", ErrInvalid, c.ConfigName)
	}
	if c.Indent < 0 {
		return errors.Errorf("%w: indent must not be negative", ErrInvalid)
	}
	if c.Jobs < 1 {
		c.Jobs = runtime.GOMAXPROCS(0)
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, errors.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}
