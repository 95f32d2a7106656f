package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	c := New()
	assert.Equal(t, filepath.Join("..", "docs"), c.Output)
	assert.Equal(t, "pydocmd.yml", c.ConfigName)
	assert.Equal(t, []string{"."}, c.SearchPath)
	assert.Equal(t, 1, c.Indent)
	assert.Equal(t, 256, c.CacheSize)
	assert.Equal(t, runtime.GOMAXPROCS(0), c.Jobs)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.Load([]byte(`module: shop
output: build/docs
exclude:
  - tests/
indent: 0
`)))

	assert.Equal(t, "shop", c.Module)
	assert.Equal(t, "build/docs", c.Output)
	assert.Equal(t, []string{"tests/"}, c.Exclude)
	assert.Equal(t, 0, c.Indent, "explicit zero overrides the default")
	assert.Equal(t, "pydocmd.yml", c.ConfigName, "unset keys keep defaults")
	assert.Equal(t, []string{"."}, c.SearchPath)
}

func TestLoadEmpty(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.Load(nil))
	assert.Equal(t, New(), c)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	err := New().Load([]byte("modul: typo\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modul")
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "markdocs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("module: pkg\nsearch_path: [src, lib]\n"), 0o644))

	c := New()
	require.NoError(t, c.LoadFile(path))
	assert.Equal(t, "pkg", c.Module)
	assert.Equal(t, []string{"src", "lib"}, c.SearchPath)

	assert.Error(t, New().LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestFind(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	got, err := Find(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = Find(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"missing module", func(c *Config) { c.Module = "" }, false},
		{"empty segment", func(c *Config) { c.Module = "pkg..sub" }, false},
		{"trailing dot", func(c *Config) { c.Module = "pkg." }, false},
		{"missing output", func(c *Config) { c.Output = "" }, false},
		{"config name with dir", func(c *Config) { c.ConfigName = "sub/pydocmd.yml" }, false},
		{"negative indent", func(c *Config) { c.Indent = -1 }, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := New()
			c.Module = "pkg.sub"
			tt.mutate(c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestValidateDefaultsJobs(t *testing.T) {
	t.Parallel()

	c := New()
	c.Module = "pkg"
	c.Jobs = 0
	require.NoError(t, c.Validate())
	assert.Equal(t, runtime.GOMAXPROCS(0), c.Jobs)
}

func TestMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	c := New()
	c.Module = "pkg"
	c.Exclude = []string{"tests/"}
	data, err := c.Marshal()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Equal(t, "pkg", raw["module"])
	assert.Equal(t, "pydocmd.yml", raw["config_name"])

	loaded := New()
	require.NoError(t, loaded.Load(data))
	assert.Equal(t, c, loaded)
}
