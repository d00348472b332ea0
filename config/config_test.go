package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/phpreflect/php/broker"
)

func TestLoad(t *testing.T) {
	content := `
extensions = ["php", "inc"]
exclude = ["vendor", "**/cache", "*Test.php"]
retain_tokens = true
stubs = ["stubs/ext.toml"]

[watch]
debounce = "1s"

[log]
verbosity = 2
file = "phpreflect.log"
`
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"php", "inc"}, cfg.Extensions)
	assert.True(t, cfg.RetainTokens)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 2, cfg.Log.Verbosity)
	assert.Equal(t, "phpreflect.log", cfg.Log.File)

	globs, err := cfg.ExcludeGlobs()
	require.NoError(t, err)
	require.Len(t, globs, 3)
	assert.True(t, globs[0].Match("vendor"))
	assert.True(t, globs[1].Match("a/b/cache"))
	assert.True(t, globs[2].Match("UserTest.php"))
	assert.False(t, globs[2].Match("src/UserTest.php"))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, broker.DefaultExtensions, cfg.Extensions)
	assert.Empty(t, cfg.Exclude)
	assert.False(t, cfg.RetainTokens)
	assert.Equal(t, 100*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("extensions = [\n"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	pattern := filepath.Join(dir, "pattern.toml")
	require.NoError(t, os.WriteFile(pattern, []byte(`exclude = ["[unclosed"]`), 0o644))
	_, err = Load(pattern)
	assert.ErrorContains(t, err, "exclude pattern")
}

func TestBrokerOptionsWithStubs(t *testing.T) {
	dir := t.TempDir()
	stubs := `
[[class]]
name = "Ext\\Widget"
kind = "interface"
`
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stubs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stubs", "ext.toml"), []byte(stubs), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`stubs = ["stubs/ext.toml"]`), 0o644))

	cfg, err := LoadDir(dir)
	require.NoError(t, err)
	opts, err := cfg.BrokerOptions()
	require.NoError(t, err)

	b := broker.New(opts...)
	assert.True(t, b.HasClass(`Ext\Widget`))
	assert.True(t, b.HasClass("Exception"))

	cfg.Stubs = []string{"stubs/missing.toml"}
	_, err = cfg.BrokerOptions()
	assert.Error(t, err)
}
