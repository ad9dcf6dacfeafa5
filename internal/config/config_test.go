package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ".", cfg.DocumentRoot)
	assert.Equal(t, 1, cfg.Workers)
	assert.Zero(t, cfg.ReadTimeout.Duration)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Nil(t, cfg.Log.Color)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "server.toml", `
port = 9090
document_root = "/srv/www"
workers = 4
read_timeout = "30s"

[log]
level = "debug"
color = false

[listing]
language = "de"
date_format = "02.01.2006 15:04"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/srv/www", cfg.DocumentRoot)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout.Duration)
	assert.Zero(t, cfg.WriteTimeout.Duration)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NotNil(t, cfg.Log.Color)
	assert.False(t, *cfg.Log.Color)
	assert.Equal(t, "de", cfg.Listing.Language)
	assert.Equal(t, "02.01.2006 15:04", cfg.Listing.DateFormat)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "server.yml", `
port: 8000
document_root: ./public
write_timeout: 1m
log:
  level: warn
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "./public", cfg.DocumentRoot)
	assert.Equal(t, time.Minute, cfg.WriteTimeout.Duration)
	assert.Equal(t, "warn", cfg.Log.Level)

	// untouched keys keep their defaults
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "en", cfg.Listing.Language)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "server.ini", "port=1"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(writeFile(t, "bad.toml", `read_timeout = "soon"`))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "port: [1, 2"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	root := t.TempDir()

	cfg := Default()
	cfg.DocumentRoot = root
	require.NoError(t, cfg.Validate())
	assert.Equal(t, root, cfg.DocumentRoot)
}

func TestValidateMakesRootAbsolute(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, filepath.IsAbs(cfg.DocumentRoot))
}

func TestValidateErrors(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"negative port", func(c *Config) { c.Port = -1 }, ErrInvalidPort},
		{"port too large", func(c *Config) { c.Port = 70000 }, ErrInvalidPort},
		{"zero workers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
		{"empty root", func(c *Config) { c.DocumentRoot = "" }, ErrInvalidDocumentRoot},
		{"missing root", func(c *Config) { c.DocumentRoot = filepath.Join(root, "nope") }, ErrInvalidDocumentRoot},
		{"root is a file", func(c *Config) { c.DocumentRoot = file }, ErrInvalidDocumentRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.DocumentRoot = root
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidateRejectsBadLanguage(t *testing.T) {
	cfg := Default()
	cfg.DocumentRoot = t.TempDir()
	cfg.Listing.Language = "not a language!"
	assert.Error(t, cfg.Validate())
}

func TestListingLanguage(t *testing.T) {
	cfg := Default()
	cfg.Listing.Language = ""
	tag, err := cfg.ListingLanguage()
	require.NoError(t, err)
	assert.Equal(t, "en", tag.String())

	cfg.Listing.Language = "fr"
	tag, err = cfg.ListingLanguage()
	require.NoError(t, err)
	assert.Equal(t, "fr", tag.String())
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1500ms")))
	assert.Equal(t, 1500*time.Millisecond, d.Duration)

	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", string(out))

	require.NoError(t, d.UnmarshalText([]byte("")))
	assert.Zero(t, d.Duration)
}
