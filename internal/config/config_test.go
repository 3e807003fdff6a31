package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GIN_MODE", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 10*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, int64(52428800), cfg.File.MaxUploadSize)
	assert.Equal(t, 60*time.Second, cfg.File.UploadTimeout)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Len(t, cfg.Session.Secret, 64)
	assert.Len(t, cfg.JWT.Secret, 64)
	assert.Nil(t, cfg.Server.TrustedProxies)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := `
server:
  port: 9000
  mode: debug
  trusted_proxies: [10.0.0.0/8]
database:
  driver: mysql
  host: db.internal
  user: wedding
  password: secret
  dbname: invite
  query_timeout: 5s
file:
  max_dimension: 1280
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_HOST", "db.override")
	t.Setenv("MAX_UPLOAD_SIZE", "1024")
	t.Setenv("TRUSTED_PROXIES", "127.0.0.1,::1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"127.0.0.1", "::1"}, cfg.Server.TrustedProxies)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 1280, cfg.File.MaxDimension)
	assert.Equal(t, int64(1024), cfg.File.MaxUploadSize)
	assert.Equal(t, "wedding:secret@tcp(db.override:3306)/invite?charset=utf8mb4&parseTime=True&loc=Local", cfg.GetDSN())
}

func TestLoad_ReleaseRequiresSecrets(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GIN_MODE", "release")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SESSION_SECRET", "s3ssion")
	t.Setenv("JWT_SECRET", "jwt")
	_, err = Load()
	assert.NoError(t, err)
}

func TestGetDSN_PrefersURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{URL: "u:p@tcp(h:1)/d"}}
	assert.Equal(t, "u:p@tcp(h:1)/d", cfg.GetDSN())
}

func TestIsAllowedExtension(t *testing.T) {
	cfg := &Config{File: FileConfig{AllowedExtensions: []string{"jpg", "png"}}}
	assert.True(t, cfg.IsAllowedExtension(".JPG"))
	assert.True(t, cfg.IsAllowedExtension("png"))
	assert.False(t, cfg.IsAllowedExtension(".heic"))
}
