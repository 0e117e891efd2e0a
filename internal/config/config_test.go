package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T) *Config {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load("")
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := load(t)

	assert.Equal(t, "ecci.edu.co", cfg.App.EmailDomain)
	assert.Equal(t, 20, cfg.App.DiscoverLimit)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "local", cfg.Relay.Broker)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EMAIL_DOMAIN", "@uni.example")
	t.Setenv("DISCOVER_LIMIT", "5")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("LOG_SOURCE", "yes")

	cfg := load(t)

	assert.Equal(t, "uni.example", cfg.App.EmailDomain)
	assert.Equal(t, 5, cfg.App.DiscoverLimit)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins)
	assert.True(t, cfg.Log.Source)
}

func TestLoad_BadNumbersKeepDefaults(t *testing.T) {
	t.Setenv("DISCOVER_LIMIT", "many")
	t.Setenv("TOKEN_TTL", "forever")

	cfg := load(t)

	assert.Equal(t, 20, cfg.App.DiscoverLimit)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
db:
  driver: sqlite
  dsn: file:dev.db
relay:
  broker: redis
s3:
  presign_ttl: 5m
http:
  port: "8080"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "file:dev.db", cfg.DB.DSN)
	assert.Equal(t, "redis", cfg.Relay.Broker)
	assert.Equal(t, 5*time.Minute, cfg.S3.PresignTTL)
	assert.Equal(t, "9090", cfg.HTTP.Port, "env wins over file")
	assert.Equal(t, "ecci.edu.co", cfg.App.EmailDomain, "untouched keys keep defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_JWTSecretRequiredOutsideDevelopment(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("APP_ENV", "production")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", DevJWTSecret)
	_, err = Load("")
	assert.Error(t, err, "the development secret is not accepted")

	t.Setenv("JWT_SECRET", "s3cr3t-from-vault")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t-from-vault", cfg.Auth.JWTSecret)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  jwt_secret: \"\"\n"), 0o600))
	t.Setenv("JWT_SECRET", "")
	_, err = Load(path)
	assert.Error(t, err, "an empty secret from the file is rejected")
}

func TestLoad_DevelopmentKeepsDevSecret(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg := load(t)
	assert.Equal(t, DevJWTSecret, cfg.Auth.JWTSecret)
}

func TestMySQLDSN(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "root:root@tcp(localhost:3306)/campus_match?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())

	cfg.DB.DSN = "custom"
	assert.Equal(t, "custom", cfg.MySQLDSN())
}
