package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9000
database:
  driver: postgres
  host: db
  user: critic
  password: p@ss
  name: photos
ai:
  defaultModel: openai
  openai:
    apiKey: from-file
auth:
  jwtSecret: s3cret
minio:
  enabled: true
  endpoint: minio:9000
  accessKey: a
  secretKey: b
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadFileAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "openai", cfg.AI.DefaultModel)
	assert.Equal(t, 7, cfg.Auth.JWTExpireDays)
	assert.Equal(t, "photos", cfg.Minio.BucketName)
	assert.Equal(t, "postgres://critic:p%40ss@db:5432/photos?sslmode=disable", cfg.DSN())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("JWT_EXPIRE_DAYS", "3")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DEFAULT_AI_MODEL", "claude")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.AI.OpenAI.APIKey)
	assert.Equal(t, 3, cfg.Auth.JWTExpireDays)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "claude", cfg.AI.DefaultModel)
}

func TestLoadBadEnvNumber(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	_, err := Load(writeConfig(t, sampleYAML))
	require.Error(t, err)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DATABASE_DRIVER", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
}

func TestValidateJoinsProblems(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DEFAULT_AI_MODEL", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.Database.Driver = "sqlite"
	cfg.AI.DefaultModel = "gemini"

	err = cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "database.driver")
	assert.Contains(t, msg, "ai.defaultModel")
	assert.Contains(t, msg, "jwtSecret")
}

func TestMySQLDSN(t *testing.T) {
	var cfg Config
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Host = "h"
	cfg.Database.Port = 3306
	cfg.Database.Name = "n"
	assert.Equal(t, "u:p@tcp(h:3306)/n?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}
