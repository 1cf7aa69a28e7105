package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	name := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(name, []byte(body), 0o600))

	return name
}

func TestReadConfigDefaultsAndFile(t *testing.T) {
	name := writeConfig(t, `
dev_mode: true
database:
  driver: sqlite
  path: test.db
catalog:
  api_key: from-file
`)

	c, err := ReadConfig(name)
	require.NoError(t, err)

	assert.Equal(t, 3000, c.Server.Port)
	assert.Equal(t, DriverSQLite, c.Database.Driver)
	assert.Equal(t, "test.db", c.Database.DSN())
	assert.Equal(t, devJWTSecret, c.Auth.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, c.Auth.TokenTTL)
	assert.Equal(t, "from-file", c.Catalog.APIKey)
	assert.Equal(t, 20, c.Catalog.PageSize)
}

func TestReadConfigEnvironmentOverrides(t *testing.T) {
	name := writeConfig(t, "database:\n  driver: sqlite\n")

	t.Setenv("JWT_SECRET", "legacy-secret")
	t.Setenv("GAMELIB_SERVER_PORT", "8088")
	t.Setenv("CLIENT_URL", "http://a.example,http://b.example")
	t.Setenv("GAMELIB_AUTH_TOKEN_TTL", "1h")

	c, err := ReadConfig(name)
	require.NoError(t, err)

	assert.Equal(t, "legacy-secret", c.Auth.JWTSecret)
	assert.Equal(t, 8088, c.Server.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, c.Server.AllowedOrigins)
	assert.Equal(t, time.Hour, c.Auth.TokenTTL)
}

func TestReadConfigValidation(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"secret required outside dev", "database:\n  driver: sqlite\n", ErrJWTSecretMissing},
		{"unknown driver", "dev_mode: true\ndatabase:\n  driver: oracle\n", ErrUnsupportedDriver},
		{"zero port", "dev_mode: true\nserver:\n  port: 0\n", ErrPortCanNotBeZero},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			t.Setenv("PORT", "")

			_, err := ReadConfig(writeConfig(t, tc.body))
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := Database{
		Driver:   DriverPostgres,
		Host:     "db",
		Port:     5432,
		User:     "game",
		Password: "secret",
		Name:     "library",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://game:secret@db:5432/library?sslmode=disable", d.DSN())

	d.Driver = DriverMySQL
	d.Port = 3306
	assert.Equal(t, "game:secret@tcp(db:3306)/library?charset=utf8mb4&parseTime=True&loc=Local", d.DSN())
}
