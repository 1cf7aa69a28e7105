package app

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamelibrary/internal/config"
	"gamelibrary/internal/model"
	"gamelibrary/internal/testutil"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.Server{
			Port:            3000,
			Mode:            "test",
			AllowedOrigins:  []string{"http://localhost:5173"},
			ShutdownTimeout: time.Second,
		},
		Database: config.Database{Driver: config.DriverSQLite},
		Auth: config.Auth{
			JWTSecret: testutil.Secret,
			TokenTTL:  time.Hour,
			AdminRole: model.RoleAdmin,
		},
		Catalog: config.Catalog{PageSize: 20, Timeout: time.Second},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := NewServer(testConfig(), testutil.SeededDB(t))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url) //nolint: noctx
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	code, body := get(t, ts.URL+healthPath)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"OK"}`, body)

	code, _ = get(t, ts.URL+"/api/games?search=portal")
	assert.Equal(t, http.StatusOK, code)

	code, body = get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `gamelib_http_requests_total{method="GET",path="/api/games",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestSwaggerDisabledByDefault(t *testing.T) {
	ts := newTestServer(t)

	code, _ := get(t, ts.URL+"/swagger/index.html")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCorsConfig(t *testing.T) {
	c := corsConfig([]string{"http://localhost:5173"})
	assert.False(t, c.AllowAllOrigins)
	assert.True(t, c.AllowCredentials)
	assert.Equal(t, []string{"http://localhost:5173"}, c.AllowOrigins)

	for _, origins := range [][]string{nil, {"*"}, {"http://a.example", "*"}} {
		c = corsConfig(origins)
		assert.True(t, c.AllowAllOrigins)
		assert.Empty(t, c.AllowOrigins)
		assert.False(t, c.AllowCredentials)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestClientCommands(t *testing.T) {
	ts := newTestServer(t)
	session := filepath.Join(t.TempDir(), "session.json")
	common := []string{"--server", ts.URL, "--session", session}
	client := func(args ...string) (string, error) {
		return runCLI(t, append(append([]string{"client"}, args...), common...)...)
	}

	_, err := client("library", "list")
	require.ErrorIs(t, err, errNotLoggedIn)

	out, err := client("register", "--name", "Ana", "--email", "ana@example.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "registered ana@example.com")

	out, err = client("library", "add", "--game-id", "42", "--title", "Portal")
	require.NoError(t, err)
	assert.Contains(t, out, "Portal")

	out, err = client("library", "status", "1", "playing")
	require.NoError(t, err)
	assert.Contains(t, out, "playing")

	out, err = client("library", "rate", "1", "9")
	require.Error(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[1]), "0"), out)

	out, err = client("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ana@example.com")

	out, err = client("library", "remove", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1)

	_, err = client("logout")
	require.NoError(t, err)

	_, err = client("whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
}
