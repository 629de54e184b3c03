package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"bread-calculator/internal/config"
	"bread-calculator/internal/metrics"
	"bread-calculator/internal/server"
	"bread-calculator/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startService(t *testing.T) string {
	t.Helper()
	st, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Config{TokenTTL: time.Minute, ShutdownTimeout: time.Second}
	ts := httptest.NewServer(server.New(cfg, st, []byte("cli-test-secret"), zap.NewNop(), metrics.New()).Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args,
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		"--log-level", "error",
	))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["smoke"])
	assert.True(t, names["authcheck"])

	for _, flag := range []string{"listen-addr", "database-dsn", "jwt-secret", "token-ttl", "shutdown-timeout"} {
		assert.NotNil(t, serveCmd.Flags().Lookup(flag), flag)
	}
	for _, flag := range []string{"base-url", "wait-timeout", "request-timeout", "username", "email", "password", "unique"} {
		assert.NotNil(t, smokeCmd.Flags().Lookup(flag), flag)
		assert.NotNil(t, authcheckCmd.Flags().Lookup(flag), flag)
	}
}

func TestSmokeCommand(t *testing.T) {
	url := startService(t)

	out, err := execute(t, "smoke", "--base-url", url, "--unique", "--wait-timeout", "5s")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Testing API at "+url)
	assert.Contains(t, out, "ALL TESTS PASSED!")
}

func TestAuthcheckCommand(t *testing.T) {
	url := startService(t)

	out, err := execute(t, "authcheck", "--base-url", url, "--unique")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Protected endpoint access successful")
}

func TestSmokeCommandFailsOnBrokenServer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	out, err := execute(t, "smoke", "--base-url", ts.URL, "--wait-timeout", "0s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected 201, got 500")
	assert.NotContains(t, out, "ALL TESTS PASSED!")
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	t.Cleanup(func() { _ = serveCmd.Flags().Set("token-ttl", "30m") })

	_, err := execute(t, "serve", "--token-ttl", "0s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.KeyTokenTTL)
}
