package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-dholariya/backend/config"
	"github.com/deep-dholariya/backend/store/memstore"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["create-admin"])
}

func TestCreateAdminOnMemoryStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "cli-secret")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{
		"create-admin",
		"--env-file", t.TempDir() + "/missing.env",
		"--name", "Root",
		"--email", "root@example.com",
		"--mobile", "+91-0",
		"--password", "root-secret",
	})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "created admin root@example.com")
}

func TestCreateAdminNeedsEmail(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"create-admin", "--name", "Root"})
	assert.Error(t, root.Execute())
}

func TestCORSAllowsConfiguredOriginWithCredentials(t *testing.T) {
	s := memstore.New()
	require.NoError(t, s.Init(context.Background()))
	cfg := config.Config{
		JWTSecret:      "secret",
		SessionTTL:     time.Hour,
		AllowedOrigins: []string{"http://localhost:5173"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := newHandler(cfg, buildEnv(cfg, s, nil, logger))

	req := httptest.NewRequest(http.MethodOptions, "/api/properties", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/properties", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
