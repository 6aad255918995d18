package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"window_calculator/internal/config"
	"window_calculator/internal/logger"
)

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("NODE_ENV", "development")
	t.Setenv("BASE_URL", "")

	flagPort, flagEnv = "5000", "production"
	t.Cleanup(func() { flagPort, flagEnv = "", "" })

	cfg := loadConfig()
	assert.Equal(t, "5000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "http://localhost:5000", cfg.BaseURL)
}

func TestBuildApp_InMemoryFallback(t *testing.T) {
	cfg := config.FromEnv()
	cfg.PublicDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.PublicDir, "index.html"), []byte("ok"), 0o644))

	a, err := buildApp(context.Background(), cfg, logger.Nop(), nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestBuildApp_BadPricingFile(t *testing.T) {
	cfg := config.FromEnv()
	cfg.PricingFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := buildApp(context.Background(), cfg, logger.Nop(), nil)
	assert.Error(t, err)
}

func TestPrintRoutes(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printRoutes(&out, config.FromEnv()))

	assert.Contains(t, out.String(), "POST /api/calculations")
	assert.Contains(t, out.String(), "GET /api/preview/:token/qr.png")
}
