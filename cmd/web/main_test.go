package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/httpserver"
	"finitefield.org/storefront-web/internal/platform/config"
	"finitefield.org/storefront-web/internal/testutil"
)

func loadTestConfig(t *testing.T, values map[string]string) config.Config {
	t.Helper()
	cfg, err := config.Load(context.Background(),
		config.WithEnvFile(""),
		config.WithoutSystemEnv(),
		config.WithEnvMap(values),
	)
	require.NoError(t, err)
	return cfg
}

func TestNewAppRejectsMissingFixture(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{"STOREFRONT_FIXTURE_FILE": filepath.Join(t.TempDir(), "missing.yaml")})
	_, err := newApp(cfg, zap.NewNop())
	require.Error(t, err)
}

func TestAppServesHomeAndAssets(t *testing.T) {
	publicDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(publicDir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "assets", "site.css"), []byte("body{}"), 0o644))

	cfg := loadTestConfig(t, map[string]string{"STOREFRONT_WEB_PUBLIC_DIR": publicDir})
	app, err := newApp(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(app.Close)

	srv := httptest.NewServer(httpserver.NewRouter(httpserver.Config{PublicDir: cfg.Server.PublicDir}, app.deps))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/assets/site.css")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "body{}", string(body))

	resp, err = http.Get(srv.URL + "/en-ca")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "en-ca", doc.Find("html").AttrOr("lang", ""))
	require.Equal(t, 3, doc.Find(".carousel__slide").Length())
	require.Equal(t, 1, app.registry.Len())
}
