package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/console-session/internal/config"
)

const minimalConfig = `
api:
  baseURL: https://backoffice.example.com
session:
  validityWindow: 48h
credentialStore:
  backend: file
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(minimalConfig), 0o600)
	require.NoError(t, err)

	var cfg config.Config
	err = commoncfg.LoadConfig(&cfg, nil, dir)
	require.NoError(t, err)

	assert.Equal(t, "https://backoffice.example.com", cfg.API.BaseURL)
	assert.Equal(t, "file", cfg.CredentialStore.Backend)

	// explicit value wins over the default
	assert.Equal(t, 48*time.Hour, cfg.Session.ValidityWindow)

	// defaults fill the rest
	assert.Equal(t, 15*time.Second, cfg.API.RequestTimeout)
	assert.Equal(t, "/api/auth/login", cfg.API.LoginPath)
	assert.Equal(t, "/api/auth/profile", cfg.API.ProfilePath)
	assert.Equal(t, "/api/auth/logout", cfg.API.LogoutPath)
	assert.Equal(t, 5*time.Minute, cfg.Session.RefreshSafety)
	assert.Equal(t, 2*time.Second, cfg.Session.BootstrapGrace)
	assert.Equal(t, "/admin/login", cfg.Session.LoginSurface)
	assert.Equal(t, "/admin", cfg.Session.DefaultLanding)
	assert.Equal(t, "console-session", cfg.CredentialStore.ValKey.Prefix)
}
