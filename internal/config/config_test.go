package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 18790, cfg.Gateway.Port)
	assert.Equal(t, "loopback", cfg.Gateway.Bind)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 18790, cfg.Gateway.Port)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gateway:
  port: 9000
llm:
  provider: openai
  model: gpt-4o
crm:
  baseUrl: https://api.example-crm.com
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Gateway.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "https://api.example-crm.com", cfg.CRM.BaseURL)
	// defaults still applied for unset fields
	assert.Equal(t, "loopback", cfg.Gateway.Bind)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway: [not a map"), 0o600))

	_, err := Load(path)
	var cerr *ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestExpandSensitiveFields(t *testing.T) {
	t.Setenv("TEST_CRM_TOKEN", "secret-token")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
crm:
  token: ${TEST_CRM_TOKEN}
llm:
  apiKey: ${UNSET_VAR_XYZ}
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.CRM.Token)
	// unset vars are left as-is
	assert.Equal(t, "${UNSET_VAR_XYZ}", cfg.LLM.APIKey)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CALLSIGHT_GATEWAY_PORT", "7777")
	t.Setenv("CALLSIGHT_LOG_LEVEL", "DEBUG")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Gateway.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))

	cfg.Gateway.Port = 99999
	cfg.Gateway.Bind = "tailnet"
	cfg.LLM.Provider = "frontier"
	cfg.CRM.BaseURL = "not-a-url"
	cfg.Logging.Level = "loud"

	issues := Validate(&cfg)
	paths := make([]string, len(issues))
	for i, issue := range issues {
		paths[i] = issue.Path
	}
	assert.Contains(t, paths, "gateway.port")
	assert.Contains(t, paths, "gateway.bind")
	assert.Contains(t, paths, "llm.provider")
	assert.Contains(t, paths, "crm.baseUrl")
	assert.Contains(t, paths, "logging.level")
}

func TestValidateCustomBindRequiresHost(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Bind = "custom"

	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "gateway.customBindHost", issues[0].Path)
}

func TestResolvePathsHomeOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CALLSIGHT_HOME", dir)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, dir, paths.Base)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), paths.Config)

	require.NoError(t, paths.EnsureDirs())
	info, err := os.Stat(paths.Data)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
