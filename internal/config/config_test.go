package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvMerchantID, EnvAuthToken, EnvTestMode, EnvBaseURL, EnvHTTPTimeout, EnvServerPort, EnvTraceStdout, EnvSchemaPath} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.True(t, cfg.Nexio.Test)
	assert.Equal(t, 30*time.Second, cfg.Nexio.HTTPTimeout)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.False(t, cfg.Server.TraceStdout)
	assert.Empty(t, cfg.Nexio.BaseURL)
	assert.Empty(t, cfg.Server.SchemaPath)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MerchantID")
	assert.Contains(t, err.Error(), "AuthToken")
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMerchantID, "m_100")
	t.Setenv(EnvAuthToken, "secret")
	t.Setenv(EnvTestMode, "false")
	t.Setenv(EnvBaseURL, "https://proxy.internal/")
	t.Setenv(EnvHTTPTimeout, "5s")
	t.Setenv(EnvServerPort, "9090")
	t.Setenv(EnvTraceStdout, "1")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	creds := cfg.Nexio.Credentials()
	assert.Equal(t, "m_100", creds.MerchantID)
	assert.Equal(t, "secret", creds.AuthToken)
	assert.False(t, creds.Test)
	assert.Equal(t, 5*time.Second, cfg.Nexio.HTTPTimeout)
	assert.Len(t, cfg.Nexio.GatewayOptions(), 2)
	assert.Equal(t, ":9090", cfg.Server.Addr())
	assert.True(t, cfg.Server.TraceStdout)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAuthToken, "from-env")
	os.Unsetenv(EnvMerchantID)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NEXIO_MERCHANT_ID=m_file\nNEXIO_AUTH_TOKEN=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv(EnvMerchantID) })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "m_file", cfg.Nexio.MerchantID)
	assert.Equal(t, "from-env", cfg.Nexio.AuthToken)
	assert.Len(t, cfg.Nexio.GatewayOptions(), 1)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad test mode", EnvTestMode, "maybe"},
		{"bad trace flag", EnvTraceStdout, "yes please"},
		{"bad timeout", EnvHTTPTimeout, "thirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate_RejectsBadFields(t *testing.T) {
	cfg := &Config{
		Nexio:  NexioConfig{MerchantID: "m", AuthToken: "a", BaseURL: "not a url", HTTPTimeout: 0},
		Server: ServerConfig{Port: "http"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BaseURL")
	assert.Contains(t, err.Error(), "HTTPTimeout")
	assert.Contains(t, err.Error(), "Port")
}

func TestValidate_SchemaPath(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMerchantID, "m_100")
	t.Setenv(EnvAuthToken, "secret")

	schema := filepath.Join(t.TempDir(), "request.json")
	require.NoError(t, os.WriteFile(schema, []byte(`{"type": "object"}`), 0o600))
	t.Setenv(EnvSchemaPath, schema)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, schema, cfg.Server.SchemaPath)
	require.NoError(t, cfg.Validate())

	cfg.Server.SchemaPath = filepath.Join(t.TempDir(), "nope.json")
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SchemaPath")
}
