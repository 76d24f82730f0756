// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spark-it/sparksol/internal/chain"
	"github.com/spark-it/sparksol/internal/vault"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "devnet", cfg.Cluster)
	assert.Equal(t, chain.DefaultMainnetEndpoints, cfg.MainnetRPCList)
	assert.Equal(t, chain.DefaultDevnetEndpoints, cfg.DevnetRPCList)
	assert.Equal(t, DefaultAttemptTimeout, cfg.AttemptTimeout)
	assert.Equal(t, DefaultConfirmationTimeout, cfg.ConfirmationTimeout)
	assert.True(t, cfg.ValidateDecimals)
	assert.Equal(t, DefaultLogFile, cfg.LogFile)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `{
		"cluster": "mainnet",
		"mainnet_rpc_list": ["https://rpc.example.com"],
		"attempt_timeout_ms": 5000,
		"validate_decimals": false
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "mainnet", cfg.Cluster)
	assert.Equal(t, []string{"https://rpc.example.com"}, cfg.MainnetRPCList)
	assert.Equal(t, 5000, cfg.AttemptTimeout)
	assert.False(t, cfg.ValidateDecimals)
}

func TestLoadConfigRejectsBadCluster(t *testing.T) {
	path := writeConfig(t, `{"cluster": "testnet"}`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, chain.ErrUnknownCluster)
}

func TestLoadConfigRejectsBadURL(t *testing.T) {
	path := writeConfig(t, `{"devnet_rpc_list": ["ftp://bad.example.com"]}`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "invalid RPC URL")
}

func TestLoadConfigRejectsNegativeTimeout(t *testing.T) {
	path := writeConfig(t, `{"attempt_timeout_ms": -1}`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "attempt_timeout_ms")
}

func TestLoadConfigZeroAttemptTimeoutDisablesBound(t *testing.T) {
	path := writeConfig(t, `{"attempt_timeout_ms": 0}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.AttemptTimeout)
}

func TestVaultProgramConfigurable(t *testing.T) {
	path := writeConfig(t, `{}`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	program, err := cfg.VaultProgram()
	require.NoError(t, err)
	assert.Equal(t, vault.DefaultProgramID, program.ID)

	custom := "So11111111111111111111111111111111111111112"
	path = writeConfig(t, `{"vault_program_id": "`+custom+`"}`)
	cfg, err = LoadConfig(path)
	require.NoError(t, err)

	program, err = cfg.VaultProgram()
	require.NoError(t, err)
	assert.Equal(t, custom, program.ID.String())
}

func TestLoadConfigRejectsBadVaultProgramID(t *testing.T) {
	path := writeConfig(t, `{"vault_program_id": "not-base58!!"}`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "vault_program_id")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SPARKSOL_CLUSTER", "mainnet")
	t.Setenv("SPARKSOL_RPC_LIST", "https://a.example.com, https://b.example.com")

	path := writeConfig(t, `{}`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "mainnet", cfg.Cluster)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.MainnetRPCList)
}

func TestRegistry(t *testing.T) {
	path := writeConfig(t, `{}`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	registry, err := cfg.Registry()
	require.NoError(t, err)

	endpoints, err := registry.Endpoints(chain.ClusterDevnet)
	require.NoError(t, err)
	assert.Equal(t, chain.DefaultDevnetEndpoints, endpoints)
}
