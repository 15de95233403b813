package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	if content == "" {
		return filepath.Join(tmpDir, "nonexistent.yaml")
	}
	configFile := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0600))
	return configFile
}

func TestLoadIndexerConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *IndexerConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
database:
  host: localhost
  port: 5432
  user: testuser
  password: testpass
  dbname: registry
  sslmode: require
da:
  rpc_endpoint: "http://localhost:26658"
  auth_token: "secret-token"
  namespace: "4e46545a6f6e65303031"
  http_timeout: "20s"
replay:
  start_height: 1200
  poll_interval: "5s"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *IndexerConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "registry", cfg.Database.DBName)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, "secret-token", cfg.DA.AuthToken)
				assert.Equal(t, "4e46545a6f6e65303031", cfg.DA.Namespace)
				assert.Equal(t, 20*time.Second, cfg.DA.HTTPTimeout)
				assert.Equal(t, uint64(1200), cfg.Replay.StartHeight)
				assert.Equal(t, 5*time.Second, cfg.Replay.PollInterval)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: registry
da:
  namespace: "4e46545a6f6e65303031"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *IndexerConfig) {
				// Check defaults
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, "http://localhost:26658", cfg.DA.RPCEndpoint)
				assert.Equal(t, 30*time.Second, cfg.DA.HTTPTimeout)
				assert.Equal(t, uint64(1), cfg.Replay.StartHeight)
				assert.Equal(t, 3*time.Second, cfg.Replay.PollInterval)
			},
		},
		{
			name: "missing namespace",
			configFile: `
database:
  host: localhost
  dbname: registry
`,
			expectError: true,
		},
		{
			name: "missing database host",
			configFile: `
da:
  namespace: "4e46545a6f6e65303031"
`,
			expectError: true,
		},
		{
			name: "invalid yaml",
			configFile: `
database:
  port: not-a-number
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadIndexerConfig(writeConfigFile(t, tt.configFile), "")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				if tt.validate != nil {
					tt.validate(t, cfg)
				}
			}
		})
	}
}

func TestLoadIndexerConfigFromEnv(t *testing.T) {
	t.Setenv("NFT_INDEXER_DATABASE_HOST", "db.internal")
	t.Setenv("NFT_INDEXER_DATABASE_DBNAME", "registry")
	t.Setenv("NFT_INDEXER_DA_NAMESPACE", "4e46545a6f6e65303031")
	t.Setenv("NFT_INDEXER_REPLAY_START_HEIGHT", "900")

	cfg, err := LoadIndexerConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, uint64(900), cfg.Replay.StartHeight)
}

func TestLoadImportConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *ImportConfig)
	}{
		{
			name: "valid config file",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: registry
events_dir: "deployments/events"
namespace: "4e46545a6f6e65303031"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *ImportConfig) {
				assert.Equal(t, "deployments/events", cfg.EventsDir)
				assert.Equal(t, "4e46545a6f6e65303031", cfg.Namespace)
			},
		},
		{
			name: "default events dir",
			configFile: `
database:
  host: localhost
  dbname: registry
`,
			expectError: false,
			validate: func(t *testing.T, cfg *ImportConfig) {
				assert.Equal(t, "events", cfg.EventsDir)
			},
		},
		{
			name:        "missing database",
			configFile:  `events_dir: "events"`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadImportConfig(writeConfigFile(t, tt.configFile), "")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				if tt.validate != nil {
					tt.validate(t, cfg)
				}
			}
		})
	}
}

func TestLoadAPIConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *APIConfig)
	}{
		{
			name: "valid config file",
			configFile: `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 15
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: registry
da:
  namespace: "4e46545a6f6e65303031"
  auth_token: "token"
keyring:
  binary: "celestia-appd"
  backend: "os"
  default_key: "operator"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 15, cfg.Server.ReadTimeout)
				assert.Equal(t, "os", cfg.Keyring.Backend)
				assert.Equal(t, "operator", cfg.Keyring.DefaultKey)
			},
		},
		{
			name: "server defaults",
			configFile: `
database:
  host: localhost
  dbname: registry
`,
			expectError: false,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 10, cfg.Server.ReadTimeout)
				assert.Equal(t, 120, cfg.Server.IdleTimeout)
				assert.Equal(t, "celestia-appd", cfg.Keyring.Binary)
				assert.Equal(t, "test", cfg.Keyring.Backend)
			},
		},
		{
			name:        "missing database",
			configFile:  `debug: true`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadAPIConfig(writeConfigFile(t, tt.configFile), "")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				if tt.validate != nil {
					tt.validate(t, cfg)
				}
			}
		})
	}
}

func TestLoadSubmitConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg, err := LoadSubmitConfig(writeConfigFile(t, `
da:
  rpc_endpoint: "http://node:26658"
  namespace: "4e46545a6f6e65303031"
keyring:
  default_key: "operator"
`), "")
		require.NoError(t, err)
		assert.Equal(t, "http://node:26658", cfg.DA.RPCEndpoint)
		assert.Equal(t, "operator", cfg.Keyring.DefaultKey)
	})

	t.Run("missing namespace", func(t *testing.T) {
		cfg, err := LoadSubmitConfig(writeConfigFile(t, `debug: true`), "")
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "user",
		Password: "pass",
		DBName:   "registry",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=localhost port=5432 user=user password=pass dbname=registry sslmode=disable", cfg.DSN())

	cfg.ReadHost = "replica"
	assert.Equal(t, "host=replica port=5432 user=user password=pass dbname=registry sslmode=disable", cfg.ReadDSN())

	cfg.ReadPort = 5433
	assert.Equal(t, "host=replica port=5433 user=user password=pass dbname=registry sslmode=disable", cfg.ReadDSN())
}
