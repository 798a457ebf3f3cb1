package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
resultstore:
  host: localhost
  type: postgres
archive:
  type: local
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "./data", cfg.Mesh.DataDir)
	assert.Equal(t, 4, cfg.Mesh.NumRanks)
	assert.Equal(t, 16, cfg.Mesh.ElementsPerRank)
	assert.Equal(t, "local", cfg.Transport.Kind)
	assert.Equal(t, 30, cfg.Transport.ExchangeTimeoutSeconds)
}

func TestLoad_CustomValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
mesh:
  data_dir: "/tmp/data"
  num_ranks: 8
  elements_per_rank: 64
resultstore:
  type: postgres
  host: db.example.com
  port: 5432
  database: tnodes_runs
  user: admin
  password: secret
archive:
  type: local
  local_path: /tmp/archive
transport:
  exchange_timeout_seconds: 10
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/data", cfg.Mesh.DataDir)
	assert.Equal(t, 8, cfg.Mesh.NumRanks)
	assert.Equal(t, 64, cfg.Mesh.ElementsPerRank)
	assert.Equal(t, "db.example.com", cfg.ResultStore.Host)
	assert.Equal(t, 5432, cfg.ResultStore.Port)
	assert.Equal(t, "tnodes_runs", cfg.ResultStore.Database)
	assert.Equal(t, 10, cfg.Transport.ExchangeTimeoutSeconds)
}

func TestLoad_InvalidResultStoreType(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
resultstore:
  type: sqlite
  host: localhost
archive:
  type: local
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	_, err = Load(configFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported resultstore type")
}

// Note: Archive validation tests moved to pkg/archive package

func TestLoad_COSWithCredentials(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
resultstore:
  type: postgres
  host: localhost
archive:
  type: cos
  bucket: test-bucket
  region: ap-guangzhou
  secret_id: test-id
  secret_key: test-key
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, "cos", cfg.Archive.Type)
	assert.Equal(t, "test-bucket", cfg.Archive.Bucket)
}

func TestValidate_EmptyHost(t *testing.T) {
	cfg := &Config{
		ResultStore: ResultStoreConfig{
			Type: "postgres",
			Host: "",
		},
		Archive: ArchiveConfig{Type: "local"},
		Mesh:    MeshConfig{NumRanks: 1},
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "resultstore host is required")
}

func TestValidate_InvalidNumRanks(t *testing.T) {
	cfg := &Config{
		ResultStore: ResultStoreConfig{
			Type: "postgres",
			Host: "localhost",
		},
		Archive: ArchiveConfig{Type: "local"},
		Mesh:    MeshConfig{NumRanks: 0},
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "num_ranks must be at least 1")
}

func TestGetRunDir(t *testing.T) {
	cfg := &Config{
		Mesh: MeshConfig{DataDir: "/tmp/data"},
	}

	runDir := cfg.GetRunDir("run-uuid-123")
	assert.Equal(t, "/tmp/data/run-uuid-123", runDir)
}

func TestEnsureDataDir(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "mesh", "data")

	cfg := &Config{
		Mesh: MeshConfig{DataDir: dataDir},
	}

	err := cfg.EnsureDataDir()
	require.NoError(t, err)

	_, err = os.Stat(dataDir)
	assert.NoError(t, err)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadFromReader(t *testing.T) {
	content := []byte(`
resultstore:
  type: mysql
  host: mysql.local
archive:
  type: local
`)
	cfg, err := LoadFromReader("yaml", content)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.ResultStore.Type)
	assert.Equal(t, "mysql.local", cfg.ResultStore.Host)
}
