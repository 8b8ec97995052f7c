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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listenAddress: ":9090"
cluster:
  name: prod-cluster
  region: eu-central-1
  buildTimeout: 30s
  requestTimeout: 10s
audit:
  brokers:
    - kafka-0:9092
  topic: gateway-audit
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9090", cfg.Server.ListenAddress)
	assert.Equal(t, "prod-cluster", cfg.Cluster.Name)
	assert.Equal(t, "eu-central-1", cfg.Cluster.Region)
	assert.Equal(t, []string{"kafka-0:9092"}, cfg.Audit.Brokers)
	assert.Equal(t, "gateway-audit", cfg.Audit.Topic)

	build, err := cfg.ClusterBuildTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, build)
	request, err := cfg.ClusterRequestTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, request)
}

func TestLoad_MissingFileIsFineWithEnvIdentity(t *testing.T) {
	t.Setenv("EKS_CLUSTER_NAME", "env-cluster")
	t.Setenv("EKS_REGION", "us-west-2")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "env-cluster", cfg.Cluster.Name)
	assert.Equal(t, "us-west-2", cfg.Cluster.Region)
	assert.Equal(t, ":8080", cfg.Server.ListenAddress)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
cluster:
  name: file-cluster
  region: eu-central-1
`)
	t.Setenv("EKS_CLUSTER_NAME", "env-cluster")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-cluster", cfg.Cluster.Name)
	assert.Equal(t, "eu-central-1", cfg.Cluster.Region)
}

func TestLoad_EnvConfigPathOverride(t *testing.T) {
	path := writeConfigFile(t, `
cluster:
  name: pointed-at
  region: eu-west-1
`)
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pointed-at", cfg.Cluster.Name)
}

func TestLoad_UnparseableYAML(t *testing.T) {
	path := writeConfigFile(t, "cluster: [not: a: mapping")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_RequiresClusterIdentity(t *testing.T) {
	cfg := Config{}
	cfg.Defaults()
	require.Error(t, cfg.Validate())

	cfg.Cluster.Name = "prod-cluster"
	require.Error(t, cfg.Validate())

	cfg.Cluster.Region = "eu-central-1"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBadDurations(t *testing.T) {
	cfg := Config{Cluster: Cluster{Name: "c", Region: "r", BuildTimeout: "soon"}}
	assert.Error(t, cfg.Validate())

	cfg = Config{Cluster: Cluster{Name: "c", Region: "r", RequestTimeout: "-5s"}}
	assert.Error(t, cfg.Validate())
}
