package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coreflow/coreflow/channel"
	"github.com/stretchr/testify/require"
)

func TestLoadOverlaysYAMLOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coreflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pub_sub:
  channel_size: 64
  channel_base: bounded
checkpoint:
  interval_ms: 5000
  backend: relational
  endpoint: "file:/tmp/coreflow.db"
cluster:
  mode: standalone
`), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 64, p.PubSub.ChannelSize)
	require.Equal(t, channel.Bounded, p.PubSub.Base())
	require.Equal(t, 5000, p.Checkpoint.IntervalMS)
	require.Equal(t, CheckpointRelational, p.Checkpoint.Backend)
	require.Equal(t, ClusterStandalone, p.Cluster.Mode)

	require.NoError(t, p.Validate())
}

func TestApplyEnvOverridesLoadedProperties(t *testing.T) {
	p := Default()
	t.Setenv("COREFLOW_CLUSTER_MODE", "yarn")
	t.Setenv("COREFLOW_PUB_SUB_CHANNEL_SIZE", "2048")

	require.NoError(t, p.ApplyEnv())
	require.Equal(t, ClusterMode("yarn"), p.Cluster.Mode)
	require.Equal(t, 2048, p.PubSub.ChannelSize)
}

func TestValidateRejectsRelationalBackendWithoutEndpoint(t *testing.T) {
	p := Default()
	p.Checkpoint.Backend = CheckpointRelational
	require.Error(t, p.Validate())
}

func TestValidateRejectsUnknownClusterMode(t *testing.T) {
	p := Default()
	p.Cluster.Mode = "openstack"
	require.Error(t, p.Validate())
}
