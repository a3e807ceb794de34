// Package config is the application properties surface (spec §6):
// pub/sub channel sizing, checkpoint cadence and backend, and cluster
// mode, loaded from YAML and overlaid with environment variables.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/coreflow/coreflow"
	"github.com/coreflow/coreflow/channel"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ClusterMode selects the resourcemanager.Manager variant (spec §4.7).
type ClusterMode string

const (
	ClusterLocal      ClusterMode = "local"
	ClusterStandalone ClusterMode = "standalone"
	ClusterYarn       ClusterMode = "yarn"
	ClusterKubernetes ClusterMode = "kubernetes"
)

// CheckpointBackend selects the checkpoint.Storage implementation.
type CheckpointBackend string

const (
	CheckpointMemory     CheckpointBackend = "memory"
	CheckpointRelational CheckpointBackend = "relational"
)

// PubSub holds channel wiring properties.
type PubSub struct {
	ChannelSize int    `yaml:"channel_size"`
	ChannelBase string `yaml:"channel_base"` // "bounded" or "unbounded"
}

// Base returns the channel.Base value ChannelBase names, defaulting to
// Unbounded to match the teacher's own default (spec §6 property
// `pub_sub.channel.base`).
func (p PubSub) Base() channel.Base {
	if strings.EqualFold(p.ChannelBase, "bounded") {
		return channel.Bounded
	}
	return channel.Unbounded
}

// Checkpoint holds checkpoint cadence and storage properties.
type Checkpoint struct {
	IntervalMS int               `yaml:"interval_ms"`
	TTLMS      int               `yaml:"ttl_ms"`
	Backend    CheckpointBackend `yaml:"backend"`
	Endpoint   string            `yaml:"endpoint"` // relational: sqlite db URL
	Table      string            `yaml:"table"`    // relational: reserved for a future multi-table backend
}

// Cluster holds deployment-target properties.
type Cluster struct {
	Mode ClusterMode `yaml:"mode"`
}

// Properties is the full application-wide configuration surface (spec
// §6 "Configuration surface").
type Properties struct {
	PubSub     PubSub     `yaml:"pub_sub"`
	Checkpoint Checkpoint `yaml:"checkpoint"`
	Cluster    Cluster    `yaml:"cluster"`
}

// Default returns the property set Load starts from before overlaying
// YAML: a 1024-slot unbounded channel, a 10-second checkpoint interval
// with a one-hour TTL on the memory backend, and local cluster mode.
func Default() Properties {
	return Properties{
		PubSub: PubSub{ChannelSize: 1024, ChannelBase: "unbounded"},
		Checkpoint: Checkpoint{
			IntervalMS: 10_000,
			TTLMS:      3_600_000,
			Backend:    CheckpointMemory,
		},
		Cluster: Cluster{Mode: ClusterLocal},
	}
}

// Load reads YAML properties from path and overlays them onto
// Default().
func Load(path string) (Properties, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, errors.Wrapf(err, "reading config file %v", path)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, errors.Wrapf(err, "parsing config file %v", path)
	}
	return p, nil
}

// envPrefix namespaces every environment override, mirroring the
// teacher's FLOW_-prefixed env-namespace convention.
const envPrefix = "COREFLOW_"

// ApplyEnv overlays environment variable overrides onto p, following
// the same group/namespace shape as its YAML keys
// (COREFLOW_PUB_SUB_CHANNEL_SIZE, COREFLOW_CHECKPOINT_INTERVAL_MS,
// COREFLOW_CHECKPOINT_BACKEND, COREFLOW_CLUSTER_MODE, ...).
func (p *Properties) ApplyEnv() error {
	if v, ok := lookupEnv("PUB_SUB_CHANNEL_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "parsing %s%s", envPrefix, "PUB_SUB_CHANNEL_SIZE")
		}
		p.PubSub.ChannelSize = n
	}
	if v, ok := lookupEnv("PUB_SUB_CHANNEL_BASE"); ok {
		p.PubSub.ChannelBase = v
	}
	if v, ok := lookupEnv("CHECKPOINT_INTERVAL_MS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "parsing %s%s", envPrefix, "CHECKPOINT_INTERVAL_MS")
		}
		p.Checkpoint.IntervalMS = n
	}
	if v, ok := lookupEnv("CHECKPOINT_TTL_MS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "parsing %s%s", envPrefix, "CHECKPOINT_TTL_MS")
		}
		p.Checkpoint.TTLMS = n
	}
	if v, ok := lookupEnv("CHECKPOINT_BACKEND"); ok {
		p.Checkpoint.Backend = CheckpointBackend(v)
	}
	if v, ok := lookupEnv("CHECKPOINT_ENDPOINT"); ok {
		p.Checkpoint.Endpoint = v
	}
	if v, ok := lookupEnv("CLUSTER_MODE"); ok {
		p.Cluster.Mode = ClusterMode(v)
	}
	return nil
}

func lookupEnv(suffix string) (string, bool) {
	return os.LookupEnv(envPrefix + suffix)
}

// Validate reports ConfigInvalid-shaped problems (spec §7): required
// properties, and that Backend/Mode name a known variant.
func (p Properties) Validate() error {
	if p.PubSub.ChannelSize <= 0 {
		return coreflow.New(coreflow.KindConfigInvalid, errors.New("config: pub_sub.channel_size must be positive"))
	}
	switch p.Checkpoint.Backend {
	case CheckpointMemory, CheckpointRelational:
	default:
		return coreflow.New(coreflow.KindConfigInvalid, errors.Errorf("config: unknown checkpoint.backend %q", p.Checkpoint.Backend))
	}
	if p.Checkpoint.Backend == CheckpointRelational && p.Checkpoint.Endpoint == "" {
		return coreflow.New(coreflow.KindConfigInvalid, errors.New("config: checkpoint.endpoint is required for the relational backend"))
	}
	switch p.Cluster.Mode {
	case ClusterLocal, ClusterStandalone, ClusterYarn, ClusterKubernetes:
	default:
		return coreflow.New(coreflow.KindConfigInvalid, errors.Errorf("config: unknown cluster.mode %q", p.Cluster.Mode))
	}
	return nil
}
