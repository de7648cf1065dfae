// Package config is the ambient Config struct spec.md §9 ("Global
// state") asks for, read once at datastore construction the way the
// teacher builds a manager.Config/worker.Config and passes it into
// New* rather than letting a subsystem read os.Getenv for itself.
//
// Load reads an optional YAML file, the same gopkg.in/yaml.v3-backed
// shape cmd/warren/apply.go uses for resource manifests, then layers
// WARRENDB_-prefixed environment variables on top so a containerized
// deployment can override individual fields without a file at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/search"
	"github.com/warrendb/warrendb/pkg/log"
)

// Config is read once at startup and passed down explicitly; nothing
// below internal/config reaches into the environment on its own.
type Config struct {
	// NodeID identifies this process in the cluster roster and Raft
	// configuration (internal/cluster, internal/cluster/raftlog).
	NodeID string `yaml:"node_id"`
	// DataDir is where boltengine.Open and raftlog's BoltDB log/stable
	// stores and file snapshot store keep their files.
	DataDir string `yaml:"data_dir"`
	// BindAddr is this node's Raft TCP transport address.
	BindAddr string `yaml:"bind_addr"`
	// APIAddr is where `warrendb serve`'s HTTP server listens, serving
	// /metrics, /healthz and /readyz.
	APIAddr string `yaml:"api_addr"`

	LogLevel log.Level `yaml:"log_level"`
	LogJSON  bool      `yaml:"log_json"`

	// HeartbeatInterval and StaleThreshold tune internal/cluster's
	// node liveness bookkeeping; zero means "use the package default".
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	StaleThreshold    time.Duration `yaml:"stale_threshold"`
	// LeaseTTL is the default duration internal/cluster.AcquireLease
	// grants a background task before it must renew.
	LeaseTTL time.Duration `yaml:"lease_ttl"`

	// BM25K1 and BM25B are internal/search's default scoring tunables
	// (spec §4.6); per-query overrides still take precedence.
	BM25K1 float64 `yaml:"bm25_k1"`
	BM25B  float64 `yaml:"bm25_b"`
	// HNSWEfConstruction is the default build-time search width for
	// internal/vector HNSW indexes that don't set their own.
	HNSWEfConstruction int `yaml:"hnsw_ef_construction"`
}

// Default returns the Config every subsystem's documented default
// tunable resolves to when a deployment supplies neither a file nor
// an environment override.
func Default() Config {
	return Config{
		NodeID:             "",
		DataDir:            "./data",
		BindAddr:           "127.0.0.1:7946",
		APIAddr:            "127.0.0.1:7947",
		LogLevel:           log.InfoLevel,
		LogJSON:            false,
		HeartbeatInterval:  5 * time.Second,
		StaleThreshold:     15 * time.Second,
		LeaseTTL:           30 * time.Second,
		BM25K1:             search.DefaultK1,
		BM25B:              search.DefaultB,
		HNSWEfConstruction: catalog.DefaultEfConstruction,
	}
}

// Load reads path (if non-empty and present) as YAML over Default(),
// then applies environment overrides, mirroring cmd/warren's
// flags-then-env layering but for a file instead of cobra flags.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// no config file is not an error; Default()+env still applies.
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	def := Default()
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = def.StaleThreshold
	}
	return cfg, nil
}

// applyEnv overrides cfg fields from WARRENDB_* environment variables,
// the env-override half of the layering SPEC_FULL.md's configuration
// section describes. Unset variables leave the field untouched.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("WARRENDB_NODE_ID"); ok {
		cfg.NodeID = v
	}
	if v, ok := os.LookupEnv("WARRENDB_DATA_DIR"); ok {
		cfg.DataDir = v
	}
	if v, ok := os.LookupEnv("WARRENDB_BIND_ADDR"); ok {
		cfg.BindAddr = v
	}
	if v, ok := os.LookupEnv("WARRENDB_API_ADDR"); ok {
		cfg.APIAddr = v
	}
	if v, ok := os.LookupEnv("WARRENDB_LOG_LEVEL"); ok {
		cfg.LogLevel = log.Level(v)
	}
	if v, ok := os.LookupEnv("WARRENDB_LOG_JSON"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogJSON = b
		}
	}
	if v, ok := os.LookupEnv("WARRENDB_HEARTBEAT_INTERVAL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HeartbeatInterval = d
		}
	}
	if v, ok := os.LookupEnv("WARRENDB_STALE_THRESHOLD"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.StaleThreshold = d
		}
	}
	if v, ok := os.LookupEnv("WARRENDB_LEASE_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LeaseTTL = d
		}
	}
	if v, ok := os.LookupEnv("WARRENDB_BM25_K1"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.BM25K1 = f
		}
	}
	if v, ok := os.LookupEnv("WARRENDB_BM25_B"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.BM25B = f
		}
	}
	if v, ok := os.LookupEnv("WARRENDB_HNSW_EF_CONSTRUCTION"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HNSWEfConstruction = n
		}
	}
}

// LogConfig adapts cfg into the shape pkg/log.Init expects.
func (cfg Config) LogConfig() log.Config {
	return log.Config{Level: cfg.LogLevel, JSONOutput: cfg.LogJSON}
}
