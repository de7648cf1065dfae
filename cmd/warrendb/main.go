package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/cluster"
	"github.com/warrendb/warrendb/internal/config"
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/kvs"
	"github.com/warrendb/warrendb/internal/kvs/boltengine"
	"github.com/warrendb/warrendb/pkg/log"
	"github.com/warrendb/warrendb/pkg/metrics"
)

// Version information (set via ldflags during build, the way
// cmd/warren/main.go's Version/Commit/BuildTime are).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "warrendb",
	Short: "warrendb - multi-model document database",
	Long: `warrendb is an embeddable document database core: binary-encoded
ordered keys, MVCC transactions, a JSON-superset value model, a
full-text BM25 index, an HNSW vector index, change feeds with live
queries, and a small RBAC policy engine, in a single process per node.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"warrendb version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "", "Path to a warrendb config file (YAML)")
	rootCmd.PersistentFlags().String("data-dir", "", "Override the configured data directory")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(leaseCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(keysCmd)
}

// loadConfig reads --config (falling back to config.Default()) and
// applies the --data-dir override, the same flags-then-override
// layering cmd/warren/main.go applies on top of its own Config.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

// openManager opens this node's boltengine-backed kvs.Manager against
// cfg.DataDir. Every subcommand that touches storage goes through
// this one helper rather than repeating boltengine.Open at each call
// site.
func openManager(cfg config.Config) (*kvs.Manager, *boltengine.Engine, error) {
	engine, err := boltengine.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open data dir %s: %w", cfg.DataDir, err)
	}
	return kvs.NewManager(engine), engine, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run this node: open storage, start the heartbeat loop, serve metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log.Init(cfg.LogConfig())

		nodeID := cfg.NodeID
		if nodeID == "" {
			nodeID = uuid.New().String()
		}
		self, err := uuid.Parse(nodeID)
		if err != nil {
			return fmt.Errorf("node_id %q is not a uuid: %w", nodeID, err)
		}

		mgr, engine, err := openManager(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		node := cluster.New(self)
		roster := cluster.NewRoster(mgr)
		collector := metrics.NewCollector(roster)
		collector.Start()

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.HandleFunc("/healthz", metrics.HealthHandler())
		mux.HandleFunc("/readyz", metrics.ReadyHandler())
		httpServer := &http.Server{Addr: cfg.APIAddr, Handler: mux}
		errCh := make(chan error, 1)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		ticker := time.NewTicker(cfg.HeartbeatInterval)
		defer ticker.Stop()
		stopHeartbeat := make(chan struct{})
		go runHeartbeatLoop(mgr, node, cfg, ticker, stopHeartbeat)

		fmt.Printf("warrendb node %s listening on %s (data dir %s)\n", nodeID, cfg.APIAddr, cfg.DataDir)
		fmt.Println("Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
		case err := <-errCh:
			fmt.Fprintf(os.Stderr, "\nmetrics/health server error: %v\n", err)
		}

		close(stopHeartbeat)
		collector.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)

		fmt.Println("✓ shutdown complete")
		return nil
	},
}

// runHeartbeatLoop ticks node.Beat on its own interval and, as the
// cheapest possible leader-less GC, opportunistically runs
// cluster.PruneStale every tick too — good enough for a single-node
// deployment and harmless under multiple (PruneStale is idempotent:
// a row already deleted by another node's run is simply absent from
// the next scan).
func runHeartbeatLoop(mgr *kvs.Manager, node *cluster.Cluster, cfg config.Config, ticker *time.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			txn, err := mgr.Begin(context.Background(), kvs.ModeWrite, kvs.LockPessimistic)
			if err != nil {
				log.Logger.Error().Err(err).Msg("heartbeat: begin")
				continue
			}
			if err := node.Beat(txn, now); err != nil {
				log.Logger.Error().Err(err).Msg("heartbeat: beat")
				_ = txn.Cancel()
				continue
			}
			if _, err := cluster.PruneStale(txn, now, cfg.StaleThreshold, node.Self); err != nil {
				log.Logger.Error().Err(err).Msg("heartbeat: prune stale")
				_ = txn.Cancel()
				continue
			}
			if err := txn.Commit(context.Background()); err != nil {
				log.Logger.Warn().Err(err).Msg("heartbeat: commit")
			}
		}
	}
}

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Inspect the cluster's node roster",
}

var nodeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every node seen in the heartbeat keyspace, alive or stale",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		mgr, engine, err := openManager(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		counts, err := cluster.NewRoster(mgr).NodeCounts()
		if err != nil {
			return err
		}
		fmt.Printf("alive: %d\n", counts["alive"])
		fmt.Printf("stale: %d\n", counts["stale"])
		return nil
	},
}

var leaseCmd = &cobra.Command{
	Use:   "lease",
	Short: "Inspect and force-release background task leases",
}

var leaseShowCmd = &cobra.Command{
	Use:   "show <task>",
	Short: "Print the current owner and expiry of a named task lease",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		mgr, engine, err := openManager(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		txn, err := mgr.Begin(context.Background(), kvs.ModeRead, kvs.LockOptimistic)
		if err != nil {
			return err
		}
		defer txn.Cancel()

		lease, present, err := cluster.GetLease(txn, args[0])
		if err != nil {
			return err
		}
		if !present {
			fmt.Printf("task %q has no lease on record\n", args[0])
			return nil
		}
		fmt.Printf("task %q: owner=%s expires_at=%s\n", args[0], lease.Owner, lease.ExpiresAt.Format(time.RFC3339))
		return nil
	},
}

// leaseForceGCCmd deletes a task's lease row outright, the
// administrative escape hatch for "a node died holding this lease and
// its TTL hasn't lapsed yet" — forcing the next AcquireLease call to
// see no owner at all rather than waiting out the TTL.
var leaseForceGCCmd = &cobra.Command{
	Use:   "force-gc <task>",
	Short: "Delete a task lease outright, bypassing its TTL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		mgr, engine, err := openManager(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		key, err := leaseKey(args[0])
		if err != nil {
			return err
		}

		txn, err := mgr.Begin(context.Background(), kvs.ModeWrite, kvs.LockPessimistic)
		if err != nil {
			return err
		}
		if err := txn.Del(key); err != nil {
			_ = txn.Cancel()
			return err
		}
		if err := txn.Commit(context.Background()); err != nil {
			return err
		}
		fmt.Printf("lease for task %q force-released\n", args[0])
		return nil
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the namespace/database/table/index catalog",
}

var catalogDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print every namespace, database, table, and index",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		mgr, engine, err := openManager(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		txn, err := mgr.Begin(context.Background(), kvs.ModeRead, kvs.LockOptimistic)
		if err != nil {
			return err
		}
		defer txn.Cancel()

		namespaces, err := catalog.ListNamespaces(txn)
		if err != nil {
			return err
		}
		for _, ns := range namespaces {
			fmt.Printf("namespace %s\n", ns.Name)
			databases, err := catalog.ListDatabases(txn, ns.Name)
			if err != nil {
				return err
			}
			for _, db := range databases {
				fmt.Printf("  database %s\n", db.Name)
				tables, err := catalog.ListTables(txn, ns.Name, db.Name)
				if err != nil {
					return err
				}
				for _, tb := range tables {
					fmt.Printf("    table %s (schemafull=%v)\n", tb.Name, tb.Schemafull)
					indexes, err := catalog.ListIndexes(txn, ns.Name, db.Name, tb.Name)
					if err != nil {
						return err
					}
					for _, ix := range indexes {
						fmt.Printf("      index %s method=%v fields=%v\n", ix.Name, ix.Method, ix.Fields)
					}
				}
			}
		}
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Inspect the raw binary keyspace",
}

var keysScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the entire keyspace and print each key as hex",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		mgr, engine, err := openManager(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		txn, err := mgr.Begin(context.Background(), kvs.ModeRead, kvs.LockOptimistic)
		if err != nil {
			return err
		}
		defer txn.Cancel()

		rows, err := txn.Scan(nil, nil, false, limit)
		if err != nil {
			return err
		}
		for _, row := range rows {
			fmt.Printf("%s  (%d bytes value)\n", hex.EncodeToString(row.Key), len(row.Value))
		}
		fmt.Printf("%d keys\n", len(rows))
		return nil
	},
}

func leaseKey(task string) ([]byte, error) {
	return keys.TaskLease{Task: task}.Encode()
}

func init() {
	nodeCmd.AddCommand(nodeListCmd)
	leaseCmd.AddCommand(leaseShowCmd)
	leaseCmd.AddCommand(leaseForceGCCmd)
	catalogCmd.AddCommand(catalogDumpCmd)
	keysCmd.AddCommand(keysScanCmd)
	keysScanCmd.Flags().Int("limit", 0, "Maximum number of keys to print (0 = unlimited)")
}
