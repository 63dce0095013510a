package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/scorecache/internal/bundle"
	"github.com/dshills/scorecache/internal/config"
	"github.com/dshills/scorecache/internal/indexer"
	"github.com/dshills/scorecache/internal/logger"
	"github.com/dshills/scorecache/internal/mcp"
	"github.com/dshills/scorecache/internal/metrics"
	"github.com/dshills/scorecache/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// app holds what every subcommand needs once configuration is loaded
type app struct {
	cfg      *config.Config
	registry *bundle.Registry
	metrics  *metrics.Metrics
	logger   *slog.Logger

	showProgress bool
	stopMetrics  func(context.Context) error
}

func main() {
	var (
		configPath string
		logLevel   string
		a          app
	)

	rootCmd := &cobra.Command{
		Use:   "scorecache",
		Short: "Cache and search metadata for music score corpora",
		Long: `scorecache derives header metadata (title, composer, keys, meters,
tempos, ranges) from MusicXML, MXL, Humdrum and ABC scores, keeps it in
per-namespace snapshot bundles and answers field searches without
reparsing the corpus. It also serves the bundles over MCP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(configPath, logLevel)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("SCORECACHE_CONFIG"), "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newServeCmd(&a),
		newRebuildCmd(&a),
		newSearchCmd(&a),
		newShowCmd(&a),
		newStatusCmd(&a),
		newValidateCmd(&a),
		newCompareCmd(&a),
		newFieldsCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and builds the shared registry
func (a *app) setup(configPath, logLevel string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	a.cfg = cfg

	// Log to stderr (stdout reserved for MCP protocol and command output)
	a.logger = logger.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	if cfg.Metrics.Enabled {
		a.metrics = metrics.New(nil)
		a.stopMetrics = metrics.StartServer(cfg.Metrics.Addr, nil)
	}

	bcfg, err := cfg.BundleConfig(logger.WithComponent("bundle"), a.metrics)
	if err != nil {
		return err
	}
	bcfg.Progress = func(ev indexer.ProgressEvent) {
		if a.showProgress {
			printProgress(ev)
		}
	}
	a.registry = bundle.NewRegistry(bcfg)
	return nil
}

func (a *app) close() error {
	if a.stopMetrics == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.stopMetrics(ctx)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve bundles over MCP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.logger.Info("scorecache MCP server starting",
				"version", version,
				"build_mode", storage.BuildMode,
				"driver", storage.DriverName,
				"snapshot_format", a.cfg.SnapshotFormat,
			)

			server := mcp.NewServer(a.registry, mcp.Options{
				CorpusRoot: a.registry.Config().CorpusRoot,
				Parallel:   a.cfg.Parallel,
				Logger:     logger.WithComponent("mcp"),
			})

			ctx, cancel := signalContext()
			defer cancel()

			errChan := make(chan error, 1)
			go func() {
				errChan <- server.Serve(ctx)
			}()

			select {
			case <-ctx.Done():
				a.logger.Info("shutting down gracefully")
				return nil
			case err := <-errChan:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scorecache\n")
			fmt.Fprintf(out, "Version: %s\n", version)
			fmt.Fprintf(out, "Build Time: %s\n", buildTime)
			fmt.Fprintf(out, "Build Mode: %s\n", storage.BuildMode)
			fmt.Fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
		},
	}
}
