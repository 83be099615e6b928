package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/seabird-chat/seabird-radio/internal/commands"
	"github.com/seabird-chat/seabird-radio/internal/config"
	"github.com/seabird-chat/seabird-radio/pkg/client"
	"github.com/seabird-chat/seabird-radio/pkg/radio"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes. A fatal handshake rejection gets its own code so process
// managers can tell a bad token from a transient crash and stop restarting.
const (
	exitOK        = 0
	exitError     = 1
	exitAuthFatal = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath string
		logLevel   string
		debugAddr  string
	)

	rootCmd := &cobra.Command{
		Use:   "seabird-radio",
		Short: "Radio propagation and POTA activation plugin for seabird",
		Long: `seabird-radio connects to a seabird core and serves two chat commands:

  bands        current HAM RF band conditions (hamqsl solar data)
  pota         most recent Parks on the Air activation by band and mode

The core connection is a persistent WebSocket; the plugin reconnects with
capped exponential backoff and keeps serving across core restarts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlugin(cmd.Context(), configPath, logLevel, debugAddr)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to TOML config file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&debugAddr, "debug-addr", "", "Listen address for /metrics, /healthz and /readyz")

	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)

		var authErr *client.AuthError
		if errors.As(err, &authErr) {
			return exitAuthFatal
		}
		return exitError
	}
	return exitOK
}

func runPlugin(ctx context.Context, configPath, logLevel, debugAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Flags beat the file and the environment.
	if logLevel != "" {
		level, err := config.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	if debugAddr != "" {
		cfg.DebugAddr = debugAddr
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	clientMetrics := client.NewMetrics(registry)
	radioClient := radio.NewClient(cfg.Radio, logger, registry, nil)

	router, err := client.NewRouter(cfg.Client, logger, clientMetrics, commands.All(radioClient)...)
	if err != nil {
		return err
	}

	supervisor := client.NewSupervisor(cfg.Client, cfg.Token, router, logger, clientMetrics)

	if cfg.DebugAddr != "" {
		startDebugServer(ctx, cfg.DebugAddr, registry, supervisor, logger)
	}

	logger.Info("starting seabird-radio",
		"version", version,
		"core_url", cfg.Client.URL,
		"plugin_name", cfg.Client.PluginName)

	err = supervisor.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("shutdown complete")
		return nil
	}
	return err
}
