package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/benmeehan/fleet-agent/internal/service_registry"
	"github.com/benmeehan/fleet-agent/internal/utils"
	"github.com/benmeehan/fleet-agent/pkg/file"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	envFile  string
	logLevel string
	runOnce  bool
)

var rootCmd = &cobra.Command{
	Use:   "fleet-agent",
	Short: "Fleet monitoring agent",
	Long: `fleet-agent authenticates to the fleet management service and periodically reports
host health (CPU, memory, uptime) and the reachability of its assigned gateway.

Configuration is read from a YAML file and CLAWFLEET_* environment variables:
  CLAWFLEET_SAAS_URL, CLAWFLEET_AGENT_ID, CLAWFLEET_AGENT_SECRET,
  CLAWFLEET_INTERVAL (seconds), CLAWFLEET_AUTH_MODE, CLAWFLEET_LOG_LEVEL`,
	SilenceUsage: true,
	RunE:         runAgent,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment (default: .env when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&runOnce, "once", false, "run a single heartbeat cycle and exit")
}

func runAgent(cmd *cobra.Command, _ []string) error {
	fileClient := file.NewFileService()

	if err := utils.LoadEnvFile(envFile, fileClient); err != nil {
		return err
	}

	config, err := utils.LoadConfig(cfgFile, fileClient)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		config.Log.Level = logLevel
	}

	logger, closer, err := utils.NewLogger(config, os.Stdout)
	if err != nil {
		return err
	}
	defer closer.Close()

	agent, err := service_registry.NewAgent(config, service_registry.Dependencies{
		FileClient: fileClient,
		GOOS:       runtime.GOOS,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		return err
	}
	defer agent.Close()

	printBanner(config, agent)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if runOnce {
		result := agent.Heartbeat.RunCycle(ctx)
		if !result.Sent {
			return fmt.Errorf("heartbeat not sent: %w", result.Err)
		}
		return nil
	}

	serviceRegistry := service_registry.NewServiceRegistry(logger)
	if err := serviceRegistry.RegisterServices(config, agent); err != nil {
		return err
	}
	if err := serviceRegistry.StartServices(); err != nil {
		return err
	}
	logger.Info().Msg("All services started successfully")

	<-ctx.Done()

	logger.Info().Msg("Shutting down gracefully...")
	return serviceRegistry.StopServices()
}
