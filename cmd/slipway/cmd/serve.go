package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/slipway/slipway/internal/config"
	"github.com/slipway/slipway/internal/constants"
	"github.com/slipway/slipway/internal/deploy"
	"github.com/slipway/slipway/internal/logger"
	"github.com/slipway/slipway/internal/registry"
	"github.com/slipway/slipway/internal/runner"
	"github.com/slipway/slipway/internal/secrets"
	"github.com/slipway/slipway/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local deployment daemon",
	Long: `Run the local deployment daemon: an HTTP API that tracks registered
services, accepts push events, gates them through build filters, and
executes deploys (ordered fail-fast build commands, then the start
command with the resolved environment).`,
	RunE: serveRun,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serveRun(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.Initialize(cfg.GetEnvironment(), cfg.GetLogLevel())

	reg := registry.New(cfg.RegistryPath())
	store := secrets.NewStore(cfg.SecretsPath())
	resolver := &secrets.Resolver{Store: store}

	engine := deploy.NewEngine(cfg, reg, runner.New(), resolver, runner.FreePort, log)
	router := server.NewRouter(engine, reg, log, constants.RequestTimeout)
	srv := server.New(cfg.ListenAddress(), router.Handler(), log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting daemon",
		"version", *constants.GetVersion(),
		"data_dir", cfg.DataDir,
		"parallelism", cfg.GetParallelism())

	serveErr := srv.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancel()
	if err := engine.Shutdown(shutdownCtx); err != nil {
		log.Warn("deploy engine did not shut down cleanly", "error", err)
	}

	return serveErr
}
