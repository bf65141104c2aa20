package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amaumene/seasonarr/internal/api"
	"github.com/amaumene/seasonarr/internal/config"
	"github.com/amaumene/seasonarr/internal/controllers"
	"github.com/amaumene/seasonarr/internal/providers"
	"github.com/amaumene/seasonarr/internal/scheduler"
	"github.com/amaumene/seasonarr/internal/services/plex"
	"github.com/amaumene/seasonarr/internal/services/tautulli"
	"github.com/amaumene/seasonarr/internal/services/webhook"
	"github.com/amaumene/seasonarr/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seasonarr",
		Short:         "Notifies a webhook when seasons finish downloading into Plex",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(), newServeCmd(), newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Scan once, notify, and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			return app.notifyCtrl.RunOnce(cmd.Context())
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as a daemon with scheduled scans and an HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			return app.serve()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("seasonarr " + version)
		},
	}
}

// app bundles everything a command needs after initialization
type app struct {
	cfg        *config.Config
	logger     *logrus.Logger
	notifyCtrl *controllers.NotifyController
}

func newApp() (*app, error) {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.WithField("version", version).Info("Starting Seasonarr")
	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	// 3. Initialize services
	tautulliClient, err := tautulli.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Tautulli client: %w", err)
	}
	logger.Info("Tautulli client initialized")

	plexClient := plex.NewClient(cfg, logger)

	// 4. Initialize webhook provider
	provider, err := providers.New(cfg, plexClient, logger)
	if err != nil {
		return nil, err
	}
	logger.WithField("provider", provider.Name()).Info("Webhook provider initialized")

	// 5. Initialize controllers
	exclusions := utils.NewExclusions(cfg.ExcludeShows)
	if exclusions.Size() > 0 {
		logger.WithField("count", exclusions.Size()).Info("Show exclusions loaded")
	}

	seasonCtrl := controllers.NewSeasonController(tautulliClient, plexClient, exclusions, cfg.LookbackDays, logger)
	notifyCtrl := controllers.NewNotifyController(seasonCtrl, provider, webhook.NewDispatcher(logger), cfg.WebhookURL, logger)

	return &app{cfg: cfg, logger: logger, notifyCtrl: notifyCtrl}, nil
}

// serve runs the scheduler and the HTTP server until a shutdown signal
// arrives
func (a *app) serve() error {
	// 1. Start scheduler
	sched := scheduler.NewScheduler(a.notifyCtrl, a.cfg.RunSchedule, a.logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 2. Start HTTP server
	server := api.NewServer(a.cfg, a.notifyCtrl, version, a.logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 3. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	a.logger.Info("Seasonarr is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		a.logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			a.logger.WithError(err).Error("Error during server shutdown")
		}
	}

	a.logger.Info("Seasonarr stopped")
	return nil
}
