package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/kabili207/device-dashboard/pkg/client"
	"github.com/kabili207/device-dashboard/pkg/config"
	"github.com/kabili207/device-dashboard/pkg/dashboard"
	"github.com/kabili207/device-dashboard/pkg/hooks"
	"github.com/kabili207/device-dashboard/pkg/publish"
	"github.com/kabili207/device-dashboard/pkg/routes"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long:  `Start polling the API server and the boards and serve the dashboard.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = runServe
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if err := setupLogger(cfg.LogLevel); err != nil {
		return err
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid time_zone: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state := dashboard.NewState(cfg.ServerHost, cfg.ToggleTTL)
	defer state.Close()

	httpClient := client.NewClient(client.WithTimeout(cfg.RequestTimeout))
	dash := dashboard.New(state, httpClient, httpClient, dashboard.Options{
		PollInterval:   cfg.PollInterval,
		StatusInterval: cfg.StatusInterval,
		RequestTimeout: cfg.RequestTimeout,
	})

	pub, err := newPublisher(cfg.Mqtt)
	if err != nil {
		return err
	}
	if pub != nil {
		defer pub.Close()
		publish.NewStatePublisher(pub, cfg.Mqtt.RootTopic, state)
	}

	router, err := routes.NewWebRouter(dash, loc, cfg.SessionSecret)
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	slog.Info("starting dashboard", "server_host", cfg.ServerHost, "poll_interval", cfg.PollInterval, "mqtt_mode", cfg.Mqtt.Mode)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := dash.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return router.ListenAndServe(ctx, cfg.ListenAddr)
	})

	err = g.Wait()
	slog.Info("shutdown complete")
	return err
}

// newPublisher returns nil when publishing is disabled.
func newPublisher(cfg config.MqttSettings) (publish.Publisher, error) {
	switch cfg.Mode {
	case config.MqttModeEmbedded:
		return publish.NewEmbedded(publish.EmbeddedOptions{
			ListenAddr: cfg.ListenAddr,
			Auth: hooks.AuthHookOptions{
				Username:     cfg.Username,
				PasswordHash: cfg.PasswordHash,
				Salt:         cfg.Salt,
				OpenTopics:   cfg.OpenTopics,
			},
		})
	case config.MqttModeRemote:
		return publish.NewRemote(publish.RemoteOptions{
			Broker:      cfg.Broker,
			ClientID:    cfg.ClientID,
			Username:    cfg.Username,
			Password:    cfg.Password,
			OnlineTopic: cfg.RootTopic + "/online",
		}), nil
	}
	return nil, nil
}
