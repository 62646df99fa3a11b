package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/switchboard/internal/archive"
	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/operator"
	"github.com/zulandar/switchboard/internal/operator/discord"
	"github.com/zulandar/switchboard/internal/operator/slack"
	"github.com/zulandar/switchboard/internal/relay"
	"github.com/zulandar/switchboard/internal/webapi"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Switchboard relay",
		Long:  "Connects to the configured operator platform, starts the widget HTTP API, and relays messages until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "switchboard.yaml", "path to Switchboard config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	adapter, err := createAdapter(cfg)
	if err != nil {
		return err
	}

	var archiver relay.Archiver
	if cfg.Archive.Enabled {
		store, err := archive.Open(cfg.Archive.Driver, cfg.Archive.DSN)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		archiver = store
	}

	out := cmd.OutOrStdout()
	svc, err := relay.NewService(relay.ServiceOpts{
		Adapter:  adapter,
		Channel:  cfg.Operator.Channel,
		Archiver: archiver,
		Out:      out,
	})
	if err != nil {
		return err
	}

	sweeper, err := relay.NewSweeper(relay.SweeperOpts{
		Service: svc,
		MaxAge:  time.Duration(cfg.Retention.MaxAgeHours) * time.Hour,
		Cron:    cfg.Retention.Sweep,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)

	go func() {
		errCh <- webapi.Start(ctx, webapi.StartOpts{
			Relay:           svc,
			Port:            cfg.Server.Port,
			StaticDir:       cfg.Server.StaticDir,
			PollIntervalSec: cfg.PollIntervalSec,
			Out:             out,
		})
	}()

	go sweeper.Run(ctx)

	go func() {
		errCh <- svc.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		// Let the relay and server drain their shutdown paths.
		<-errCh
		return nil
	case err := <-errCh:
		stop()
		return err
	}
}

// createAdapter builds the operator-platform adapter selected by the config.
func createAdapter(cfg *config.Config) (operator.Adapter, error) {
	switch cfg.Operator.Platform {
	case "discord":
		return discord.New(discord.AdapterOpts{
			BotToken:  cfg.Operator.Discord.BotToken,
			ChannelID: cfg.Operator.Channel,
		})
	case "slack":
		return slack.New(slack.AdapterOpts{
			BotToken:  cfg.Operator.Slack.BotToken,
			AppToken:  cfg.Operator.Slack.AppToken,
			ChannelID: cfg.Operator.Channel,
		})
	default:
		return nil, fmt.Errorf("unsupported operator platform %q", cfg.Operator.Platform)
	}
}
