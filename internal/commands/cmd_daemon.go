package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/relay/internal/relay"
)

type DaemonCmd struct {
	flags *Flags
	app   *relay.App

	// flags
	metricsAddr string
}

// NewDaemonCmd creates a new daemon command
func NewDaemonCmd(flags *Flags, app *relay.App) *DaemonCmd {
	return &DaemonCmd{flags: flags, app: app}
}

// Register adds the daemon command to the application
func (cmd *DaemonCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "daemon",
		Usage:     "Run the background sync loop",
		UsageText: "relay daemon [--metrics-addr addr]",
		Description: `Runs until interrupted: drains the outbox whenever connectivity allows and
reconciles with the remote store on the configured interval. A pending batch
gets one last flush on shutdown.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "metrics-addr",
				Usage:       "listen address for the Prometheus /metrics endpoint (empty disables)",
				Sources:     cli.EnvVars("RELAY_METRICS_ADDR"),
				Destination: &cmd.metricsAddr,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *DaemonCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cmd.metricsAddr
	if addr == "" {
		addr = cmd.flags.Config.MetricsAddr
	}

	var metricsSrv *http.Server
	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(cmd.app.Registry, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			log.Info().Str("addr", addr).Msg("metrics endpoint listening")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	err := cmd.app.Engine.Run(ctx)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := metricsSrv.Shutdown(shutdownCtx); serr != nil {
			log.Warn().Err(serr).Msg("metrics server shutdown failed")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("sync loop: %w", err)
	}
	return nil
}
