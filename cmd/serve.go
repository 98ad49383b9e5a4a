package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Hanoi896/risk-map/internal/api"
	"github.com/Hanoi896/risk-map/pkg/weather"
)

var (
	servePort      int
	serveFetchCron string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the events, zones, and weather API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		var weatherClient api.WeatherClient
		if cfg.Weather.Key != "" {
			weatherClient = weather.NewClient(weather.Options{
				APIKey:  cfg.Weather.Key,
				BaseURL: cfg.Weather.BaseURL,
				Units:   cfg.Weather.Units,
			})
		} else {
			zap.L().Warn("serve: no weather API key, /api/weather disabled")
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := api.NewServer(api.Options{
			Addr:       fmt.Sprintf(":%d", port),
			Store:      env.store,
			Scorer:     env.scorer,
			Aggregator: env.aggregator,
			Weather:    weatherClient,
			Metrics:    env.metrics,
			EventLimit: cfg.Server.EventLimit,
		})

		// Background fetch schedule, if configured.
		spec := serveFetchCron
		if spec == "" {
			spec = cfg.Server.FetchCron
		}
		if spec != "" {
			c := cron.New()
			_, err := c.AddFunc(spec, func() {
				if _, err := env.runner.Run(ctx); err != nil {
					zap.L().Error("serve: scheduled fetch failed", zap.Error(err))
				}
			})
			if err != nil {
				return eris.Wrapf(err, "invalid fetch cron spec %q", spec)
			}
			c.Start()
			defer c.Stop()
			zap.L().Info("serve: fetch schedule active", zap.String("cron", spec))
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("serve: shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("serve: shutdown", zap.Error(err))
			}
		}()

		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveFetchCron, "fetch-cron", "", "cron spec for background fetch cycles")
	rootCmd.AddCommand(serveCmd)
}
