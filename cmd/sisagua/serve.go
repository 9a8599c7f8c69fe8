package main

import (
	"context"
	"time"

	"github.com/ougirez/sisagua/internal/api"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/pkg/logger"
	"github.com/ougirez/sisagua/internal/service/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query console over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			authService := auth.NewService(viper.GetString(constants.ViperSecretKey))
			svc, err := api.NewAPIService(c, authService, api.Options{
				AllowOrigins: viper.GetStringSlice(constants.ViperAPIAllowOrigins),
				LogLevel:     viper.GetString(constants.ViperLogLevel),
				Gatherer:     prometheus.DefaultGatherer,
			})
			if err != nil {
				return err
			}

			addr := viper.GetString(constants.ViperAPIAddr)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info(ctx, "listening", zap.String("addr", addr), zap.Int("tables", len(c.Tables())))
				return svc.Serve(addr)
			})
			g.Go(func() error {
				<-gctx.Done()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				logger.Info(ctx, "shutting down")
				return svc.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag(constants.ViperAPIAddr, cmd.Flags().Lookup("addr"))
	addConsoleFlags(cmd)

	return cmd
}
