package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/forest-carbon/internal/api"
	"github.com/sells-group/forest-carbon/internal/credentials"
	"github.com/sells-group/forest-carbon/internal/monitoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the estimation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initEstimator(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		if cfg.Credentials.Watch && cfg.Credentials.KeyPath != "" {
			go func() {
				err := env.Credentials.Watch(ctx, func(src credentials.Source) {
					zap.L().Info("credentials reloaded", zap.String("source", string(src)))
				})
				if err != nil {
					zap.L().Error("credentials watch stopped", zap.Error(err))
				}
			}()
		}

		if cfg.Monitoring.WebhookURL != "" {
			go monitoring.NewChecker(env.Store, cfg.Monitoring).Run(ctx)
		}

		srv := api.New(cfg.Server, env.Estimator, env.Store, env.Credentials)
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
