package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appLog "choliday/internal/log"
	"choliday/internal/web"
)

func serveCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the work-day verdict over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if listen := v.GetString("listen"); listen != "" {
				cfg.Serve.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			analyzer := newAnalyzer(cfg)

			// Cached events go stale; the schedule drops them so the next
			// request re-fetches.
			c := cron.New()
			if _, err := c.AddFunc(cfg.Serve.Refresh, func() {
				analyzer.Invalidate()
				appLog.Info("calendar cache invalidated", "schedule", cfg.Serve.Refresh)
			}); err != nil {
				return err
			}
			c.Start()
			defer func() {
				<-c.Stop().Done()
			}()

			appLog.Info("choliday serve starting", "version", version, "listen", cfg.Serve.Listen, "refresh", cfg.Serve.Refresh)
			err = web.NewServer(cfg, analyzer).Run(ctx)
			if err == nil || ctx.Err() != nil {
				appLog.Info("choliday serve exiting")
			}
			return err
		},
	}

	cmd.Flags().String("listen", "", "HTTP listen address (overrides config if set)")
	_ = v.BindPFlag("listen", cmd.Flags().Lookup("listen"))
	return cmd
}
