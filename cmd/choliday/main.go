package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"choliday/internal/config"
	"choliday/internal/judge"
	appLog "choliday/internal/log"
	"choliday/internal/workday"
)

const (
	exitWork  = 0
	exitRest  = 1
	exitError = 2
)

var version = "0.1.0-dev"

func main() {
	v := viper.New()
	v.SetEnvPrefix("CHOLIDAY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	code := exitWork
	root := rootCmd(v, &code)
	root.AddCommand(serveCmd(v), initCmd(v))

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		appLog.Sync()
		os.Exit(exitError)
	}
	appLog.Sync()
	os.Exit(code)
}

func rootCmd(v *viper.Viper, code *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "choliday",
		Short:   "Decide whether a date is a work day",
		Long:    "Work schedule prediction tool that analyzes calendar events to determine work/rest days based on configured patterns.\nPrints true/false and exits 0 for a work day, 1 for a rest day.",
		Version: version,
		// Errors are reported once by main.
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			isWork, err := runCheck(cmd.Context(), v)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), isWork)
			if !isWork {
				*code = exitRest
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "config.yaml", "Path to YAML configuration file (env CHOLIDAY_CONFIG)")
	cmd.Flags().StringP("date", "d", workday.Today, workday.DateHelp+" (env CHOLIDAY_DATE)")
	_ = v.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("date", cmd.Flags().Lookup("date"))

	return cmd
}

// loadConfig reads the configuration and installs the configured logger.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	path := v.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	appLog.Setup(appLog.Options{Level: appLog.Level(cfg.Log.Level), File: cfg.Log.File})
	appLog.Debug("effective config",
		"config_path", path,
		"sources", len(cfg.Calendar.Source),
		"work_patterns", len(cfg.Predict.Work),
		"rest_patterns", len(cfg.Predict.Rest),
		"priority", cfg.Predict.Priority,
		"expand_recurrence", cfg.Calendar.ExpandRecurrence,
	)
	return cfg, nil
}

func newAnalyzer(cfg *config.Config) *judge.Analyzer {
	return judge.NewAnalyzer(judge.Options{
		Sources: cfg.Calendar.Source,
		Rules: judge.Rules{
			Work:     cfg.Predict.Work,
			Rest:     cfg.Predict.Rest,
			Priority: cfg.Predict.Priority,
		},
		ExpandRecurrence: cfg.Calendar.ExpandRecurrence,
	})
}

func runCheck(ctx context.Context, v *viper.Viper) (bool, error) {
	at, err := workday.ParseDate(v.GetString("date"), time.Now())
	if err != nil {
		return false, err
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return false, err
	}

	dt := newAnalyzer(cfg).Judge(ctx, &at)
	isWork := workday.Decide(dt, at, cfg.Workdays())

	appLog.Info("day judged", "date", at.Format(time.RFC3339), "day_type", dt, "work_day", isWork)
	return isWork, nil
}
