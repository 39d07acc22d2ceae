package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/m3rciful/postbot/core/bootstrap"
	"github.com/m3rciful/postbot/core/buildinfo"
	corecmd "github.com/m3rciful/postbot/core/cmd"
	coredatabase "github.com/m3rciful/postbot/core/database"
	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/internal/app"
)

const defaultConfigPath = "config.yaml"

type rootFlags struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "postbot",
		Short:         "Telegram bot that publishes scheduled posts to a channel",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(flags)
		},
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to config file (default $CONFIG_PATH or "+defaultConfigPath+")")

	root.AddCommand(newRunCommand(flags))
	root.AddCommand(newCheckCommand(flags))
	root.AddCommand(newMigrateCommand(flags))
	root.AddCommand(newVersionCommand())
	return root
}

func newRunCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(flags)
		},
	}
}

func newCheckCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func newMigrateCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply journal database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return errors.New("database is not configured")
			}
			if err := logger.InitLogger(&cfg.Config); err != nil {
				return err
			}
			defer logger.Shutdown()
			return coredatabase.RunMigrations(cfg.Database)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "postbot "+buildinfo.String())
		},
	}
}

func loadConfig(flags *rootFlags) (*app.Config, error) {
	path, err := corecmd.ResolveConfigPath(runnerOptions(flags))
	if err != nil {
		return nil, err
	}
	return app.LoadConfig(path)
}

func runnerOptions(flags *rootFlags) corecmd.Options {
	return corecmd.Options{
		ConfigPath:        flags.configPath,
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: defaultConfigPath,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := carrier.(*app.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			res, err := bootstrap.Run(bootstrap.Options{
				Config:   &cfg.Config,
				Database: cfg.Database,
			})
			if err != nil {
				return nil, err
			}
			return app.New(cfg, res)
		},
	}
}

func runBot(flags *rootFlags) error {
	return corecmd.Run(runnerOptions(flags))
}

func printSummary(w io.Writer, cfg *app.Config) {
	s := cfg.Scheduler
	fmt.Fprintf(w, "run mode:      %s\n", cfg.Telegram.RunMode)
	fmt.Fprintf(w, "channel:       %s\n", s.Recipient())
	fmt.Fprintf(w, "allowed users: %d\n", len(s.AllowedUsers))
	fmt.Fprintf(w, "timezone:      %s\n", s.Timezone)
	fmt.Fprintf(w, "wizard ttl:    %s\n", s.WizardTTL)
	fmt.Fprintf(w, "notify origin: %t\n", s.NotifyOrigin)
	fmt.Fprintf(w, "recheck auth:  %t\n", s.RecheckAuth)
	fmt.Fprintf(w, "database:      %t\n", cfg.Database.Enabled())
	metrics := cfg.Metrics.Listen
	if metrics == "" {
		metrics = "disabled"
	}
	fmt.Fprintf(w, "metrics:       %s\n", metrics)
}
