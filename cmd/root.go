package cmd

import (
	"fmt"
	"os"

	"github.com/py-react/cloud-ops-sub002/cmd/hook"
	"github.com/py-react/cloud-ops-sub002/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootFlags struct {
	verbose    bool
	configFile string
}

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "cloudops",
	Short: "Release configuration library for container workloads",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if rootFlags.configFile != "" {
			v.SetConfigFile(rootFlags.configFile)
		}
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		if err := setupLogger(cfg); err != nil {
			return err
		}
		cmd.SetContext(config.WithContext(log.Logger.WithContext(cmd.Context()), cfg))
		return nil
	},
}

func setupLogger(cfg *config.Config) error {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	if rootFlags.verbose {
		level = zerolog.DebugLevel
	}
	if cfg.Log.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = log.Logger.Level(level)
	return nil
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&rootFlags.configFile, "config", "c", "", "Config file (default: cloudops.yaml in ., $HOME/.cloudops or /etc/cloudops)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(scmCmd)
	rootCmd.AddCommand(hook.HookCmd)
}
