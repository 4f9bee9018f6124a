package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mantle-armada/bootstrap/configs"
	"github.com/mantle-armada/bootstrap/internal/deployment"
	"github.com/mantle-armada/bootstrap/internal/logger"
	"github.com/mantle-armada/bootstrap/internal/status"
)

const appName = "armada"

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Bootstrap and repair the Mantle Armada contracts and agent roster",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger.Initialize(level)

		if err := configs.LoadDefaults(viper.GetViper()); err != nil {
			return err
		}

		if configFile != "" {
			viper.SetConfigFile(configFile)
		} else {
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")

			if execPath, err := os.Executable(); err == nil {
				viper.AddConfigPath(filepath.Dir(execPath))
			}
			viper.AddConfigPath(".")
			viper.AddConfigPath("./configs")
		}

		// A missing config file is fine: embedded defaults, env and flags cover everything.
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				slog.Debug("no config file found, will rely on defaults, env and flags")
			} else {
				const errMsg = "error reading config file"
				slog.With("err", err.Error()).Error(errMsg)
				return errors.Join(err, errors.New(errMsg))
			}
		} else {
			slog.With("config_file", viper.ConfigFileUsed()).Debug("config file loaded")
		}

		if err := viper.Unmarshal(&configs.Values); err != nil {
			const errMsg = "unable to decode application config"
			slog.With("err", err.Error()).Error(errMsg)
			return errors.Join(err, errors.New(errMsg))
		}

		slog.With("rpc_url", configs.Values.Network.RPCURL).Debug("configuration loaded")

		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file (default: config.yaml next to the binary, in . or ./configs)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "debug", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(deployment.CMD)
	rootCmd.AddCommand(status.CMD)

	if err := rootCmd.Execute(); err != nil {
		slog.With("err", err.Error()).Error("failed to execute root command")
		os.Exit(1)
	}
}
