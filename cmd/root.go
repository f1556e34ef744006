package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "admission-sim",
	Short: "Discrete-event simulator for hospital admission scheduling",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cfg, err := loadEnvConfig()
	if err != nil {
		logrus.Fatalf("Invalid environment configuration: %v", err)
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log", cfg.LogLevel,
		"Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(newRunCmd(cfg))
	rootCmd.AddCommand(newOptimizeCmd(cfg))
	rootCmd.AddCommand(newMineCmd(cfg))
}
