package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voluzi/procpilot/pkg/environ"
)

var configFile string
var logLevel string

var rootCmd = &cobra.Command{
	Use:   "procpilot",
	Short: "Per-process metrics watcher and recorder",
	Long: `Procpilot watches the OS process table and records per-process CPU and
memory time series that can be exported to files.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLvl, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log.SetLevel(logLvl)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel,
		"log-level",
		environ.GetString("LOG_LEVEL", "info"),
		"Log level. One of debug, info, warn, error, fatal, panic.",
	)
	rootCmd.PersistentFlags().StringVar(&configFile,
		"config",
		environ.GetString("PROCPILOT_CONFIG", ""),
		"Path to TOML configuration file.",
	)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
