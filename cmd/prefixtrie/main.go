package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanet-platform/prefixtrie/common/go/logging"
)

var cmd Cmd

// Cmd is the command line arguments.
type Cmd struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string
}

var rootCmd = &cobra.Command{
	Use:           "prefixtrie",
	Short:         "IPv4 longest-prefix-match filter",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cmd.ConfigPath, "config", "c", "", "Path to the configuration file")

	rootCmd.AddCommand(
		newLookupCmd(),
		newDumpCmd(),
		newServeCmd(),
		newClassifyCmd(),
		newRouteCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and initializes logging.
func setup() (*Config, *zap.SugaredLogger, error) {
	cfg, err := LoadConfig(cmd.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, _, err := logging.Init(&cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}
