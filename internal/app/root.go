// Package app implements the gamelib commands.
package app

import (
	"github.com/spf13/cobra"

	"gamelibrary/internal/config"
	"gamelibrary/internal/logger"
)

var (
	configPath string // Path to the configuration file
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gamelib",
	Short: "Game library tracker",
	Long: `gamelib serves the game library API and ships a small client
to manage your own library from the terminal.`,
	SilenceUsage: true,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration and initializes logging. Used by the server-side commands.
func loadConfig(_ *cobra.Command, _ []string) error {
	var err error
	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}
	return logger.Init(cfg.Log)
}
