package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gamelibrary/internal/database"
)

func init() { //nolint: gochecknoinits
	serveCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(serveCmd)
}

var (
	devMode bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the game library API",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if devMode {
				// read by ReadConfig so the dev secret fallback applies
				if err := os.Setenv("GAMELIB_DEV_MODE", "true"); err != nil {
					return err
				}
			}
			return loadConfig(cmd, args)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.NewConnection(cfg.Database)
			if err != nil {
				return err
			}
			log.Info().Str("driver", cfg.Database.Driver).Msg("database connected")

			if err := database.Migrate(db); err != nil {
				return err
			}

			srv := NewServer(cfg, db)
			if err := srv.roles.SeedDefaults(cmd.Context()); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}
)
