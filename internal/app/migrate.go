package app

import (
	"github.com/spf13/cobra"

	"gamelibrary/internal/database"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Short:   "Create or update the database schema",
	PreRunE: loadConfig,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := database.NewConnection(cfg.Database)
		if err != nil {
			return err
		}
		return database.Migrate(db)
	},
}
