package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gamelibrary/internal/database"
)

func init() { //nolint: gochecknoinits
	seedCmd.Flags().IntVar(&catalogPages, "catalog-pages", 0, "catalog pages to import, 0 uses catalog.seed_pages")
	seedCmd.Flags().BoolVar(&skipCatalog, "skip-catalog", false, "only seed roles and permissions")

	rootCmd.AddCommand(seedCmd)
}

var (
	catalogPages int
	skipCatalog  bool

	seedCmd = &cobra.Command{
		Use:     "seed",
		Short:   "Seed default roles and import catalog games",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.NewConnection(cfg.Database)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}

			srv := NewServer(cfg, db)
			if err := srv.roles.SeedDefaults(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("default roles seeded")

			if skipCatalog {
				return nil
			}

			pages := cfg.Catalog.SeedPages
			if catalogPages > 0 {
				pages = catalogPages
			}

			inserted, err := srv.catalog.Seed(cmd.Context(), pages, cfg.Catalog.SeedPageSize)
			log.Info().Int64("inserted", inserted).Int("pages", pages).Msg("catalog seeded")
			return err
		},
	}
)
