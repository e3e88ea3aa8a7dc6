package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"live-quiz-service/internal/catalog"
	"live-quiz-service/internal/infra/postgres"
)

// NewSeedCmd copies the file (or bundled) catalog into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Migrate and load the quiz catalog into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := runMigrations(ctx, cfg, logger); err != nil {
				return err
			}

			cat, err := catalog.Load(ctx, fileSource(cfg))
			if err != nil {
				return err
			}

			db := postgres.OpenBun(cfg.Postgres.URL)
			defer db.Close()
			if err := postgres.SeedCatalog(ctx, db, cat.All()); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			logger.Info("catalog seeded", "quizzes", cat.Len())
			return nil
		},
	}
}
