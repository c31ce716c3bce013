package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lifeline-network/lifeline-engine/pkg/postgres"
)

// MigrateCmd applies pending database migrations
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Cfg.DatabaseURL == "" {
				return fmt.Errorf("no databaseURL configured; migrations only apply to PostgreSQL")
			}

			pg, err := postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pg.Close()

			if err := pg.RunMigrations(app.Ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			app.Logger.Info("Migrations applied")
			return nil
		},
	}
}
