package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"geoquiz/internal/config"
	"geoquiz/internal/score"
	"geoquiz/internal/server"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the score schema to Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			var c server.Config
			if err := config.Load(*configPath, &c); err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			pg := c.Postgres.Score
			if pg.Addr == "" {
				return fmt.Errorf("postgres is not configured")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			db, err := pgxpool.New(ctx, fmt.Sprintf("postgres://%s:%s@%s/%s", pg.User, pg.Pass, pg.Addr, pg.Name))
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer db.Close()

			if _, err := db.Exec(ctx, score.Schema); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}

			fmt.Println("schema applied")
			return nil
		},
	}
}
