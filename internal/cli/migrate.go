package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ignatzorin/proposal-workspace/internal/db"
	"github.com/ignatzorin/proposal-workspace/internal/logger"
)

func NewMigrateCommand(load ConfigLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations (postgres only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.DBDriver != db.DriverPostgres {
				fmt.Fprintln(cmd.OutOrStdout(), "sqlite schema is applied on open, nothing to migrate")
				return nil
			}
			logger.Init(cfg.LogLevel, cfg.Env)

			conn, err := db.NewPostgres(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer conn.Close()

			applied, err := db.RunMigrations(cmd.Context(), conn, cfg.MigrationsPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
			return nil
		},
	}
}
