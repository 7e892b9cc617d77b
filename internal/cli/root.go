// Package cli собирает команды бинарника: serve, migrate и token.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/ignatzorin/proposal-workspace/internal/config"
)

// ConfigLoader позволяет тестам подменять загрузку окружения.
type ConfigLoader func() (*config.Config, error)

func NewRootCommand(load ConfigLoader) *cobra.Command {
	if load == nil {
		load = config.Load
	}

	cmd := &cobra.Command{
		Use:           "proposal-workspace",
		Short:         "Proposal lifecycle and collaborator access service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCommand(load))
	cmd.AddCommand(NewMigrateCommand(load))
	cmd.AddCommand(NewTokenCommand(load))

	return cmd
}
