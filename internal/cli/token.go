package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-workspace/internal/service"
	"github.com/ignatzorin/proposal-workspace/internal/validation"
)

type tokenOptions struct {
	subject string
	role    string
	email   string
	ttl     time.Duration
}

// NewTokenCommand выпускает access токен для ручной проверки API вне production.
func NewTokenCommand(load ConfigLoader) *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Env == "production" {
				return fmt.Errorf("token: выпуск токенов отключён в production")
			}

			userID, err := uuid.Parse(opts.subject)
			if err != nil {
				return fmt.Errorf("token: --sub должен быть UUID: %w", err)
			}

			if opts.email != "" {
				if err := validation.ValidateEmail(opts.email); err != nil {
					return fmt.Errorf("token: %w", err)
				}
			}

			token, err := service.NewTokenManager(cfg.JWTSecret, opts.ttl).Issue(entity.Actor{
				ID:    userID,
				Role:  valueobject.NormalizeActorRole(opts.role),
				Email: opts.email,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.subject, "sub", "", "user id (UUID)")
	cmd.Flags().StringVar(&opts.role, "role", string(valueobject.RoleCompany), "actor role (company|employee)")
	cmd.Flags().StringVar(&opts.email, "email", "", "company mail of the actor")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")

	return cmd
}
