package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-workspace/internal/repository/common"
)

const companyColumns = `id, name, email, proposals, deadlines, employees, updated_at`

type CompanyRepositoryAdapter struct {
	q common.Queryer
}

func NewCompanyRepositoryAdapter(q common.Queryer) *CompanyRepositoryAdapter {
	return &CompanyRepositoryAdapter{q: q}
}

func (r *CompanyRepositoryAdapter) FindByEmail(ctx context.Context, email string) (*entity.CompanyProfile, error) {
	row, err := common.GetByField[companyRow](ctx, r.q, "company_profiles", companyColumns, "email", email, apperror.ErrCompanyNotFound)
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// FindByEmailForUpdate блокирует профиль: денормализованные списки переписываются целиком.
func (r *CompanyRepositoryAdapter) FindByEmailForUpdate(ctx context.Context, email string) (*entity.CompanyProfile, error) {
	row, err := common.GetByFieldForUpdate[companyRow](ctx, r.q, "company_profiles", companyColumns, "email", email, apperror.ErrCompanyNotFound)
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// Update сохраняет профиль целиком, включая денормализованные списки.
func (r *CompanyRepositoryAdapter) Update(ctx context.Context, c *entity.CompanyProfile) error {
	query := r.q.Rebind(`
		UPDATE company_profiles SET name = ?, proposals = ?, deadlines = ?, employees = ?, updated_at = ?
		WHERE id = ?
	`)
	res, err := r.q.ExecContext(ctx, query,
		c.Name,
		common.JSONColumn[[]entity.ProposalSummary]{Val: nonNil(c.Proposals)},
		common.JSONColumn[[]entity.DeadlineSummary]{Val: nonNil(c.Deadlines)},
		common.JSONColumn[[]entity.Employee]{Val: nonNil(c.Employees)},
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update company_profiles: %w", err)
	}
	n, err := common.RowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.ErrCompanyNotFound
	}
	return nil
}

type companyRow struct {
	ID        uuid.UUID                                 `db:"id"`
	Name      string                                    `db:"name"`
	Email     string                                    `db:"email"`
	Proposals common.JSONColumn[[]entity.ProposalSummary] `db:"proposals"`
	Deadlines common.JSONColumn[[]entity.DeadlineSummary] `db:"deadlines"`
	Employees common.JSONColumn[[]entity.Employee]        `db:"employees"`
	UpdatedAt time.Time                                 `db:"updated_at"`
}

func (c *companyRow) toEntity() *entity.CompanyProfile {
	return &entity.CompanyProfile{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Proposals: c.Proposals.Val,
		Deadlines: c.Deadlines.Val,
		Employees: c.Employees.Val,
		UpdatedAt: c.UpdatedAt,
	}
}

// nonNil гарантирует "[]" вместо "null" в JSON-колонках.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
