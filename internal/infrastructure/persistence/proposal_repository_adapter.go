package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-workspace/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-workspace/internal/repository/common"
)

const proposalColumns = `id, title, company_mail, status, deadline, submitted_at,
	is_deleted, deleted_at, deleted_by, restore_by, restored_at, restored_by,
	max_editors, max_viewers, collaborators, created_at, updated_at`

type ProposalRepositoryAdapter struct {
	q common.Queryer
}

func NewProposalRepositoryAdapter(q common.Queryer) *ProposalRepositoryAdapter {
	return &ProposalRepositoryAdapter{q: q}
}

func (r *ProposalRepositoryAdapter) FindByID(ctx context.Context, kind valueobject.ProposalKind, id uuid.UUID) (*entity.Proposal, error) {
	table, err := proposalTable(kind)
	if err != nil {
		return nil, err
	}
	row, err := common.GetByField[proposalRow](ctx, r.q, table, proposalColumns, "id", id, apperror.ErrProposalNotFound)
	if err != nil {
		return nil, err
	}
	return row.toEntity(kind), nil
}

// FindByIDForUpdate читает предложение с блокировкой строки до конца единицы работы.
func (r *ProposalRepositoryAdapter) FindByIDForUpdate(ctx context.Context, kind valueobject.ProposalKind, id uuid.UUID) (*entity.Proposal, error) {
	table, err := proposalTable(kind)
	if err != nil {
		return nil, err
	}
	row, err := common.GetByFieldForUpdate[proposalRow](ctx, r.q, table, proposalColumns, "id", id, apperror.ErrProposalNotFound)
	if err != nil {
		return nil, err
	}
	return row.toEntity(kind), nil
}

func (r *ProposalRepositoryAdapter) FindByIDs(ctx context.Context, kind valueobject.ProposalKind, ids []uuid.UUID) ([]*entity.Proposal, error) {
	return r.findByIDs(ctx, kind, ids, "ORDER BY created_at")
}

// FindByIDsForUpdate блокирует строки пакета в порядке id, чтобы пересекающиеся пакеты не взаимоблокировались.
func (r *ProposalRepositoryAdapter) FindByIDsForUpdate(ctx context.Context, kind valueobject.ProposalKind, ids []uuid.UUID) ([]*entity.Proposal, error) {
	return r.findByIDs(ctx, kind, ids, "ORDER BY id"+common.LockClause(r.q))
}

func (r *ProposalRepositoryAdapter) findByIDs(ctx context.Context, kind valueobject.ProposalKind, ids []uuid.UUID, tail string) ([]*entity.Proposal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	table, err := proposalTable(kind)
	if err != nil {
		return nil, err
	}
	query, args, err := common.In(r.q, fmt.Sprintf(`SELECT %s FROM %s WHERE id IN (?) %s`, proposalColumns, table, tail), ids)
	if err != nil {
		return nil, err
	}
	var rows []proposalRow
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select %s by ids: %w", table, err)
	}
	return toProposalEntities(kind, rows), nil
}

func (r *ProposalRepositoryAdapter) FindDeletedByCompany(ctx context.Context, kind valueobject.ProposalKind, companyMail string) ([]*entity.Proposal, error) {
	table, err := proposalTable(kind)
	if err != nil {
		return nil, err
	}
	query := r.q.Rebind(fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE company_mail = ? AND is_deleted = ?
		ORDER BY deleted_at DESC
	`, proposalColumns, table))
	var rows []proposalRow
	if err := r.q.SelectContext(ctx, &rows, query, companyMail, true); err != nil {
		return nil, fmt.Errorf("select deleted %s: %w", table, err)
	}
	return toProposalEntities(kind, rows), nil
}

func (r *ProposalRepositoryAdapter) Update(ctx context.Context, p *entity.Proposal) error {
	table, err := proposalTable(p.Kind)
	if err != nil {
		return err
	}
	query := r.q.Rebind(fmt.Sprintf(`
		UPDATE %s SET title = ?, status = ?, deadline = ?, submitted_at = ?,
		is_deleted = ?, deleted_at = ?, deleted_by = ?, restore_by = ?, restored_at = ?, restored_by = ?,
		max_editors = ?, max_viewers = ?, collaborators = ?, updated_at = ?
		WHERE id = ?
	`, table))
	res, err := r.q.ExecContext(ctx, query,
		p.Title, p.Status, p.Deadline, p.SubmittedAt,
		p.IsDeleted, p.DeletedAt, p.DeletedBy, p.RestoreBy, p.RestoredAt, p.RestoredBy,
		p.MaxEditors, p.MaxViewers, common.JSONColumn[entity.Collaborators]{Val: p.Collaborators}, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	n, err := common.RowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.ErrProposalNotFound
	}
	return nil
}

func (r *ProposalRepositoryAdapter) MarkDeleted(ctx context.Context, kind valueobject.ProposalKind, ids []uuid.UUID, deletedBy uuid.UUID, deletedAt, restoreBy time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	table, err := proposalTable(kind)
	if err != nil {
		return 0, err
	}
	query, args, err := common.In(r.q, fmt.Sprintf(`
		UPDATE %s SET is_deleted = ?, deleted_at = ?, deleted_by = ?, restore_by = ?, updated_at = ?
		WHERE id IN (?)
	`, table), true, deletedAt, deletedBy, restoreBy, deletedAt, ids)
	if err != nil {
		return 0, err
	}
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark %s deleted: %w", table, err)
	}
	return common.RowsAffected(res)
}

func (r *ProposalRepositoryAdapter) Delete(ctx context.Context, kind valueobject.ProposalKind, id uuid.UUID) error {
	table, err := proposalTable(kind)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, r.q.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table)), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := common.RowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.ErrProposalNotFound
	}
	return nil
}

func proposalTable(kind valueobject.ProposalKind) (string, error) {
	if !kind.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный вид предложения")
	}
	return kind.Descriptor().ProposalTable, nil
}

type proposalRow struct {
	ID            uuid.UUID                               `db:"id"`
	Title         string                                  `db:"title"`
	CompanyMail   string                                  `db:"company_mail"`
	Status        string                                  `db:"status"`
	Deadline      *time.Time                              `db:"deadline"`
	SubmittedAt   *time.Time                              `db:"submitted_at"`
	IsDeleted     bool                                    `db:"is_deleted"`
	DeletedAt     *time.Time                              `db:"deleted_at"`
	DeletedBy     *uuid.UUID                              `db:"deleted_by"`
	RestoreBy     *time.Time                              `db:"restore_by"`
	RestoredAt    *time.Time                              `db:"restored_at"`
	RestoredBy    *uuid.UUID                              `db:"restored_by"`
	MaxEditors    int                                     `db:"max_editors"`
	MaxViewers    int                                     `db:"max_viewers"`
	Collaborators common.JSONColumn[entity.Collaborators] `db:"collaborators"`
	CreatedAt     time.Time                               `db:"created_at"`
	UpdatedAt     time.Time                               `db:"updated_at"`
}

func (p *proposalRow) toEntity(kind valueobject.ProposalKind) *entity.Proposal {
	return &entity.Proposal{
		ID:            p.ID,
		Kind:          kind,
		Title:         p.Title,
		CompanyMail:   p.CompanyMail,
		Status:        p.Status,
		Deadline:      p.Deadline,
		SubmittedAt:   p.SubmittedAt,
		IsDeleted:     p.IsDeleted,
		DeletedAt:     p.DeletedAt,
		DeletedBy:     p.DeletedBy,
		RestoreBy:     p.RestoreBy,
		RestoredAt:    p.RestoredAt,
		RestoredBy:    p.RestoredBy,
		MaxEditors:    p.MaxEditors,
		MaxViewers:    p.MaxViewers,
		Collaborators: p.Collaborators.Val,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toProposalEntities(kind valueobject.ProposalKind, rows []proposalRow) []*entity.Proposal {
	result := make([]*entity.Proposal, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity(kind)
	}
	return result
}
