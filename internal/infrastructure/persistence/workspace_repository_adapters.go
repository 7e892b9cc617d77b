package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-workspace/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-workspace/internal/repository/common"
)

const calendarColumns = `id, company_id, employee_id, proposal_id, grant_proposal_id, title, status, start_at, end_at`

type CalendarRepositoryAdapter struct {
	q common.Queryer
}

func NewCalendarRepositoryAdapter(q common.Queryer) *CalendarRepositoryAdapter {
	return &CalendarRepositoryAdapter{q: q}
}

// FindDeadlineEvent возвращает событие-срок предложения или nil, если его нет.
func (r *CalendarRepositoryAdapter) FindDeadlineEvent(ctx context.Context, kind valueobject.ProposalKind, proposalID uuid.UUID) (*entity.CalendarEvent, error) {
	return r.findOne(ctx, kind, proposalID, "status = ?")
}

// FindStatusEvent возвращает событие смены статуса (любое, кроме срока) или nil.
func (r *CalendarRepositoryAdapter) FindStatusEvent(ctx context.Context, kind valueobject.ProposalKind, proposalID uuid.UUID) (*entity.CalendarEvent, error) {
	return r.findOne(ctx, kind, proposalID, "status <> ?")
}

func (r *CalendarRepositoryAdapter) findOne(ctx context.Context, kind valueobject.ProposalKind, proposalID uuid.UUID, statusClause string) (*entity.CalendarEvent, error) {
	column, err := calendarColumn(kind)
	if err != nil {
		return nil, err
	}
	query := r.q.Rebind(fmt.Sprintf(`
		SELECT %s FROM calendar_events
		WHERE %s = ? AND %s
		ORDER BY start_at
		LIMIT 1
	`, calendarColumns, column, statusClause))

	var row calendarRow
	if err := r.q.GetContext(ctx, &row, query, proposalID, entity.EventStatusDeadline); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select calendar_events: %w", err)
	}
	return row.toEntity(kind), nil
}

func (r *CalendarRepositoryAdapter) Update(ctx context.Context, e *entity.CalendarEvent) error {
	query := r.q.Rebind(`UPDATE calendar_events SET title = ?, status = ?, start_at = ?, end_at = ? WHERE id = ?`)
	if _, err := r.q.ExecContext(ctx, query, e.Title, e.Status, e.StartAt, e.EndAt, e.ID); err != nil {
		return fmt.Errorf("update calendar_events: %w", err)
	}
	return nil
}

func (r *CalendarRepositoryAdapter) DeleteByProposal(ctx context.Context, kind valueobject.ProposalKind, proposalID uuid.UUID) (int64, error) {
	column, err := calendarColumn(kind)
	if err != nil {
		return 0, err
	}
	res, err := r.q.ExecContext(ctx, r.q.Rebind(fmt.Sprintf(`DELETE FROM calendar_events WHERE %s = ?`, column)), proposalID)
	if err != nil {
		return 0, fmt.Errorf("delete calendar_events: %w", err)
	}
	return common.RowsAffected(res)
}

func calendarColumn(kind valueobject.ProposalKind) (string, error) {
	if !kind.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный вид предложения")
	}
	return kind.Descriptor().CalendarColumn, nil
}

type calendarRow struct {
	ID              uuid.UUID  `db:"id"`
	CompanyID       uuid.UUID  `db:"company_id"`
	EmployeeID      *uuid.UUID `db:"employee_id"`
	ProposalID      *uuid.UUID `db:"proposal_id"`
	GrantProposalID *uuid.UUID `db:"grant_proposal_id"`
	Title           string     `db:"title"`
	Status          string     `db:"status"`
	StartAt         time.Time  `db:"start_at"`
	EndAt           time.Time  `db:"end_at"`
}

func (c *calendarRow) toEntity(kind valueobject.ProposalKind) *entity.CalendarEvent {
	event := &entity.CalendarEvent{
		ID:         c.ID,
		CompanyID:  c.CompanyID,
		EmployeeID: c.EmployeeID,
		Kind:       kind,
		Title:      c.Title,
		Status:     c.Status,
		StartAt:    c.StartAt,
		EndAt:      c.EndAt,
	}
	ref := c.ProposalID
	if kind == valueobject.KindGrant {
		ref = c.GrantProposalID
	}
	if ref != nil {
		event.ProposalID = *ref
	}
	return event
}

type DraftRepositoryAdapter struct {
	q common.Queryer
}

func NewDraftRepositoryAdapter(q common.Queryer) *DraftRepositoryAdapter {
	return &DraftRepositoryAdapter{q: q}
}

// FindByProposal возвращает черновик предложения или nil, если черновика нет.
func (r *DraftRepositoryAdapter) FindByProposal(ctx context.Context, kind valueobject.ProposalKind, proposalID uuid.UUID) (*entity.Draft, error) {
	table, err := draftTable(kind)
	if err != nil {
		return nil, err
	}
	row, err := common.GetByField[draftRow](ctx, r.q, table, "id, proposal_id, title, collaborators, updated_at", "proposal_id", proposalID, nil)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return &entity.Draft{
		ID:            row.ID,
		Kind:          kind,
		ProposalID:    row.ProposalID,
		Title:         row.Title,
		Collaborators: row.Collaborators.Val,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

func (r *DraftRepositoryAdapter) Update(ctx context.Context, d *entity.Draft) error {
	table, err := draftTable(d.Kind)
	if err != nil {
		return err
	}
	query := r.q.Rebind(fmt.Sprintf(`UPDATE %s SET title = ?, collaborators = ?, updated_at = ? WHERE id = ?`, table))
	if _, err := r.q.ExecContext(ctx, query, d.Title, common.JSONColumn[entity.Collaborators]{Val: d.Collaborators}, d.UpdatedAt, d.ID); err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return nil
}

func (r *DraftRepositoryAdapter) DeleteByProposal(ctx context.Context, kind valueobject.ProposalKind, proposalID uuid.UUID) (int64, error) {
	table, err := draftTable(kind)
	if err != nil {
		return 0, err
	}
	res, err := r.q.ExecContext(ctx, r.q.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE proposal_id = ?`, table)), proposalID)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	return common.RowsAffected(res)
}

func draftTable(kind valueobject.ProposalKind) (string, error) {
	if !kind.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный вид предложения")
	}
	return kind.Descriptor().DraftTable, nil
}

type draftRow struct {
	ID            uuid.UUID                               `db:"id"`
	ProposalID    uuid.UUID                               `db:"proposal_id"`
	Title         string                                  `db:"title"`
	Collaborators common.JSONColumn[entity.Collaborators] `db:"collaborators"`
	UpdatedAt     time.Time                               `db:"updated_at"`
}

type TrackerRepositoryAdapter struct {
	q common.Queryer
}

func NewTrackerRepositoryAdapter(q common.Queryer) *TrackerRepositoryAdapter {
	return &TrackerRepositoryAdapter{q: q}
}

func (r *TrackerRepositoryAdapter) DeleteByProposal(ctx context.Context, kind valueobject.ProposalKind, proposalID uuid.UUID) (int64, error) {
	if !kind.IsValid() {
		return 0, apperror.New(apperror.ErrCodeValidation, "некорректный вид предложения")
	}
	table := kind.Descriptor().TrackerTable
	res, err := r.q.ExecContext(ctx, r.q.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE kind = ? AND proposal_id = ?`, table)), string(kind), proposalID)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	return common.RowsAffected(res)
}

type EmployeeRepositoryAdapter struct {
	q common.Queryer
}

func NewEmployeeRepositoryAdapter(q common.Queryer) *EmployeeRepositoryAdapter {
	return &EmployeeRepositoryAdapter{q: q}
}

func (r *EmployeeRepositoryAdapter) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.EmployeeProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := common.In(r.q, `SELECT id, user_id, access_level, company_mail FROM employee_profiles WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []employeeRow
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select employee_profiles: %w", err)
	}
	result := make([]*entity.EmployeeProfile, 0, len(rows))
	for _, row := range rows {
		result = append(result, &entity.EmployeeProfile{
			ID:          row.ID,
			UserID:      row.UserID,
			AccessLevel: valueobject.NormalizeAccessLevel(row.AccessLevel),
			CompanyMail: row.CompanyMail,
		})
	}
	return result, nil
}

type employeeRow struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	AccessLevel string    `db:"access_level"`
	CompanyMail string    `db:"company_mail"`
}
