// Package testutil поднимает временную SQLite базу и заполняет её записями для тестов.
package testutil

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/proposal-workspace/internal/db"
	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-workspace/internal/repository/common"
)

// NewSQLiteDB открывает базу в t.TempDir() со всей схемой.
func NewSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := db.NewSQLite(context.Background(), filepath.Join(t.TempDir(), "proposals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func InsertProposal(t *testing.T, conn *sqlx.DB, p *entity.Proposal) {
	t.Helper()
	query := conn.Rebind(`
		INSERT INTO ` + p.Kind.Descriptor().ProposalTable + ` (
			id, title, company_mail, status, deadline, submitted_at,
			is_deleted, deleted_at, deleted_by, restore_by, restored_at, restored_by,
			max_editors, max_viewers, collaborators, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := conn.Exec(query,
		p.ID, p.Title, p.CompanyMail, p.Status, p.Deadline, p.SubmittedAt,
		p.IsDeleted, p.DeletedAt, p.DeletedBy, p.RestoreBy, p.RestoredAt, p.RestoredBy,
		p.MaxEditors, p.MaxViewers, common.JSONColumn[entity.Collaborators]{Val: p.Collaborators},
		p.CreatedAt, p.UpdatedAt,
	)
	require.NoError(t, err)
}

func InsertCompany(t *testing.T, conn *sqlx.DB, c *entity.CompanyProfile) {
	t.Helper()
	_, err := conn.Exec(conn.Rebind(`
		INSERT INTO company_profiles (id, name, email, proposals, deadlines, employees, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`),
		c.ID, c.Name, c.Email,
		common.JSONColumn[[]entity.ProposalSummary]{Val: c.Proposals},
		common.JSONColumn[[]entity.DeadlineSummary]{Val: c.Deadlines},
		common.JSONColumn[[]entity.Employee]{Val: c.Employees},
		c.UpdatedAt,
	)
	require.NoError(t, err)
}

func InsertCalendarEvent(t *testing.T, conn *sqlx.DB, e *entity.CalendarEvent) {
	t.Helper()
	var rfpRef, grantRef *uuid.UUID
	if e.Kind == valueobject.KindGrant {
		grantRef = &e.ProposalID
	} else {
		rfpRef = &e.ProposalID
	}
	_, err := conn.Exec(conn.Rebind(`
		INSERT INTO calendar_events (id, company_id, employee_id, proposal_id, grant_proposal_id, title, status, start_at, end_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), e.ID, e.CompanyID, e.EmployeeID, rfpRef, grantRef, e.Title, e.Status, e.StartAt, e.EndAt)
	require.NoError(t, err)
}

func InsertDraft(t *testing.T, conn *sqlx.DB, d *entity.Draft) {
	t.Helper()
	_, err := conn.Exec(conn.Rebind(`
		INSERT INTO `+d.Kind.Descriptor().DraftTable+` (id, proposal_id, title, collaborators, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`), d.ID, d.ProposalID, d.Title, common.JSONColumn[entity.Collaborators]{Val: d.Collaborators}, d.UpdatedAt)
	require.NoError(t, err)
}

func InsertTracker(t *testing.T, conn *sqlx.DB, tr *entity.Tracker) {
	t.Helper()
	_, err := conn.Exec(conn.Rebind(`
		INSERT INTO `+tr.Kind.Descriptor().TrackerTable+` (id, kind, proposal_id, stage, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), tr.ID, string(tr.Kind), tr.ProposalID, tr.Stage, tr.CreatedAt)
	require.NoError(t, err)
}

func InsertEmployeeProfile(t *testing.T, conn *sqlx.DB, e *entity.EmployeeProfile) {
	t.Helper()
	_, err := conn.Exec(conn.Rebind(`
		INSERT INTO employee_profiles (id, user_id, access_level, company_mail) VALUES (?, ?, ?, ?)
	`), e.ID, e.UserID, string(e.AccessLevel), e.CompanyMail)
	require.NoError(t, err)
}

// Count выполняет SELECT COUNT(*) с плейсхолдерами "?".
func Count(t *testing.T, conn *sqlx.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, conn.Get(&n, conn.Rebind(query), args...))
	return n
}

// FailOn создаёт триггер, который обрывает операцию над строкой, где column = value.
func FailOn(t *testing.T, conn *sqlx.DB, table, operation, column string, value uuid.UUID) {
	t.Helper()
	row := "NEW"
	if operation == "DELETE" {
		row = "OLD"
	}
	_, err := conn.Exec(`CREATE TRIGGER fail_` + strings.ToLower(operation) + `_` + table +
		` BEFORE ` + operation + ` ON ` + table +
		` WHEN ` + row + `.` + column + ` = '` + value.String() + `'` +
		` BEGIN SELECT RAISE(ABORT, 'injected failure'); END`)
	require.NoError(t, err)
}
