package persistence

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/proposal-workspace/internal/domain/repository"
	"github.com/ignatzorin/proposal-workspace/internal/repository/common"
)

// SQLUnitOfWork выполняет функцию в одной транзакции; все хранилища в Stores привязаны к ней.
type SQLUnitOfWork struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewSQLUnitOfWork(db *sqlx.DB, timeout time.Duration) *SQLUnitOfWork {
	return &SQLUnitOfWork{db: db, timeout: timeout}
}

func (u *SQLUnitOfWork) Do(ctx context.Context, fn func(stores repository.Stores) error) error {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}
	return common.WithTransaction(ctx, u.db, func(tx *sqlx.Tx) error {
		return fn(NewStores(tx))
	})
}

// NewStores собирает адаптеры поверх соединения или транзакции.
func NewStores(q common.Queryer) repository.Stores {
	return repository.Stores{
		Proposals: NewProposalRepositoryAdapter(q),
		Companies: NewCompanyRepositoryAdapter(q),
		Calendar:  NewCalendarRepositoryAdapter(q),
		Drafts:    NewDraftRepositoryAdapter(q),
		Trackers:  NewTrackerRepositoryAdapter(q),
		Employees: NewEmployeeRepositoryAdapter(q),
	}
}
