package repository

import "context"

// Stores: набор репозиториев, привязанных к одной транзакции.
type Stores struct {
	Proposals ProposalRepository
	Companies CompanyRepository
	Calendar  CalendarRepository
	Drafts    DraftRepository
	Trackers  TrackerRepository
	Employees EmployeeRepository
}

// UnitOfWork выполняет fn как одну атомарную единицу.
// Ошибка fn или коммита откатывает все изменения; транзакция не переживает вызов.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(stores Stores) error) error
}
