package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
)

// ProposalRepository работает с обоими видами предложений; вид выбирает таблицу.
type ProposalRepository interface {
	FindByID(ctx context.Context, kind valueobject.ProposalKind, id uuid.UUID) (*entity.Proposal, error)
	FindByIDs(ctx context.Context, kind valueobject.ProposalKind, ids []uuid.UUID) ([]*entity.Proposal, error)
	// Варианты ForUpdate держат блокировку строк до конца единицы работы.
	FindByIDForUpdate(ctx context.Context, kind valueobject.ProposalKind, id uuid.UUID) (*entity.Proposal, error)
	FindByIDsForUpdate(ctx context.Context, kind valueobject.ProposalKind, ids []uuid.UUID) ([]*entity.Proposal, error)
	FindDeletedByCompany(ctx context.Context, kind valueobject.ProposalKind, companyMail string) ([]*entity.Proposal, error)
	Update(ctx context.Context, proposal *entity.Proposal) error
	// MarkDeleted одним UPDATE переводит все перечисленные записи в корзину.
	MarkDeleted(ctx context.Context, kind valueobject.ProposalKind, ids []uuid.UUID, deletedBy uuid.UUID, deletedAt, restoreBy time.Time) (int64, error)
	Delete(ctx context.Context, kind valueobject.ProposalKind, id uuid.UUID) error
}

type CompanyRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.CompanyProfile, error)
	FindByEmailForUpdate(ctx context.Context, email string) (*entity.CompanyProfile, error)
	Update(ctx context.Context, company *entity.CompanyProfile) error
}

type CalendarRepository interface {
	FindDeadlineEvent(ctx context.Context, kind valueobject.ProposalKind, proposalID uuid.UUID) (*entity.CalendarEvent, error)
	FindStatusEvent(ctx context.Context, kind valueobject.ProposalKind, proposalID uuid.UUID) (*entity.CalendarEvent, error)
	Update(ctx context.Context, event *entity.CalendarEvent) error
	DeleteByProposal(ctx context.Context, kind valueobject.ProposalKind, proposalID uuid.UUID) (int64, error)
}

type DraftRepository interface {
	FindByProposal(ctx context.Context, kind valueobject.ProposalKind, proposalID uuid.UUID) (*entity.Draft, error)
	Update(ctx context.Context, draft *entity.Draft) error
	DeleteByProposal(ctx context.Context, kind valueobject.ProposalKind, proposalID uuid.UUID) (int64, error)
}

type TrackerRepository interface {
	DeleteByProposal(ctx context.Context, kind valueobject.ProposalKind, proposalID uuid.UUID) (int64, error)
}

type EmployeeRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.EmployeeProfile, error)
}
