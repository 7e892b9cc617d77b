package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-workspace/internal/pkg/apperror"
)

// LifecycleState: состояние предложения в жизненном цикле.
// Purged не хранится: после окончательного удаления записи больше нет.
type LifecycleState string

const (
	StateActive  LifecycleState = "active"
	StateDeleted LifecycleState = "deleted"
	StatePurged  LifecycleState = "purged"
)

type Collaborators struct {
	Owner   uuid.UUID   `json:"owner"`
	Editors []uuid.UUID `json:"editors"`
	Viewers []uuid.UUID `json:"viewers"`
}

// Has проверяет, входит ли пользователь в редакторы или наблюдатели.
func (c Collaborators) Has(userID uuid.UUID) bool {
	return containsID(c.Editors, userID) || containsID(c.Viewers, userID)
}

func (c Collaborators) IsEditor(userID uuid.UUID) bool {
	return containsID(c.Editors, userID)
}

type Proposal struct {
	ID            uuid.UUID
	Kind          valueobject.ProposalKind
	Title         string
	CompanyMail   string
	Status        string
	Deadline      *time.Time
	SubmittedAt   *time.Time
	IsDeleted     bool
	DeletedAt     *time.Time
	DeletedBy     *uuid.UUID
	RestoreBy     *time.Time
	RestoredAt    *time.Time
	RestoredBy    *uuid.UUID
	MaxEditors    int
	MaxViewers    int
	Collaborators Collaborators
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProposalPatch: частичное обновление; nil означает «не менять».
type ProposalPatch struct {
	Deadline    *time.Time
	SubmittedAt *time.Time
	Status      *string
}

func (p ProposalPatch) IsEmpty() bool {
	return p.Deadline == nil && p.SubmittedAt == nil && p.Status == nil
}

// ProposalChange фиксирует, что реально изменилось после ApplyUpdate.
type ProposalChange struct {
	DeadlineChanged    bool
	SubmittedAtChanged bool
	StatusChanged      bool
	OldStatus          string
	NewStatus          string
}

func (p *Proposal) State() LifecycleState {
	if p.IsDeleted {
		return StateDeleted
	}
	return StateActive
}

// SoftDelete переводит Active -> Deleted и открывает окно восстановления.
func (p *Proposal) SoftDelete(actorID uuid.UUID, now time.Time, window time.Duration) error {
	if p.IsDeleted {
		return apperror.New(apperror.ErrCodeValidation, "предложение уже удалено")
	}
	restoreBy := now.Add(window)
	p.IsDeleted = true
	p.DeletedBy = &actorID
	p.DeletedAt = &now
	p.RestoreBy = &restoreBy
	p.UpdatedAt = now
	return nil
}

// Restore переводит Deleted -> Active. Истечение окна не проверяется:
// просроченные записи вычищает внешний процесс, а до тех пор восстановление разрешено.
func (p *Proposal) Restore(actorID uuid.UUID, now time.Time) error {
	if !p.IsDeleted {
		return apperror.New(apperror.ErrCodeValidation, "предложение не находится в корзине")
	}
	p.IsDeleted = false
	p.DeletedBy = nil
	p.DeletedAt = nil
	p.RestoreBy = nil
	p.RestoredBy = &actorID
	p.RestoredAt = &now
	p.UpdatedAt = now
	return nil
}

// ApplyUpdate применяет патч к полям и возвращает описание изменений.
func (p *Proposal) ApplyUpdate(patch ProposalPatch, now time.Time) ProposalChange {
	change := ProposalChange{OldStatus: p.Status, NewStatus: p.Status}

	if patch.Deadline != nil && !sameTime(p.Deadline, patch.Deadline) {
		d := *patch.Deadline
		p.Deadline = &d
		change.DeadlineChanged = true
	}
	if patch.SubmittedAt != nil && !sameTime(p.SubmittedAt, patch.SubmittedAt) {
		s := *patch.SubmittedAt
		p.SubmittedAt = &s
		change.SubmittedAtChanged = true
	}
	if patch.Status != nil && *patch.Status != p.Status {
		p.Status = *patch.Status
		change.StatusChanged = true
		change.NewStatus = p.Status
	}

	if change.DeadlineChanged || change.SubmittedAtChanged || change.StatusChanged {
		p.UpdatedAt = now
	}
	return change
}

// IsOwnedBy: владелец предложения это идентичность компании с той же почтой.
func (p *Proposal) IsOwnedBy(actor Actor) bool {
	return actor.Role == valueobject.RoleCompany && actor.Email != "" && actor.Email == p.CompanyMail
}

// CanBeMutatedBy проверяет право на изменение полей предложения.
// viewersCanEdit сохраняет исходную политику, где наблюдатели пишут наравне с редакторами.
func (p *Proposal) CanBeMutatedBy(actor Actor, viewersCanEdit bool) bool {
	if p.IsOwnedBy(actor) {
		return true
	}
	if p.Collaborators.IsEditor(actor.ID) {
		return true
	}
	return viewersCanEdit && containsID(p.Collaborators.Viewers, actor.ID)
}

// CanBeReadBy: чтение доступно владельцу и любому соавтору.
func (p *Proposal) CanBeReadBy(actor Actor) bool {
	return p.IsOwnedBy(actor) || p.Collaborators.Has(actor.ID)
}

// CheckCapacity: пустой набор никогда не считается переполненным,
// отклоняется только непустой набор больше лимита.
func (p *Proposal) CheckCapacity(editors, viewers []uuid.UUID) error {
	if len(editors) > 0 && len(editors) > p.MaxEditors {
		return apperror.New(apperror.ErrCodeCapacityExceeded, "превышен лимит редакторов")
	}
	if len(viewers) > 0 && len(viewers) > p.MaxViewers {
		return apperror.New(apperror.ErrCodeCapacityExceeded, "превышен лимит наблюдателей")
	}
	return nil
}

// ReplaceCollaborators перезаписывает наборы соавторов после проверки лимитов.
func (p *Proposal) ReplaceCollaborators(editors, viewers []uuid.UUID, now time.Time) error {
	if err := p.CheckCapacity(editors, viewers); err != nil {
		return err
	}
	p.Collaborators.Editors = append([]uuid.UUID{}, editors...)
	p.Collaborators.Viewers = append([]uuid.UUID{}, viewers...)
	p.UpdatedAt = now
	return nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func sameTime(current, next *time.Time) bool {
	if current == nil || next == nil {
		return current == nil && next == nil
	}
	return current.Equal(*next)
}
