package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
)

// EventStatusDeadline помечает событие календаря, отображающее срок предложения.
// Любой другой статус означает событие смены статуса.
const EventStatusDeadline = "Deadline"

type CalendarEvent struct {
	ID         uuid.UUID
	CompanyID  uuid.UUID
	EmployeeID *uuid.UUID
	Kind       valueobject.ProposalKind
	ProposalID uuid.UUID
	Title      string
	Status     string
	StartAt    time.Time
	EndAt      time.Time
}

func (e *CalendarEvent) IsDeadlineMarker() bool {
	return e.Status == EventStatusDeadline
}

// MoveTo переносит событие на одну точку во времени.
func (e *CalendarEvent) MoveTo(at time.Time) {
	e.StartAt = at
	e.EndAt = at
}

// Draft: изменяемый артефакт предложения; держит зеркало набора соавторов.
type Draft struct {
	ID            uuid.UUID
	Kind          valueobject.ProposalKind
	ProposalID    uuid.UUID
	Title         string
	Collaborators Collaborators
	UpdatedAt     time.Time
}

// MirrorCollaborators копирует наборы соавторов предложения в черновик.
func (d *Draft) MirrorCollaborators(p *Proposal, now time.Time) {
	d.Collaborators.Editors = append([]uuid.UUID{}, p.Collaborators.Editors...)
	d.Collaborators.Viewers = append([]uuid.UUID{}, p.Collaborators.Viewers...)
	d.UpdatedAt = now
}

type Tracker struct {
	ID         uuid.UUID
	Kind       valueobject.ProposalKind
	ProposalID uuid.UUID
	Stage      string
	CreatedAt  time.Time
}

// EmployeeProfile связывает сотрудника из реестра компании с учётной записью пользователя.
type EmployeeProfile struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	AccessLevel valueobject.AccessLevel
	CompanyMail string
}
