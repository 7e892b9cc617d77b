package collaborator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/repository"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-workspace/internal/pkg/apperror"
)

// Policy: правила доступа к предложению для операций чтения и изменения.
type Policy struct {
	ViewersCanEdit bool
}

func (p Policy) CheckMutate(proposal *entity.Proposal, actor entity.Actor) error {
	if !proposal.CanBeMutatedBy(actor, p.ViewersCanEdit) {
		return apperror.ErrForbidden
	}
	return nil
}

func (p Policy) CheckRead(proposal *entity.Proposal, actor entity.Actor) error {
	if !proposal.CanBeReadBy(actor) {
		return apperror.ErrForbidden
	}
	return nil
}

// CheckOwner: окончательное удаление и назначение соавторов доступны только компании-владельцу.
func (p Policy) CheckOwner(proposal *entity.Proposal, actor entity.Actor) error {
	if !proposal.IsOwnedBy(actor) {
		return apperror.ErrForbidden
	}
	return nil
}

// Assignment: разрешённые наборы пользователей, готовые к записи в предложение.
type Assignment struct {
	Editors []uuid.UUID
	Viewers []uuid.UUID
}

// Authorizer переводит идентификаторы сотрудников компании в наборы соавторов.
type Authorizer struct {
	companies repository.CompanyRepository
	employees repository.EmployeeRepository
	policy    Policy
}

func NewAuthorizer(companies repository.CompanyRepository, employees repository.EmployeeRepository, policy Policy) *Authorizer {
	return &Authorizer{
		companies: companies,
		employees: employees,
		policy:    policy,
	}
}

// Resolve проверяет права, состав реестра и лимиты. Ничего не сохраняет.
func (a *Authorizer) Resolve(ctx context.Context, proposal *entity.Proposal, actor entity.Actor, candidateIDs []string) (*Assignment, error) {
	if err := a.policy.CheckOwner(proposal, actor); err != nil {
		return nil, err
	}

	company, err := a.companies.FindByEmail(ctx, proposal.CompanyMail)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrMissingOwner
		}
		return nil, err
	}

	// Все кандидаты проверяются до первого обращения к профилям сотрудников.
	employeeIDs := make([]uuid.UUID, 0, len(candidateIDs))
	seen := make(map[uuid.UUID]struct{}, len(candidateIDs))
	for _, raw := range candidateIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, invalidReference(raw, "некорректный идентификатор сотрудника")
		}
		if !company.HasEmployee(id) {
			return nil, invalidReference(raw, "сотрудник не состоит в компании")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		employeeIDs = append(employeeIDs, id)
	}

	profiles, err := a.employees.FindByIDs(ctx, employeeIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*entity.EmployeeProfile, len(profiles))
	for _, profile := range profiles {
		byID[profile.ID] = profile
	}

	assignment := &Assignment{Editors: []uuid.UUID{}, Viewers: []uuid.UUID{}}
	levels := make(map[uuid.UUID]valueobject.AccessLevel, len(employeeIDs))
	order := make([]uuid.UUID, 0, len(employeeIDs))
	for _, id := range employeeIDs {
		profile, ok := byID[id]
		if !ok || profile.CompanyMail != proposal.CompanyMail {
			return nil, invalidReference(id.String(), "профиль сотрудника не найден")
		}
		current, known := levels[profile.UserID]
		if !known {
			order = append(order, profile.UserID)
		}
		// Пользователь с двумя профилями попадает в один набор; редактор старше наблюдателя.
		if !known || (current == valueobject.AccessViewer && profile.AccessLevel == valueobject.AccessEditor) {
			levels[profile.UserID] = profile.AccessLevel
		}
	}
	for _, userID := range order {
		if levels[userID] == valueobject.AccessEditor {
			assignment.Editors = append(assignment.Editors, userID)
		} else {
			assignment.Viewers = append(assignment.Viewers, userID)
		}
	}

	if err := proposal.CheckCapacity(assignment.Editors, assignment.Viewers); err != nil {
		return nil, err
	}

	return assignment, nil
}

func invalidReference(id, reason string) error {
	return apperror.New(apperror.ErrCodeInvalidReference, fmt.Sprintf("%s: %s", reason, id))
}
