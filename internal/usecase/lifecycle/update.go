package lifecycle

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/repository"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-workspace/internal/notification"
	"github.com/ignatzorin/proposal-workspace/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-workspace/internal/usecase/collaborator"
	"github.com/ignatzorin/proposal-workspace/internal/validation"
)

// ParsePatch разбирает строковые поля запроса. Даты: RFC3339 или YYYY-MM-DD.
func ParsePatch(deadline, submittedAt, status *string) (entity.ProposalPatch, error) {
	var patch entity.ProposalPatch
	if deadline != nil {
		t, err := valueobject.ParseDate(strings.TrimSpace(*deadline))
		if err != nil {
			return patch, apperror.New(apperror.ErrCodeValidation, "некорректная дата срока")
		}
		patch.Deadline = &t
	}
	if submittedAt != nil {
		t, err := valueobject.ParseDate(strings.TrimSpace(*submittedAt))
		if err != nil {
			return patch, apperror.New(apperror.ErrCodeValidation, "некорректная дата подачи")
		}
		patch.SubmittedAt = &t
	}
	if status != nil {
		s := strings.TrimSpace(*status)
		if err := checkStatus(s); err != nil {
			return patch, err
		}
		patch.Status = &s
	}
	return patch, nil
}

// checkStatus: метка события срока зарезервирована, иначе событие статуса
// перестаёт отличаться от события срока в календаре.
func checkStatus(status string) error {
	if err := validation.ValidateStatus(status); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if strings.EqualFold(status, entity.EventStatusDeadline) {
		return apperror.New(apperror.ErrCodeValidation, "статус \""+entity.EventStatusDeadline+"\" зарезервирован для события срока")
	}
	return nil
}

// Update меняет срок, дату подачи и статус и синхронизирует календарь и профиль компании.
// Отсутствие события календаря или записи в профиле не ошибка.
func (c *Coordinator) Update(ctx context.Context, kind valueobject.ProposalKind, rawID string, patch entity.ProposalPatch, actor entity.Actor) (result *entity.Proposal, err error) {
	defer func() { c.observe(kind, OpUpdate, err) }()

	if err := validateKind(kind); err != nil {
		return nil, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, apperror.New(apperror.ErrCodeValidation, "нет полей для обновления")
	}
	if patch.Status != nil {
		if err := checkStatus(*patch.Status); err != nil {
			return nil, err
		}
	}

	descriptor := kind.Descriptor()
	now := c.now()
	var change entity.ProposalChange

	err = c.atomically(ctx, func(stores repository.Stores) error {
		p, err := stores.Proposals.FindByIDForUpdate(ctx, kind, id)
		if err != nil {
			return err
		}
		if p.IsDeleted {
			return apperror.ErrProposalNotFound
		}
		if err := c.policy.CheckMutate(p, actor); err != nil {
			return err
		}

		change = p.ApplyUpdate(patch, now)
		result = p
		if !change.DeadlineChanged && !change.SubmittedAtChanged && !change.StatusChanged {
			return nil
		}

		if change.DeadlineChanged && p.Deadline != nil {
			event, err := stores.Calendar.FindDeadlineEvent(ctx, kind, p.ID)
			if err != nil {
				return err
			}
			if event != nil {
				event.MoveTo(*p.Deadline)
				if err := stores.Calendar.Update(ctx, event); err != nil {
					return err
				}
			}
		}

		if change.StatusChanged {
			event, err := stores.Calendar.FindStatusEvent(ctx, kind, p.ID)
			if err != nil {
				return err
			}
			if event != nil {
				event.Status = p.Status
				if descriptor.StatusEventFollowsSubmission && p.SubmittedAt != nil {
					event.MoveTo(*p.SubmittedAt)
				}
				if err := stores.Calendar.Update(ctx, event); err != nil {
					return err
				}
			}
		}

		if err := stores.Proposals.Update(ctx, p); err != nil {
			return err
		}

		company, err := stores.Companies.FindByEmailForUpdate(ctx, p.CompanyMail)
		if err != nil {
			if apperror.IsNotFound(err) {
				c.log.WithFields(logrus.Fields{
					"kind":        kind,
					"proposal_id": p.ID,
					"company":     p.CompanyMail,
				}).Warn("owning company missing, summaries not synced")
				return nil
			}
			return err
		}
		if company.SyncProposal(p, change) {
			company.UpdatedAt = now
			if err := stores.Companies.Update(ctx, company); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if change.StatusChanged {
		c.notify(result, notification.Event{
			Type:      notification.TypeProposalStatusChanged,
			Kind:      kind,
			Title:     result.Title,
			OldStatus: change.OldStatus,
			NewStatus: change.NewStatus,
		})
	}

	return result, nil
}

// SetCollaborators перезаписывает наборы соавторов предложения и его черновика в одной транзакции.
func (c *Coordinator) SetCollaborators(ctx context.Context, kind valueobject.ProposalKind, rawID string, employeeIDs []string, actor entity.Actor) (result *entity.Proposal, err error) {
	defer func() { c.observe(kind, OpSetCollaborators, err) }()

	if err := validateKind(kind); err != nil {
		return nil, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	now := c.now()
	err = c.atomically(ctx, func(stores repository.Stores) error {
		p, err := stores.Proposals.FindByIDForUpdate(ctx, kind, id)
		if err != nil {
			return err
		}
		if p.IsDeleted {
			return apperror.ErrProposalNotFound
		}

		authorizer := collaborator.NewAuthorizer(stores.Companies, stores.Employees, c.policy)
		assignment, err := authorizer.Resolve(ctx, p, actor, employeeIDs)
		if err != nil {
			return err
		}
		if err := p.ReplaceCollaborators(assignment.Editors, assignment.Viewers, now); err != nil {
			return err
		}
		if err := stores.Proposals.Update(ctx, p); err != nil {
			return err
		}

		draft, err := stores.Drafts.FindByProposal(ctx, kind, p.ID)
		if err != nil {
			return err
		}
		if draft != nil {
			draft.MirrorCollaborators(p, now)
			if err := stores.Drafts.Update(ctx, draft); err != nil {
				return err
			}
		}

		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get читает предложение с той же проверкой доступа, что и чтение соавтором.
func (c *Coordinator) Get(ctx context.Context, kind valueobject.ProposalKind, rawID string, actor entity.Actor) (result *entity.Proposal, err error) {
	defer func() { c.observe(kind, OpGet, err) }()

	if err := validateKind(kind); err != nil {
		return nil, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	err = c.atomically(ctx, func(stores repository.Stores) error {
		p, err := stores.Proposals.FindByID(ctx, kind, id)
		if err != nil {
			return err
		}
		if err := c.policy.CheckRead(p, actor); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
