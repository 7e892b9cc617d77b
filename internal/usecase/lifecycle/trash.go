package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/repository"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-workspace/internal/notification"
	"github.com/ignatzorin/proposal-workspace/internal/pkg/apperror"
)

// DeletedProposal: запись корзины с отсчётом до конца окна восстановления.
type DeletedProposal struct {
	Proposal         *entity.Proposal
	RestoreCountdown string
}

// SoftDelete переводит все предложения пакета в корзину одним UPDATE.
// Идентификаторы проверяются до открытия транзакции; отсутствие любого из них отменяет весь пакет.
// Уже удалённые записи пропускаются.
func (c *Coordinator) SoftDelete(ctx context.Context, kind valueobject.ProposalKind, rawIDs []string, actor entity.Actor) (result []*entity.Proposal, err error) {
	defer func() { c.observe(kind, OpSoftDelete, err) }()

	if err := validateKind(kind); err != nil {
		return nil, err
	}
	ids, err := parseBatch(rawIDs)
	if err != nil {
		return nil, err
	}

	now := c.now()
	var affected []*entity.Proposal

	err = c.atomically(ctx, func(stores repository.Stores) error {
		found, err := stores.Proposals.FindByIDsForUpdate(ctx, kind, ids)
		if err != nil {
			return err
		}
		if missing := missingIDs(ids, found); len(missing) > 0 {
			return apperror.New(apperror.ErrCodeNotFound, fmt.Sprintf("предложение не найдено: %s", missing[0]))
		}

		var pending []uuid.UUID
		for _, p := range found {
			if err := c.policy.CheckMutate(p, actor); err != nil {
				return err
			}
			if !p.IsDeleted {
				pending = append(pending, p.ID)
			}
		}
		if len(pending) == 0 {
			result = found
			return nil
		}

		n, err := stores.Proposals.MarkDeleted(ctx, kind, pending, actor.ID, now, now.Add(c.window))
		if err != nil {
			return err
		}
		if n != int64(len(pending)) {
			return fmt.Errorf("soft delete: обновлено %d из %d записей", n, len(pending))
		}

		result, err = stores.Proposals.FindByIDs(ctx, kind, ids)
		if err != nil {
			return err
		}
		affected, err = stores.Proposals.FindByIDs(ctx, kind, pending)
		return err
	})
	if err != nil {
		return nil, err
	}

	mails := make([]string, 0, len(affected))
	for _, p := range affected {
		c.notify(p, notification.Event{
			Type:      notification.TypeProposalDeleted,
			Kind:      kind,
			Title:     p.Title,
			RestoreBy: p.RestoreBy,
		})
		mails = append(mails, p.CompanyMail)
	}
	c.invalidate(ctx, mails...)

	c.log.WithFields(logrus.Fields{
		"kind":    kind,
		"op":      OpSoftDelete,
		"batch":   len(ids),
		"deleted": len(affected),
	}).Info("proposals moved to trash")

	return result, nil
}

// Restore возвращает предложение из корзины. Истечение окна не проверяется.
func (c *Coordinator) Restore(ctx context.Context, kind valueobject.ProposalKind, rawID string, actor entity.Actor) (result *entity.Proposal, err error) {
	defer func() { c.observe(kind, OpRestore, err) }()

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
		if err := c.policy.CheckMutate(p, actor); err != nil {
			return err
		}
		if err := p.Restore(actor.ID, now); err != nil {
			return err
		}
		if err := stores.Proposals.Update(ctx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.notify(result, notification.Event{
		Type:  notification.TypeProposalRestored,
		Kind:  kind,
		Title: result.Title,
	})
	c.invalidate(ctx, result.CompanyMail)

	return result, nil
}

// Purge безвозвратно удаляет предложение вместе с черновиком, трекером,
// записями в профиле компании и событиями календаря.
func (c *Coordinator) Purge(ctx context.Context, kind valueobject.ProposalKind, rawID string, actor entity.Actor) (err error) {
	defer func() { c.observe(kind, OpPurge, err) }()

	if err := validateKind(kind); err != nil {
		return err
	}
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	now := c.now()
	var purged *entity.Proposal
	var stats logrus.Fields

	err = c.atomically(ctx, func(stores repository.Stores) error {
		p, err := stores.Proposals.FindByIDForUpdate(ctx, kind, id)
		if err != nil {
			return err
		}
		if err := c.policy.CheckOwner(p, actor); err != nil {
			return err
		}
		company, err := stores.Companies.FindByEmailForUpdate(ctx, p.CompanyMail)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.ErrMissingOwner
			}
			return err
		}

		if err := stores.Proposals.Delete(ctx, kind, p.ID); err != nil {
			return err
		}
		drafts, err := stores.Drafts.DeleteByProposal(ctx, kind, p.ID)
		if err != nil {
			return err
		}
		trackers, err := stores.Trackers.DeleteByProposal(ctx, kind, p.ID)
		if err != nil {
			return err
		}
		entries := company.RemoveProposal(p)
		company.UpdatedAt = now
		if err := stores.Companies.Update(ctx, company); err != nil {
			return err
		}
		events, err := stores.Calendar.DeleteByProposal(ctx, kind, p.ID)
		if err != nil {
			return err
		}

		purged = p
		stats = logrus.Fields{"drafts": drafts, "trackers": trackers, "summaries": entries, "events": events}
		return nil
	})
	if err != nil {
		return err
	}

	c.notify(purged, notification.Event{
		Type:  notification.TypeProposalPurged,
		Kind:  kind,
		Title: purged.Title,
	})
	c.invalidate(ctx, purged.CompanyMail)

	c.log.WithFields(stats).WithFields(logrus.Fields{
		"kind":        kind,
		"op":          OpPurge,
		"proposal_id": purged.ID,
	}).Info("proposal purged")

	return nil
}

// ListDeleted возвращает корзину компании. Отсчёт пересчитывается при каждом чтении.
func (c *Coordinator) ListDeleted(ctx context.Context, kind valueobject.ProposalKind, actor entity.Actor) (result []DeletedProposal, err error) {
	defer func() { c.observe(kind, OpListDeleted, err) }()

	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if !actor.IsCompany() || actor.Email == "" {
		return nil, apperror.ErrForbidden
	}

	proposals, err := c.loadDeleted(ctx, kind, actor.Email)
	if err != nil {
		return nil, err
	}

	now := c.now()
	result = make([]DeletedProposal, 0, len(proposals))
	for _, p := range proposals {
		result = append(result, DeletedProposal{
			Proposal:         p,
			RestoreCountdown: valueobject.RestoreCountdown(p.RestoreBy, now),
		})
	}
	return result, nil
}

func (c *Coordinator) loadDeleted(ctx context.Context, kind valueobject.ProposalKind, companyMail string) ([]*entity.Proposal, error) {
	if c.cache != nil {
		cached, found, err := c.cache.GetDeleted(ctx, kind, companyMail)
		if err != nil {
			c.log.WithField("company", companyMail).WithError(err).Warn("listing cache read failed")
		} else if found {
			return cached, nil
		}
	}

	readGen := c.generation(companyMail)
	var proposals []*entity.Proposal
	err := c.atomically(ctx, func(stores repository.Stores) error {
		var err error
		proposals, err = stores.Proposals.FindDeletedByCompany(ctx, kind, companyMail)
		return err
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.storeListing(ctx, kind, companyMail, readGen, proposals)
	}
	return proposals, nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("некорректный идентификатор: %q", raw))
	}
	return id, nil
}

// parseBatch проверяет формат каждого идентификатора и убирает повторы.
func parseBatch(rawIDs []string) ([]uuid.UUID, error) {
	if len(rawIDs) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "список идентификаторов пуст")
	}
	ids := make([]uuid.UUID, 0, len(rawIDs))
	seen := make(map[uuid.UUID]struct{}, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := parseID(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func missingIDs(ids []uuid.UUID, found []*entity.Proposal) []uuid.UUID {
	present := make(map[uuid.UUID]struct{}, len(found))
	for _, p := range found {
		present[p.ID] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
