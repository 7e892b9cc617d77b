package lifecycle

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/repository"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-workspace/internal/notification"
	"github.com/ignatzorin/proposal-workspace/internal/pkg/apperror"
	"github.com/ignatzorin/proposal-workspace/internal/usecase/collaborator"
)

const (
	OpSoftDelete       = "soft_delete"
	OpRestore          = "restore"
	OpPurge            = "purge"
	OpUpdate           = "update"
	OpSetCollaborators = "set_collaborators"
	OpListDeleted      = "list_deleted"
	OpGet              = "get"
)

// Notifier принимает задания после коммита; реализуется notification.Dispatcher.
type Notifier interface {
	Enqueue(job notification.Job)
}

// ListingCache: кэш списков корзины. Ошибки кэша не влияют на результат операции.
type ListingCache interface {
	GetDeleted(ctx context.Context, kind valueobject.ProposalKind, companyMail string) ([]*entity.Proposal, bool, error)
	SetDeleted(ctx context.Context, kind valueobject.ProposalKind, companyMail string, proposals []*entity.Proposal) error
	Invalidate(ctx context.Context, companyMail string) error
}

type OperationObserver interface {
	ObserveOperation(kind, op, result string)
}

type Config struct {
	RestoreWindow  time.Duration
	ViewersCanEdit bool
}

// Coordinator выполняет операции жизненного цикла; каждая операция: одна атомарная единица.
// Уведомления, сброс кэша и метрики выполняются только после коммита.
type Coordinator struct {
	uow      repository.UnitOfWork
	notifier Notifier
	cache    ListingCache
	observer OperationObserver
	log      logrus.FieldLogger
	now      func() time.Time
	window   time.Duration
	policy   collaborator.Policy

	// generations растут при каждой инвалидации компании; список, прочитанный
	// до инвалидации, в кэш не записывается.
	genMu       sync.Mutex
	generations map[string]uint64
}

type Option func(*Coordinator)

func WithCache(cache ListingCache) Option {
	return func(c *Coordinator) { c.cache = cache }
}

func WithObserver(observer OperationObserver) Option {
	return func(c *Coordinator) { c.observer = observer }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCoordinator(uow repository.UnitOfWork, notifier Notifier, cfg Config, opts ...Option) *Coordinator {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	window := cfg.RestoreWindow
	if window <= 0 {
		window = valueobject.DefaultRestoreWindow
	}

	c := &Coordinator{
		uow:      uow,
		notifier: notifier,
		log:      discard,
		now:      func() time.Time { return time.Now().UTC() },
		window:   window,
		policy:   collaborator.Policy{ViewersCanEdit: cfg.ViewersCanEdit},

		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// atomically выполняет fn в единице работы. Ошибки хранилища становятся CONSISTENCY_FAILURE.
func (c *Coordinator) atomically(ctx context.Context, fn func(stores repository.Stores) error) error {
	err := c.uow.Do(ctx, fn)
	if err == nil {
		return nil
	}
	err = apperror.Consistency(err, "не удалось зафиксировать изменения")
	if apperror.Is(err, apperror.ErrCodeConsistencyFailure) {
		c.log.WithError(err).Error("atomic unit rolled back")
	}
	return err
}

func (c *Coordinator) observe(kind valueobject.ProposalKind, op string, err error) {
	if c.observer == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(apperror.CodeOf(err))
	}
	c.observer.ObserveOperation(kind.String(), op, result)
}

// notify строит и ставит задание; ошибка только логируется.
func (c *Coordinator) notify(p *entity.Proposal, ev notification.Event) {
	if c.notifier == nil || p.CompanyMail == "" {
		return
	}
	job, err := notification.BuildJob(p.CompanyMail, ev)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"kind":        p.Kind,
			"proposal_id": p.ID,
			"type":        ev.Type,
		}).WithError(err).Warn("notification not scheduled")
		return
	}
	c.notifier.Enqueue(job)
}

func (c *Coordinator) invalidate(ctx context.Context, companyMails ...string) {
	if c.cache == nil {
		return
	}
	seen := make(map[string]struct{}, len(companyMails))
	for _, mail := range companyMails {
		if _, ok := seen[mail]; ok || mail == "" {
			continue
		}
		seen[mail] = struct{}{}
		c.genMu.Lock()
		c.generations[mail]++
		c.genMu.Unlock()
		if err := c.cache.Invalidate(ctx, mail); err != nil {
			c.log.WithField("company", mail).WithError(err).Warn("listing cache invalidation failed")
		}
	}
}

func (c *Coordinator) generation(companyMail string) uint64 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.generations[companyMail]
}

// storeListing кладёт список в кэш, только если компанию не инвалидировали после чтения.
// Запись идёт под genMu, поэтому инвалидация либо видна здесь, либо удалит запись позже.
func (c *Coordinator) storeListing(ctx context.Context, kind valueobject.ProposalKind, companyMail string, readGen uint64, proposals []*entity.Proposal) {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	if c.generations[companyMail] != readGen {
		c.log.WithField("company", companyMail).Debug("listing changed during read, cache write skipped")
		return
	}
	if err := c.cache.SetDeleted(ctx, kind, companyMail, proposals); err != nil {
		c.log.WithField("company", companyMail).WithError(err).Warn("listing cache write failed")
	}
}

func validateKind(kind valueobject.ProposalKind) error {
	if !kind.IsValid() {
		return apperror.New(apperror.ErrCodeValidation, "некорректный вид предложения")
	}
	return nil
}
