package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
)

// MemoryListingCache: кэш списков корзины в памяти процесса, когда Redis не настроен.
// Годится только для одного экземпляра сервиса: инвалидация не видна другим процессам.
type MemoryListingCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	proposals []*entity.Proposal
	expiresAt time.Time
}

func NewMemoryListingCache(ttl time.Duration) *MemoryListingCache {
	return &MemoryListingCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryListingCache) GetDeleted(_ context.Context, kind valueobject.ProposalKind, companyMail string) ([]*entity.Proposal, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[memoryKey(kind, companyMail)]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return cloneProposals(entry.proposals), true, nil
}

func (c *MemoryListingCache) SetDeleted(_ context.Context, kind valueobject.ProposalKind, companyMail string, proposals []*entity.Proposal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[memoryKey(kind, companyMail)] = memoryEntry{
		proposals: cloneProposals(proposals),
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

func (c *MemoryListingCache) Invalidate(_ context.Context, companyMail string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, kind := range valueobject.Kinds() {
		delete(c.entries, memoryKey(kind, companyMail))
	}
	return nil
}

// Sweep удаляет просроченные записи и возвращает их число.
func (c *MemoryListingCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// RunJanitor периодически вызывает Sweep до отмены контекста.
func (c *MemoryListingCache) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

func memoryKey(kind valueobject.ProposalKind, companyMail string) string {
	return keyPrefix + string(kind) + ":" + companyMail
}

// cloneProposals копирует записи, чтобы вызывающий код не менял содержимое кэша.
func cloneProposals(src []*entity.Proposal) []*entity.Proposal {
	out := make([]*entity.Proposal, 0, len(src))
	for _, p := range src {
		cp := *p
		cp.Collaborators.Editors = append([]uuid.UUID(nil), p.Collaborators.Editors...)
		cp.Collaborators.Viewers = append([]uuid.UUID(nil), p.Collaborators.Viewers...)
		out = append(out, &cp)
	}
	return out
}
