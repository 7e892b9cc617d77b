// Package cache хранит в Redis списки корзины компаний.
// Кэшируются только записи; отсчёт до конца окна восстановления считается при чтении.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
)

const keyPrefix = "proposals:deleted:"

type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListingCache подключается к Redis и проверяет соединение.
func NewListingCache(redisURL string, ttl time.Duration) (*ListingCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewListingCacheWithClient(client, ttl), nil
}

func NewListingCacheWithClient(client *redis.Client, ttl time.Duration) *ListingCache {
	return &ListingCache{client: client, ttl: ttl}
}

func (c *ListingCache) key(kind valueobject.ProposalKind, companyMail string) string {
	return keyPrefix + string(kind) + ":" + companyMail
}

// GetDeleted возвращает закэшированный список; found=false при промахе.
func (c *ListingCache) GetDeleted(ctx context.Context, kind valueobject.ProposalKind, companyMail string) ([]*entity.Proposal, bool, error) {
	raw, err := c.client.Get(ctx, c.key(kind, companyMail)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get listing: %w", err)
	}

	var proposals []*entity.Proposal
	if err := json.Unmarshal(raw, &proposals); err != nil {
		return nil, false, fmt.Errorf("decode listing: %w", err)
	}
	return proposals, true, nil
}

func (c *ListingCache) SetDeleted(ctx context.Context, kind valueobject.ProposalKind, companyMail string, proposals []*entity.Proposal) error {
	if proposals == nil {
		proposals = []*entity.Proposal{}
	}
	raw, err := json.Marshal(proposals)
	if err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}
	if err := c.client.Set(ctx, c.key(kind, companyMail), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set listing: %w", err)
	}
	return nil
}

// Invalidate сбрасывает списки компании для всех видов предложений.
func (c *ListingCache) Invalidate(ctx context.Context, companyMail string) error {
	kinds := valueobject.Kinds()
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, c.key(kind, companyMail))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate listing: %w", err)
	}
	return nil
}

func (c *ListingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *ListingCache) Close() error {
	return c.client.Close()
}
