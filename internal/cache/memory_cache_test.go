package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
)

func TestMemoryListingCache_HitMissAndInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryListingCache(time.Minute)

	_, found, err := c.GetDeleted(ctx, valueobject.KindRFP, "owner@acme.test")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetDeleted(ctx, valueobject.KindRFP, "owner@acme.test", []*entity.Proposal{deletedProposal("Alpha")}))
	require.NoError(t, c.SetDeleted(ctx, valueobject.KindGrant, "owner@acme.test", nil))

	got, found, err := c.GetDeleted(ctx, valueobject.KindRFP, "owner@acme.test")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, "Alpha", got[0].Title)

	empty, found, err := c.GetDeleted(ctx, valueobject.KindGrant, "owner@acme.test")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, empty)

	require.NoError(t, c.Invalidate(ctx, "owner@acme.test"))
	for _, kind := range valueobject.Kinds() {
		_, found, _ = c.GetDeleted(ctx, kind, "owner@acme.test")
		assert.False(t, found, kind)
	}
}

func TestMemoryListingCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryListingCache(time.Minute)
	p := deletedProposal("Alpha")
	p.Collaborators.Editors = []uuid.UUID{uuid.New()}
	require.NoError(t, c.SetDeleted(ctx, valueobject.KindRFP, "owner@acme.test", []*entity.Proposal{p}))

	p.Title = "mutated after set"
	got, _, _ := c.GetDeleted(ctx, valueobject.KindRFP, "owner@acme.test")
	got[0].Collaborators.Editors[0] = uuid.Nil

	again, _, _ := c.GetDeleted(ctx, valueobject.KindRFP, "owner@acme.test")
	assert.Equal(t, "Alpha", again[0].Title)
	assert.NotEqual(t, uuid.Nil, again[0].Collaborators.Editors[0])
}

func TestMemoryListingCache_ExpiryAndSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	c := NewMemoryListingCache(time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetDeleted(ctx, valueobject.KindRFP, "owner@acme.test", []*entity.Proposal{deletedProposal("Alpha")}))

	now = now.Add(2 * time.Minute)
	_, found, err := c.GetDeleted(ctx, valueobject.KindRFP, "owner@acme.test")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 0, c.Sweep())
}

func TestMemoryListingCache_JanitorStopsWithContext(t *testing.T) {
	c := NewMemoryListingCache(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
