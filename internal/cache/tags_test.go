package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTagCacheInvalidateByTag(t *testing.T) {
	c := NewTagCache[string](10, time.Minute)
	monthID := uuid.New()

	c.Set("summary:a", "one", TagMonths, MonthTag(monthID))
	c.Set("months:list", "two", TagMonths)
	c.Set("banks", "three", TagPiggyBanks)

	c.Invalidate(context.Background(), MonthTag(monthID))

	_, ok := c.Get("summary:a")
	assert.False(t, ok, "entry tagged with the month should be dropped")
	_, ok = c.Get("months:list")
	assert.True(t, ok, "entry without the month tag should survive")

	c.Invalidate(context.Background(), TagMonths)
	_, ok = c.Get("months:list")
	assert.False(t, ok)
	_, ok = c.Get("banks")
	assert.True(t, ok, "unrelated tag should be untouched")
}

func TestTagCacheOverwriteReindexes(t *testing.T) {
	c := NewTagCache[int](10, time.Minute)
	c.Set("k", 1, TagPiggyBanks)
	c.Set("k", 2, TagCredits)

	c.Invalidate(context.Background(), TagPiggyBanks)
	v, ok := c.Get("k")
	assert.True(t, ok, "old tag must no longer cover the key")
	assert.Equal(t, 2, v)

	c.Invalidate(context.Background(), TagCredits)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should be evicted at capacity")
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCacheTTL(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get("a")
	assert.False(t, ok, "expired entry should not be returned")
	assert.Equal(t, 0, c.Size())
}

type recordingInvalidator struct {
	calls [][]Tag
}

func (r *recordingInvalidator) Invalidate(_ context.Context, tags ...Tag) {
	r.calls = append(r.calls, tags)
}

func TestFanout(t *testing.T) {
	a := &recordingInvalidator{}
	b := &recordingInvalidator{}
	f := Fanout{a, b}

	f.Invalidate(context.Background(), TagMonths, TagPiggyBanks)

	assert.Len(t, a.calls, 1)
	assert.Len(t, b.calls, 1)
	assert.Equal(t, []Tag{TagMonths, TagPiggyBanks}, a.calls[0])
}

func TestPerOperationTagSets(t *testing.T) {
	monthID := uuid.New()
	bankID := uuid.New()

	assert.Contains(t, ExpenseTransactionTags(monthID), MonthTag(monthID))
	assert.Contains(t, ExpenseTransactionTags(monthID), TagPiggyBanks)
	assert.Contains(t, IncomeDebtTags(bankID), BankTag(bankID))
	assert.Contains(t, PlanTags(monthID), TagMonths)
	assert.NotContains(t, PlanTags(monthID), TagPiggyBanks)
}
