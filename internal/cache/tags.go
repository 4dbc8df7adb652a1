// Package cache tracks which cached aggregate views a mutation makes
// stale. Entries are stored with the tags they depend on; invalidating a
// tag drops every dependent entry.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Tag string

const (
	TagMonths     Tag = "budget_months"
	TagPiggyBanks Tag = "piggy_banks"
	TagCredits    Tag = "credits"
	TagCategories Tag = "expense_categories"
)

// MonthTag scopes invalidation to one month's aggregate views.
func MonthTag(monthID uuid.UUID) Tag {
	return Tag("budget_months:" + monthID.String())
}

// BankTag scopes invalidation to one piggy bank.
func BankTag(bankID uuid.UUID) Tag {
	return Tag("piggy_banks:" + bankID.String())
}

// Per-operation tag sets. These are the declarative contract between the
// mutation engines and the cache layer: every mutation reports exactly
// these tags as dirtied.

func ExpenseTransactionTags(monthID uuid.UUID) []Tag {
	return []Tag{TagMonths, MonthTag(monthID), TagPiggyBanks, TagCredits}
}

func IncomeDebtTags(bankID uuid.UUID) []Tag {
	return []Tag{TagMonths, TagPiggyBanks, BankTag(bankID)}
}

func PiggyBankTransactionTags(bankID uuid.UUID) []Tag {
	return []Tag{TagPiggyBanks, BankTag(bankID)}
}

func PlanTags(monthID uuid.UUID) []Tag {
	return []Tag{TagMonths, MonthTag(monthID)}
}

func ShadowEntityTags() []Tag {
	return []Tag{TagPiggyBanks, TagCredits, TagCategories}
}

// Invalidator receives the tag sets dirtied by mutations.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...Tag)
}

// TagCache is an LRU keyed by view name with a tag index on top, so a
// mutation can drop all dependent views without knowing their keys.
type TagCache[T any] struct {
	mu        sync.Mutex
	lru       *LRUCache[T]
	keysByTag map[Tag]map[string]struct{}
	tagsByKey map[string][]Tag
}

func NewTagCache[T any](maxSize int, ttl time.Duration) *TagCache[T] {
	return &TagCache[T]{
		lru:       NewLRUCache[T](maxSize, ttl),
		keysByTag: make(map[Tag]map[string]struct{}),
		tagsByKey: make(map[string][]Tag),
	}
}

func (c *TagCache[T]) Get(key string) (T, bool) {
	return c.lru.Get(key)
}

// Set stores a view result together with the tags it depends on.
func (c *TagCache[T]) Set(key string, data T, tags ...Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.unindexLocked(key)
	c.lru.Set(key, data)
	c.tagsByKey[key] = tags
	for _, tag := range tags {
		if c.keysByTag[tag] == nil {
			c.keysByTag[tag] = make(map[string]struct{})
		}
		c.keysByTag[tag][key] = struct{}{}
	}
}

// Invalidate drops every entry depending on any of the tags. It
// implements Invalidator; the context is unused for the in-process cache.
func (c *TagCache[T]) Invalidate(_ context.Context, tags ...Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, tag := range tags {
		for key := range c.keysByTag[tag] {
			c.lru.Delete(key)
			c.unindexLocked(key)
		}
	}
}

func (c *TagCache[T]) Size() int {
	return c.lru.Size()
}

func (c *TagCache[T]) unindexLocked(key string) {
	for _, tag := range c.tagsByKey[key] {
		delete(c.keysByTag[tag], key)
	}
	delete(c.tagsByKey, key)
}

// Fanout forwards each invalidation to every registered receiver, e.g.
// the local tag cache plus the AMQP publisher.
type Fanout []Invalidator

func (f Fanout) Invalidate(ctx context.Context, tags ...Tag) {
	for _, inv := range f {
		inv.Invalidate(ctx, tags...)
	}
}
