// Package registry manages the entities transactions route through:
// expense categories, piggy banks, and credits. Creating a bank or credit
// also creates its shadow category, so money can flow into the entity
// through the ordinary expense path.
package registry

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kopilka/internal/cache"
	"kopilka/internal/core"
	"kopilka/internal/store"
)

const shadowSortOrder = 1000

type Registry struct {
	store *store.Store
	inv   cache.Invalidator
}

func NewRegistry(s *store.Store, inv cache.Invalidator) *Registry {
	return &Registry{store: s, inv: inv}
}

func (r *Registry) invalidate(ctx context.Context) {
	if r.inv != nil {
		r.inv.Invalidate(ctx, cache.ShadowEntityTags()...)
	}
}

// CreatePiggyBank creates the bank and its shadow category in one call.
// The shadow is linked by source id, so renaming the bank later never
// breaks the routing.
func (r *Registry) CreatePiggyBank(ctx context.Context, name string, target decimal.Decimal, color, icon string) (core.PiggyBank, error) {
	bank := core.PiggyBank{
		Name:          name,
		TargetAmount:  target,
		CurrentAmount: decimal.Zero,
		Color:         color,
		Icon:          icon,
	}
	if err := bank.Validate(); err != nil {
		return core.PiggyBank{}, err
	}

	bank, err := r.store.CreatePiggyBank(ctx, bank)
	if err != nil {
		return core.PiggyBank{}, err
	}

	_, err = r.store.CreateCategory(ctx, core.ExpenseCategory{
		Name:              bank.Name,
		Type:              core.CategoryVariable,
		Icon:              bank.Icon,
		Color:             bank.Color,
		SortOrder:         shadowSortOrder,
		SourcePiggyBankID: uuid.NullUUID{UUID: bank.ID, Valid: true},
	})
	if err != nil {
		// The bank exists but cannot receive routed expenses. Surface
		// the failure so the caller retries instead of ending up with a
		// half-wired entity.
		return core.PiggyBank{}, err
	}

	r.invalidate(ctx)
	slog.InfoContext(ctx, "Created piggy bank", "id", bank.ID, "name", bank.Name)
	return bank, nil
}

// CreateCredit mirrors CreatePiggyBank for loans.
func (r *Registry) CreateCredit(ctx context.Context, name string, target decimal.Decimal, color, icon string) (core.Credit, error) {
	credit := core.Credit{
		Name:         name,
		TargetAmount: target,
		PaidAmount:   decimal.Zero,
		Color:        color,
		Icon:         icon,
	}
	if err := credit.Validate(); err != nil {
		return core.Credit{}, err
	}

	credit, err := r.store.CreateCredit(ctx, credit)
	if err != nil {
		return core.Credit{}, err
	}

	_, err = r.store.CreateCategory(ctx, core.ExpenseCategory{
		Name:           credit.Name,
		Type:           core.CategoryConstant,
		Icon:           credit.Icon,
		Color:          credit.Color,
		SortOrder:      shadowSortOrder,
		SourceCreditID: uuid.NullUUID{UUID: credit.ID, Valid: true},
	})
	if err != nil {
		return core.Credit{}, err
	}

	r.invalidate(ctx)
	slog.InfoContext(ctx, "Created credit", "id", credit.ID, "name", credit.Name)
	return credit, nil
}

func (r *Registry) ListPiggyBanks(ctx context.Context) ([]core.PiggyBank, error) {
	return r.store.ListPiggyBanks(ctx)
}

func (r *Registry) ListCredits(ctx context.Context) ([]core.Credit, error) {
	return r.store.ListCredits(ctx)
}

func (r *Registry) UpdatePiggyBank(ctx context.Context, id uuid.UUID, name string, target decimal.Decimal, color, icon string) error {
	if err := (core.PiggyBank{Name: name, TargetAmount: target}).Validate(); err != nil {
		return err
	}
	if err := r.store.UpdatePiggyBank(ctx, id, name, target, color, icon); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *Registry) UpdateCredit(ctx context.Context, id uuid.UUID, name string, target decimal.Decimal, color, icon string) error {
	if err := (core.Credit{Name: name, TargetAmount: target}).Validate(); err != nil {
		return err
	}
	if err := r.store.UpdateCredit(ctx, id, name, target, color, icon); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// ArchivePiggyBank hides the bank from listings. Its ledger rows and
// shadow category stay, so historical aggregates do not change.
func (r *Registry) ArchivePiggyBank(ctx context.Context, id uuid.UUID) error {
	if err := r.store.ArchivePiggyBank(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *Registry) ArchiveCredit(ctx context.Context, id uuid.UUID) error {
	if err := r.store.ArchiveCredit(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// CreateCategory adds a plain user category. Shadow links are reserved
// for the bank and credit constructors.
func (r *Registry) CreateCategory(ctx context.Context, name string, catType core.CategoryType, icon, color string, sortOrder int64) (core.ExpenseCategory, error) {
	c := core.ExpenseCategory{
		Name:      name,
		Type:      catType,
		Icon:      icon,
		Color:     color,
		SortOrder: sortOrder,
	}
	if err := c.Validate(); err != nil {
		return core.ExpenseCategory{}, err
	}
	created, err := r.store.CreateCategory(ctx, c)
	if err != nil {
		return core.ExpenseCategory{}, err
	}
	r.invalidate(ctx)
	return created, nil
}

func (r *Registry) ListCategories(ctx context.Context) ([]core.ExpenseCategory, error) {
	return r.store.ListCategories(ctx)
}

func (r *Registry) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := r.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}
