// Package planner edits an income's allocation plan as one batch: the
// caller sends the desired set of plan rows and the planner reconciles
// the stored rows against it.
package planner

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"kopilka/internal/cache"
	"kopilka/internal/core"
	"kopilka/internal/store"
)

// PlanRow is one desired allocation. ExistingID identifies the stored row
// it replaces; a zero ExistingID means a new row. Rows with a zero
// category or a non-positive amount are skipped, not rejected.
type PlanRow struct {
	ExistingID uuid.UUID
	CategoryID uuid.UUID
	Amount     decimal.Decimal
}

type Planner struct {
	store *store.Store
	inv   cache.Invalidator
}

func NewPlanner(s *store.Store, inv cache.Invalidator) *Planner {
	return &Planner{store: s, inv: inv}
}

func (p *Planner) invalidate(ctx context.Context, monthID uuid.UUID) {
	if p.inv != nil {
		p.inv.Invalidate(ctx, cache.PlanTags(monthID)...)
	}
}

// CreateIncomeWithPlans creates an income item and its initial plan rows
// in one call.
func (p *Planner) CreateIncomeWithPlans(ctx context.Context, monthID uuid.UUID, name string, planned decimal.Decimal, plannedDate *time.Time, rows []PlanRow) (core.IncomeItem, error) {
	item := core.IncomeItem{
		BudgetMonthID: monthID,
		Name:          name,
		PlannedAmount: planned,
		PlannedDate:   plannedDate,
	}
	if err := item.Validate(); err != nil {
		return core.IncomeItem{}, err
	}
	if _, err := p.store.GetBudgetMonth(ctx, monthID); err != nil {
		return core.IncomeItem{}, err
	}

	income, err := p.store.CreateIncomeItem(ctx, item)
	if err != nil {
		return core.IncomeItem{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, row := range rows {
		if row.CategoryID == uuid.Nil || !row.Amount.IsPositive() {
			continue
		}
		g.Go(func() error {
			_, err := p.store.CreateExpensePlan(gctx, core.ExpensePlan{
				BudgetMonthID: monthID,
				IncomeItemID:  income.ID,
				CategoryID:    row.CategoryID,
				PlannedAmount: row.Amount,
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return core.IncomeItem{}, err
	}

	p.invalidate(ctx, monthID)
	slog.InfoContext(ctx, "Created income with plans",
		"income_item_id", income.ID,
		"rows", len(rows))
	return income, nil
}

// ReconcileIncomePlan applies one batch edit: the income's own fields plus
// the full desired set of plan rows. Stored rows absent from desired are
// deleted first, together with the transactions posted against them, so a
// failed batch never leaves orphaned actuals. The remaining updates and
// creates run as one parallel batch; any failure fails the whole edit.
func (p *Planner) ReconcileIncomePlan(ctx context.Context, incomeID uuid.UUID, name string, planned decimal.Decimal, plannedDate *time.Time, desired []PlanRow) error {
	item := core.IncomeItem{Name: name, PlannedAmount: planned}
	if err := item.Validate(); err != nil {
		return err
	}

	income, err := p.store.GetIncomeItem(ctx, incomeID)
	if err != nil {
		return err
	}
	existing, err := p.store.ListExpensePlansByIncome(ctx, incomeID)
	if err != nil {
		return err
	}

	// A stored row survives only if some desired row names its id.
	kept := make(map[uuid.UUID]bool, len(desired))
	for _, row := range desired {
		if row.ExistingID != uuid.Nil {
			kept[row.ExistingID] = true
		}
	}
	existingByID := make(map[uuid.UUID]core.ExpensePlan, len(existing))
	for _, plan := range existing {
		existingByID[plan.ID] = plan
	}

	for _, plan := range existing {
		if kept[plan.ID] {
			continue
		}
		if err := p.store.DeleteTransactionsByIncomeAndCategory(ctx, incomeID, plan.CategoryID); err != nil {
			return err
		}
		if err := p.store.DeleteExpensePlan(ctx, plan.ID); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.store.UpdateIncomeItem(gctx, incomeID, name, planned, plannedDate)
	})
	for _, row := range desired {
		if row.CategoryID == uuid.Nil || !row.Amount.IsPositive() {
			continue
		}
		if _, exists := existingByID[row.ExistingID]; row.ExistingID != uuid.Nil && exists {
			g.Go(func() error {
				return p.store.UpdateExpensePlan(gctx, row.ExistingID, row.CategoryID, row.Amount)
			})
			continue
		}
		g.Go(func() error {
			_, err := p.store.CreateExpensePlan(gctx, core.ExpensePlan{
				BudgetMonthID: income.BudgetMonthID,
				IncomeItemID:  incomeID,
				CategoryID:    row.CategoryID,
				PlannedAmount: row.Amount,
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p.invalidate(ctx, income.BudgetMonthID)
	slog.InfoContext(ctx, "Reconciled income plan",
		"income_item_id", incomeID,
		"desired_rows", len(desired),
		"existing_rows", len(existing))
	return nil
}
