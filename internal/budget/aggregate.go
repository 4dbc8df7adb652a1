// Package budget serves the read side: month summaries and drill-down
// views, computed from ledger rows and memoized in the tag cache.
package budget

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"kopilka/internal/auth"
	"kopilka/internal/cache"
	"kopilka/internal/core"
	"kopilka/internal/store"
)

// MonthListing is one row of the months overview: the month plus its
// summary figures, recomputed from the ledger on every cache miss.
type MonthListing struct {
	Month   core.BudgetMonth
	Summary core.MonthSummary
}

// MonthDetail is the full drill-down for one month.
type MonthDetail struct {
	Month   core.BudgetMonth
	Summary core.MonthSummary
	Incomes []core.IncomeCard
	Debts   map[string][]core.IncomeDebt
}

type Service struct {
	store *store.Store
	cache *cache.TagCache[any]
	inv   cache.Invalidator
}

func NewService(s *store.Store, c *cache.TagCache[any], inv cache.Invalidator) *Service {
	return &Service{store: s, cache: c, inv: inv}
}

func (s *Service) invalidate(ctx context.Context, tags []cache.Tag) {
	if s.inv != nil {
		s.inv.Invalidate(ctx, tags...)
	}
}

// CreateMonth opens a new budget month.
func (s *Service) CreateMonth(ctx context.Context, year, month int, name string) (core.BudgetMonth, error) {
	m := core.BudgetMonth{Year: year, Month: month, Name: name}
	if err := m.Validate(); err != nil {
		return core.BudgetMonth{}, err
	}
	created, err := s.store.CreateBudgetMonth(ctx, m)
	if err != nil {
		return core.BudgetMonth{}, err
	}
	s.invalidate(ctx, []cache.Tag{cache.TagMonths})
	return created, nil
}

func (s *Service) ArchiveMonth(ctx context.Context, id uuid.UUID) error {
	if err := s.store.ArchiveBudgetMonth(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, []cache.Tag{cache.TagMonths, cache.MonthTag(id)})
	return nil
}

// loadMonthRows fetches the three row sets a summary needs, in parallel.
func (s *Service) loadMonthRows(ctx context.Context, monthID uuid.UUID) (incomes []core.IncomeItem, plans []core.ExpensePlan, txs []core.ExpenseTransaction, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incomes, err = s.store.ListIncomeItems(gctx, monthID)
		return err
	})
	g.Go(func() error {
		var err error
		plans, err = s.store.ListExpensePlans(gctx, monthID)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.store.ListExpenseTransactionsByMonth(gctx, monthID)
		return err
	})
	err = g.Wait()
	return incomes, plans, txs, err
}

// Summary computes the figures for one month. Summarizing the same month
// twice without intervening mutations returns identical figures.
func (s *Service) Summary(ctx context.Context, monthID uuid.UUID) (core.MonthSummary, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.MonthSummary{}, err
	}

	key := "summary:" + userID.String() + ":" + monthID.String()
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if sum, ok := v.(core.MonthSummary); ok {
				return sum, nil
			}
		}
	}

	if _, err := s.store.GetBudgetMonth(ctx, monthID); err != nil {
		return core.MonthSummary{}, err
	}
	incomes, plans, txs, err := s.loadMonthRows(ctx, monthID)
	if err != nil {
		return core.MonthSummary{}, err
	}
	sum := core.SummarizeMonth(incomes, plans, txs)

	if s.cache != nil {
		s.cache.Set(key, sum, cache.TagMonths, cache.MonthTag(monthID))
	}
	return sum, nil
}

// ListMonths returns all months newest first, each with its summary. The
// per-month summaries are computed concurrently.
func (s *Service) ListMonths(ctx context.Context) ([]MonthListing, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}

	key := "months:" + userID.String()
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if listings, ok := v.([]MonthListing); ok {
				return listings, nil
			}
		}
	}

	months, err := s.store.ListBudgetMonths(ctx)
	if err != nil {
		return nil, err
	}

	listings := make([]MonthListing, len(months))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range months {
		g.Go(func() error {
			incomes, plans, txs, err := s.loadMonthRows(gctx, m.ID)
			if err != nil {
				return err
			}
			listings[i] = MonthListing{Month: m, Summary: core.SummarizeMonth(incomes, plans, txs)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, listings, cache.TagMonths)
	}
	return listings, nil
}

// Detail builds the full month view: summary, one card per income with its
// plan rows and actuals, and the debts hanging off each income.
func (s *Service) Detail(ctx context.Context, monthID uuid.UUID) (MonthDetail, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return MonthDetail{}, err
	}

	key := "detail:" + userID.String() + ":" + monthID.String()
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if detail, ok := v.(MonthDetail); ok {
				return detail, nil
			}
		}
	}

	month, err := s.store.GetBudgetMonth(ctx, monthID)
	if err != nil {
		return MonthDetail{}, err
	}
	incomes, plans, txs, err := s.loadMonthRows(ctx, monthID)
	if err != nil {
		return MonthDetail{}, err
	}

	detail := MonthDetail{
		Month:   month,
		Summary: core.SummarizeMonth(incomes, plans, txs),
		Incomes: make([]core.IncomeCard, len(incomes)),
		Debts:   make(map[string][]core.IncomeDebt, len(incomes)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, income := range incomes {
		g.Go(func() error {
			detail.Incomes[i] = core.BuildIncomeCard(income, plans, txs)
			debts, err := s.store.ListIncomeDebts(gctx, income.ID)
			if err != nil {
				return err
			}
			if len(debts) > 0 {
				mu.Lock()
				detail.Debts[income.ID.String()] = debts
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MonthDetail{}, err
	}

	if s.cache != nil {
		s.cache.Set(key, detail, cache.TagMonths, cache.MonthTag(monthID), cache.TagCategories)
	}
	return detail, nil
}

// AddIncome creates an income item inside a month.
func (s *Service) AddIncome(ctx context.Context, monthID uuid.UUID, name string, planned decimal.Decimal, plannedDate *time.Time, notes string) (core.IncomeItem, error) {
	item := core.IncomeItem{
		BudgetMonthID: monthID,
		Name:          name,
		PlannedAmount: planned,
		PlannedDate:   plannedDate,
		Notes:         notes,
	}
	if err := item.Validate(); err != nil {
		return core.IncomeItem{}, err
	}
	if _, err := s.store.GetBudgetMonth(ctx, monthID); err != nil {
		return core.IncomeItem{}, err
	}
	created, err := s.store.CreateIncomeItem(ctx, item)
	if err != nil {
		return core.IncomeItem{}, err
	}
	s.invalidate(ctx, cache.PlanTags(monthID))
	return created, nil
}

// RecordActualIncome marks money as arrived. In add mode the amount joins
// whatever already arrived; otherwise it replaces the recorded actual.
func (s *Service) RecordActualIncome(ctx context.Context, incomeID uuid.UUID, amount decimal.Decimal, date time.Time, add bool) error {
	if amount.IsNegative() {
		return core.ErrInvalidAmount
	}
	income, err := s.store.GetIncomeItem(ctx, incomeID)
	if err != nil {
		return err
	}

	if add {
		err = s.store.AddActualIncome(ctx, incomeID, amount, date)
	} else {
		err = s.store.SetActualIncome(ctx, incomeID, amount, date)
	}
	if err != nil {
		return err
	}

	s.invalidate(ctx, cache.PlanTags(income.BudgetMonthID))
	slog.InfoContext(ctx, "Recorded actual income",
		"income_item_id", incomeID,
		"amount", amount,
		"add", add)
	return nil
}

// DeleteIncome removes an income item. Its plan rows, transactions and
// debts go with it at the store level.
func (s *Service) DeleteIncome(ctx context.Context, incomeID uuid.UUID) error {
	income, err := s.store.GetIncomeItem(ctx, incomeID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteIncomeItem(ctx, incomeID); err != nil {
		return err
	}
	s.invalidate(ctx, cache.PlanTags(income.BudgetMonthID))
	return nil
}
