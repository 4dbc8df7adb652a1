package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"kopilka/internal/auth"
	"kopilka/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func userCtx() context.Context {
	return auth.WithUser(context.Background(), uuid.New())
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestPiggyBankCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := userCtx()

	bank, err := s.CreatePiggyBank(ctx, core.PiggyBank{
		Name:          "Отпуск",
		TargetAmount:  dec(100000),
		CurrentAmount: dec(5000),
		Color:         "#fca",
		Icon:          "✈️",
	})
	require.NoError(t, err)

	got, err := s.GetPiggyBank(ctx, bank.ID)
	require.NoError(t, err)
	require.Equal(t, "Отпуск", got.Name)
	require.True(t, got.CurrentAmount.Equal(dec(5000)))

	banks, err := s.ListPiggyBanks(ctx)
	require.NoError(t, err)
	require.Len(t, banks, 1)

	require.NoError(t, s.UpdatePiggyBank(ctx, bank.ID, "Отпуск 2027", dec(120000), "#fca", "✈️"))
	got, err = s.GetPiggyBank(ctx, bank.ID)
	require.NoError(t, err)
	require.Equal(t, "Отпуск 2027", got.Name)
	require.True(t, got.TargetAmount.Equal(dec(120000)))

	require.NoError(t, s.ArchivePiggyBank(ctx, bank.ID))
	banks, err = s.ListPiggyBanks(ctx)
	require.NoError(t, err)
	require.Empty(t, banks, "archived banks are hidden from listings")

	// Archived banks stay addressable by id.
	_, err = s.GetPiggyBank(ctx, bank.ID)
	require.NoError(t, err)
}

func TestPiggyBankNotFoundAndIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := userCtx()

	_, err := s.GetPiggyBank(ctx, uuid.New())
	require.ErrorIs(t, err, core.ErrNotFound)

	bank, err := s.CreatePiggyBank(ctx, core.PiggyBank{Name: "x", TargetAmount: dec(1)})
	require.NoError(t, err)

	// Another user cannot see or mutate the bank.
	otherCtx := userCtx()
	_, err = s.GetPiggyBank(otherCtx, bank.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
	require.ErrorIs(t, s.ArchivePiggyBank(otherCtx, bank.ID), core.ErrNotFound)
}

func TestNotAuthenticated(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ListPiggyBanks(context.Background())
	require.ErrorIs(t, err, core.ErrNotAuthenticated)
	_, err = s.CreateCredit(context.Background(), core.Credit{Name: "x"})
	require.ErrorIs(t, err, core.ErrNotAuthenticated)
}

func TestAdjustPiggyBankBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := userCtx()

	bank, err := s.CreatePiggyBank(ctx, core.PiggyBank{Name: "x", TargetAmount: dec(1000), CurrentAmount: dec(100)})
	require.NoError(t, err)

	require.NoError(t, s.AdjustPiggyBankBalance(ctx, bank.ID, decimal.RequireFromString("25.50")))
	require.NoError(t, s.AdjustPiggyBankBalance(ctx, bank.ID, dec(-30)))

	got, err := s.GetPiggyBank(ctx, bank.ID)
	require.NoError(t, err)
	require.True(t, got.CurrentAmount.Equal(decimal.RequireFromString("95.50")), "got %s", got.CurrentAmount)

	require.NoError(t, s.SetPiggyBankBalance(ctx, bank.ID, dec(777)))
	got, err = s.GetPiggyBank(ctx, bank.ID)
	require.NoError(t, err)
	require.True(t, got.CurrentAmount.Equal(dec(777)))
}

func TestConcurrentBalanceAdjustments(t *testing.T) {
	s := newTestStore(t)
	ctx := userCtx()

	bank, err := s.CreatePiggyBank(ctx, core.PiggyBank{Name: "x", TargetAmount: dec(1)})
	require.NoError(t, err)

	// Contending writers must queue on the write lock, not fail busy.
	g, gctx := errgroup.WithContext(ctx)
	for range 16 {
		g.Go(func() error {
			return s.AdjustPiggyBankBalance(gctx, bank.ID, dec(100))
		})
	}
	require.NoError(t, g.Wait())

	got, err := s.GetPiggyBank(ctx, bank.ID)
	require.NoError(t, err)
	require.True(t, got.CurrentAmount.Equal(dec(1600)), "all increments must land, got %s", got.CurrentAmount)
}

func TestSystemCategoriesSeeded(t *testing.T) {
	s := newTestStore(t)
	ctx := userCtx()

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, categories, "migrations seed shared system categories")

	var system core.ExpenseCategory
	for _, c := range categories {
		require.True(t, c.IsSystem, "fresh db only has system categories")
		system = c
	}

	err = s.DeleteCategory(ctx, system.ID)
	require.ErrorIs(t, err, core.ErrSystemCategory)
}

func TestShadowCategoryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := userCtx()

	bank, err := s.CreatePiggyBank(ctx, core.PiggyBank{Name: "Отпуск", TargetAmount: dec(1)})
	require.NoError(t, err)

	cat, err := s.CreateCategory(ctx, core.ExpenseCategory{
		Name:              bank.Name,
		Type:              core.CategoryVariable,
		SortOrder:         1000,
		SourcePiggyBankID: uuid.NullUUID{UUID: bank.ID, Valid: true},
	})
	require.NoError(t, err)

	got, err := s.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	require.True(t, got.SourcePiggyBankID.Valid)
	require.Equal(t, bank.ID, got.SourcePiggyBankID.UUID)
	require.False(t, got.SourceCreditID.Valid)

	require.NoError(t, s.DeleteCategory(ctx, cat.ID))
	_, err = s.GetCategory(ctx, cat.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func seedMonthWithIncome(t *testing.T, s *Store, ctx context.Context) (core.BudgetMonth, core.IncomeItem) {
	t.Helper()
	month, err := s.CreateBudgetMonth(ctx, core.BudgetMonth{Year: 2026, Month: 8, Name: "Август"})
	require.NoError(t, err)
	income, err := s.CreateIncomeItem(ctx, core.IncomeItem{
		BudgetMonthID: month.ID,
		Name:          "Зарплата",
		PlannedAmount: dec(100000),
	})
	require.NoError(t, err)
	return month, income
}

func TestIncomeActualAmounts(t *testing.T) {
	s := newTestStore(t)
	ctx := userCtx()
	_, income := seedMonthWithIncome(t, s, ctx)

	got, err := s.GetIncomeItem(ctx, income.ID)
	require.NoError(t, err)
	require.False(t, got.ActualAmount.Valid, "actual starts null")

	now := time.Now().UTC()
	require.NoError(t, s.SetActualIncome(ctx, income.ID, dec(95000), now))
	got, err = s.GetIncomeItem(ctx, income.ID)
	require.NoError(t, err)
	require.True(t, got.ActualAmount.Valid)
	require.True(t, got.ActualAmount.Decimal.Equal(dec(95000)))

	require.NoError(t, s.AddActualIncome(ctx, income.ID, dec(5000), now))
	got, err = s.GetIncomeItem(ctx, income.ID)
	require.NoError(t, err)
	require.True(t, got.ActualAmount.Decimal.Equal(dec(100000)))

	// No floor: a reversal may push the actual negative.
	require.NoError(t, s.AdjustIncomeActual(ctx, income.ID, dec(-150000)))
	got, err = s.GetIncomeItem(ctx, income.ID)
	require.NoError(t, err)
	require.True(t, got.ActualAmount.Decimal.Equal(dec(-50000)), "got %s", got.ActualAmount.Decimal)
}

func TestAdjustIncomeActualFromNull(t *testing.T) {
	s := newTestStore(t)
	ctx := userCtx()
	_, income := seedMonthWithIncome(t, s, ctx)

	require.NoError(t, s.AdjustIncomeActual(ctx, income.ID, dec(2000)))
	got, err := s.GetIncomeItem(ctx, income.ID)
	require.NoError(t, err)
	require.True(t, got.ActualAmount.Valid)
	require.True(t, got.ActualAmount.Decimal.Equal(dec(2000)))
}

func TestSumPiggyBankLedger(t *testing.T) {
	s := newTestStore(t)
	ctx := userCtx()

	bank, err := s.CreatePiggyBank(ctx, core.PiggyBank{Name: "x", TargetAmount: dec(1)})
	require.NoError(t, err)

	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for _, row := range []struct {
		typ    core.BankTxType
		amount int64
	}{
		{core.BankTxDeposit, 5000},
		{core.BankTxExpense, 2000},
		{core.BankTxDebt, 3000},
		{core.BankTxDebtRepay, 3000},
	} {
		_, err := s.CreatePiggyBankTransaction(ctx, core.PiggyBankTransaction{
			PiggyBankID:     bank.ID,
			Type:            row.typ,
			Amount:          dec(row.amount),
			TransactionDate: day,
		})
		require.NoError(t, err)
	}

	sum, err := s.SumPiggyBankLedger(ctx, bank.ID)
	require.NoError(t, err)
	require.True(t, sum.Equal(dec(3000)), "deposit-expense only, got %s", sum)

	txs, err := s.ListPiggyBankTransactions(ctx, bank.ID)
	require.NoError(t, err)
	require.Len(t, txs, 4)
}

func TestDeleteTransactionsByIncomeAndCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := userCtx()
	month, income := seedMonthWithIncome(t, s, ctx)

	keepCat := uuid.New()
	dropCat := uuid.New()
	day := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	for _, cat := range []uuid.UUID{keepCat, dropCat, dropCat} {
		_, err := s.CreateExpenseTransaction(ctx, core.ExpenseTransaction{
			BudgetMonthID:   month.ID,
			IncomeItemID:    income.ID,
			CategoryID:      cat,
			Amount:          dec(100),
			TransactionDate: day,
		})
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteTransactionsByIncomeAndCategory(ctx, income.ID, dropCat))

	txs, err := s.ListExpenseTransactionsByMonth(ctx, month.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, keepCat, txs[0].CategoryID)
}

func TestExpensePlanCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := userCtx()
	month, income := seedMonthWithIncome(t, s, ctx)

	cat := uuid.New()
	plan, err := s.CreateExpensePlan(ctx, core.ExpensePlan{
		BudgetMonthID: month.ID,
		IncomeItemID:  income.ID,
		CategoryID:    cat,
		PlannedAmount: dec(30000),
	})
	require.NoError(t, err)

	byMonth, err := s.ListExpensePlans(ctx, month.ID)
	require.NoError(t, err)
	require.Len(t, byMonth, 1)

	byIncome, err := s.ListExpensePlansByIncome(ctx, income.ID)
	require.NoError(t, err)
	require.Len(t, byIncome, 1)

	newCat := uuid.New()
	require.NoError(t, s.UpdateExpensePlan(ctx, plan.ID, newCat, dec(25000)))
	got, err := s.GetExpensePlan(ctx, plan.ID)
	require.NoError(t, err)
	require.Equal(t, newCat, got.CategoryID)
	require.True(t, got.PlannedAmount.Equal(dec(25000)))

	require.NoError(t, s.DeleteExpensePlan(ctx, plan.ID))
	_, err = s.GetExpensePlan(ctx, plan.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestBudgetMonthUniquePerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := userCtx()

	_, err := s.CreateBudgetMonth(ctx, core.BudgetMonth{Year: 2026, Month: 8, Name: "Август"})
	require.NoError(t, err)
	_, err = s.CreateBudgetMonth(ctx, core.BudgetMonth{Year: 2026, Month: 8, Name: "Дубль"})
	require.Error(t, err, "same user cannot open the same month twice")

	// A different user can open the same calendar month.
	_, err = s.CreateBudgetMonth(userCtx(), core.BudgetMonth{Year: 2026, Month: 8, Name: "Август"})
	require.NoError(t, err)
}

func TestIncomeDebtCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := userCtx()
	_, income := seedMonthWithIncome(t, s, ctx)
	bank, err := s.CreatePiggyBank(ctx, core.PiggyBank{Name: "x", TargetAmount: dec(1)})
	require.NoError(t, err)

	debt, err := s.CreateIncomeDebt(ctx, core.IncomeDebt{
		IncomeItemID: income.ID,
		PiggyBankID:  bank.ID,
		Amount:       dec(2000),
	})
	require.NoError(t, err)

	debts, err := s.ListIncomeDebts(ctx, income.ID)
	require.NoError(t, err)
	require.Len(t, debts, 1)

	require.NoError(t, s.DeleteIncomeDebt(ctx, debt.ID))
	_, err = s.GetIncomeDebt(ctx, debt.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
}
