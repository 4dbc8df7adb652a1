package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"kopilka/internal/auth"
	"kopilka/internal/core"
	"kopilka/internal/store"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	store  *store.Store
	engine *Engine
	ctx    context.Context
	month  core.BudgetMonth
	income core.IncomeItem
	bank   core.PiggyBank
	shadow core.ExpenseCategory
	plain  core.ExpenseCategory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := auth.WithUser(context.Background(), uuid.New())

	month, err := s.CreateBudgetMonth(ctx, core.BudgetMonth{Year: 2026, Month: 8, Name: "Август"})
	require.NoError(t, err)
	income, err := s.CreateIncomeItem(ctx, core.IncomeItem{
		BudgetMonthID: month.ID,
		Name:          "Зарплата",
		PlannedAmount: dec(100000),
	})
	require.NoError(t, err)
	bank, err := s.CreatePiggyBank(ctx, core.PiggyBank{Name: "Отпуск", TargetAmount: dec(100000)})
	require.NoError(t, err)
	shadow, err := s.CreateCategory(ctx, core.ExpenseCategory{
		Name:              bank.Name,
		Type:              core.CategoryVariable,
		SortOrder:         1000,
		SourcePiggyBankID: uuid.NullUUID{UUID: bank.ID, Valid: true},
	})
	require.NoError(t, err)
	plain, err := s.CreateCategory(ctx, core.ExpenseCategory{
		Name: "Продукты",
		Type: core.CategoryVariable,
	})
	require.NoError(t, err)

	return &fixture{
		store:  s,
		engine: NewEngine(s, nil),
		ctx:    ctx,
		month:  month,
		income: income,
		bank:   bank,
		shadow: shadow,
		plain:  plain,
	}
}

func (f *fixture) bankBalance(t *testing.T) decimal.Decimal {
	t.Helper()
	bank, err := f.store.GetPiggyBank(f.ctx, f.bank.ID)
	require.NoError(t, err)
	return bank.CurrentAmount
}

func (f *fixture) incomeActual(t *testing.T) decimal.NullDecimal {
	t.Helper()
	income, err := f.store.GetIncomeItem(f.ctx, f.income.ID)
	require.NoError(t, err)
	return income.ActualAmount
}

func TestExpenseTransactionRoundTrip(t *testing.T) {
	f := newFixture(t)

	tx, err := f.engine.PostExpenseTransaction(f.ctx, f.income.ID, f.shadow.ID, dec(3000), "в копилку")
	require.NoError(t, err)
	require.True(t, f.bankBalance(t).Equal(dec(3000)))

	// The routed amount is mirrored into the bank's own ledger.
	sum, err := f.store.SumPiggyBankLedger(f.ctx, f.bank.ID)
	require.NoError(t, err)
	require.True(t, sum.Equal(dec(3000)))

	require.NoError(t, f.engine.DeleteExpenseTransaction(f.ctx, tx.ID))
	require.True(t, f.bankBalance(t).IsZero(), "delete must restore the starting balance")

	sum, err = f.store.SumPiggyBankLedger(f.ctx, f.bank.ID)
	require.NoError(t, err)
	require.True(t, sum.IsZero(), "ledger sum must follow the balance")

	txs, err := f.store.ListExpenseTransactionsByMonth(f.ctx, f.month.ID)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestExpenseTransactionPlainCategory(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.PostExpenseTransaction(f.ctx, f.income.ID, f.plain.ID, dec(500), "хлеб")
	require.NoError(t, err)
	require.True(t, f.bankBalance(t).IsZero(), "plain categories route nowhere")

	txs, err := f.store.ListExpenseTransactionsByMonth(f.ctx, f.month.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, f.month.ID, txs[0].BudgetMonthID, "month is derived from the income, not from input")
}

func TestExpenseTransactionValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.PostExpenseTransaction(f.ctx, f.income.ID, f.plain.ID, dec(0), "")
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = f.engine.PostExpenseTransaction(f.ctx, uuid.New(), f.plain.ID, dec(100), "")
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.engine.PostExpenseTransaction(f.ctx, f.income.ID, uuid.New(), dec(100), "")
	require.ErrorIs(t, err, core.ErrNotFound)

	// Failed postings must leave no ledger rows behind.
	txs, err := f.store.ListExpenseTransactionsByMonth(f.ctx, f.month.ID)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestDeleteMissingTransaction(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.engine.DeleteExpenseTransaction(f.ctx, uuid.New()), core.ErrNotFound)
}

// newCreditShadow seeds a credit with a category mirroring it, the way
// the registry does on credit creation.
func (f *fixture) newCreditShadow(t *testing.T) (core.Credit, core.ExpenseCategory) {
	t.Helper()
	credit, err := f.store.CreateCredit(f.ctx, core.Credit{Name: "Ипотека", TargetAmount: dec(3000000)})
	require.NoError(t, err)
	shadow, err := f.store.CreateCategory(f.ctx, core.ExpenseCategory{
		Name:           credit.Name,
		Type:           core.CategoryConstant,
		SortOrder:      1000,
		SourceCreditID: uuid.NullUUID{UUID: credit.ID, Valid: true},
	})
	require.NoError(t, err)
	return credit, shadow
}

func TestShadowRoutingCredit(t *testing.T) {
	f := newFixture(t)
	credit, shadow := f.newCreditShadow(t)

	tx, err := f.engine.PostExpenseTransaction(f.ctx, f.income.ID, shadow.ID, dec(15000), "платёж")
	require.NoError(t, err)

	got, err := f.store.GetCredit(f.ctx, credit.ID)
	require.NoError(t, err)
	require.True(t, got.PaidAmount.Equal(dec(15000)))

	require.NoError(t, f.engine.DeleteExpenseTransaction(f.ctx, tx.ID))
	got, err = f.store.GetCredit(f.ctx, credit.ID)
	require.NoError(t, err)
	require.True(t, got.PaidAmount.IsZero(), "delete rewinds the paid amount")
}

func TestShadowRoutingSkipsArchivedBank(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.ArchivePiggyBank(f.ctx, f.bank.ID))

	_, err := f.engine.PostExpenseTransaction(f.ctx, f.income.ID, f.shadow.ID, dec(3000), "")
	require.NoError(t, err)

	bank, err := f.store.GetPiggyBank(f.ctx, f.bank.ID)
	require.NoError(t, err)
	require.True(t, bank.CurrentAmount.IsZero(), "archived banks receive no routed money")

	// No audit row either, so the bank's ledger stays in step.
	txs, err := f.store.ListPiggyBankTransactions(f.ctx, f.bank.ID)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestShadowRoutingSkipsArchivedCredit(t *testing.T) {
	f := newFixture(t)
	credit, shadow := f.newCreditShadow(t)
	require.NoError(t, f.store.ArchiveCredit(f.ctx, credit.ID))

	_, err := f.engine.PostExpenseTransaction(f.ctx, f.income.ID, shadow.ID, dec(15000), "")
	require.NoError(t, err)

	got, err := f.store.GetCredit(f.ctx, credit.ID)
	require.NoError(t, err)
	require.True(t, got.PaidAmount.IsZero(), "archived credits are not advanced")
}

func TestIncomeDebtLifecycle(t *testing.T) {
	f := newFixture(t)

	// Fund the bank through its own ledger.
	_, err := f.engine.PostPiggyBankTransaction(f.ctx, f.bank.ID, core.BankTxDeposit, dec(5000), "", time.Now().UTC())
	require.NoError(t, err)
	require.True(t, f.bankBalance(t).Equal(dec(5000)))

	debt, err := f.engine.PostIncomeDebt(f.ctx, f.income.ID, f.bank.ID, dec(2000), "")
	require.NoError(t, err)
	require.True(t, f.bankBalance(t).Equal(dec(3000)))

	actual := f.incomeActual(t)
	require.False(t, actual.Valid, "borrowed money is not arrived income")

	require.NoError(t, f.engine.DeleteIncomeDebt(f.ctx, debt.ID))
	require.True(t, f.bankBalance(t).Equal(dec(5000)), "deleting the debt returns the money")

	// The delete decrement applies even though the post never incremented,
	// so the actual goes negative. There is no floor at zero.
	actual = f.incomeActual(t)
	require.True(t, actual.Valid)
	require.True(t, actual.Decimal.Equal(dec(-2000)), "got %s", actual.Decimal)

	// Balance and ledger agree after the full cycle.
	sum, err := f.store.SumPiggyBankLedger(f.ctx, f.bank.ID)
	require.NoError(t, err)
	require.True(t, sum.Equal(f.bankBalance(t)))
}

func TestIncomeDebtInsufficientFunds(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.PostPiggyBankTransaction(f.ctx, f.bank.ID, core.BankTxDeposit, dec(1000), "", time.Now().UTC())
	require.NoError(t, err)

	_, err = f.engine.PostIncomeDebt(f.ctx, f.income.ID, f.bank.ID, dec(2000), "")
	require.ErrorIs(t, err, core.ErrInsufficientFunds)

	require.True(t, f.bankBalance(t).Equal(dec(1000)), "rejected debt must not touch the balance")
	debts, err := f.store.ListIncomeDebts(f.ctx, f.income.ID)
	require.NoError(t, err)
	require.Empty(t, debts)
}

func TestIncomeDebtMissingTargets(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.PostIncomeDebt(f.ctx, f.income.ID, uuid.New(), dec(100), "")
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.engine.PostIncomeDebt(f.ctx, uuid.New(), f.bank.ID, dec(100), "")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestPostPiggyBankTransactionPolicy(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.engine.PostPiggyBankTransaction(f.ctx, f.bank.ID, core.BankTxDeposit, dec(5000), "", day)
	require.NoError(t, err)
	_, err = f.engine.PostPiggyBankTransaction(f.ctx, f.bank.ID, core.BankTxExpense, dec(1500), "", day)
	require.NoError(t, err)
	// Bookkeeping rows leave the balance alone.
	_, err = f.engine.PostPiggyBankTransaction(f.ctx, f.bank.ID, core.BankTxDebt, dec(9999), "", day)
	require.NoError(t, err)

	require.True(t, f.bankBalance(t).Equal(dec(3500)), "got %s", f.bankBalance(t))

	_, err = f.engine.PostPiggyBankTransaction(f.ctx, f.bank.ID, core.BankTxType("weird"), dec(1), "", day)
	require.ErrorIs(t, err, core.ErrInvalidBankTxType)
	_, err = f.engine.PostPiggyBankTransaction(f.ctx, f.bank.ID, core.BankTxDeposit, dec(-1), "", day)
	require.ErrorIs(t, err, core.ErrInvalidAmount)
}
