// Package ledger applies expense transactions, piggy-bank transactions
// and income debts, and issues the compensating balance updates that keep
// the stored balances consistent with the ledger rows.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"kopilka/internal/cache"
	"kopilka/internal/core"
	"kopilka/internal/store"
)

// moveForType is the per-type balance movement policy: how one appended
// piggy-bank ledger row moves the stored balance. Only expense and
// deposit move money; debt and debt_repay are bookkeeping rows. The
// ledger-sum query in the store mirrors these signs.
var moveForType = map[core.BankTxType]int64{
	core.BankTxExpense:   -1,
	core.BankTxDeposit:   +1,
	core.BankTxDebt:      0,
	core.BankTxDebtRepay: 0,
}

type Engine struct {
	store *store.Store
	inv   cache.Invalidator
}

func NewEngine(s *store.Store, inv cache.Invalidator) *Engine {
	return &Engine{store: s, inv: inv}
}

func (e *Engine) invalidate(ctx context.Context, tags []cache.Tag) {
	if e.inv != nil {
		e.inv.Invalidate(ctx, tags...)
	}
}

// PostExpenseTransaction inserts one ledger row and then routes the amount
// into the shadow entity of the category, if it has one. The ledger
// insert is the required step; the balance increments are best-effort
// parallel writes and their failures are logged, not surfaced.
func (e *Engine) PostExpenseTransaction(ctx context.Context, incomeItemID, categoryID uuid.UUID, amount decimal.Decimal, description string) (core.ExpenseTransaction, error) {
	if !amount.IsPositive() {
		return core.ExpenseTransaction{}, core.ErrInvalidAmount
	}

	var (
		income   core.IncomeItem
		category core.ExpenseCategory
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = e.store.GetIncomeItem(gctx, incomeItemID)
		return err
	})
	g.Go(func() error {
		var err error
		category, err = e.store.GetCategory(gctx, categoryID)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.ExpenseTransaction{}, err
	}

	tx, err := e.store.CreateExpenseTransaction(ctx, core.ExpenseTransaction{
		BudgetMonthID:   income.BudgetMonthID,
		IncomeItemID:    incomeItemID,
		CategoryID:      categoryID,
		Amount:          amount,
		Description:     description,
		TransactionDate: time.Now().UTC().Truncate(24 * time.Hour),
	})
	if err != nil {
		return core.ExpenseTransaction{}, err
	}

	depositDesc := description
	if depositDesc == "" {
		depositDesc = "Пополнение: " + category.Name
	}
	e.applyShadowDelta(ctx, category, amount, depositDesc)
	e.invalidate(ctx, cache.ExpenseTransactionTags(income.BudgetMonthID))

	slog.InfoContext(ctx, "Posted expense transaction",
		"id", tx.ID,
		"income_item_id", incomeItemID,
		"category_id", categoryID,
		"amount", amount)
	return tx, nil
}

// DeleteExpenseTransaction removes a ledger row and reverses the balance
// effects applied when it was posted. A transaction that is already gone
// reports core.ErrNotFound and triggers no reversal.
func (e *Engine) DeleteExpenseTransaction(ctx context.Context, txID uuid.UUID) error {
	// Fetch the row and its category before deleting: both are needed
	// for the reversal.
	tx, err := e.store.GetExpenseTransaction(ctx, txID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ErrNotFound
		}
		return err
	}
	category, catErr := e.store.GetCategory(ctx, tx.CategoryID)

	if err := e.store.DeleteExpenseTransaction(ctx, txID); err != nil {
		return err
	}

	if catErr != nil {
		slog.ErrorContext(ctx, "Cannot reverse balances, category lookup failed",
			"transaction_id", txID,
			"category_id", tx.CategoryID,
			"error", catErr)
	} else {
		e.applyShadowDelta(ctx, category, tx.Amount.Neg(), "Отмена транзакции")
	}

	e.invalidate(ctx, cache.ExpenseTransactionTags(tx.BudgetMonthID))

	slog.InfoContext(ctx, "Deleted expense transaction",
		"id", txID,
		"amount", tx.Amount)
	return nil
}

// applyShadowDelta moves the balance of whichever shadow entity the
// category mirrors. Plain categories have none; that is not an error.
// Archived banks and credits are skipped entirely, audit row included.
// Bank movements go through an audit row so the bank's ledger sum stays
// equal to its stored balance. The updates run concurrently and failures
// are logged only.
func (e *Engine) applyShadowDelta(ctx context.Context, category core.ExpenseCategory, delta decimal.Decimal, description string) {
	g, gctx := errgroup.WithContext(ctx)
	if category.SourcePiggyBankID.Valid {
		bankID := category.SourcePiggyBankID.UUID
		g.Go(func() error {
			bank, err := e.store.GetPiggyBank(gctx, bankID)
			if err != nil {
				slog.ErrorContext(gctx, "Cannot route to piggy bank, lookup failed",
					"piggy_bank_id", bankID,
					"error", err)
				return nil
			}
			if bank.IsArchived {
				slog.InfoContext(gctx, "Skipping routing to archived piggy bank",
					"piggy_bank_id", bankID)
				return nil
			}
			if delta.IsPositive() {
				e.moveBankBalance(gctx, bankID, core.BankTxDeposit, delta, description)
			} else if delta.IsNegative() {
				e.moveBankBalance(gctx, bankID, core.BankTxExpense, delta.Neg(), description)
			}
			return nil
		})
	}
	if category.SourceCreditID.Valid {
		creditID := category.SourceCreditID.UUID
		g.Go(func() error {
			credit, err := e.store.GetCredit(gctx, creditID)
			if err != nil {
				slog.ErrorContext(gctx, "Cannot route to credit, lookup failed",
					"credit_id", creditID,
					"error", err)
				return nil
			}
			if credit.IsArchived {
				slog.InfoContext(gctx, "Skipping routing to archived credit",
					"credit_id", creditID)
				return nil
			}
			if err := e.store.AdjustCreditPaid(gctx, creditID, delta); err != nil {
				slog.ErrorContext(gctx, "Failed to adjust credit paid amount",
					"credit_id", creditID,
					"delta", delta,
					"error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// PostIncomeDebt borrows from a piggy bank to cover an income shortfall:
// inserts the debt row, appends an expense-type bank transaction for the
// audit trail and decrements the bank's balance once. The income's actual
// amount is left alone; the debt row itself carries what is owed.
func (e *Engine) PostIncomeDebt(ctx context.Context, incomeItemID, piggyBankID uuid.UUID, amount decimal.Decimal, description string) (core.IncomeDebt, error) {
	if !amount.IsPositive() {
		return core.IncomeDebt{}, core.ErrInvalidAmount
	}

	var (
		bank core.PiggyBank
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bank, err = e.store.GetPiggyBank(gctx, piggyBankID)
		return err
	})
	g.Go(func() error {
		_, err := e.store.GetIncomeItem(gctx, incomeItemID)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.IncomeDebt{}, err
	}

	if amount.GreaterThan(bank.CurrentAmount) {
		return core.IncomeDebt{}, core.ErrInsufficientFunds
	}

	debt, err := e.store.CreateIncomeDebt(ctx, core.IncomeDebt{
		IncomeItemID: incomeItemID,
		PiggyBankID:  piggyBankID,
		Amount:       amount,
		Description:  description,
	})
	if err != nil {
		return core.IncomeDebt{}, err
	}

	desc := description
	if desc == "" {
		desc = "Взятие в долг для дохода"
	}
	e.moveBankBalance(ctx, piggyBankID, core.BankTxExpense, amount, desc)
	e.invalidate(ctx, cache.IncomeDebtTags(piggyBankID))

	slog.InfoContext(ctx, "Posted income debt",
		"id", debt.ID,
		"piggy_bank_id", piggyBankID,
		"income_item_id", incomeItemID,
		"amount", amount)
	return debt, nil
}

// DeleteIncomeDebt reverses a debt: the bank gets the amount back (with a
// deposit-type audit row) and the income's actual amount is decremented
// by the same amount, with no floor at zero. Both reversals run
// concurrently and only apply to rows that still exist.
func (e *Engine) DeleteIncomeDebt(ctx context.Context, debtID uuid.UUID) error {
	debt, err := e.store.GetIncomeDebt(ctx, debtID)
	if err != nil {
		return err
	}

	if err := e.store.DeleteIncomeDebt(ctx, debtID); err != nil {
		return err
	}

	var (
		bankExists   bool
		incomeExists bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := e.store.GetPiggyBank(gctx, debt.PiggyBankID)
		bankExists = err == nil
		return nil
	})
	g.Go(func() error {
		_, err := e.store.GetIncomeItem(gctx, debt.IncomeItemID)
		incomeExists = err == nil
		return nil
	})
	_ = g.Wait()

	g, gctx = errgroup.WithContext(ctx)
	if bankExists {
		g.Go(func() error {
			e.moveBankBalance(gctx, debt.PiggyBankID, core.BankTxDeposit, debt.Amount, "Возврат долга")
			return nil
		})
	}
	if incomeExists {
		g.Go(func() error {
			if err := e.store.AdjustIncomeActual(gctx, debt.IncomeItemID, debt.Amount.Neg()); err != nil {
				slog.ErrorContext(gctx, "Failed to decrement income actual amount",
					"income_item_id", debt.IncomeItemID,
					"amount", debt.Amount,
					"error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	e.invalidate(ctx, cache.IncomeDebtTags(debt.PiggyBankID))

	slog.InfoContext(ctx, "Deleted income debt",
		"id", debtID,
		"piggy_bank_id", debt.PiggyBankID,
		"amount", debt.Amount)
	return nil
}

// PostPiggyBankTransaction appends a bank ledger row and moves the stored
// balance per the type policy. The append is required; the movement is a
// best-effort follow-up.
func (e *Engine) PostPiggyBankTransaction(ctx context.Context, piggyBankID uuid.UUID, txType core.BankTxType, amount decimal.Decimal, description string, date time.Time) (core.PiggyBankTransaction, error) {
	if !txType.Valid() {
		return core.PiggyBankTransaction{}, core.ErrInvalidBankTxType
	}
	if !amount.IsPositive() {
		return core.PiggyBankTransaction{}, core.ErrInvalidAmount
	}
	if _, err := e.store.GetPiggyBank(ctx, piggyBankID); err != nil {
		return core.PiggyBankTransaction{}, err
	}

	tx, err := e.store.CreatePiggyBankTransaction(ctx, core.PiggyBankTransaction{
		PiggyBankID:     piggyBankID,
		Type:            txType,
		Amount:          amount,
		Description:     description,
		TransactionDate: date,
	})
	if err != nil {
		return core.PiggyBankTransaction{}, err
	}

	if sign := moveForType[txType]; sign != 0 {
		delta := amount.Mul(decimal.NewFromInt(sign))
		if err := e.store.AdjustPiggyBankBalance(ctx, piggyBankID, delta); err != nil {
			slog.ErrorContext(ctx, "Failed to adjust piggy bank balance",
				"piggy_bank_id", piggyBankID,
				"delta", delta,
				"error", err)
		}
	} else {
		slog.InfoContext(ctx, "No balance movement configured for transaction type",
			"piggy_bank_id", piggyBankID,
			"type", txType)
	}

	e.invalidate(ctx, cache.PiggyBankTransactionTags(piggyBankID))
	return tx, nil
}

// ListPiggyBankTransactions returns a bank's ledger rows, newest first.
func (e *Engine) ListPiggyBankTransactions(ctx context.Context, piggyBankID uuid.UUID) ([]core.PiggyBankTransaction, error) {
	if _, err := e.store.GetPiggyBank(ctx, piggyBankID); err != nil {
		return nil, err
	}
	return e.store.ListPiggyBankTransactions(ctx, piggyBankID)
}

// moveBankBalance appends an audit row and applies its balance movement.
// Both steps are best-effort compensating writes.
func (e *Engine) moveBankBalance(ctx context.Context, bankID uuid.UUID, txType core.BankTxType, amount decimal.Decimal, description string) {
	_, err := e.store.CreatePiggyBankTransaction(ctx, core.PiggyBankTransaction{
		PiggyBankID:     bankID,
		Type:            txType,
		Amount:          amount,
		Description:     description,
		TransactionDate: time.Now().UTC().Truncate(24 * time.Hour),
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to append piggy bank audit row",
			"piggy_bank_id", bankID,
			"type", txType,
			"error", err)
	}

	delta := amount.Mul(decimal.NewFromInt(moveForType[txType]))
	if delta.IsZero() {
		return
	}
	if err := e.store.AdjustPiggyBankBalance(ctx, bankID, delta); err != nil {
		slog.ErrorContext(ctx, "Failed to adjust piggy bank balance",
			"piggy_bank_id", bankID,
			"delta", delta,
			"error", err)
	}
}
