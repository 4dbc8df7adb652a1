package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kopilka/internal/auth"
	"kopilka/internal/core"
)

const txColumns = `id, user_id, budget_month_id, income_item_id, category_id, amount_kopecks, description, transaction_date, created_at`

func scanExpenseTx(row interface{ Scan(...any) error }) (core.ExpenseTransaction, error) {
	var (
		t                    core.ExpenseTransaction
		id, userID, monthID  string
		incomeID, categoryID string
		amount               int64
		txDate, created      string
	)
	err := row.Scan(&id, &userID, &monthID, &incomeID, &categoryID, &amount, &t.Description, &txDate, &created)
	if err != nil {
		return core.ExpenseTransaction{}, err
	}
	t.ID, _ = uuid.Parse(id)
	t.UserID, _ = uuid.Parse(userID)
	t.BudgetMonthID, _ = uuid.Parse(monthID)
	t.IncomeItemID, _ = uuid.Parse(incomeID)
	t.CategoryID, _ = uuid.Parse(categoryID)
	t.Amount = core.FromKopecks(amount)
	if d, err := time.Parse(dateLayout, txDate); err == nil {
		t.TransactionDate = d
	}
	t.CreatedAt = parseTime(created)
	return t, nil
}

func (s *Store) CreateExpenseTransaction(ctx context.Context, t core.ExpenseTransaction) (core.ExpenseTransaction, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.ExpenseTransaction{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	t.ID = uuid.New()
	t.UserID = userID
	t.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO expense_transactions (`+txColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), userID.String(), t.BudgetMonthID.String(),
		t.IncomeItemID.String(), t.CategoryID.String(),
		core.Kopecks(t.Amount), t.Description,
		t.TransactionDate.Format(dateLayout), fmtTime(t.CreatedAt))
	if err != nil {
		return core.ExpenseTransaction{}, core.NewStoreError("insert expense transaction", err)
	}
	return t, nil
}

func (s *Store) GetExpenseTransaction(ctx context.Context, id uuid.UUID) (core.ExpenseTransaction, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.ExpenseTransaction{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM expense_transactions WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	t, err := scanExpenseTx(row)
	if err != nil {
		return core.ExpenseTransaction{}, core.NewStoreError("get expense transaction", noRows(err))
	}
	return t, nil
}

func (s *Store) DeleteExpenseTransaction(ctx context.Context, id uuid.UUID) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM expense_transactions WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("delete expense transaction", err)
	}
	return affected(res, "delete expense transaction")
}

func (s *Store) ListExpenseTransactionsByMonth(ctx context.Context, monthID uuid.UUID) ([]core.ExpenseTransaction, error) {
	return s.listExpenseTx(ctx, `budget_month_id`, monthID)
}

// ListExpenseTransactionsByIncome returns an income's postings, newest
// transaction date first.
func (s *Store) ListExpenseTransactionsByIncome(ctx context.Context, incomeID uuid.UUID) ([]core.ExpenseTransaction, error) {
	return s.listExpenseTx(ctx, `income_item_id`, incomeID)
}

func (s *Store) listExpenseTx(ctx context.Context, column string, id uuid.UUID) ([]core.ExpenseTransaction, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM expense_transactions WHERE `+column+` = ? AND user_id = ? ORDER BY transaction_date DESC, created_at DESC`,
		id.String(), userID.String())
	if err != nil {
		return nil, core.NewStoreError("list expense transactions", err)
	}
	defer rows.Close()

	var txs []core.ExpenseTransaction
	for rows.Next() {
		t, err := scanExpenseTx(rows)
		if err != nil {
			return nil, core.NewStoreError("scan expense transaction", err)
		}
		txs = append(txs, t)
	}
	return txs, core.NewStoreError("list expense transactions", rows.Err())
}

// DeleteTransactionsByIncomeAndCategory purges the actuals tied to one
// plan row, so removing a plan leaves no orphaned postings behind.
func (s *Store) DeleteTransactionsByIncomeAndCategory(ctx context.Context, incomeID, categoryID uuid.UUID) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM expense_transactions WHERE income_item_id = ? AND category_id = ? AND user_id = ?`,
		incomeID.String(), categoryID.String(), userID.String())
	return core.NewStoreError("delete expense transactions for plan", err)
}

const bankTxColumns = `id, user_id, piggy_bank_id, type, amount_kopecks, description, transaction_date, created_at`

func scanBankTx(row interface{ Scan(...any) error }) (core.PiggyBankTransaction, error) {
	var (
		t                  core.PiggyBankTransaction
		id, userID, bankID string
		txType             string
		amount             int64
		txDate, created    string
	)
	err := row.Scan(&id, &userID, &bankID, &txType, &amount, &t.Description, &txDate, &created)
	if err != nil {
		return core.PiggyBankTransaction{}, err
	}
	t.ID, _ = uuid.Parse(id)
	t.UserID, _ = uuid.Parse(userID)
	t.PiggyBankID, _ = uuid.Parse(bankID)
	t.Type = core.BankTxType(txType)
	t.Amount = core.FromKopecks(amount)
	if d, err := time.Parse(dateLayout, txDate); err == nil {
		t.TransactionDate = d
	}
	t.CreatedAt = parseTime(created)
	return t, nil
}

func (s *Store) CreatePiggyBankTransaction(ctx context.Context, t core.PiggyBankTransaction) (core.PiggyBankTransaction, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.PiggyBankTransaction{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	t.ID = uuid.New()
	t.UserID = userID
	t.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO piggy_bank_transactions (`+bankTxColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), userID.String(), t.PiggyBankID.String(), string(t.Type),
		core.Kopecks(t.Amount), t.Description,
		t.TransactionDate.Format(dateLayout), fmtTime(t.CreatedAt))
	if err != nil {
		return core.PiggyBankTransaction{}, core.NewStoreError("insert piggy bank transaction", err)
	}
	return t, nil
}

func (s *Store) ListPiggyBankTransactions(ctx context.Context, bankID uuid.UUID) ([]core.PiggyBankTransaction, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bankTxColumns+` FROM piggy_bank_transactions WHERE piggy_bank_id = ? AND user_id = ? ORDER BY transaction_date DESC, created_at DESC`,
		bankID.String(), userID.String())
	if err != nil {
		return nil, core.NewStoreError("list piggy bank transactions", err)
	}
	defer rows.Close()

	var txs []core.PiggyBankTransaction
	for rows.Next() {
		t, err := scanBankTx(rows)
		if err != nil {
			return nil, core.NewStoreError("scan piggy bank transaction", err)
		}
		txs = append(txs, t)
	}
	return txs, core.NewStoreError("list piggy bank transactions", rows.Err())
}

// SumPiggyBankLedger derives a bank's balance from its ledger rows using
// the same per-type signs the mutation engine applies: expense subtracts,
// deposit adds, debt and debt_repay do not move money.
func (s *Store) SumPiggyBankLedger(ctx context.Context, bankID uuid.UUID) (decimal.Decimal, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var kopecks int64
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE type
		    WHEN 'expense' THEN -amount_kopecks
		    WHEN 'deposit' THEN amount_kopecks
		    ELSE 0
		 END), 0)
		 FROM piggy_bank_transactions WHERE piggy_bank_id = ? AND user_id = ?`,
		bankID.String(), userID.String()).Scan(&kopecks)
	if err != nil {
		return decimal.Zero, core.NewStoreError("sum piggy bank ledger", err)
	}
	return core.FromKopecks(kopecks), nil
}
