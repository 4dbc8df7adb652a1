package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kopilka/internal/auth"
	"kopilka/internal/core"
)

const planColumns = `id, user_id, budget_month_id, income_item_id, category_id, planned_kopecks, is_from_bank, bank_transaction_id, created_at`

func scanPlan(row interface{ Scan(...any) error }) (core.ExpensePlan, error) {
	var (
		p                       core.ExpensePlan
		id, userID, monthID     string
		incomeID, categoryID    string
		planned                 int64
		bankTx                  sql.NullString
		created                 string
	)
	err := row.Scan(&id, &userID, &monthID, &incomeID, &categoryID, &planned, &p.IsFromBank, &bankTx, &created)
	if err != nil {
		return core.ExpensePlan{}, err
	}
	p.ID, _ = uuid.Parse(id)
	p.UserID, _ = uuid.Parse(userID)
	p.BudgetMonthID, _ = uuid.Parse(monthID)
	p.IncomeItemID, _ = uuid.Parse(incomeID)
	p.CategoryID, _ = uuid.Parse(categoryID)
	p.PlannedAmount = core.FromKopecks(planned)
	p.BankTxID = nullUUID(bankTx)
	p.CreatedAt = parseTime(created)
	return p, nil
}

func (s *Store) CreateExpensePlan(ctx context.Context, p core.ExpensePlan) (core.ExpensePlan, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.ExpensePlan{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	p.ID = uuid.New()
	p.UserID = userID
	p.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO expense_items (`+planColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), userID.String(), p.BudgetMonthID.String(),
		p.IncomeItemID.String(), p.CategoryID.String(),
		core.Kopecks(p.PlannedAmount), p.IsFromBank, nullUUIDArg(p.BankTxID),
		fmtTime(p.CreatedAt))
	if err != nil {
		return core.ExpensePlan{}, core.NewStoreError("insert expense plan", err)
	}
	return p, nil
}

func (s *Store) GetExpensePlan(ctx context.Context, id uuid.UUID) (core.ExpensePlan, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.ExpensePlan{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM expense_items WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	p, err := scanPlan(row)
	if err != nil {
		return core.ExpensePlan{}, core.NewStoreError("get expense plan", noRows(err))
	}
	return p, nil
}

func (s *Store) ListExpensePlans(ctx context.Context, monthID uuid.UUID) ([]core.ExpensePlan, error) {
	return s.listPlans(ctx, `budget_month_id`, monthID)
}

func (s *Store) ListExpensePlansByIncome(ctx context.Context, incomeID uuid.UUID) ([]core.ExpensePlan, error) {
	return s.listPlans(ctx, `income_item_id`, incomeID)
}

func (s *Store) listPlans(ctx context.Context, column string, id uuid.UUID) ([]core.ExpensePlan, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM expense_items WHERE `+column+` = ? AND user_id = ? ORDER BY created_at`,
		id.String(), userID.String())
	if err != nil {
		return nil, core.NewStoreError("list expense plans", err)
	}
	defer rows.Close()

	var plans []core.ExpensePlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, core.NewStoreError("scan expense plan", err)
		}
		plans = append(plans, p)
	}
	return plans, core.NewStoreError("list expense plans", rows.Err())
}

func (s *Store) UpdateExpensePlan(ctx context.Context, id, categoryID uuid.UUID, planned decimal.Decimal) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE expense_items SET category_id = ?, planned_kopecks = ? WHERE id = ? AND user_id = ?`,
		categoryID.String(), core.Kopecks(planned), id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("update expense plan", err)
	}
	return affected(res, "update expense plan")
}

func (s *Store) DeleteExpensePlan(ctx context.Context, id uuid.UUID) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM expense_items WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("delete expense plan", err)
	}
	return affected(res, "delete expense plan")
}
