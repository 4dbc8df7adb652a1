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

const incomeColumns = `id, user_id, budget_month_id, name, planned_kopecks, actual_kopecks, planned_date, actual_date, notes, created_at`

func scanIncome(row interface{ Scan(...any) error }) (core.IncomeItem, error) {
	var (
		i                     core.IncomeItem
		id, userID, monthID   string
		planned               int64
		actual                sql.NullInt64
		plannedDate, actDate  sql.NullString
		created               string
	)
	err := row.Scan(&id, &userID, &monthID, &i.Name, &planned, &actual, &plannedDate, &actDate, &i.Notes, &created)
	if err != nil {
		return core.IncomeItem{}, err
	}
	i.ID, _ = uuid.Parse(id)
	i.UserID, _ = uuid.Parse(userID)
	i.BudgetMonthID, _ = uuid.Parse(monthID)
	i.PlannedAmount = core.FromKopecks(planned)
	i.ActualAmount = nullAmount(actual)
	i.PlannedDate = parseDate(plannedDate)
	i.ActualDate = parseDate(actDate)
	i.CreatedAt = parseTime(created)
	return i, nil
}

func (s *Store) CreateIncomeItem(ctx context.Context, i core.IncomeItem) (core.IncomeItem, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.IncomeItem{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	i.ID = uuid.New()
	i.UserID = userID
	i.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO income_items (`+incomeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID.String(), userID.String(), i.BudgetMonthID.String(), i.Name,
		core.Kopecks(i.PlannedAmount), nullKopecks(i.ActualAmount),
		fmtDate(i.PlannedDate), fmtDate(i.ActualDate), i.Notes, fmtTime(i.CreatedAt))
	if err != nil {
		return core.IncomeItem{}, core.NewStoreError("insert income item", err)
	}
	return i, nil
}

func (s *Store) GetIncomeItem(ctx context.Context, id uuid.UUID) (core.IncomeItem, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.IncomeItem{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+incomeColumns+` FROM income_items WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	i, err := scanIncome(row)
	if err != nil {
		return core.IncomeItem{}, core.NewStoreError("get income item", noRows(err))
	}
	return i, nil
}

// ListIncomeItems returns a month's incomes ordered by planned date.
func (s *Store) ListIncomeItems(ctx context.Context, monthID uuid.UUID) ([]core.IncomeItem, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+incomeColumns+` FROM income_items WHERE budget_month_id = ? AND user_id = ? ORDER BY planned_date`,
		monthID.String(), userID.String())
	if err != nil {
		return nil, core.NewStoreError("list income items", err)
	}
	defer rows.Close()

	var items []core.IncomeItem
	for rows.Next() {
		i, err := scanIncome(rows)
		if err != nil {
			return nil, core.NewStoreError("scan income item", err)
		}
		items = append(items, i)
	}
	return items, core.NewStoreError("list income items", rows.Err())
}

// UpdateIncomeItem rewrites the income's own editable fields.
func (s *Store) UpdateIncomeItem(ctx context.Context, id uuid.UUID, name string, planned decimal.Decimal, plannedDate *time.Time) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE income_items SET name = ?, planned_kopecks = ?, planned_date = ? WHERE id = ? AND user_id = ?`,
		name, core.Kopecks(planned), fmtDate(plannedDate), id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("update income item", err)
	}
	return affected(res, "update income item")
}

func (s *Store) DeleteIncomeItem(ctx context.Context, id uuid.UUID) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM income_items WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("delete income item", err)
	}
	return affected(res, "delete income item")
}

// SetActualIncome overwrites the actual amount and date.
func (s *Store) SetActualIncome(ctx context.Context, id uuid.UUID, amount decimal.Decimal, date time.Time) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE income_items SET actual_kopecks = ?, actual_date = ? WHERE id = ? AND user_id = ?`,
		core.Kopecks(amount), date.Format(dateLayout), id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("set actual income", err)
	}
	return affected(res, "set actual income")
}

// AdjustIncomeActual moves the actual amount by delta atomically. A null
// actual counts as zero, and the result may go negative: there is no
// floor, otherwise a debt reversal could silently lose money.
func (s *Store) AdjustIncomeActual(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE income_items SET actual_kopecks = COALESCE(actual_kopecks, 0) + ? WHERE id = ? AND user_id = ?`,
		core.Kopecks(delta), id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("adjust actual income", err)
	}
	return affected(res, "adjust actual income")
}

// AddActualIncome adds to the actual amount and stamps the date.
func (s *Store) AddActualIncome(ctx context.Context, id uuid.UUID, delta decimal.Decimal, date time.Time) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE income_items SET actual_kopecks = COALESCE(actual_kopecks, 0) + ?, actual_date = ? WHERE id = ? AND user_id = ?`,
		core.Kopecks(delta), date.Format(dateLayout), id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("add actual income", err)
	}
	return affected(res, "add actual income")
}
