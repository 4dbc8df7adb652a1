package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"kopilka/internal/auth"
	"kopilka/internal/core"
)

const monthColumns = `id, user_id, month, year, name, is_archived, created_at`

func scanMonth(row interface{ Scan(...any) error }) (core.BudgetMonth, error) {
	var (
		m          core.BudgetMonth
		id, userID string
		created    string
	)
	err := row.Scan(&id, &userID, &m.Month, &m.Year, &m.Name, &m.IsArchived, &created)
	if err != nil {
		return core.BudgetMonth{}, err
	}
	m.ID, _ = uuid.Parse(id)
	m.UserID, _ = uuid.Parse(userID)
	m.CreatedAt = parseTime(created)
	return m, nil
}

func (s *Store) CreateBudgetMonth(ctx context.Context, m core.BudgetMonth) (core.BudgetMonth, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.BudgetMonth{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	m.ID = uuid.New()
	m.UserID = userID
	m.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO budget_months (`+monthColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID.String(), userID.String(), m.Month, m.Year, m.Name, m.IsArchived, fmtTime(m.CreatedAt))
	if err != nil {
		return core.BudgetMonth{}, core.NewStoreError("insert budget month", err)
	}
	return m, nil
}

func (s *Store) GetBudgetMonth(ctx context.Context, id uuid.UUID) (core.BudgetMonth, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.BudgetMonth{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+monthColumns+` FROM budget_months WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	m, err := scanMonth(row)
	if err != nil {
		return core.BudgetMonth{}, core.NewStoreError("get budget month", noRows(err))
	}
	return m, nil
}

// ListBudgetMonths returns non-archived months, newest first.
func (s *Store) ListBudgetMonths(ctx context.Context) ([]core.BudgetMonth, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+monthColumns+` FROM budget_months WHERE user_id = ? AND is_archived = 0 ORDER BY year DESC, month DESC`,
		userID.String())
	if err != nil {
		return nil, core.NewStoreError("list budget months", err)
	}
	defer rows.Close()

	var months []core.BudgetMonth
	for rows.Next() {
		m, err := scanMonth(rows)
		if err != nil {
			return nil, core.NewStoreError("scan budget month", err)
		}
		months = append(months, m)
	}
	return months, core.NewStoreError("list budget months", rows.Err())
}

func (s *Store) ArchiveBudgetMonth(ctx context.Context, id uuid.UUID) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE budget_months SET is_archived = 1 WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("archive budget month", err)
	}
	return affected(res, "archive budget month")
}
