package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"kopilka/internal/auth"
	"kopilka/internal/core"
)

const categoryColumns = `id, user_id, name, type, icon, color, is_system, sort_order, source_piggy_bank_id, source_credit_id, created_at`

func scanCategory(row interface{ Scan(...any) error }) (core.ExpenseCategory, error) {
	var (
		c                      core.ExpenseCategory
		id                     string
		userID, sourceBank     sql.NullString
		sourceCredit           sql.NullString
		catType, created       string
	)
	err := row.Scan(&id, &userID, &c.Name, &catType, &c.Icon, &c.Color, &c.IsSystem, &c.SortOrder, &sourceBank, &sourceCredit, &created)
	if err != nil {
		return core.ExpenseCategory{}, err
	}
	c.ID, _ = uuid.Parse(id)
	c.UserID = nullUUID(userID)
	c.Type = core.CategoryType(catType)
	c.SourcePiggyBankID = nullUUID(sourceBank)
	c.SourceCreditID = nullUUID(sourceCredit)
	c.CreatedAt = parseTime(created)
	return c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c core.ExpenseCategory) (core.ExpenseCategory, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.ExpenseCategory{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	c.ID = uuid.New()
	c.UserID = uuid.NullUUID{UUID: userID, Valid: true}
	c.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO expense_categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), userID.String(), c.Name, string(c.Type), c.Icon, c.Color,
		c.IsSystem, c.SortOrder,
		nullUUIDArg(c.SourcePiggyBankID), nullUUIDArg(c.SourceCreditID),
		fmtTime(c.CreatedAt))
	if err != nil {
		return core.ExpenseCategory{}, core.NewStoreError("insert category", err)
	}
	return c, nil
}

// GetCategory resolves a category visible to the user: their own or a
// shared system one.
func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (core.ExpenseCategory, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.ExpenseCategory{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM expense_categories WHERE id = ? AND (user_id = ? OR user_id IS NULL)`,
		id.String(), userID.String())
	c, err := scanCategory(row)
	if err != nil {
		return core.ExpenseCategory{}, core.NewStoreError("get category", noRows(err))
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]core.ExpenseCategory, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM expense_categories WHERE user_id = ? OR user_id IS NULL ORDER BY sort_order, name`,
		userID.String())
	if err != nil {
		return nil, core.NewStoreError("list categories", err)
	}
	defer rows.Close()

	var categories []core.ExpenseCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, core.NewStoreError("scan category", err)
		}
		categories = append(categories, c)
	}
	return categories, core.NewStoreError("list categories", rows.Err())
}

// DeleteCategory removes a user category. System categories are seeded and
// undeletable.
func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if c.IsSystem {
		return core.ErrSystemCategory
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM expense_categories WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("delete category", err)
	}
	return affected(res, "delete category")
}
