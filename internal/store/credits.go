package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kopilka/internal/auth"
	"kopilka/internal/core"
)

const creditColumns = `id, user_id, name, target_kopecks, paid_kopecks, color, icon, is_archived, created_at, updated_at`

func scanCredit(row interface{ Scan(...any) error }) (core.Credit, error) {
	var (
		c                core.Credit
		id, userID       string
		target, paid     int64
		created, updated string
	)
	err := row.Scan(&id, &userID, &c.Name, &target, &paid, &c.Color, &c.Icon, &c.IsArchived, &created, &updated)
	if err != nil {
		return core.Credit{}, err
	}
	c.ID, _ = uuid.Parse(id)
	c.UserID, _ = uuid.Parse(userID)
	c.TargetAmount = core.FromKopecks(target)
	c.PaidAmount = core.FromKopecks(paid)
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return c, nil
}

func (s *Store) CreateCredit(ctx context.Context, c core.Credit) (core.Credit, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.Credit{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	c.ID = uuid.New()
	c.UserID = userID
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO credits (`+creditColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), userID.String(), c.Name,
		core.Kopecks(c.TargetAmount), core.Kopecks(c.PaidAmount),
		c.Color, c.Icon, c.IsArchived, fmtTime(now), fmtTime(now))
	if err != nil {
		return core.Credit{}, core.NewStoreError("insert credit", err)
	}
	return c, nil
}

func (s *Store) GetCredit(ctx context.Context, id uuid.UUID) (core.Credit, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.Credit{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+creditColumns+` FROM credits WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	c, err := scanCredit(row)
	if err != nil {
		return core.Credit{}, core.NewStoreError("get credit", noRows(err))
	}
	return c, nil
}

func (s *Store) ListCredits(ctx context.Context) ([]core.Credit, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+creditColumns+` FROM credits WHERE user_id = ? AND is_archived = 0 ORDER BY created_at`,
		userID.String())
	if err != nil {
		return nil, core.NewStoreError("list credits", err)
	}
	defer rows.Close()

	var credits []core.Credit
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, core.NewStoreError("scan credit", err)
		}
		credits = append(credits, c)
	}
	return credits, core.NewStoreError("list credits", rows.Err())
}

func (s *Store) UpdateCredit(ctx context.Context, id uuid.UUID, name string, target decimal.Decimal, color, icon string) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE credits SET name = ?, target_kopecks = ?, color = ?, icon = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		name, core.Kopecks(target), color, icon, fmtTime(time.Now()), id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("update credit", err)
	}
	return affected(res, "update credit")
}

func (s *Store) ArchiveCredit(ctx context.Context, id uuid.UUID) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE credits SET is_archived = 1, updated_at = ? WHERE id = ? AND user_id = ?`,
		fmtTime(time.Now()), id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("archive credit", err)
	}
	return affected(res, "archive credit")
}

// AdjustCreditPaid moves paid_amount by delta as an atomic increment.
func (s *Store) AdjustCreditPaid(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE credits SET paid_kopecks = paid_kopecks + ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		core.Kopecks(delta), fmtTime(time.Now()), id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("adjust credit paid", err)
	}
	return affected(res, "adjust credit paid")
}
