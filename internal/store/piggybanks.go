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

const piggyBankColumns = `id, user_id, name, target_kopecks, current_kopecks, color, icon, is_archived, created_at, updated_at`

func scanPiggyBank(row interface{ Scan(...any) error }) (core.PiggyBank, error) {
	var (
		p                  core.PiggyBank
		id, userID         string
		target, current    int64
		created, updated   string
	)
	err := row.Scan(&id, &userID, &p.Name, &target, &current, &p.Color, &p.Icon, &p.IsArchived, &created, &updated)
	if err != nil {
		return core.PiggyBank{}, err
	}
	p.ID, _ = uuid.Parse(id)
	p.UserID, _ = uuid.Parse(userID)
	p.TargetAmount = core.FromKopecks(target)
	p.CurrentAmount = core.FromKopecks(current)
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

func (s *Store) CreatePiggyBank(ctx context.Context, p core.PiggyBank) (core.PiggyBank, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.PiggyBank{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	p.ID = uuid.New()
	p.UserID = userID
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO piggy_banks (`+piggyBankColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), userID.String(), p.Name,
		core.Kopecks(p.TargetAmount), core.Kopecks(p.CurrentAmount),
		p.Color, p.Icon, p.IsArchived, fmtTime(now), fmtTime(now))
	if err != nil {
		return core.PiggyBank{}, core.NewStoreError("insert piggy bank", err)
	}
	return p, nil
}

func (s *Store) GetPiggyBank(ctx context.Context, id uuid.UUID) (core.PiggyBank, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.PiggyBank{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+piggyBankColumns+` FROM piggy_banks WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	p, err := scanPiggyBank(row)
	if err != nil {
		return core.PiggyBank{}, core.NewStoreError("get piggy bank", noRows(err))
	}
	return p, nil
}

// ListPiggyBanks returns the user's non-archived banks, oldest first.
func (s *Store) ListPiggyBanks(ctx context.Context) ([]core.PiggyBank, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+piggyBankColumns+` FROM piggy_banks WHERE user_id = ? AND is_archived = 0 ORDER BY created_at`,
		userID.String())
	if err != nil {
		return nil, core.NewStoreError("list piggy banks", err)
	}
	defer rows.Close()

	var banks []core.PiggyBank
	for rows.Next() {
		p, err := scanPiggyBank(rows)
		if err != nil {
			return nil, core.NewStoreError("scan piggy bank", err)
		}
		banks = append(banks, p)
	}
	return banks, core.NewStoreError("list piggy banks", rows.Err())
}

func (s *Store) UpdatePiggyBank(ctx context.Context, id uuid.UUID, name string, target decimal.Decimal, color, icon string) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE piggy_banks SET name = ?, target_kopecks = ?, color = ?, icon = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		name, core.Kopecks(target), color, icon, fmtTime(time.Now()), id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("update piggy bank", err)
	}
	return affected(res, "update piggy bank")
}

// ArchivePiggyBank soft-deletes; ledger rows keep referencing the bank.
func (s *Store) ArchivePiggyBank(ctx context.Context, id uuid.UUID) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE piggy_banks SET is_archived = 1, updated_at = ? WHERE id = ? AND user_id = ?`,
		fmtTime(time.Now()), id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("archive piggy bank", err)
	}
	return affected(res, "archive piggy bank")
}

// AdjustPiggyBankBalance moves the stored balance by delta as a single
// in-place increment, so concurrent postings cannot lose updates.
func (s *Store) AdjustPiggyBankBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE piggy_banks SET current_kopecks = current_kopecks + ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		core.Kopecks(delta), fmtTime(time.Now()), id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("adjust piggy bank balance", err)
	}
	return affected(res, "adjust piggy bank balance")
}

// SetPiggyBankBalance overwrites the stored balance. Only the balance
// reconciler uses it, to repair drift against the ledger sum.
func (s *Store) SetPiggyBankBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE piggy_banks SET current_kopecks = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		core.Kopecks(amount), fmtTime(time.Now()), id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("set piggy bank balance", err)
	}
	return affected(res, "set piggy bank balance")
}

func affected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return core.NewStoreError(op, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
