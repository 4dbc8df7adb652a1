package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"kopilka/internal/auth"
	"kopilka/internal/core"
)

const debtColumns = `id, user_id, income_item_id, piggy_bank_id, amount_kopecks, description, created_at`

func scanDebt(row interface{ Scan(...any) error }) (core.IncomeDebt, error) {
	var (
		d                  core.IncomeDebt
		id, userID         string
		incomeID, bankID   string
		amount             int64
		created            string
	)
	err := row.Scan(&id, &userID, &incomeID, &bankID, &amount, &d.Description, &created)
	if err != nil {
		return core.IncomeDebt{}, err
	}
	d.ID, _ = uuid.Parse(id)
	d.UserID, _ = uuid.Parse(userID)
	d.IncomeItemID, _ = uuid.Parse(incomeID)
	d.PiggyBankID, _ = uuid.Parse(bankID)
	d.Amount = core.FromKopecks(amount)
	d.CreatedAt = parseTime(created)
	return d, nil
}

func (s *Store) CreateIncomeDebt(ctx context.Context, d core.IncomeDebt) (core.IncomeDebt, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.IncomeDebt{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	d.ID = uuid.New()
	d.UserID = userID
	d.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO income_debts (`+debtColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID.String(), userID.String(), d.IncomeItemID.String(), d.PiggyBankID.String(),
		core.Kopecks(d.Amount), d.Description, fmtTime(d.CreatedAt))
	if err != nil {
		return core.IncomeDebt{}, core.NewStoreError("insert income debt", err)
	}
	return d, nil
}

func (s *Store) GetIncomeDebt(ctx context.Context, id uuid.UUID) (core.IncomeDebt, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return core.IncomeDebt{}, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+debtColumns+` FROM income_debts WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	d, err := scanDebt(row)
	if err != nil {
		return core.IncomeDebt{}, core.NewStoreError("get income debt", noRows(err))
	}
	return d, nil
}

func (s *Store) ListIncomeDebts(ctx context.Context, incomeID uuid.UUID) ([]core.IncomeDebt, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+debtColumns+` FROM income_debts WHERE income_item_id = ? AND user_id = ? ORDER BY created_at`,
		incomeID.String(), userID.String())
	if err != nil {
		return nil, core.NewStoreError("list income debts", err)
	}
	defer rows.Close()

	var debts []core.IncomeDebt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, core.NewStoreError("scan income debt", err)
		}
		debts = append(debts, d)
	}
	return debts, core.NewStoreError("list income debts", rows.Err())
}

func (s *Store) DeleteIncomeDebt(ctx context.Context, id uuid.UUID) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM income_debts WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	if err != nil {
		return core.NewStoreError("delete income debt", err)
	}
	return affected(res, "delete income debt")
}
