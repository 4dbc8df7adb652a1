package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CategoryConstant CategoryType = "constant"
	CategoryVariable CategoryType = "variable"
)

const (
	BankTxExpense   BankTxType = "expense"
	BankTxDebt      BankTxType = "debt"
	BankTxDeposit   BankTxType = "deposit"
	BankTxDebtRepay BankTxType = "debt_repay"
)

type (
	CategoryType string

	// BankTxType classifies a piggy-bank ledger row.
	BankTxType string

	// PiggyBank is a named savings goal. CurrentAmount is a stored running
	// balance; it only moves through atomic increments issued by the
	// ledger engine.
	PiggyBank struct {
		ID            uuid.UUID
		UserID        uuid.UUID
		Name          string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		Color         string
		Icon          string
		IsArchived    bool
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// Credit is a tracked loan: TargetAmount is the total owed, PaidAmount
	// the stored sum of repayments routed through its shadow category.
	Credit struct {
		ID           uuid.UUID
		UserID       uuid.UUID
		Name         string
		TargetAmount decimal.Decimal
		PaidAmount   decimal.Decimal
		Color        string
		Icon         string
		IsArchived   bool
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// ExpenseCategory routes transactions. Shadow categories carry the id
	// of the piggy bank or credit they mirror; at most one of the two is
	// set, and plain categories have neither.
	ExpenseCategory struct {
		ID                uuid.UUID
		UserID            uuid.NullUUID
		Name              string
		Type              CategoryType
		Icon              string
		Color             string
		IsSystem          bool
		SortOrder         int64
		SourcePiggyBankID uuid.NullUUID
		SourceCreditID    uuid.NullUUID
		CreatedAt         time.Time
	}

	BudgetMonth struct {
		ID         uuid.UUID
		UserID     uuid.UUID
		Month      int
		Year       int
		Name       string
		IsArchived bool
		CreatedAt  time.Time
	}

	// IncomeItem is a planned income event inside a month. ActualAmount is
	// null until money arrives and may go negative after debt reversals.
	IncomeItem struct {
		ID            uuid.UUID
		UserID        uuid.UUID
		BudgetMonthID uuid.UUID
		Name          string
		PlannedAmount decimal.Decimal
		ActualAmount  decimal.NullDecimal
		PlannedDate   *time.Time
		ActualDate    *time.Time
		Notes         string
		CreatedAt     time.Time
	}

	// ExpensePlan allocates part of an income toward a category.
	ExpensePlan struct {
		ID            uuid.UUID
		UserID        uuid.UUID
		BudgetMonthID uuid.UUID
		IncomeItemID  uuid.UUID
		CategoryID    uuid.UUID
		PlannedAmount decimal.Decimal
		IsFromBank    bool
		BankTxID      uuid.NullUUID
		CreatedAt     time.Time
	}

	// ExpenseTransaction is an actual ledger posting. Immutable once
	// created except by deletion.
	ExpenseTransaction struct {
		ID              uuid.UUID
		UserID          uuid.UUID
		BudgetMonthID   uuid.UUID
		IncomeItemID    uuid.UUID
		CategoryID      uuid.UUID
		Amount          decimal.Decimal
		Description     string
		TransactionDate time.Time
		CreatedAt       time.Time
	}

	PiggyBankTransaction struct {
		ID              uuid.UUID
		UserID          uuid.UUID
		PiggyBankID     uuid.UUID
		Type            BankTxType
		Amount          decimal.Decimal
		Description     string
		TransactionDate time.Time
		CreatedAt       time.Time
	}

	// IncomeDebt is money borrowed from a piggy bank to cover an income
	// shortfall.
	IncomeDebt struct {
		ID           uuid.UUID
		UserID       uuid.UUID
		IncomeItemID uuid.UUID
		PiggyBankID  uuid.UUID
		Amount       decimal.Decimal
		Description  string
		CreatedAt    time.Time
	}
)

func (t BankTxType) Valid() bool {
	switch t {
	case BankTxExpense, BankTxDebt, BankTxDeposit, BankTxDebtRepay:
		return true
	}
	return false
}

func (t CategoryType) Valid() bool {
	return t == CategoryConstant || t == CategoryVariable
}

func (p PiggyBank) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.TargetAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (c Credit) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.TargetAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (m BudgetMonth) Validate() error {
	if m.Month < 1 || m.Month > 12 {
		return ErrInvalidMonth
	}
	if m.Year < 2000 || m.Year > 2200 {
		return ErrInvalidYear
	}
	return nil
}

func (i IncomeItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if !i.PlannedAmount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (c ExpenseCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidCategoryType
	}
	if c.SourcePiggyBankID.Valid && c.SourceCreditID.Valid {
		return ErrAmbiguousShadow
	}
	return nil
}
