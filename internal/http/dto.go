package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kopilka/internal/budget"
	"kopilka/internal/core"
)

// JSON views of the domain types. Amounts travel as decimal strings.

type piggyBankJSON struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Color         string          `json:"color"`
	Icon          string          `json:"icon"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toPiggyBankJSON(p core.PiggyBank) piggyBankJSON {
	return piggyBankJSON{
		ID:            p.ID,
		Name:          p.Name,
		TargetAmount:  p.TargetAmount,
		CurrentAmount: p.CurrentAmount,
		Color:         p.Color,
		Icon:          p.Icon,
		CreatedAt:     p.CreatedAt,
	}
}

type creditJSON struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	Color        string          `json:"color"`
	Icon         string          `json:"icon"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toCreditJSON(c core.Credit) creditJSON {
	return creditJSON{
		ID:           c.ID,
		Name:         c.Name,
		TargetAmount: c.TargetAmount,
		PaidAmount:   c.PaidAmount,
		Color:        c.Color,
		Icon:         c.Icon,
		CreatedAt:    c.CreatedAt,
	}
}

type categoryJSON struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Type              string     `json:"type"`
	Icon              string     `json:"icon"`
	Color             string     `json:"color"`
	IsSystem          bool       `json:"is_system"`
	SortOrder         int64      `json:"sort_order"`
	SourcePiggyBankID *uuid.UUID `json:"source_piggy_bank_id,omitempty"`
	SourceCreditID    *uuid.UUID `json:"source_credit_id,omitempty"`
}

func toCategoryJSON(c core.ExpenseCategory) categoryJSON {
	out := categoryJSON{
		ID:        c.ID,
		Name:      c.Name,
		Type:      string(c.Type),
		Icon:      c.Icon,
		Color:     c.Color,
		IsSystem:  c.IsSystem,
		SortOrder: c.SortOrder,
	}
	if c.SourcePiggyBankID.Valid {
		id := c.SourcePiggyBankID.UUID
		out.SourcePiggyBankID = &id
	}
	if c.SourceCreditID.Valid {
		id := c.SourceCreditID.UUID
		out.SourceCreditID = &id
	}
	return out
}

type summaryJSON struct {
	TotalPlannedIncome   decimal.Decimal `json:"total_planned_income"`
	TotalActualIncome    decimal.Decimal `json:"total_actual_income"`
	TotalPlannedExpenses decimal.Decimal `json:"total_planned_expenses"`
	TotalActualExpenses  decimal.Decimal `json:"total_actual_expenses"`
	RemainingBudget      decimal.Decimal `json:"remaining_budget"`
}

func toSummaryJSON(s core.MonthSummary) summaryJSON {
	return summaryJSON{
		TotalPlannedIncome:   s.TotalPlannedIncome,
		TotalActualIncome:    s.TotalActualIncome,
		TotalPlannedExpenses: s.TotalPlannedExpenses,
		TotalActualExpenses:  s.TotalActualExpenses,
		RemainingBudget:      s.RemainingBudget,
	}
}

type monthJSON struct {
	ID      uuid.UUID   `json:"id"`
	Year    int         `json:"year"`
	Month   int         `json:"month"`
	Name    string      `json:"name"`
	Summary summaryJSON `json:"summary"`
}

func toMonthJSON(l budget.MonthListing) monthJSON {
	return monthJSON{
		ID:      l.Month.ID,
		Year:    l.Month.Year,
		Month:   l.Month.Month,
		Name:    l.Month.Name,
		Summary: toSummaryJSON(l.Summary),
	}
}

type incomeJSON struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	PlannedAmount decimal.Decimal  `json:"planned_amount"`
	ActualAmount  *decimal.Decimal `json:"actual_amount,omitempty"`
	PlannedDate   *time.Time       `json:"planned_date,omitempty"`
	ActualDate    *time.Time       `json:"actual_date,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

func toIncomeJSON(i core.IncomeItem) incomeJSON {
	out := incomeJSON{
		ID:            i.ID,
		Name:          i.Name,
		PlannedAmount: i.PlannedAmount,
		PlannedDate:   i.PlannedDate,
		ActualDate:    i.ActualDate,
		Notes:         i.Notes,
	}
	if i.ActualAmount.Valid {
		v := i.ActualAmount.Decimal
		out.ActualAmount = &v
	}
	return out
}

type planFiguresJSON struct {
	ID            uuid.UUID       `json:"id"`
	CategoryID    uuid.UUID       `json:"category_id"`
	PlannedAmount decimal.Decimal `json:"planned_amount"`
	ActualAmount  decimal.Decimal `json:"actual_amount"`
	Diff          decimal.Decimal `json:"diff"`
}

type incomeCardJSON struct {
	Income          incomeJSON        `json:"income"`
	Plans           []planFiguresJSON `json:"plans"`
	TotalPlanned    decimal.Decimal   `json:"total_planned"`
	TotalActual     decimal.Decimal   `json:"total_actual"`
	RemainingPlan   decimal.Decimal   `json:"remaining_plan"`
	RemainingActual decimal.Decimal   `json:"remaining_actual"`
	Debts           []debtJSON        `json:"debts,omitempty"`
}

func toIncomeCardJSON(card core.IncomeCard, debts []core.IncomeDebt) incomeCardJSON {
	out := incomeCardJSON{
		Income:          toIncomeJSON(card.Income),
		Plans:           make([]planFiguresJSON, 0, len(card.Plans)),
		TotalPlanned:    card.TotalPlanned,
		TotalActual:     card.TotalActual,
		RemainingPlan:   card.RemainingPlan,
		RemainingActual: card.RemainingActual,
	}
	for _, p := range card.Plans {
		out.Plans = append(out.Plans, planFiguresJSON{
			ID:            p.Plan.ID,
			CategoryID:    p.Plan.CategoryID,
			PlannedAmount: p.Plan.PlannedAmount,
			ActualAmount:  p.Actual,
			Diff:          p.Diff,
		})
	}
	for _, d := range debts {
		out.Debts = append(out.Debts, toDebtJSON(d))
	}
	return out
}

type monthDetailJSON struct {
	ID      uuid.UUID        `json:"id"`
	Year    int              `json:"year"`
	Month   int              `json:"month"`
	Name    string           `json:"name"`
	Summary summaryJSON      `json:"summary"`
	Incomes []incomeCardJSON `json:"incomes"`
}

func toMonthDetailJSON(d budget.MonthDetail) monthDetailJSON {
	out := monthDetailJSON{
		ID:      d.Month.ID,
		Year:    d.Month.Year,
		Month:   d.Month.Month,
		Name:    d.Month.Name,
		Summary: toSummaryJSON(d.Summary),
		Incomes: make([]incomeCardJSON, 0, len(d.Incomes)),
	}
	for _, card := range d.Incomes {
		out.Incomes = append(out.Incomes, toIncomeCardJSON(card, d.Debts[card.Income.ID.String()]))
	}
	return out
}

type transactionJSON struct {
	ID              uuid.UUID       `json:"id"`
	BudgetMonthID   uuid.UUID       `json:"budget_month_id"`
	IncomeItemID    uuid.UUID       `json:"income_item_id"`
	CategoryID      uuid.UUID       `json:"category_id"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
}

func toTransactionJSON(t core.ExpenseTransaction) transactionJSON {
	return transactionJSON{
		ID:              t.ID,
		BudgetMonthID:   t.BudgetMonthID,
		IncomeItemID:    t.IncomeItemID,
		CategoryID:      t.CategoryID,
		Amount:          t.Amount,
		Description:     t.Description,
		TransactionDate: t.TransactionDate,
	}
}

type bankTransactionJSON struct {
	ID              uuid.UUID       `json:"id"`
	PiggyBankID     uuid.UUID       `json:"piggy_bank_id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
}

func toBankTransactionJSON(t core.PiggyBankTransaction) bankTransactionJSON {
	return bankTransactionJSON{
		ID:              t.ID,
		PiggyBankID:     t.PiggyBankID,
		Type:            string(t.Type),
		Amount:          t.Amount,
		Description:     t.Description,
		TransactionDate: t.TransactionDate,
	}
}

type debtJSON struct {
	ID           uuid.UUID       `json:"id"`
	IncomeItemID uuid.UUID       `json:"income_item_id"`
	PiggyBankID  uuid.UUID       `json:"piggy_bank_id"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description,omitempty"`
}

func toDebtJSON(d core.IncomeDebt) debtJSON {
	return debtJSON{
		ID:           d.ID,
		IncomeItemID: d.IncomeItemID,
		PiggyBankID:  d.PiggyBankID,
		Amount:       d.Amount,
		Description:  d.Description,
	}
}
