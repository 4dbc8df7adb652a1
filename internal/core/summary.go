package core

import "github.com/shopspring/decimal"

// MonthSummary holds the derived figures for one budget month. Actual
// expenses come exclusively from the transaction ledger; plan rows never
// contribute to them.
type MonthSummary struct {
	TotalPlannedIncome   decimal.Decimal
	TotalActualIncome    decimal.Decimal
	TotalPlannedExpenses decimal.Decimal
	TotalActualExpenses  decimal.Decimal
	RemainingBudget      decimal.Decimal
}

// SummarizeMonth computes the month figures from raw rows. Null actual
// incomes count as zero. Empty inputs yield all zeros.
func SummarizeMonth(incomes []IncomeItem, plans []ExpensePlan, txs []ExpenseTransaction) MonthSummary {
	s := MonthSummary{
		TotalPlannedIncome:   decimal.Zero,
		TotalActualIncome:    decimal.Zero,
		TotalPlannedExpenses: decimal.Zero,
		TotalActualExpenses:  decimal.Zero,
	}
	for _, in := range incomes {
		s.TotalPlannedIncome = s.TotalPlannedIncome.Add(in.PlannedAmount)
		if in.ActualAmount.Valid {
			s.TotalActualIncome = s.TotalActualIncome.Add(in.ActualAmount.Decimal)
		}
	}
	for _, p := range plans {
		s.TotalPlannedExpenses = s.TotalPlannedExpenses.Add(p.PlannedAmount)
	}
	for _, t := range txs {
		s.TotalActualExpenses = s.TotalActualExpenses.Add(t.Amount)
	}
	s.RemainingBudget = s.TotalActualIncome.Sub(s.TotalActualExpenses)
	return s
}

// PlanFigures pairs a plan row with its spent amount. Diff is actual minus
// planned, so positive means overspent.
type PlanFigures struct {
	Plan   ExpensePlan
	Actual decimal.Decimal
	Diff   decimal.Decimal
}

// IncomeCard is the drill-down view of one income: its plan rows with
// actuals, and the headline figures shown on the card.
type IncomeCard struct {
	Income          IncomeItem
	Plans           []PlanFigures
	TotalPlanned    decimal.Decimal
	TotalActual     decimal.Decimal
	RemainingPlan   decimal.Decimal
	RemainingActual decimal.Decimal
}

// BuildIncomeCard computes per-income figures. plans and txs may contain
// rows for other incomes; only those owned by income are counted.
func BuildIncomeCard(income IncomeItem, plans []ExpensePlan, txs []ExpenseTransaction) IncomeCard {
	card := IncomeCard{
		Income:       income,
		TotalPlanned: decimal.Zero,
		TotalActual:  decimal.Zero,
	}

	spentByCategory := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.IncomeItemID != income.ID {
			continue
		}
		card.TotalActual = card.TotalActual.Add(t.Amount)
		key := t.CategoryID.String()
		spentByCategory[key] = spentByCategory[key].Add(t.Amount)
	}

	for _, p := range plans {
		if p.IncomeItemID != income.ID {
			continue
		}
		actual := spentByCategory[p.CategoryID.String()]
		card.Plans = append(card.Plans, PlanFigures{
			Plan:   p,
			Actual: actual,
			Diff:   actual.Sub(p.PlannedAmount),
		})
		card.TotalPlanned = card.TotalPlanned.Add(p.PlannedAmount)
	}

	card.RemainingPlan = income.PlannedAmount.Sub(card.TotalPlanned)
	actualIncome := decimal.Zero
	if income.ActualAmount.Valid {
		actualIncome = income.ActualAmount.Decimal
	}
	card.RemainingActual = actualIncome.Sub(card.TotalActual)
	return card
}
