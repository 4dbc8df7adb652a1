package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestSummarizeMonth(t *testing.T) {
	incomes := []IncomeItem{
		{PlannedAmount: dec(60000), ActualAmount: decimal.NewNullDecimal(dec(60000))},
		{PlannedAmount: dec(40000), ActualAmount: decimal.NewNullDecimal(dec(35000))},
	}
	plans := []ExpensePlan{
		{PlannedAmount: dec(20000)},
		{PlannedAmount: dec(10000)},
	}
	txs := []ExpenseTransaction{
		{Amount: dec(25000)},
		{Amount: dec(7000)},
	}

	s := SummarizeMonth(incomes, plans, txs)

	if !s.TotalPlannedIncome.Equal(dec(100000)) {
		t.Fatalf("planned income: got %s", s.TotalPlannedIncome)
	}
	if !s.TotalActualIncome.Equal(dec(95000)) {
		t.Fatalf("actual income: got %s", s.TotalActualIncome)
	}
	if !s.TotalPlannedExpenses.Equal(dec(30000)) {
		t.Fatalf("planned expenses: got %s", s.TotalPlannedExpenses)
	}
	if !s.TotalActualExpenses.Equal(dec(32000)) {
		t.Fatalf("actual expenses: got %s", s.TotalActualExpenses)
	}
	// Remaining is actual income minus actual expenses; plan rows never
	// count as spending.
	if !s.RemainingBudget.Equal(dec(63000)) {
		t.Fatalf("remaining: got %s", s.RemainingBudget)
	}
}

func TestSummarizeMonthEmpty(t *testing.T) {
	s := SummarizeMonth(nil, nil, nil)
	for _, v := range []decimal.Decimal{
		s.TotalPlannedIncome, s.TotalActualIncome,
		s.TotalPlannedExpenses, s.TotalActualExpenses, s.RemainingBudget,
	} {
		if !v.IsZero() {
			t.Fatalf("expected all zeros, got %+v", s)
		}
	}
}

func TestSummarizeMonthDeterministic(t *testing.T) {
	incomes := []IncomeItem{{PlannedAmount: dec(100), ActualAmount: decimal.NewNullDecimal(dec(90))}}
	txs := []ExpenseTransaction{{Amount: dec(30)}}

	a := SummarizeMonth(incomes, nil, txs)
	b := SummarizeMonth(incomes, nil, txs)
	if !a.RemainingBudget.Equal(b.RemainingBudget) || !a.TotalActualExpenses.Equal(b.TotalActualExpenses) {
		t.Fatalf("summaries differ: %+v vs %+v", a, b)
	}
}

func TestBuildIncomeCard(t *testing.T) {
	income := IncomeItem{
		ID:            uuid.New(),
		PlannedAmount: dec(50000),
		ActualAmount:  decimal.NewNullDecimal(dec(48000)),
	}
	groceries := uuid.New()
	rent := uuid.New()
	other := IncomeItem{ID: uuid.New()}

	plans := []ExpensePlan{
		{ID: uuid.New(), IncomeItemID: income.ID, CategoryID: groceries, PlannedAmount: dec(15000)},
		{ID: uuid.New(), IncomeItemID: income.ID, CategoryID: rent, PlannedAmount: dec(20000)},
		{ID: uuid.New(), IncomeItemID: other.ID, CategoryID: rent, PlannedAmount: dec(99999)},
	}
	txs := []ExpenseTransaction{
		{IncomeItemID: income.ID, CategoryID: groceries, Amount: dec(9000)},
		{IncomeItemID: income.ID, CategoryID: groceries, Amount: dec(4000)},
		{IncomeItemID: other.ID, CategoryID: groceries, Amount: dec(77777)},
	}

	card := BuildIncomeCard(income, plans, txs)

	if len(card.Plans) != 2 {
		t.Fatalf("expected 2 plan rows, got %d", len(card.Plans))
	}
	if !card.Plans[0].Actual.Equal(dec(13000)) {
		t.Fatalf("groceries actual: got %s", card.Plans[0].Actual)
	}
	if !card.Plans[0].Diff.Equal(dec(-2000)) {
		t.Fatalf("groceries diff: got %s", card.Plans[0].Diff)
	}
	if !card.Plans[1].Actual.IsZero() {
		t.Fatalf("rent actual: got %s", card.Plans[1].Actual)
	}
	if !card.TotalPlanned.Equal(dec(35000)) {
		t.Fatalf("total planned: got %s", card.TotalPlanned)
	}
	if !card.TotalActual.Equal(dec(13000)) {
		t.Fatalf("total actual: got %s", card.TotalActual)
	}
	if !card.RemainingPlan.Equal(dec(15000)) {
		t.Fatalf("remaining plan: got %s", card.RemainingPlan)
	}
	if !card.RemainingActual.Equal(dec(35000)) {
		t.Fatalf("remaining actual: got %s", card.RemainingActual)
	}
}
