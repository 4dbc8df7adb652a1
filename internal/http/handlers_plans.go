package http

import (
	"net/http"

	"github.com/google/uuid"

	"kopilka/internal/core"
	"kopilka/internal/planner"
)

type planRowJSON struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"category_id"`
	Amount     string    `json:"amount"`
}

func toPlanRows(rows []planRowJSON) []planner.PlanRow {
	out := make([]planner.PlanRow, 0, len(rows))
	for _, row := range rows {
		amount, err := core.ParseAmount(row.Amount)
		if err != nil {
			// The planner skips empty rows rather than rejecting the
			// batch, matching how a half-filled form is saved.
			amount = core.FromKopecks(0)
		}
		out = append(out, planner.PlanRow{
			ExistingID: row.ID,
			CategoryID: row.CategoryID,
			Amount:     amount,
		})
	}
	return out
}

// handleReconcilePlan applies one batch edit to an income: its own fields
// plus the complete desired set of plan rows.
func (s *Server) handleReconcilePlan(w http.ResponseWriter, r *http.Request) {
	incomeID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Name          string        `json:"name"`
		PlannedAmount string        `json:"planned_amount"`
		PlannedDate   string        `json:"planned_date"`
		Plans         []planRowJSON `json:"plans"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	planned, err := core.ParseAmount(req.PlannedAmount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	plannedDate, ok := parseOptionalDate(req.PlannedDate)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid planned_date, expected YYYY-MM-DD")
		return
	}
	if err := s.planner.ReconcileIncomePlan(r.Context(), incomeID, req.Name, planned, plannedDate, toPlanRows(req.Plans)); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
