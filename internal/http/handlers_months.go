package http

import (
	"net/http"
	"strings"
	"time"

	"kopilka/internal/core"
)

const dateLayout = "2006-01-02"

func parseOptionalDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func (s *Server) handleListMonths(w http.ResponseWriter, r *http.Request) {
	listings, err := s.budget.ListMonths(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]monthJSON, 0, len(listings))
	for _, l := range listings {
		out = append(out, toMonthJSON(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateMonth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year  int    `json:"year"`
		Month int    `json:"month"`
		Name  string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	month, err := s.budget.CreateMonth(r.Context(), req.Year, req.Month, req.Name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    month.ID,
		"year":  month.Year,
		"month": month.Month,
		"name":  month.Name,
	})
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	summary, err := s.budget.Summary(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryJSON(summary))
}

func (s *Server) handleMonthDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	detail, err := s.budget.Detail(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthDetailJSON(detail))
}

func (s *Server) handleArchiveMonth(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.budget.ArchiveMonth(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateIncome creates an income inside a month, optionally with its
// initial plan rows in the same request.
func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	monthID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Name          string        `json:"name"`
		PlannedAmount string        `json:"planned_amount"`
		PlannedDate   string        `json:"planned_date"`
		Notes         string        `json:"notes"`
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

	if len(req.Plans) > 0 {
		income, err := s.planner.CreateIncomeWithPlans(r.Context(), monthID, req.Name, planned, plannedDate, toPlanRows(req.Plans))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toIncomeJSON(income))
		return
	}

	income, err := s.budget.AddIncome(r.Context(), monthID, req.Name, planned, plannedDate, req.Notes)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toIncomeJSON(income))
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.budget.DeleteIncome(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRecordActualIncome records arrived money. Mode "add" accumulates
// onto the existing actual; the default replaces it.
func (s *Server) handleRecordActualIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		Mode   string `json:"mode"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	date := time.Now().UTC()
	if d, ok := parseOptionalDate(req.Date); !ok {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	} else if d != nil {
		date = *d
	}
	if err := s.budget.RecordActualIncome(r.Context(), id, amount, date, req.Mode == "add"); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
