package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"kopilka/internal/core"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IncomeItemID uuid.UUID `json:"income_item_id"`
		CategoryID   uuid.UUID `json:"category_id"`
		Amount       string    `json:"amount"`
		Description  string    `json:"description"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	tx, err := s.ledger.PostExpenseTransaction(r.Context(), req.IncomeItemID, req.CategoryID, amount, req.Description)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.ledger.DeleteExpenseTransaction(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateBankTransaction(w http.ResponseWriter, r *http.Request) {
	bankID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Type        string `json:"type"`
		Amount      string `json:"amount"`
		Description string `json:"description"`
		Date        string `json:"date"`
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
	tx, err := s.ledger.PostPiggyBankTransaction(r.Context(), bankID, core.BankTxType(req.Type), amount, req.Description, date)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBankTransactionJSON(tx))
}

func (s *Server) handleListBankTransactions(w http.ResponseWriter, r *http.Request) {
	bankID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	txs, err := s.ledger.ListPiggyBankTransactions(r.Context(), bankID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]bankTransactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toBankTransactionJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	incomeID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		PiggyBankID uuid.UUID `json:"piggy_bank_id"`
		Amount      string    `json:"amount"`
		Description string    `json:"description"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	debt, err := s.ledger.PostIncomeDebt(r.Context(), incomeID, req.PiggyBankID, amount, req.Description)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDebtJSON(debt))
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.ledger.DeleteIncomeDebt(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
