package http

import (
	"net/http"

	"kopilka/internal/core"
)

type entityRequest struct {
	Name         string `json:"name"`
	TargetAmount string `json:"target_amount"`
	Color        string `json:"color"`
	Icon         string `json:"icon"`
}

func (s *Server) handleListPiggyBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := s.registry.ListPiggyBanks(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]piggyBankJSON, 0, len(banks))
	for _, b := range banks {
		out = append(out, toPiggyBankJSON(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePiggyBank(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	target, err := core.ParseAmount(req.TargetAmount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	bank, err := s.registry.CreatePiggyBank(r.Context(), req.Name, target, req.Color, req.Icon)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPiggyBankJSON(bank))
}

func (s *Server) handleUpdatePiggyBank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req entityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	target, err := core.ParseAmount(req.TargetAmount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.registry.UpdatePiggyBank(r.Context(), id, req.Name, target, req.Color, req.Icon); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArchivePiggyBank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.registry.ArchivePiggyBank(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCredits(w http.ResponseWriter, r *http.Request) {
	credits, err := s.registry.ListCredits(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]creditJSON, 0, len(credits))
	for _, c := range credits {
		out = append(out, toCreditJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCredit(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	target, err := core.ParseAmount(req.TargetAmount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	credit, err := s.registry.CreateCredit(r.Context(), req.Name, target, req.Color, req.Icon)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCreditJSON(credit))
}

func (s *Server) handleUpdateCredit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req entityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	target, err := core.ParseAmount(req.TargetAmount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.registry.UpdateCredit(r.Context(), id, req.Name, target, req.Color, req.Icon); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArchiveCredit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.registry.ArchiveCredit(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.registry.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]categoryJSON, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Type      string `json:"type"`
		Icon      string `json:"icon"`
		Color     string `json:"color"`
		SortOrder int64  `json:"sort_order"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	category, err := s.registry.CreateCategory(r.Context(), req.Name, core.CategoryType(req.Type), req.Icon, req.Color, req.SortOrder)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryJSON(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.registry.DeleteCategory(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
