// Package http exposes the budgeting operations as a JSON API. Every
// request carries the acting user in the X-User-ID header; handlers put
// it into the context and the layers below never see raw user input.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"kopilka/internal/auth"
	"kopilka/internal/budget"
	"kopilka/internal/core"
	"kopilka/internal/ledger"
	"kopilka/internal/planner"
	"kopilka/internal/registry"
)

const userHeader = "X-User-ID"

type Server struct {
	http.Server
	registry *registry.Registry
	ledger   *ledger.Engine
	budget   *budget.Service
	planner  *planner.Planner
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, reg *registry.Registry, eng *ledger.Engine, bud *budget.Service, pln *planner.Planner) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		registry: reg,
		ledger:   eng,
		budget:   bud,
		planner:  pln,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/piggy-banks", s.withUser(s.handleListPiggyBanks))
	mux.HandleFunc("POST /api/piggy-banks", s.withUser(s.handleCreatePiggyBank))
	mux.HandleFunc("PUT /api/piggy-banks/{id}", s.withUser(s.handleUpdatePiggyBank))
	mux.HandleFunc("DELETE /api/piggy-banks/{id}", s.withUser(s.handleArchivePiggyBank))
	mux.HandleFunc("POST /api/piggy-banks/{id}/transactions", s.withUser(s.handleCreateBankTransaction))
	mux.HandleFunc("GET /api/piggy-banks/{id}/transactions", s.withUser(s.handleListBankTransactions))

	mux.HandleFunc("GET /api/credits", s.withUser(s.handleListCredits))
	mux.HandleFunc("POST /api/credits", s.withUser(s.handleCreateCredit))
	mux.HandleFunc("PUT /api/credits/{id}", s.withUser(s.handleUpdateCredit))
	mux.HandleFunc("DELETE /api/credits/{id}", s.withUser(s.handleArchiveCredit))

	mux.HandleFunc("GET /api/categories", s.withUser(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withUser(s.handleCreateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withUser(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/months", s.withUser(s.handleListMonths))
	mux.HandleFunc("POST /api/months", s.withUser(s.handleCreateMonth))
	mux.HandleFunc("GET /api/months/{id}", s.withUser(s.handleMonthDetail))
	mux.HandleFunc("GET /api/months/{id}/summary", s.withUser(s.handleMonthSummary))
	mux.HandleFunc("DELETE /api/months/{id}", s.withUser(s.handleArchiveMonth))
	mux.HandleFunc("POST /api/months/{id}/incomes", s.withUser(s.handleCreateIncome))

	mux.HandleFunc("PUT /api/incomes/{id}", s.withUser(s.handleReconcilePlan))
	mux.HandleFunc("DELETE /api/incomes/{id}", s.withUser(s.handleDeleteIncome))
	mux.HandleFunc("POST /api/incomes/{id}/actual", s.withUser(s.handleRecordActualIncome))
	mux.HandleFunc("POST /api/incomes/{id}/debts", s.withUser(s.handleCreateDebt))

	mux.HandleFunc("POST /api/transactions", s.withUser(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withUser(s.handleDeleteTransaction))
	mux.HandleFunc("DELETE /api/debts/{id}", s.withUser(s.handleDeleteDebt))

	return s
}

// withUser resolves the acting user from the X-User-ID header, stores it
// in the context, and logs request start and completion.
func (s *Server) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		userID, err := uuid.Parse(r.Header.Get(userHeader))
		if err != nil || userID == uuid.Nil {
			slog.WarnContext(r.Context(), "Request without valid user",
				"request_id", requestID,
				"method", r.Method,
				"url", r.URL.Path)
			writeError(w, http.StatusUnauthorized, "missing or invalid "+userHeader+" header")
			return
		}

		ctx := auth.WithUser(r.Context(), userID)
		ctx = context.WithValue(ctx, requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain sentinels to HTTP statuses. Anything not
// recognized is a 500 with the detail kept out of the response.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, core.ErrSystemCategory):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInsufficientFunds),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidYear),
		errors.Is(err, core.ErrInvalidCategoryType),
		errors.Is(err, core.ErrInvalidBankTxType):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"url", r.URL.Path,
			"error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
