package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"kopilka/internal/budget"
	"kopilka/internal/cache"
	"kopilka/internal/ledger"
	"kopilka/internal/planner"
	"kopilka/internal/registry"
	"kopilka/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	viewCache := cache.NewTagCache[any](32, time.Minute)
	inv := cache.Fanout{viewCache}
	return NewServer(":0",
		registry.NewRegistry(s, inv),
		ledger.NewEngine(s, inv),
		budget.NewService(s, viewCache, inv),
		planner.NewPlanner(s, inv),
	)
}

func doJSON(t *testing.T, srv *Server, method, path string, userID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != uuid.Nil {
		req.Header.Set(userHeader, userID.String())
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestMissingUserHeader(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/months", uuid.Nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpointsNeedNoUser(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndListPiggyBanks(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()

	rec := doJSON(t, srv, http.MethodPost, "/api/piggy-banks", userID, map[string]string{
		"name":          "Отпуск",
		"target_amount": "100000",
		"color":         "#fca",
		"icon":          "✈️",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created piggyBankJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "Отпуск", created.Name)

	rec = doJSON(t, srv, http.MethodGet, "/api/piggy-banks", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var banks []piggyBankJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &banks))
	require.Len(t, banks, 1)

	// Other users see nothing.
	rec = doJSON(t, srv, http.MethodGet, "/api/piggy-banks", uuid.New(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var empty []piggyBankJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &empty))
	require.Empty(t, empty)
}

func TestCreatePiggyBankValidation(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()

	rec := doJSON(t, srv, http.MethodPost, "/api/piggy-banks", userID, map[string]string{
		"name":          "x",
		"target_amount": "abc",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/piggy-banks", userID, map[string]string{
		"name":          "  ",
		"target_amount": "1",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMonthFlow(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()

	rec := doJSON(t, srv, http.MethodPost, "/api/months", userID, map[string]any{
		"year": 2026, "month": 8, "name": "Август",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var month struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &month))

	rec = doJSON(t, srv, http.MethodPost, "/api/months/"+month.ID.String()+"/incomes", userID, map[string]any{
		"name":           "Зарплата",
		"planned_amount": "100000",
		"plans": []map[string]any{
			{"id": uuid.Nil, "category_id": uuid.New(), "amount": "30000"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/api/months/"+month.ID.String()+"/summary", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary summaryJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Equal(t, "100000", summary.TotalPlannedIncome.String())
	require.Equal(t, "30000", summary.TotalPlannedExpenses.String())

	rec = doJSON(t, srv, http.MethodGet, "/api/months/"+month.ID.String(), userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail monthDetailJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.Len(t, detail.Incomes, 1)
	require.Len(t, detail.Incomes[0].Plans, 1)

	rec = doJSON(t, srv, http.MethodGet, "/api/months/"+uuid.NewString()+"/summary", userID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidJSONBody(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/months", bytes.NewBufferString("{nope"))
	req.Header.Set(userHeader, uuid.NewString())
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
