package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/finance"
	"github.com/ukydev/fleet-manager/internal/models"
)

func TestReportHandler_StockAlerts(t *testing.T) {
	store := db.NewMemoryStore()
	for _, item := range []models.StockItem{
		{ID: "s1", Name: "Pneus", Quantity: 2, AlertThreshold: 4},
		{ID: "s2", Name: "Huile", Quantity: 5, AlertThreshold: 5},
		{ID: "s3", Name: "Filtres", Quantity: 9, AlertThreshold: 3},
	} {
		_, err := store.Collection(models.CollectionStock).Insert(context.Background(), item)
		require.NoError(t, err)
	}
	h := NewReportHandler(store, time.UTC)

	w := httptest.NewRecorder()
	h.StockAlerts(w, httptest.NewRequest(http.MethodGet, "/api/stock/alerts", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var alerts []models.StockItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
	require.Len(t, alerts, 2)
	assert.Equal(t, "s1", alerts[0].ID)
	assert.Equal(t, "s2", alerts[1].ID, "threshold is inclusive")
}

func TestReportHandler_StockAlertsEmpty(t *testing.T) {
	h := NewReportHandler(db.NewMemoryStore(), time.UTC)
	w := httptest.NewRecorder()
	h.StockAlerts(w, httptest.NewRequest(http.MethodGet, "/api/stock/alerts", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestReportHandler_FinanceSummary(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	_, err := store.Collection(models.CollectionExpenses).Insert(ctx, models.Expense{
		ID: "e1", Category: "carburant", Amount: 400, Date: day(2024, 2, 10),
	})
	require.NoError(t, err)
	_, err = store.Collection(models.CollectionExpenses).Insert(ctx, models.Expense{
		ID: "e2", Category: "peage", Amount: 50, Date: day(2023, 2, 10),
	})
	require.NoError(t, err)
	_, err = store.Collection(models.CollectionRevenues).Insert(ctx, models.Revenue{
		ID: "r1", Source: "mission", Amount: 1000, Date: day(2024, 2, 20),
	})
	require.NoError(t, err)

	h := NewReportHandler(store, time.UTC)

	t.Run("explicit year", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.FinanceSummary(w, httptest.NewRequest(http.MethodGet, "/api/finance/summary?year=2024", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var s finance.Summary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
		assert.Equal(t, 2024, s.Year)
		assert.Equal(t, 400.0, s.Expenses)
		assert.Equal(t, 600.0, s.Net)
		assert.Equal(t, 600.0, s.Months[1].Net)
	})

	t.Run("current year by default", func(t *testing.T) {
		h.now = func() time.Time { return day(2023, 6, 1) }
		w := httptest.NewRecorder()
		h.FinanceSummary(w, httptest.NewRequest(http.MethodGet, "/api/finance/summary", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var s finance.Summary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
		assert.Equal(t, 2023, s.Year)
		assert.Equal(t, 50.0, s.Expenses)
	})

	t.Run("invalid year", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.FinanceSummary(w, httptest.NewRequest(http.MethodGet, "/api/finance/summary?year=abc", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
