package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/finance"
	"github.com/ukydev/fleet-manager/internal/models"
	"github.com/ukydev/fleet-manager/internal/stock"
	"golang.org/x/sync/errgroup"
)

// ReportHandler serves the read-only stock and finance reports. Access is
// checked by the router.
type ReportHandler struct {
	store db.Store
	loc   *time.Location
	now   func() time.Time
}

func NewReportHandler(store db.Store, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{store: store, loc: loc, now: time.Now}
}

// StockAlerts returns the items at or below their alert threshold.
func (h *ReportHandler) StockAlerts(w http.ResponseWriter, r *http.Request) {
	var items []models.StockItem
	if err := h.store.Collection(models.CollectionStock).FindAll(r.Context(), nil, &items); err != nil {
		writeInternal(w, r, err, "Failed to load stock")
		return
	}
	writeJSON(w, http.StatusOK, stock.Alerts(items))
}

// FinanceSummary totals expenses and revenues of ?year= (current year by default) per month.
func (h *ReportHandler) FinanceSummary(w http.ResponseWriter, r *http.Request) {
	year := h.now().In(h.loc).Year()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1900 || y > 9999 {
			writeError(w, http.StatusBadRequest, "Invalid year", "bad-request")
			return
		}
		year = y
	}

	var (
		expenses []models.Expense
		revenues []models.Revenue
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		return h.store.Collection(models.CollectionExpenses).FindAll(ctx, nil, &expenses)
	})
	g.Go(func() error {
		return h.store.Collection(models.CollectionRevenues).FindAll(ctx, nil, &revenues)
	})
	if err := g.Wait(); err != nil {
		writeInternal(w, r, err, "Failed to load finance records")
		return
	}
	writeJSON(w, http.StatusOK, finance.Summarize(year, expenses, revenues, h.loc))
}
