package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/finance"
	"github.com/ukydev/fleet-manager/internal/middleware"
	"github.com/ukydev/fleet-manager/internal/models"
	"github.com/ukydev/fleet-manager/internal/policy"
	"github.com/ukydev/fleet-manager/internal/routing"
	"go.mongodb.org/mongo-driver/bson"
)

// RouteFinder computes the geometry of a mission.
type RouteFinder interface {
	MissionRoute(ctx context.Context, m models.Mission) (routing.Route, error)
}

// MissionHandler serves the mission actions that are not plain record edits.
type MissionHandler struct {
	store  db.Store
	hub    Refresher
	gate   *policy.Gate
	router RouteFinder
	now    func() time.Time
}

func NewMissionHandler(store db.Store, hub Refresher, gate *policy.Gate, router RouteFinder) *MissionHandler {
	return &MissionHandler{store: store, hub: hub, gate: gate, router: router, now: time.Now}
}

// MissionSummary is a mission with its computed cost and profit.
type MissionSummary struct {
	Mission models.Mission `json:"mission"`
	Cost    float64        `json:"cout_total"`
	Profit  *float64       `json:"benefice,omitempty"`
}

func (h *MissionHandler) load(w http.ResponseWriter, r *http.Request, action policy.Action) (models.Mission, bool) {
	claims, _ := middleware.GetUserFromContext(r.Context())
	if err := h.gate.Authorize(r.Context(), claims, action, policy.ResourceMissions, nil); err != nil {
		middleware.WritePolicyError(w, err)
		return models.Mission{}, false
	}
	var m models.Mission
	if err := h.store.Collection(models.CollectionMissions).FindByID(r.Context(), r.PathValue("id"), &m); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "Mission not found", "not-found")
			return models.Mission{}, false
		}
		writeInternal(w, r, err, "Failed to load mission")
		return models.Mission{}, false
	}
	return m, true
}

// Complete marks the mission completed and stamps its end date in one write.
// A mission whose start date is still ahead is refused.
func (h *MissionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	m, ok := h.load(w, r, policy.ActionUpdate)
	if !ok {
		return
	}
	end := h.now().UTC()
	if m.StartDate.After(end) {
		writeError(w, http.StatusConflict, "Mission has not started yet", "mission-not-started")
		return
	}
	fields := bson.M{
		"statut":   string(models.MissionCompleted),
		"date_fin": end,
	}
	if err := h.store.Collection(models.CollectionMissions).Update(r.Context(), m.ID, fields); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "Mission not found", "not-found")
			return
		}
		writeInternal(w, r, err, "Failed to complete mission")
		return
	}
	if h.hub != nil {
		if err := h.hub.Refresh(r.Context(), models.CollectionMissions); err != nil {
			log.WithError(err).Warn("Failed to refresh missions after completion")
		}
	}
	log.WithFields(log.Fields{"mission_id": m.ID, "previous": m.Status}).Info("Mission completed")

	var updated models.Mission
	if err := h.store.Collection(models.CollectionMissions).FindByID(r.Context(), m.ID, &updated); err != nil {
		writeInternal(w, r, err, "Failed to reload mission")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Route returns the road geometry between the mission endpoints.
func (h *MissionHandler) Route(w http.ResponseWriter, r *http.Request) {
	m, ok := h.load(w, r, policy.ActionView)
	if !ok {
		return
	}
	route, err := h.router.MissionRoute(r.Context(), m)
	if err != nil {
		if errors.Is(err, routing.ErrUnknownPlace) {
			writeError(w, http.StatusUnprocessableEntity, err.Error(), "unknown-place")
			return
		}
		writeInternal(w, r, err, "Failed to compute route")
		return
	}
	writeJSON(w, http.StatusOK, route)
}

// Summary returns the mission with its total cost and profit.
func (h *MissionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	m, ok := h.load(w, r, policy.ActionView)
	if !ok {
		return
	}
	out := MissionSummary{Mission: m, Cost: finance.MissionCost(m)}
	if profit, ok := finance.MissionProfit(m); ok {
		out.Profit = &profit
	}
	writeJSON(w, http.StatusOK, out)
}
