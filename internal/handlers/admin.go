package handlers

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-manager/internal/middleware"
	"github.com/ukydev/fleet-manager/internal/policy"
	"github.com/ukydev/fleet-manager/internal/seed"
)

// Resetter regenerates the demo data set.
type Resetter interface {
	Reset(ctx context.Context) (seed.Result, error)
}

// AdminHandler serves the administrative actions that are not user management.
type AdminHandler struct {
	seeder   Resetter
	hub      Refresher
	gate     *policy.Gate
	settings any
}

// NewAdminHandler creates the handler. settings is the public view of the
// running configuration; it must not contain secrets.
func NewAdminHandler(seeder Resetter, hub Refresher, gate *policy.Gate, settings any) *AdminHandler {
	return &AdminHandler{seeder: seeder, hub: hub, gate: gate, settings: settings}
}

func (h *AdminHandler) authorize(w http.ResponseWriter, r *http.Request, action policy.Action, resource string) bool {
	claims, _ := middleware.GetUserFromContext(r.Context())
	if err := h.gate.Authorize(r.Context(), claims, action, resource, nil); err != nil {
		middleware.WritePolicyError(w, err)
		return false
	}
	return true
}

// ResetDemo wipes and regenerates the demo collections and reports the counts.
// Individual write failures are part of the result, not an error.
func (h *AdminHandler) ResetDemo(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, policy.ActionManage, policy.ResourceDemo) {
		return
	}
	res, err := h.seeder.Reset(r.Context())
	if err != nil {
		writeInternal(w, r, err, "Demo reset aborted")
		return
	}
	if h.hub != nil {
		for _, collection := range seed.Collections {
			if err := h.hub.Refresh(r.Context(), collection); err != nil {
				log.WithError(err).WithField("collection", collection).Warn("Failed to refresh snapshot after reset")
			}
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// Settings returns the public configuration.
func (h *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, policy.ActionView, policy.ResourceSettings) {
		return
	}
	writeJSON(w, http.StatusOK, h.settings)
}
