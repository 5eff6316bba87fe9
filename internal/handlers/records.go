package handlers

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/middleware"
	"github.com/ukydev/fleet-manager/internal/models"
	"github.com/ukydev/fleet-manager/internal/policy"
	"go.mongodb.org/mongo-driver/bson"
)

// Refresher reloads a collection snapshot after a write.
type Refresher interface {
	Refresh(ctx context.Context, collection string) error
}

// RecordHandler is the generic CRUD API over the named record collections.
type RecordHandler struct {
	store db.Store
	hub   Refresher
	gate  *policy.Gate
}

func NewRecordHandler(store db.Store, hub Refresher, gate *policy.Gate) *RecordHandler {
	return &RecordHandler{store: store, hub: hub, gate: gate}
}

// collection resolves the {collection} path value and checks the caller may
// perform action on it. It writes the error reply and returns false otherwise.
func (h *RecordHandler) collection(w http.ResponseWriter, r *http.Request, action policy.Action) (string, models.Schema, bool) {
	name := r.PathValue("collection")
	schema, ok := models.Schemas[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown collection", "unknown-collection")
		return "", models.Schema{}, false
	}
	claims, _ := middleware.GetUserFromContext(r.Context())
	if err := h.gate.Authorize(r.Context(), claims, action, policy.ResourceRecords, nil); err != nil {
		middleware.WritePolicyError(w, err)
		return "", models.Schema{}, false
	}
	return name, schema, true
}

func (h *RecordHandler) refresh(ctx context.Context, collection string) {
	if h.hub == nil {
		return
	}
	if err := h.hub.Refresh(ctx, collection); err != nil {
		log.WithError(err).WithField("collection", collection).Warn("Failed to refresh snapshot after write")
	}
}

// List returns every record of the collection.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	name, _, ok := h.collection(w, r, policy.ActionList)
	if !ok {
		return
	}
	out := models.NewRecordList(name)
	if err := h.store.Collection(name).FindAll(r.Context(), nil, out); err != nil {
		writeInternal(w, r, err, "Failed to list records")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns one record.
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	name, _, ok := h.collection(w, r, policy.ActionView)
	if !ok {
		return
	}
	h.writeRecord(w, r, name, r.PathValue("id"), http.StatusOK)
}

func (h *RecordHandler) writeRecord(w http.ResponseWriter, r *http.Request, name, id string, status int) {
	out := models.NewRecord(name)
	if err := h.store.Collection(name).FindByID(r.Context(), id, out); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "Record not found", "not-found")
			return
		}
		writeInternal(w, r, err, "Failed to load record")
		return
	}
	writeJSON(w, status, out)
}

// Create validates the body against the collection's write DTO and inserts it.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	name, schema, ok := h.collection(w, r, policy.ActionCreate)
	if !ok {
		return
	}
	var input map[string]interface{}
	if !decodeJSON(w, r, &input) {
		return
	}
	doc, violations := schema.Build(input, false)
	if !violations.Empty() {
		writeViolations(w, violations)
		return
	}
	id, err := h.store.Collection(name).Insert(r.Context(), doc)
	if err != nil {
		writeInternal(w, r, err, "Failed to create record")
		return
	}
	h.refresh(r.Context(), name)
	h.writeRecord(w, r, name, id, http.StatusCreated)
}

// Update writes only the fields present in the body.
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	name, schema, ok := h.collection(w, r, policy.ActionUpdate)
	if !ok {
		return
	}
	var input map[string]interface{}
	if !decodeJSON(w, r, &input) {
		return
	}
	fields, violations := schema.Build(input, true)
	if !violations.Empty() {
		writeViolations(w, violations)
		return
	}
	id := r.PathValue("id")
	if schema.OrderFields(fields) {
		if !h.checkMerged(w, r, name, id, schema, fields) {
			return
		}
	}
	if err := h.store.Collection(name).Update(r.Context(), id, fields); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "Record not found", "not-found")
			return
		}
		writeInternal(w, r, err, "Failed to update record")
		return
	}
	h.refresh(r.Context(), name)
	h.writeRecord(w, r, name, id, http.StatusOK)
}

// checkMerged applies the date rules to the stored record with fields laid over
// it, so a patch carrying only one side of a range is still checked.
func (h *RecordHandler) checkMerged(w http.ResponseWriter, r *http.Request, name, id string, schema models.Schema, fields bson.M) bool {
	stored := bson.M{}
	if err := h.store.Collection(name).FindByID(r.Context(), id, &stored); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "Record not found", "not-found")
			return false
		}
		writeInternal(w, r, err, "Failed to load record")
		return false
	}
	for k, v := range fields {
		stored[k] = v
	}
	if violations := schema.CheckOrder(stored); !violations.Empty() {
		writeViolations(w, violations)
		return false
	}
	return true
}

// Delete removes one record.
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name, _, ok := h.collection(w, r, policy.ActionDelete)
	if !ok {
		return
	}
	if err := h.store.Collection(name).Delete(r.Context(), r.PathValue("id")); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "Record not found", "not-found")
			return
		}
		writeInternal(w, r, err, "Failed to delete record")
		return
	}
	h.refresh(r.Context(), name)
	w.WriteHeader(http.StatusNoContent)
}
