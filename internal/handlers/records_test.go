package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/models"
	"github.com/ukydev/fleet-manager/internal/policy"
	"github.com/ukydev/fleet-manager/internal/routing"
	"go.mongodb.org/mongo-driver/bson"
)

type refreshSpy struct {
	mu    sync.Mutex
	calls []string
}

func (s *refreshSpy) Refresh(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, collection)
	return nil
}

func recordRequest(method, collection, id string, body any, t *testing.T) *http.Request {
	target := "/api/records/" + collection
	if id != "" {
		target += "/" + id
	}
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, jsonBody(t, body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.SetPathValue("collection", collection)
	if id != "" {
		req.SetPathValue("id", id)
	}
	return req
}

func TestRecordHandler_CRUD(t *testing.T) {
	store := db.NewMemoryStore()
	spy := &refreshSpy{}
	h := NewRecordHandler(store, spy, policy.Default())

	w := httptest.NewRecorder()
	h.Create(w, asUser(recordRequest(http.MethodPost, models.CollectionStock, "", map[string]any{
		"nom":          "Filtre à huile",
		"quantite":     3,
		"seuil_alerte": 5,
	}, t), "op", models.RoleOperator))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.StockItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 3.0, created.Quantity)
	assert.False(t, created.CreatedAt.IsZero())

	w = httptest.NewRecorder()
	h.Update(w, asUser(recordRequest(http.MethodPut, models.CollectionStock, created.ID, map[string]any{
		"quantite": 12,
	}, t), "op", models.RoleOperator))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.StockItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 12.0, updated.Quantity)
	assert.Equal(t, 5.0, updated.AlertThreshold, "fields absent from a partial update stay untouched")
	assert.Equal(t, "Filtre à huile", updated.Name)

	w = httptest.NewRecorder()
	h.List(w, asUser(recordRequest(http.MethodGet, models.CollectionStock, "", nil, t), "v", models.RoleViewer))
	require.Equal(t, http.StatusOK, w.Code)
	var items []models.StockItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items, 1)

	w = httptest.NewRecorder()
	h.Delete(w, asUser(recordRequest(http.MethodDelete, models.CollectionStock, created.ID, nil, t), "m", models.RoleManager))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.Get(w, asUser(recordRequest(http.MethodGet, models.CollectionStock, created.ID, nil, t), "v", models.RoleViewer))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, []string{models.CollectionStock, models.CollectionStock, models.CollectionStock}, spy.calls)
}

func TestRecordHandler_Rejections(t *testing.T) {
	store := db.NewMemoryStore()
	h := NewRecordHandler(store, nil, policy.Default())

	tests := []struct {
		name       string
		req        *http.Request
		call       func(http.ResponseWriter, *http.Request)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown collection",
			req:        asUser(recordRequest(http.MethodGet, "planes", "", nil, t), "v", models.RoleViewer),
			call:       h.List,
			wantStatus: http.StatusNotFound,
			wantCode:   "unknown-collection",
		},
		{
			name:       "viewer cannot create",
			req:        asUser(recordRequest(http.MethodPost, models.CollectionClients, "", map[string]any{"nom": "ACME"}, t), "v", models.RoleViewer),
			call:       h.Create,
			wantStatus: http.StatusForbidden,
			wantCode:   "forbidden",
		},
		{
			name:       "operator cannot delete",
			req:        asUser(recordRequest(http.MethodDelete, models.CollectionClients, "x", nil, t), "o", models.RoleOperator),
			call:       h.Delete,
			wantStatus: http.StatusForbidden,
			wantCode:   "forbidden",
		},
		{
			name:       "unknown field",
			req:        asUser(recordRequest(http.MethodPost, models.CollectionClients, "", map[string]any{"nom": "ACME", "secret": true}, t), "o", models.RoleOperator),
			call:       h.Create,
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation",
		},
		{
			name:       "missing required field",
			req:        asUser(recordRequest(http.MethodPost, models.CollectionClients, "", map[string]any{"contact": "Jo"}, t), "o", models.RoleOperator),
			call:       h.Create,
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation",
		},
		{
			name:       "anonymous",
			req:        recordRequest(http.MethodGet, models.CollectionClients, "", nil, t),
			call:       h.List,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "unauthenticated",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.call(w, tt.req)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestRecordHandler_StatusEditsAreUnconstrained(t *testing.T) {
	store := db.NewMemoryStore()
	id, err := store.Collection(models.CollectionMissions).Insert(context.Background(), bson.M{
		"depart": "Paris", "arrivee": "Lyon", "statut": "completed",
		"date_debut": time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	h := NewRecordHandler(store, nil, policy.Default())

	w := httptest.NewRecorder()
	h.Update(w, asUser(recordRequest(http.MethodPut, models.CollectionMissions, id, map[string]any{"statut": "planned"}, t), "o", models.RoleOperator))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"statut":"planned"`)
}

func TestRecordHandler_UpdateChecksDatesAgainstStoredRecord(t *testing.T) {
	store := db.NewMemoryStore()
	id, err := store.Collection(models.CollectionAbsences).Insert(context.Background(), bson.M{
		"chauffeur_id": "d1",
		"type":         models.AbsenceVacation,
		"date_debut":   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		"date_fin":     time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	h := NewRecordHandler(store, nil, policy.Default())

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantDetail string
	}{
		{"end before stored start", map[string]any{"date_fin": "2025-01-01"}, http.StatusBadRequest, `"date_fin":"before_start"`},
		{"start after stored end", map[string]any{"date_debut": "2025-04-01"}, http.StatusBadRequest, `"date_fin":"before_start"`},
		{"span too long", map[string]any{"date_fin": "9999-12-31"}, http.StatusBadRequest, `"date_fin":"span_too_long"`},
		{"extension within a year", map[string]any{"date_fin": "2025-04-30"}, http.StatusOK, ""},
		{"unrelated field", map[string]any{"motif": "famille"}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Update(w, asUser(recordRequest(http.MethodPut, models.CollectionAbsences, id, tt.body, t), "o", models.RoleOperator))
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantDetail != "" {
				assert.Equal(t, "validation", decodeError(t, w).Code)
				assert.Contains(t, w.Body.String(), tt.wantDetail)
			}
		})
	}

	var a models.Absence
	require.NoError(t, store.Collection(models.CollectionAbsences).FindByID(context.Background(), id, &a))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), a.StartDate.UTC())
	assert.Equal(t, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), a.EndDate.UTC())

	t.Run("unknown record", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Update(w, asUser(recordRequest(http.MethodPut, models.CollectionAbsences, "missing", map[string]any{"date_fin": "2025-03-20"}, t), "o", models.RoleOperator))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

type fakeRouter struct {
	route routing.Route
	err   error
}

func (f fakeRouter) MissionRoute(context.Context, models.Mission) (routing.Route, error) {
	return f.route, f.err
}

func missionRequest(method, id string) *http.Request {
	req := httptest.NewRequest(method, "/api/missions/"+id, nil)
	req.SetPathValue("id", id)
	return req
}

func TestMissionHandler(t *testing.T) {
	revenue := 1500.0
	store := db.NewMemoryStore()
	id, err := store.Collection(models.CollectionMissions).Insert(context.Background(), models.Mission{
		Origin:      "Paris",
		Destination: "Lyon",
		StartDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:      models.MissionInProgress,
		Costs:       models.CostBreakdown{Fuel: 300, Tolls: 80, Driver: 200, Other: 20},
		Revenue:     &revenue,
	})
	require.NoError(t, err)

	spy := &refreshSpy{}
	router := fakeRouter{route: routing.Route{
		From:       models.Location{Lat: 48.8566, Lon: 2.3522},
		To:         models.Location{Lat: 45.764, Lon: 4.8357},
		DistanceKm: 392,
		Source:     routing.SourceDirect,
	}}
	h := NewMissionHandler(store, spy, policy.Default(), router)
	now := time.Date(2025, 3, 2, 16, 30, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	t.Run("complete stamps status and end date", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Complete(w, asUser(missionRequest(http.MethodPost, id), "o", models.RoleOperator))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var m models.Mission
		require.NoError(t, store.Collection(models.CollectionMissions).FindByID(context.Background(), id, &m))
		assert.Equal(t, models.MissionCompleted, m.Status)
		assert.True(t, now.Equal(m.EndDate))
		assert.Equal(t, []string{models.CollectionMissions}, spy.calls)
	})

	t.Run("future mission cannot be completed", func(t *testing.T) {
		future, err := store.Collection(models.CollectionMissions).Insert(context.Background(), models.Mission{
			Origin:      "Lille",
			Destination: "Nantes",
			StartDate:   now.AddDate(0, 0, 3),
			Status:      models.MissionPlanned,
		})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		h.Complete(w, asUser(missionRequest(http.MethodPost, future), "o", models.RoleOperator))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "mission-not-started", decodeError(t, w).Code)

		var m models.Mission
		require.NoError(t, store.Collection(models.CollectionMissions).FindByID(context.Background(), future, &m))
		assert.Equal(t, models.MissionPlanned, m.Status)
		assert.True(t, m.EndDate.IsZero())
	})

	t.Run("viewer cannot complete", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Complete(w, asUser(missionRequest(http.MethodPost, id), "v", models.RoleViewer))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown mission", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Complete(w, asUser(missionRequest(http.MethodPost, "missing"), "o", models.RoleOperator))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("summary", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Summary(w, asUser(missionRequest(http.MethodGet, id), "v", models.RoleViewer))
		require.Equal(t, http.StatusOK, w.Code)

		var s MissionSummary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
		assert.Equal(t, 600.0, s.Cost)
		require.NotNil(t, s.Profit)
		assert.Equal(t, 900.0, *s.Profit)
	})

	t.Run("route", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Route(w, asUser(missionRequest(http.MethodGet, id), "v", models.RoleViewer))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"distance_km":392`)
	})

	t.Run("route to unknown place", func(t *testing.T) {
		h := NewMissionHandler(store, nil, policy.Default(), fakeRouter{err: routing.ErrUnknownPlace})
		w := httptest.NewRecorder()
		h.Route(w, asUser(missionRequest(http.MethodGet, id), "v", models.RoleViewer))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "unknown-place", decodeError(t, w).Code)
	})
}
