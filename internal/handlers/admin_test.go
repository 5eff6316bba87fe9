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
	"github.com/ukydev/fleet-manager/internal/models"
	"github.com/ukydev/fleet-manager/internal/policy"
	"github.com/ukydev/fleet-manager/internal/seed"
)

type failingResetter struct{}

func (failingResetter) Reset(ctx context.Context) (seed.Result, error) {
	return seed.Result{}, context.Canceled
}

func TestAdminHandler_ResetDemo(t *testing.T) {
	store := db.NewMemoryStore()
	_, err := store.Collection(models.CollectionVehicles).Insert(context.Background(), models.Vehicle{ID: "old", Plate: "OLD"})
	require.NoError(t, err)
	spy := &refreshSpy{}
	h := NewAdminHandler(seed.New(store, 4, time.UTC), spy, policy.Default(), nil)

	t.Run("admin", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ResetDemo(w, asUser(httptest.NewRequest(http.MethodPost, "/api/admin/demo/reset", nil), "a", models.RoleAdmin))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var res seed.Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, int64(1), res.Deleted[models.CollectionVehicles])
		assert.Positive(t, res.Inserted[models.CollectionMissions])
		assert.Empty(t, res.Failed)

		var old models.Vehicle
		assert.ErrorIs(t, store.Collection(models.CollectionVehicles).FindByID(context.Background(), "old", &old), db.ErrNotFound)
		assert.ElementsMatch(t, seed.Collections, spy.calls)
	})

	t.Run("manager", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ResetDemo(w, asUser(httptest.NewRequest(http.MethodPost, "/api/admin/demo/reset", nil), "m", models.RoleManager))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("aborted", func(t *testing.T) {
		h := NewAdminHandler(failingResetter{}, nil, policy.Default(), nil)
		w := httptest.NewRecorder()
		h.ResetDemo(w, asUser(httptest.NewRequest(http.MethodPost, "/api/admin/demo/reset", nil), "a", models.RoleAdmin))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestAdminHandler_Settings(t *testing.T) {
	h := NewAdminHandler(nil, nil, policy.Default(), map[string]string{"image_provider": "gcs"})

	w := httptest.NewRecorder()
	h.Settings(w, asUser(httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil), "a", models.RoleAdmin))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"image_provider":"gcs"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.Settings(w, asUser(httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil), "o", models.RoleOperator))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
