package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-manager/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := store.Collection(models.CollectionMissions)
	assert.Equal(t, models.CollectionMissions, c.Name())

	id, err := c.Insert(ctx, bson.M{
		"depart":     "Paris",
		"arrivee":    "Lyon",
		"statut":     "planned",
		"date_debut": time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		"couts":      bson.M{"carburant": 120.0},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	var m models.Mission
	require.NoError(t, c.FindByID(ctx, id, &m))
	assert.Equal(t, "Paris", m.Origin)
	assert.Equal(t, 120.0, m.Costs.Fuel)
	assert.False(t, m.CreatedAt.IsZero())

	require.NoError(t, c.Update(ctx, id, bson.M{"statut": "completed", "couts.peages": 35.5}))
	require.NoError(t, c.FindByID(ctx, id, &m))
	assert.Equal(t, models.MissionCompleted, m.Status)
	assert.Equal(t, 120.0, m.Costs.Fuel)
	assert.Equal(t, 35.5, m.Costs.Tolls)

	assert.ErrorIs(t, c.Update(ctx, "missing", bson.M{"statut": "x"}), ErrNotFound)
	assert.ErrorIs(t, c.FindByID(ctx, "missing", &m), ErrNotFound)

	require.NoError(t, c.Delete(ctx, id))
	assert.ErrorIs(t, c.Delete(ctx, id), ErrNotFound)
}

func TestMemoryStore_FindAllAndLoadRaw(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := store.Collection(models.CollectionVehicles)

	_, err := c.Insert(ctx, models.Vehicle{ID: "v1", Plate: "AB-123-CD", Status: "disponible"})
	require.NoError(t, err)
	_, err = c.Insert(ctx, models.Vehicle{ID: "v2", Plate: "EF-456-GH", Status: "maintenance"})
	require.NoError(t, err)
	_, err = c.Insert(ctx, models.Vehicle{ID: "v1", Plate: "dup"})
	assert.ErrorIs(t, err, ErrDuplicate)

	var all []models.Vehicle
	require.NoError(t, c.FindAll(ctx, nil, &all))
	require.Len(t, all, 2)
	assert.Equal(t, "v1", all[0].ID)

	var some []models.Vehicle
	require.NoError(t, c.FindAll(ctx, bson.M{"statut": "maintenance"}, &some))
	require.Len(t, some, 1)
	assert.Equal(t, "v2", some[0].ID)

	raw, err := store.LoadRaw(ctx, models.CollectionVehicles)
	require.NoError(t, err)
	assert.Len(t, raw, 2)

	n, err := c.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	raw, err = store.LoadRaw(ctx, models.CollectionVehicles)
	require.NoError(t, err)
	assert.Empty(t, raw)
}
