package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-manager/internal/models"
)

func newTestUsers(t *testing.T) *MongoUserCollection {
	t.Helper()
	store := testStore(t)
	users := NewMongoUserCollection(store)
	require.NoError(t, users.Collection.Drop(context.Background()))
	return users
}

func seedUser(t *testing.T, users *MongoUserCollection) string {
	t.Helper()
	id, err := users.InsertUser(context.Background(), models.User{
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.RoleAdmin,
		FirstName:    "Test",
		LastName:     "User",
	})
	require.NoError(t, err)
	return id
}

func TestMongoUserCollection_InsertAndFind(t *testing.T) {
	users := newTestUsers(t)
	ctx := context.Background()
	id := seedUser(t, users)

	byID, err := users.FindUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "testuser", byID.Username)
	assert.True(t, byID.IsActive)
	assert.NotZero(t, byID.CreatedAt)

	byName, err := users.FindUserByUsername(ctx, "testuser")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)

	byEmail, err := users.FindUserByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)

	_, err = users.FindUserByID(ctx, "invalid-id")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = users.FindUserByEmail(ctx, "nonexistent@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := users.FindUsers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMongoUserCollection_UpdateUser(t *testing.T) {
	users := newTestUsers(t)
	ctx := context.Background()
	id := seedUser(t, users)

	current, err := users.FindUserByID(ctx, id)
	require.NoError(t, err)
	updated := *current
	updated.FirstName = "Updated"
	require.NoError(t, users.UpdateUser(ctx, id, updated))

	found, err := users.FindUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Updated", found.FirstName)
	assert.True(t, found.UpdatedAt.After(current.UpdatedAt))

	assert.ErrorIs(t, users.UpdateUser(ctx, "missing", updated), ErrNotFound)
}

func TestMongoUserCollection_DeleteUser(t *testing.T) {
	users := newTestUsers(t)
	ctx := context.Background()
	id := seedUser(t, users)

	require.NoError(t, users.DeleteUser(ctx, id))
	_, err := users.FindUserByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, users.DeleteUser(ctx, id), ErrNotFound)
}

func TestMongoUserCollection_UpdateLastLogin(t *testing.T) {
	users := newTestUsers(t)
	ctx := context.Background()
	id := seedUser(t, users)

	require.NoError(t, users.UpdateLastLogin(ctx, id))
	found, err := users.FindUserByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, found.LastLogin)
	assert.False(t, found.LastLogin.Before(found.CreatedAt))
}

func TestMongoUserCollection_UniqueEmail(t *testing.T) {
	users := newTestUsers(t)
	ctx := context.Background()
	require.NoError(t, users.EnsureIndexes(ctx))
	seedUser(t, users)

	_, err := users.InsertUser(ctx, models.User{Username: "other", Email: "test@example.com", Role: models.RoleViewer})
	assert.ErrorIs(t, err, ErrDuplicate)
}
