package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngelashvili/supra-backend/internal/domain"
)

func createTestUser(t *testing.T, d *sql.DB, email string) *domain.User {
	t.Helper()
	u, err := NewUserStore(d).Create(context.Background(), "Nino", email)
	require.NoError(t, err)
	return u
}

func TestUserStoreCreate(t *testing.T) {
	store := NewUserStore(openTestDB(t))
	ctx := context.Background()

	user, err := store.Create(ctx, "Nino", "nino@example.com")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "Nino", user.Name)
	assert.Equal(t, "nino@example.com", user.Email)
}

func TestUserStoreCreateDuplicateEmail(t *testing.T) {
	store := NewUserStore(openTestDB(t))
	ctx := context.Background()

	_, err := store.Create(ctx, "Nino", "nino@example.com")
	require.NoError(t, err)

	_, err = store.Create(ctx, "Other Nino", "nino@example.com")
	assert.ErrorContains(t, err, "UNIQUE")
}

func TestUserStoreGetByEmail(t *testing.T) {
	d := openTestDB(t)
	store := NewUserStore(d)
	ctx := context.Background()

	created := createTestUser(t, d, "nino@example.com")

	found, err := store.GetByEmail(ctx, "NINO@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := store.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserStoreGetByID(t *testing.T) {
	d := openTestDB(t)
	store := NewUserStore(d)
	ctx := context.Background()

	created := createTestUser(t, d, "nino@example.com")

	retrieved, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, created.Email, retrieved.Email)

	missing, err := store.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserStoreList(t *testing.T) {
	d := openTestDB(t)
	store := NewUserStore(d)

	createTestUser(t, d, "a@example.com")
	createTestUser(t, d, "b@example.com")

	users, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserStoreUpdate(t *testing.T) {
	d := openTestDB(t)
	store := NewUserStore(d)
	ctx := context.Background()

	created := createTestUser(t, d, "nino@example.com")

	require.NoError(t, store.Update(ctx, created.ID, "Nino G", "ninog@example.com"))

	updated, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nino G", updated.Name)
	assert.Equal(t, "ninog@example.com", updated.Email)

	assert.Error(t, store.Update(ctx, 9999, "Ghost", "ghost@example.com"))
}

func TestUserStoreDelete(t *testing.T) {
	d := openTestDB(t)
	store := NewUserStore(d)
	ctx := context.Background()

	created := createTestUser(t, d, "nino@example.com")

	require.NoError(t, store.Delete(ctx, created.ID))

	gone, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	assert.Error(t, store.Delete(ctx, created.ID))
}

func TestUserStoreExists(t *testing.T) {
	d := openTestDB(t)
	store := NewUserStore(d)
	ctx := context.Background()

	created := createTestUser(t, d, "nino@example.com")

	exists, err := store.Exists(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, exists)
}
