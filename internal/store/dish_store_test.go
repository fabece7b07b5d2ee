package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngelashvili/supra-backend/internal/domain"
)

func createTestRestaurant(t *testing.T, d *sql.DB) *domain.Restaurant {
	t.Helper()
	r, err := NewRestaurantStore(d).Create(context.Background(), sampleRestaurant())
	require.NoError(t, err)
	return r
}

func TestDishStoreCreate(t *testing.T) {
	d := openTestDB(t)
	r := createTestRestaurant(t, d)
	store := NewDishStore(d)
	ctx := context.Background()

	created, err := store.Create(ctx, &domain.Dish{
		RestaurantID: r.ID,
		Name:         "Khachapuri Adjaruli",
		Description:  "Boat-shaped bread with cheese and egg",
		Price:        18.50,
		Ingredients:  []string{"flour", "sulguni", "egg", "butter"},
		Tags:         []string{"vegetarian", "signature"},
		Allergens:    []string{"gluten", "dairy", "egg"},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, r.ID, created.RestaurantID)
	assert.Equal(t, []string{"gluten", "dairy", "egg"}, created.Allergens)
	assert.NotZero(t, created.CreatedAt)
}

func TestDishStoreCreateRequiresRestaurant(t *testing.T) {
	store := NewDishStore(openTestDB(t))

	_, err := store.Create(context.Background(), &domain.Dish{RestaurantID: 9999, Name: "Orphan", Price: 1.00})
	assert.Error(t, err)
}

func TestDishStoreGetByID(t *testing.T) {
	d := openTestDB(t)
	r := createTestRestaurant(t, d)
	store := NewDishStore(d)
	ctx := context.Background()

	created, err := store.Create(ctx, &domain.Dish{RestaurantID: r.ID, Name: "Khinkali", Price: 12.00})
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, "Khinkali", retrieved.Name)

	missing, err := store.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDishStoreListByRestaurant(t *testing.T) {
	d := openTestDB(t)
	r1 := createTestRestaurant(t, d)
	r2 := createTestRestaurant(t, d)
	store := NewDishStore(d)
	ctx := context.Background()

	_, err := store.Create(ctx, &domain.Dish{RestaurantID: r1.ID, Name: "Khinkali", Price: 12.00})
	require.NoError(t, err)
	_, err = store.Create(ctx, &domain.Dish{RestaurantID: r2.ID, Name: "Pkhali Trio", Price: 9.00})
	require.NoError(t, err)

	dishes, err := store.ListByRestaurant(ctx, r1.ID)
	require.NoError(t, err)
	require.Len(t, dishes, 1)
	assert.Equal(t, "Khinkali", dishes[0].Name)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDishStoreFindByName(t *testing.T) {
	d := openTestDB(t)
	r := createTestRestaurant(t, d)
	store := NewDishStore(d)
	ctx := context.Background()

	_, err := store.Create(ctx, &domain.Dish{RestaurantID: r.ID, Name: "Khachapuri Imeruli", Price: 14.00})
	require.NoError(t, err)
	_, err = store.Create(ctx, &domain.Dish{RestaurantID: r.ID, Name: "Khinkali", Price: 12.00})
	require.NoError(t, err)

	found, err := store.FindByName(ctx, "khachapuri")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Khachapuri Imeruli", found[0].Name)
}

func TestDishStoreFindByTags(t *testing.T) {
	d := openTestDB(t)
	r := createTestRestaurant(t, d)
	store := NewDishStore(d)
	ctx := context.Background()

	_, err := store.Create(ctx, &domain.Dish{RestaurantID: r.ID, Name: "Pkhali Trio", Price: 9.00, Tags: []string{"vegetarian", "cold"}})
	require.NoError(t, err)
	_, err = store.Create(ctx, &domain.Dish{RestaurantID: r.ID, Name: "Lobio", Price: 8.00, Tags: []string{"vegetarian"}})
	require.NoError(t, err)
	_, err = store.Create(ctx, &domain.Dish{RestaurantID: r.ID, Name: "Mtsvadi", Price: 25.00, Tags: []string{"grilled"}})
	require.NoError(t, err)

	vegetarian, err := store.FindByTags(ctx, []string{"vegetarian"})
	require.NoError(t, err)
	assert.Len(t, vegetarian, 2)

	// Every listed tag must be present, matched case-insensitively.
	both, err := store.FindByTags(ctx, []string{"Vegetarian", "cold"})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "Pkhali Trio", both[0].Name)

	none, err := store.FindByTags(ctx, []string{"vegetarian", "grilled"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDishStoreFindWithoutAllergens(t *testing.T) {
	d := openTestDB(t)
	r := createTestRestaurant(t, d)
	store := NewDishStore(d)
	ctx := context.Background()

	_, err := store.Create(ctx, &domain.Dish{RestaurantID: r.ID, Name: "Khinkali", Price: 12.00, Allergens: []string{"gluten", "pork"}})
	require.NoError(t, err)
	_, err = store.Create(ctx, &domain.Dish{RestaurantID: r.ID, Name: "Pkhali Trio", Price: 9.00, Allergens: []string{"walnut"}})
	require.NoError(t, err)
	_, err = store.Create(ctx, &domain.Dish{RestaurantID: r.ID, Name: "Mtsvadi", Price: 25.00})
	require.NoError(t, err)

	safe, err := store.FindWithoutAllergens(ctx, []string{"Walnut"})
	require.NoError(t, err)
	require.Len(t, safe, 2)
	assert.Equal(t, "Khinkali", safe[0].Name)

	safe, err = store.FindWithoutAllergens(ctx, []string{"walnut", "pork"})
	require.NoError(t, err)
	require.Len(t, safe, 1)
	assert.Equal(t, "Mtsvadi", safe[0].Name)
}

func TestDishStoreFindByPriceBelow(t *testing.T) {
	d := openTestDB(t)
	r := createTestRestaurant(t, d)
	store := NewDishStore(d)
	ctx := context.Background()

	_, err := store.Create(ctx, &domain.Dish{RestaurantID: r.ID, Name: "Khinkali", Price: 12.00})
	require.NoError(t, err)
	_, err = store.Create(ctx, &domain.Dish{RestaurantID: r.ID, Name: "Mtsvadi", Price: 25.00})
	require.NoError(t, err)

	found, err := store.FindByPriceBelow(ctx, 15.00)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Khinkali", found[0].Name)
}

func TestDishStoreUpdate(t *testing.T) {
	d := openTestDB(t)
	r := createTestRestaurant(t, d)
	store := NewDishStore(d)
	ctx := context.Background()

	created, err := store.Create(ctx, &domain.Dish{RestaurantID: r.ID, Name: "Khinkali", Price: 12.00})
	require.NoError(t, err)

	created.Price = 13.50
	created.Tags = []string{"popular"}
	require.NoError(t, store.Update(ctx, created))

	updated, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 13.50, updated.Price)
	assert.Equal(t, []string{"popular"}, updated.Tags)

	assert.Error(t, store.Update(ctx, &domain.Dish{ID: 9999, Name: "Ghost"}))
}

func TestDishStoreSetImageURL(t *testing.T) {
	d := openTestDB(t)
	r := createTestRestaurant(t, d)
	store := NewDishStore(d)
	ctx := context.Background()

	created, err := store.Create(ctx, &domain.Dish{RestaurantID: r.ID, Name: "Khinkali", Price: 12.00})
	require.NoError(t, err)

	require.NoError(t, store.SetImageURL(ctx, created.ID, "abc123.jpg"))

	updated, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc123.jpg", updated.ImageURL)

	assert.Error(t, store.SetImageURL(ctx, 9999, "x.jpg"))
}

func TestDishStoreDelete(t *testing.T) {
	d := openTestDB(t)
	r := createTestRestaurant(t, d)
	store := NewDishStore(d)
	ctx := context.Background()

	created, err := store.Create(ctx, &domain.Dish{RestaurantID: r.ID, Name: "Khinkali", Price: 12.00})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.ID))

	gone, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	assert.Error(t, store.Delete(ctx, created.ID))
}

func TestDishStoreDeleteByRestaurant(t *testing.T) {
	d := openTestDB(t)
	r1 := createTestRestaurant(t, d)
	r2 := createTestRestaurant(t, d)
	store := NewDishStore(d)
	ctx := context.Background()

	_, err := store.Create(ctx, &domain.Dish{RestaurantID: r1.ID, Name: "Khinkali", Price: 12.00})
	require.NoError(t, err)
	_, err = store.Create(ctx, &domain.Dish{RestaurantID: r1.ID, Name: "Mtsvadi", Price: 25.00})
	require.NoError(t, err)
	_, err = store.Create(ctx, &domain.Dish{RestaurantID: r2.ID, Name: "Pkhali Trio", Price: 9.00})
	require.NoError(t, err)

	require.NoError(t, store.DeleteByRestaurant(ctx, r1.ID))

	remaining, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, r2.ID, remaining[0].RestaurantID)

	// An empty menu deletes cleanly.
	assert.NoError(t, store.DeleteByRestaurant(ctx, r1.ID))
}
