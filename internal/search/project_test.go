package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ngelashvili/supra-backend/internal/domain"
)

func sampleCatalog() []*domain.Restaurant {
	return []*domain.Restaurant{
		{
			ID:   1,
			Name: "Sakhli 11",
			Dishes: []*domain.Dish{
				{RestaurantID: 1, Name: "Khachapuri Adjaruli", Price: 18.50, Allergens: []string{"gluten", "dairy", "egg"}},
				{RestaurantID: 1, Name: "Khinkali", Price: 12.00, Allergens: []string{"gluten", "pork"}},
			},
		},
		{
			ID:   2,
			Name: "Cafe Littera",
			Dishes: []*domain.Dish{
				{RestaurantID: 2, Name: "Pkhali Trio", Price: 9.00, Allergens: []string{"walnut"}},
			},
		},
	}
}

func TestProject(t *testing.T) {
	records := Project(sampleCatalog())

	assert.Len(t, records, 3)
	assert.Equal(t, Record{RestaurantID: "1", RestaurantName: "Sakhli 11", DishName: "Khachapuri Adjaruli", DishPrice: 18.50}, records[0])
	assert.Equal(t, Record{RestaurantID: "1", RestaurantName: "Sakhli 11", DishName: "Khinkali", DishPrice: 12.00}, records[1])
	assert.Equal(t, Record{RestaurantID: "2", RestaurantName: "Cafe Littera", DishName: "Pkhali Trio", DishPrice: 9.00}, records[2])
}

func TestProjectDeterministic(t *testing.T) {
	catalog := sampleCatalog()
	first := Project(catalog)
	second := Project(catalog)
	assert.Equal(t, first, second)
}

func TestProjectEmptyCatalog(t *testing.T) {
	assert.Empty(t, Project(nil))
	assert.Empty(t, Project([]*domain.Restaurant{{ID: 5, Name: "No Dishes"}}))
}
