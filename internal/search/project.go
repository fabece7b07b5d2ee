package search

import (
	"strconv"

	"github.com/ngelashvili/supra-backend/internal/domain"
)

// Project flattens the catalog into one Record per (restaurant, dish) pair.
// Single pass, catalog order, no filtering. Pure: projecting the same catalog
// twice yields identical results.
func Project(restaurants []*domain.Restaurant) []Record {
	records := make([]Record, 0, len(restaurants))
	for _, r := range restaurants {
		id := strconv.FormatInt(r.ID, 10)
		for _, d := range r.Dishes {
			records = append(records, Record{
				RestaurantID:   id,
				RestaurantName: r.Name,
				DishName:       d.Name,
				DishPrice:      d.Price,
			})
		}
	}
	return records
}
