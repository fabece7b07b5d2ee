package search

import (
	"strconv"
	"strings"

	"github.com/ngelashvili/supra-backend/internal/domain"
)

// Reconcile maps a backend response onto the live catalog: restaurants are
// filtered to those referenced by the results, and each retained restaurant's
// dishes are pruned to the requested (restaurant_id, dish_name) keys. Entries
// that resolve to nothing live are silently dropped; the catalog is ground
// truth. A non-success response yields an empty list, never an error.
func Reconcile(resp Response, catalog []*domain.Restaurant) []*domain.Restaurant {
	if resp.Status != StatusSuccess || len(resp.Results) == 0 {
		return nil
	}

	wantRestaurants := make(map[string]bool, len(resp.Results))
	wantDishes := make(map[string]bool, len(resp.Results))
	for _, r := range resp.Results {
		wantRestaurants[r.RestaurantID] = true
		wantDishes[r.Key()] = true
	}

	var matched []*domain.Restaurant
	for _, r := range catalog {
		id := strconv.FormatInt(r.ID, 10)
		if !wantRestaurants[id] {
			continue
		}

		var dishes []*domain.Dish
		seen := make(map[string]bool)
		for _, d := range r.Dishes {
			key := id + "-" + d.Name
			if !wantDishes[key] || seen[key] {
				continue
			}
			seen[key] = true
			dishes = append(dishes, d)
		}
		if len(dishes) == 0 {
			continue
		}

		pruned := *r
		pruned.Dishes = dishes
		matched = append(matched, &pruned)
	}

	return matched
}

// FilterAllergens drops records whose live dish lists an allergen mentioned
// in any of the standing constraints. The comparison is a case-insensitive
// substring match, so a constraint like "pork allergy" removes dishes whose
// allergens include "pork". Records that do not resolve to a live dish pass
// through untouched; Reconcile handles those.
func FilterAllergens(records []Record, catalog []*domain.Restaurant, constraints []string) []Record {
	if len(constraints) == 0 {
		return records
	}

	allergensByKey := make(map[string][]string)
	for _, r := range catalog {
		id := strconv.FormatInt(r.ID, 10)
		for _, d := range r.Dishes {
			allergensByKey[id+"-"+d.Name] = d.Allergens
		}
	}

	lowered := make([]string, len(constraints))
	for i, c := range constraints {
		lowered[i] = strings.ToLower(c)
	}

	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if blockedByConstraint(allergensByKey[rec.Key()], lowered) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func blockedByConstraint(allergens, constraints []string) bool {
	for _, a := range allergens {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		for _, c := range constraints {
			if strings.Contains(c, a) {
				return true
			}
		}
	}
	return false
}
