package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ngelashvili/supra-backend/internal/domain"
)

type DishStore struct {
	db *sql.DB
}

func NewDishStore(db *sql.DB) *DishStore {
	return &DishStore{db: db}
}

const dishColumns = `id, restaurant_id, name, description, price, image_url, ingredients, tags, allergens, created_at`

func (s *DishStore) Create(ctx context.Context, d *domain.Dish) (*domain.Dish, error) {
	ingredients, tags, allergens, err := encodeDishLists(d)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO dishes (restaurant_id, name, description, price, image_url, ingredients, tags, allergens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.RestaurantID, d.Name, d.Description, d.Price, d.ImageURL, ingredients, tags, allergens)
	if err != nil {
		return nil, fmt.Errorf("failed to create dish: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *DishStore) GetByID(ctx context.Context, id int64) (*domain.Dish, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+dishColumns+` FROM dishes WHERE id = ?
	`, id)

	d, err := scanDish(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dish: %w", err)
	}
	return d, nil
}

func (s *DishStore) List(ctx context.Context) ([]*domain.Dish, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+dishColumns+` FROM dishes ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}
	defer closeRows(rows)

	return collectDishes(rows)
}

func (s *DishStore) ListByRestaurant(ctx context.Context, restaurantID int64) ([]*domain.Dish, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+dishColumns+` FROM dishes WHERE restaurant_id = ? ORDER BY id ASC
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes by restaurant: %w", err)
	}
	defer closeRows(rows)

	return collectDishes(rows)
}

func (s *DishStore) FindByName(ctx context.Context, name string) ([]*domain.Dish, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+dishColumns+` FROM dishes
		WHERE name LIKE ? COLLATE NOCASE ORDER BY name ASC
	`, "%"+name+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to find dishes by name: %w", err)
	}
	defer closeRows(rows)

	return collectDishes(rows)
}

// FindByTags returns dishes carrying every listed tag. The JSON list columns
// are queried with json_each, so matching stays inside SQLite.
func (s *DishStore) FindByTags(ctx context.Context, tags []string) ([]*domain.Dish, error) {
	query := `SELECT ` + dishColumns + ` FROM dishes WHERE 1=1`
	args := make([]any, 0, len(tags))
	for _, tag := range tags {
		query += ` AND EXISTS (SELECT 1 FROM json_each(tags) WHERE value = ? COLLATE NOCASE)`
		args = append(args, tag)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find dishes by tags: %w", err)
	}
	defer closeRows(rows)

	return collectDishes(rows)
}

// FindWithoutAllergens returns dishes that contain none of the listed
// allergens, for allergy-safe browsing.
func (s *DishStore) FindWithoutAllergens(ctx context.Context, allergens []string) ([]*domain.Dish, error) {
	query := `SELECT ` + dishColumns + ` FROM dishes WHERE 1=1`
	args := make([]any, 0, len(allergens))
	for _, allergen := range allergens {
		query += ` AND NOT EXISTS (SELECT 1 FROM json_each(allergens) WHERE value = ? COLLATE NOCASE)`
		args = append(args, allergen)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find dishes by allergens: %w", err)
	}
	defer closeRows(rows)

	return collectDishes(rows)
}

func (s *DishStore) FindByPriceBelow(ctx context.Context, maxPrice float64) ([]*domain.Dish, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+dishColumns+` FROM dishes WHERE price <= ? ORDER BY price ASC
	`, maxPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to find dishes by price: %w", err)
	}
	defer closeRows(rows)

	return collectDishes(rows)
}

func (s *DishStore) Update(ctx context.Context, d *domain.Dish) error {
	ingredients, tags, allergens, err := encodeDishLists(d)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE dishes
		SET name = ?, description = ?, price = ?, image_url = ?, ingredients = ?, tags = ?, allergens = ?
		WHERE id = ?
	`, d.Name, d.Description, d.Price, d.ImageURL, ingredients, tags, allergens, d.ID)
	if err != nil {
		return fmt.Errorf("failed to update dish: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("dish not found")
	}
	return nil
}

// SetImageURL updates only the stored image reference for a dish.
func (s *DishStore) SetImageURL(ctx context.Context, id int64, imageURL string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE dishes SET image_url = ? WHERE id = ?`, imageURL, id)
	if err != nil {
		return fmt.Errorf("failed to set dish image: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("dish not found")
	}
	return nil
}

func (s *DishStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM dishes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dish: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("dish not found")
	}
	return nil
}

// DeleteByRestaurant removes every dish of a restaurant. Deleting zero rows
// is not an error; the restaurant may simply have no menu yet.
func (s *DishStore) DeleteByRestaurant(ctx context.Context, restaurantID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM dishes WHERE restaurant_id = ?`, restaurantID); err != nil {
		return fmt.Errorf("failed to delete dishes by restaurant: %w", err)
	}
	return nil
}

func encodeDishLists(d *domain.Dish) (ingredients, tags, allergens string, err error) {
	if ingredients, err = marshalList(d.Ingredients); err != nil {
		return "", "", "", fmt.Errorf("failed to encode ingredients: %w", err)
	}
	if tags, err = marshalList(d.Tags); err != nil {
		return "", "", "", fmt.Errorf("failed to encode tags: %w", err)
	}
	if allergens, err = marshalList(d.Allergens); err != nil {
		return "", "", "", fmt.Errorf("failed to encode allergens: %w", err)
	}
	return ingredients, tags, allergens, nil
}

func scanDish(row rowScanner) (*domain.Dish, error) {
	d := &domain.Dish{}
	var ingredients, tags, allergens string
	err := row.Scan(&d.ID, &d.RestaurantID, &d.Name, &d.Description, &d.Price,
		&d.ImageURL, &ingredients, &tags, &allergens, &d.CreatedAt)
	if err != nil {
		return nil, err
	}

	if d.Ingredients, err = unmarshalList(ingredients); err != nil {
		return nil, fmt.Errorf("failed to decode ingredients: %w", err)
	}
	if d.Tags, err = unmarshalList(tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if d.Allergens, err = unmarshalList(allergens); err != nil {
		return nil, fmt.Errorf("failed to decode allergens: %w", err)
	}
	return d, nil
}

func collectDishes(rows *sql.Rows) ([]*domain.Dish, error) {
	var dishes []*domain.Dish
	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dish: %w", err)
		}
		dishes = append(dishes, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dishes: %w", err)
	}
	return dishes, nil
}
