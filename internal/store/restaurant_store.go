package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/ngelashvili/supra-backend/internal/domain"
)

type RestaurantStore struct {
	db *sql.DB
}

func NewRestaurantStore(db *sql.DB) *RestaurantStore {
	return &RestaurantStore{db: db}
}

const restaurantColumns = `id, name, address, latitude, longitude, working_hours, phone, price_range, atmosphere, created_at, updated_at`

func (s *RestaurantStore) Create(ctx context.Context, r *domain.Restaurant) (*domain.Restaurant, error) {
	atmosphere, err := marshalList(r.Atmosphere)
	if err != nil {
		return nil, fmt.Errorf("failed to encode atmosphere: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO restaurants (name, address, latitude, longitude, working_hours, phone, price_range, atmosphere)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Name, r.Address, r.Latitude, r.Longitude, r.WorkingHours, r.Phone, r.PriceRange, atmosphere)
	if err != nil {
		return nil, fmt.Errorf("failed to create restaurant: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *RestaurantStore) GetByID(ctx context.Context, id int64) (*domain.Restaurant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+restaurantColumns+` FROM restaurants WHERE id = ?
	`, id)

	r, err := scanRestaurant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	return r, nil
}

func (s *RestaurantStore) List(ctx context.Context) ([]*domain.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+restaurantColumns+` FROM restaurants ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	defer closeRows(rows)

	return collectRestaurants(rows)
}

// ListWithDishes returns the full catalog snapshot: every restaurant with its
// nested dish list, in id order. This is the Catalog Provider input to the
// search orchestrator.
func (s *RestaurantStore) ListWithDishes(ctx context.Context) ([]*domain.Restaurant, error) {
	restaurants, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(restaurants) == 0 {
		return restaurants, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+dishColumns+` FROM dishes ORDER BY restaurant_id ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}
	defer closeRows(rows)

	byID := make(map[int64]*domain.Restaurant, len(restaurants))
	for _, r := range restaurants {
		byID[r.ID] = r
	}

	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dish: %w", err)
		}
		if r, ok := byID[d.RestaurantID]; ok {
			r.Dishes = append(r.Dishes, d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dishes: %w", err)
	}

	return restaurants, nil
}

func (s *RestaurantStore) FindByName(ctx context.Context, name string) ([]*domain.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+restaurantColumns+` FROM restaurants
		WHERE name LIKE ? COLLATE NOCASE ORDER BY name ASC
	`, "%"+name+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to find restaurants by name: %w", err)
	}
	defer closeRows(rows)

	return collectRestaurants(rows)
}

func (s *RestaurantStore) FindByPriceRange(ctx context.Context, priceRange int) ([]*domain.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+restaurantColumns+` FROM restaurants WHERE price_range = ? ORDER BY id ASC
	`, priceRange)
	if err != nil {
		return nil, fmt.Errorf("failed to find restaurants by price range: %w", err)
	}
	defer closeRows(rows)

	return collectRestaurants(rows)
}

// FindByLocation returns restaurants within radiusKm of the given point using
// a degree bounding box. Good enough at city scale.
func (s *RestaurantStore) FindByLocation(ctx context.Context, lat, lon, radiusKm float64) ([]*domain.Restaurant, error) {
	latDelta := radiusKm / 111.0
	lonDelta := radiusKm / (111.0 * math.Max(math.Cos(lat*math.Pi/180), 0.01))

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+restaurantColumns+` FROM restaurants
		WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
		ORDER BY id ASC
	`, lat-latDelta, lat+latDelta, lon-lonDelta, lon+lonDelta)
	if err != nil {
		return nil, fmt.Errorf("failed to find restaurants by location: %w", err)
	}
	defer closeRows(rows)

	return collectRestaurants(rows)
}

func (s *RestaurantStore) Update(ctx context.Context, r *domain.Restaurant) error {
	atmosphere, err := marshalList(r.Atmosphere)
	if err != nil {
		return fmt.Errorf("failed to encode atmosphere: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE restaurants
		SET name = ?, address = ?, latitude = ?, longitude = ?, working_hours = ?,
		    phone = ?, price_range = ?, atmosphere = ?, updated_at = datetime('now')
		WHERE id = ?
	`, r.Name, r.Address, r.Latitude, r.Longitude, r.WorkingHours, r.Phone, r.PriceRange, atmosphere, r.ID)
	if err != nil {
		return fmt.Errorf("failed to update restaurant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("restaurant not found")
	}
	return nil
}

// Delete removes the restaurant; its dishes go with it via the cascade FK.
func (s *RestaurantStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM restaurants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete restaurant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("restaurant not found")
	}
	return nil
}

func (s *RestaurantStore) Exists(ctx context.Context, id int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM restaurants WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check restaurant existence: %w", err)
	}
	return count > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRestaurant(row rowScanner) (*domain.Restaurant, error) {
	r := &domain.Restaurant{}
	var atmosphere string
	err := row.Scan(&r.ID, &r.Name, &r.Address, &r.Latitude, &r.Longitude,
		&r.WorkingHours, &r.Phone, &r.PriceRange, &atmosphere, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if r.Atmosphere, err = unmarshalList(atmosphere); err != nil {
		return nil, fmt.Errorf("failed to decode atmosphere: %w", err)
	}
	return r, nil
}

func collectRestaurants(rows *sql.Rows) ([]*domain.Restaurant, error) {
	var restaurants []*domain.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan restaurant: %w", err)
		}
		restaurants = append(restaurants, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating restaurants: %w", err)
	}
	return restaurants, nil
}
