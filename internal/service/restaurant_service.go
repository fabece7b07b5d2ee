package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ngelashvili/supra-backend/internal/domain"
)

// restaurantRepository is the subset of store.RestaurantStore that
// RestaurantService requires.
type restaurantRepository interface {
	Create(ctx context.Context, r *domain.Restaurant) (*domain.Restaurant, error)
	GetByID(ctx context.Context, id int64) (*domain.Restaurant, error)
	List(ctx context.Context) ([]*domain.Restaurant, error)
	ListWithDishes(ctx context.Context) ([]*domain.Restaurant, error)
	FindByName(ctx context.Context, name string) ([]*domain.Restaurant, error)
	FindByPriceRange(ctx context.Context, priceRange int) ([]*domain.Restaurant, error)
	FindByLocation(ctx context.Context, lat, lon, radiusKm float64) ([]*domain.Restaurant, error)
	Update(ctx context.Context, r *domain.Restaurant) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

type RestaurantService struct {
	restaurants restaurantRepository
	logger      *slog.Logger
}

func NewRestaurantService(restaurants restaurantRepository, logger *slog.Logger) *RestaurantService {
	return &RestaurantService{restaurants: restaurants, logger: logger}
}

func validateRestaurant(r *domain.Restaurant) error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if r.PriceRange < 1 || r.PriceRange > 4 {
		return fmt.Errorf("%w: price range must be between 1 and 4", ErrInvalidInput)
	}
	return nil
}

func (s *RestaurantService) Create(ctx context.Context, r *domain.Restaurant) (*domain.Restaurant, error) {
	if err := validateRestaurant(r); err != nil {
		return nil, err
	}
	created, err := s.restaurants.Create(ctx, r)
	if err != nil {
		return nil, err
	}
	s.logger.Info("restaurant created", "restaurant_id", created.ID, "name", created.Name)
	return created, nil
}

func (s *RestaurantService) Get(ctx context.Context, id int64) (*domain.Restaurant, error) {
	r, err := s.restaurants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: restaurant %d", ErrNotFound, id)
	}
	return r, nil
}

func (s *RestaurantService) List(ctx context.Context) ([]*domain.Restaurant, error) {
	return s.restaurants.List(ctx)
}

func (s *RestaurantService) FindByName(ctx context.Context, name string) ([]*domain.Restaurant, error) {
	return s.restaurants.FindByName(ctx, name)
}

func (s *RestaurantService) FindByPriceRange(ctx context.Context, priceRange int) ([]*domain.Restaurant, error) {
	if priceRange < 1 || priceRange > 4 {
		return nil, fmt.Errorf("%w: price range must be between 1 and 4", ErrInvalidInput)
	}
	return s.restaurants.FindByPriceRange(ctx, priceRange)
}

func (s *RestaurantService) FindByLocation(ctx context.Context, lat, lon, radiusKm float64) ([]*domain.Restaurant, error) {
	if radiusKm <= 0 {
		radiusKm = 1
	}
	return s.restaurants.FindByLocation(ctx, lat, lon, radiusKm)
}

func (s *RestaurantService) Update(ctx context.Context, r *domain.Restaurant) (*domain.Restaurant, error) {
	if err := validateRestaurant(r); err != nil {
		return nil, err
	}
	existing, err := s.restaurants.GetByID(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: restaurant %d", ErrNotFound, r.ID)
	}
	if err := s.restaurants.Update(ctx, r); err != nil {
		return nil, err
	}
	return s.restaurants.GetByID(ctx, r.ID)
}

func (s *RestaurantService) Delete(ctx context.Context, id int64) error {
	existing, err := s.restaurants.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: restaurant %d", ErrNotFound, id)
	}
	if err := s.restaurants.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("restaurant deleted", "restaurant_id", id)
	return nil
}
