package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ngelashvili/supra-backend/internal/domain"
	"github.com/ngelashvili/supra-backend/internal/imagestore"
)

// dishRepository is the subset of store.DishStore that DishService requires.
type dishRepository interface {
	Create(ctx context.Context, d *domain.Dish) (*domain.Dish, error)
	GetByID(ctx context.Context, id int64) (*domain.Dish, error)
	List(ctx context.Context) ([]*domain.Dish, error)
	ListByRestaurant(ctx context.Context, restaurantID int64) ([]*domain.Dish, error)
	FindByName(ctx context.Context, name string) ([]*domain.Dish, error)
	FindByTags(ctx context.Context, tags []string) ([]*domain.Dish, error)
	FindWithoutAllergens(ctx context.Context, allergens []string) ([]*domain.Dish, error)
	FindByPriceBelow(ctx context.Context, maxPrice float64) ([]*domain.Dish, error)
	Update(ctx context.Context, d *domain.Dish) error
	SetImageURL(ctx context.Context, id int64, imageURL string) error
	Delete(ctx context.Context, id int64) error
	DeleteByRestaurant(ctx context.Context, restaurantID int64) error
}

type restaurantChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type DishService struct {
	dishes      dishRepository
	restaurants restaurantChecker
	images      imagestore.ImageStore
	logger      *slog.Logger
}

func NewDishService(dishes dishRepository, restaurants restaurantChecker, images imagestore.ImageStore, logger *slog.Logger) *DishService {
	return &DishService{dishes: dishes, restaurants: restaurants, images: images, logger: logger}
}

func validateDish(d *domain.Dish) error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if d.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return nil
}

func (s *DishService) Create(ctx context.Context, d *domain.Dish) (*domain.Dish, error) {
	if err := validateDish(d); err != nil {
		return nil, err
	}

	exists, err := s.restaurants.Exists(ctx, d.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: restaurant %d does not exist", ErrInvalidInput, d.RestaurantID)
	}

	created, err := s.dishes.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	s.logger.Info("dish created", "dish_id", created.ID, "restaurant_id", created.RestaurantID, "name", created.Name)
	return created, nil
}

func (s *DishService) Get(ctx context.Context, id int64) (*domain.Dish, error) {
	d, err := s.dishes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: dish %d", ErrNotFound, id)
	}
	return d, nil
}

func (s *DishService) List(ctx context.Context) ([]*domain.Dish, error) {
	return s.dishes.List(ctx)
}

func (s *DishService) ListByRestaurant(ctx context.Context, restaurantID int64) ([]*domain.Dish, error) {
	exists, err := s.restaurants.Exists(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: restaurant %d", ErrNotFound, restaurantID)
	}
	return s.dishes.ListByRestaurant(ctx, restaurantID)
}

func (s *DishService) FindByName(ctx context.Context, name string) ([]*domain.Dish, error) {
	return s.dishes.FindByName(ctx, name)
}

func (s *DishService) FindByTags(ctx context.Context, tags []string) ([]*domain.Dish, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: at least one tag is required", ErrInvalidInput)
	}
	return s.dishes.FindByTags(ctx, tags)
}

// FindWithoutAllergens lists dishes free of all the given allergens.
func (s *DishService) FindWithoutAllergens(ctx context.Context, allergens []string) ([]*domain.Dish, error) {
	if len(allergens) == 0 {
		return nil, fmt.Errorf("%w: at least one allergen is required", ErrInvalidInput)
	}
	return s.dishes.FindWithoutAllergens(ctx, allergens)
}

func (s *DishService) FindByPriceBelow(ctx context.Context, maxPrice float64) ([]*domain.Dish, error) {
	if maxPrice < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return s.dishes.FindByPriceBelow(ctx, maxPrice)
}

func (s *DishService) Update(ctx context.Context, d *domain.Dish) (*domain.Dish, error) {
	if err := validateDish(d); err != nil {
		return nil, err
	}
	existing, err := s.dishes.GetByID(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: dish %d", ErrNotFound, d.ID)
	}
	if err := s.dishes.Update(ctx, d); err != nil {
		return nil, err
	}
	return s.dishes.GetByID(ctx, d.ID)
}

func (s *DishService) Delete(ctx context.Context, id int64) error {
	existing, err := s.dishes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: dish %d", ErrNotFound, id)
	}
	if err := s.dishes.Delete(ctx, id); err != nil {
		return err
	}
	if existing.ImageURL != "" {
		if err := s.images.Delete(ctx, existing.ImageURL); err != nil {
			s.logger.Warn("failed to delete dish image file", "dish_id", id, "error", err)
		}
	}
	return nil
}

// DeleteByRestaurant clears a restaurant's entire menu, including any stored
// dish photos.
func (s *DishService) DeleteByRestaurant(ctx context.Context, restaurantID int64) error {
	exists, err := s.restaurants.Exists(ctx, restaurantID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: restaurant %d does not exist", ErrInvalidInput, restaurantID)
	}

	dishes, err := s.dishes.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return err
	}
	if err := s.dishes.DeleteByRestaurant(ctx, restaurantID); err != nil {
		return err
	}

	for _, d := range dishes {
		if d.ImageURL == "" {
			continue
		}
		if err := s.images.Delete(ctx, d.ImageURL); err != nil {
			s.logger.Warn("failed to delete dish image file", "dish_id", d.ID, "error", err)
		}
	}
	s.logger.Info("restaurant menu cleared", "restaurant_id", restaurantID, "dishes", len(dishes))
	return nil
}

// UploadImage stores the dish photo and records its storage key on the dish.
// A previous photo, if any, is removed after the new one is in place.
func (s *DishService) UploadImage(ctx context.Context, dishID int64, imageData []byte, mimeType string) (*domain.Dish, error) {
	dish, err := s.Get(ctx, dishID)
	if err != nil {
		return nil, err
	}

	key, err := s.images.Save(ctx, fmt.Sprintf("dish_%d", dishID), mimeType, bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to save dish image: %w", err)
	}

	if err := s.dishes.SetImageURL(ctx, dishID, key); err != nil {
		_ = s.images.Delete(ctx, key)
		return nil, err
	}

	if dish.ImageURL != "" && dish.ImageURL != key {
		if err := s.images.Delete(ctx, dish.ImageURL); err != nil {
			s.logger.Warn("failed to delete previous dish image", "dish_id", dishID, "error", err)
		}
	}

	s.logger.Info("dish image uploaded", "dish_id", dishID, "storage_key", key)
	return s.dishes.GetByID(ctx, dishID)
}

// GetImage opens the stored photo for a dish.
func (s *DishService) GetImage(ctx context.Context, dishID int64) (io.ReadCloser, string, error) {
	dish, err := s.Get(ctx, dishID)
	if err != nil {
		return nil, "", err
	}
	if dish.ImageURL == "" {
		return nil, "", fmt.Errorf("%w: dish %d has no image", ErrNotFound, dishID)
	}

	rc, mimeType, err := s.images.Get(ctx, dish.ImageURL)
	if errors.Is(err, imagestore.ErrNotFound) {
		// The dish references a photo whose backing file is gone.
		return nil, "", fmt.Errorf("%w: dish %d image missing", ErrNotFound, dishID)
	}
	return rc, mimeType, err
}
