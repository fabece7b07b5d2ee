package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ngelashvili/supra-backend/internal/domain"
)

// preferenceRepository is the subset of store.PreferenceStore that
// PreferenceService requires.
type preferenceRepository interface {
	Create(ctx context.Context, p *domain.UserPreference) (*domain.UserPreference, error)
	GetByID(ctx context.Context, id int64) (*domain.UserPreference, error)
	List(ctx context.Context) ([]*domain.UserPreference, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.UserPreference, error)
	Update(ctx context.Context, p *domain.UserPreference) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}

type userChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type PreferenceService struct {
	preferences preferenceRepository
	users       userChecker
	logger      *slog.Logger
}

func NewPreferenceService(preferences preferenceRepository, users userChecker, logger *slog.Logger) *PreferenceService {
	return &PreferenceService{preferences: preferences, users: users, logger: logger}
}

func (s *PreferenceService) Create(ctx context.Context, p *domain.UserPreference) (*domain.UserPreference, error) {
	exists, err := s.users.Exists(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: user %d does not exist", ErrInvalidInput, p.UserID)
	}
	return s.preferences.Create(ctx, p)
}

func (s *PreferenceService) Get(ctx context.Context, id int64) (*domain.UserPreference, error) {
	p, err := s.preferences.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: preference %d", ErrNotFound, id)
	}
	return p, nil
}

func (s *PreferenceService) List(ctx context.Context) ([]*domain.UserPreference, error) {
	return s.preferences.List(ctx)
}

func (s *PreferenceService) ListByUser(ctx context.Context, userID int64) ([]*domain.UserPreference, error) {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return s.preferences.ListByUser(ctx, userID)
}

func (s *PreferenceService) Update(ctx context.Context, p *domain.UserPreference) (*domain.UserPreference, error) {
	existing, err := s.preferences.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: preference %d", ErrNotFound, p.ID)
	}
	if err := s.preferences.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.preferences.GetByID(ctx, p.ID)
}

func (s *PreferenceService) Delete(ctx context.Context, id int64) error {
	existing, err := s.preferences.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: preference %d", ErrNotFound, id)
	}
	return s.preferences.Delete(ctx, id)
}

// DeleteByUser clears all of a user's standing preferences at once.
func (s *PreferenceService) DeleteByUser(ctx context.Context, userID int64) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return s.preferences.DeleteByUser(ctx, userID)
}

// StandingConstraints flattens a user's stored preferences into the free-text
// constraint block attached to search turns.
func StandingConstraints(prefs []*domain.UserPreference) string {
	var parts []string
	for _, p := range prefs {
		if p.Tag != "" {
			parts = append(parts, p.Tag)
		}
		if p.Atmosphere != "" {
			parts = append(parts, p.Atmosphere)
		}
		if p.Allergen != "" {
			parts = append(parts, p.Allergen+" allergy")
		}
	}
	return strings.Join(parts, ", ")
}
