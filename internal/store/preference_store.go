package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ngelashvili/supra-backend/internal/domain"
)

type PreferenceStore struct {
	db *sql.DB
}

func NewPreferenceStore(db *sql.DB) *PreferenceStore {
	return &PreferenceStore{db: db}
}

func (s *PreferenceStore) Create(ctx context.Context, p *domain.UserPreference) (*domain.UserPreference, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, tag, atmosphere, allergen) VALUES (?, ?, ?, ?)
	`, p.UserID, p.Tag, p.Atmosphere, p.Allergen)
	if err != nil {
		return nil, fmt.Errorf("failed to create preference: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *PreferenceStore) GetByID(ctx context.Context, id int64) (*domain.UserPreference, error) {
	p := &domain.UserPreference{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, tag, atmosphere, allergen FROM user_preferences WHERE id = ?
	`, id).Scan(&p.ID, &p.UserID, &p.Tag, &p.Atmosphere, &p.Allergen)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}
	return p, nil
}

func (s *PreferenceStore) List(ctx context.Context) ([]*domain.UserPreference, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, tag, atmosphere, allergen FROM user_preferences ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer closeRows(rows)

	return collectPreferences(rows)
}

func (s *PreferenceStore) ListByUser(ctx context.Context, userID int64) ([]*domain.UserPreference, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, tag, atmosphere, allergen FROM user_preferences
		WHERE user_id = ? ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences by user: %w", err)
	}
	defer closeRows(rows)

	return collectPreferences(rows)
}

func (s *PreferenceStore) Update(ctx context.Context, p *domain.UserPreference) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE user_preferences SET tag = ?, atmosphere = ?, allergen = ? WHERE id = ?
	`, p.Tag, p.Atmosphere, p.Allergen, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update preference: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("preference not found")
	}
	return nil
}

func (s *PreferenceStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM user_preferences WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("preference not found")
	}
	return nil
}

// DeleteByUser removes every preference of a user. Deleting zero rows is not
// an error.
func (s *PreferenceStore) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_preferences WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete preferences by user: %w", err)
	}
	return nil
}

func collectPreferences(rows *sql.Rows) ([]*domain.UserPreference, error) {
	var prefs []*domain.UserPreference
	for rows.Next() {
		p := &domain.UserPreference{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Tag, &p.Atmosphere, &p.Allergen); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferences: %w", err)
	}
	return prefs, nil
}
