package recipe

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound  = errors.New("recipe not found")
	ErrForbidden = errors.New("recipe belongs to another user")
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]Recipe, error) {
	var recipes []Recipe
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

func (s *Store) ListByUser(ctx context.Context, userID uint) ([]Recipe, error) {
	var recipes []Recipe
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes of user %d: %w", userID, err)
	}
	return recipes, nil
}

// Get loads a recipe with its owner. A missing owner leaves User zero-valued.
func (s *Store) Get(ctx context.Context, id uint) (*Recipe, error) {
	var r Recipe
	if err := s.db.WithContext(ctx).Preload("User").First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe %d: %w", id, err)
	}
	return &r, nil
}

func (s *Store) Insert(ctx context.Context, r *Recipe) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(r).Error; err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}
	return nil
}

// UpdateOwned applies the patch only when the recipe belongs to userID.
// It reports whether a row matched.
func (s *Store) UpdateOwned(ctx context.Context, id, userID uint, patch Patch) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&Recipe{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(patch.fields())
	if result.Error != nil {
		return false, fmt.Errorf("failed to update recipe %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteOwned removes the recipe only when it belongs to userID.
// It reports whether a row matched.
func (s *Store) DeleteOwned(ctx context.Context, id, userID uint) (bool, error) {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Recipe{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete recipe %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// OwnerOf returns the id of the user owning recipe id.
func (s *Store) OwnerOf(ctx context.Context, id uint) (uint, error) {
	var r Recipe
	err := s.db.WithContext(ctx).Select("id", "user_id").First(&r, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to check recipe %d: %w", id, err)
	}
	return r.UserID, nil
}

// DeleteOwnedBy is registered as a user deletion hook.
func DeleteOwnedBy(tx *gorm.DB, userID uint) error {
	return tx.Where("user_id = ?", userID).Delete(&Recipe{}).Error
}
