package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/tech-arch1tect/recipemanager/database"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email is already registered")
)

// DeleteHook runs inside the account deletion transaction before the user row
// is removed.
type DeleteHook func(tx *gorm.DB, userID uint) error

type Store struct {
	db          *gorm.DB
	logger      *logging.Service
	deleteHooks []DeleteHook
}

func NewStore(db *gorm.DB, logger *logging.Service) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) OnDelete(hook DeleteHook) {
	s.deleteHooks = append(s.deleteHooks, hook)
}

func (s *Store) GetByID(ctx context.Context, id uint) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &u, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// Insert creates the user and fills in its ID. A clash on the email index is
// reported as ErrDuplicateEmail.
func (s *Store) Insert(ctx context.Context, u *User) error {
	u.Email = NormalizeEmail(u.Email)
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return s.mapWriteError("insert user", err)
	}
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, id uint, name string) error {
	return s.update(ctx, id, "update profile", map[string]any{"name": name})
}

// UpdateEmail changes the address and clears the verified flag.
func (s *Store) UpdateEmail(ctx context.Context, id uint, email string) error {
	return s.update(ctx, id, "update email", map[string]any{
		"email":          NormalizeEmail(email),
		"email_verified": false,
	})
}

func (s *Store) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return s.update(ctx, id, "update password", map[string]any{"password_hash": passwordHash})
}

func (s *Store) SetEmailVerified(ctx context.Context, id uint) error {
	return s.update(ctx, id, "verify email", map[string]any{"email_verified": true})
}

func (s *Store) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, hook := range s.deleteHooks {
			if err := hook(tx, id); err != nil {
				return fmt.Errorf("failed to delete data owned by user %d: %w", id, err)
			}
		}

		result := tx.Delete(&User{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete user %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) update(ctx context.Context, id uint, op string, fields map[string]any) error {
	db := s.db.WithContext(ctx)

	result := db.Model(&User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return s.mapWriteError(op, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// mysql reports zero affected rows when the values did not change
	var count int64
	if err := db.Model(&User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) mapWriteError(op string, err error) error {
	if v, ok := database.AsUniqueViolation(database.MapError(err)); ok {
		if v.Constraint == "" || v.Involves(EmailIndex, "users.email") {
			return ErrDuplicateEmail
		}
		s.logger.Error("unexpected unique violation", zap.String("op", op), zap.String("constraint", v.Constraint))
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
