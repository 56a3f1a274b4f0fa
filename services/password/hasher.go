package password

import (
	"errors"
	"fmt"

	"github.com/tech-arch1tect/recipemanager/config"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = 15

var ErrHashingFailed = errors.New("failed to hash password")

type Hasher struct {
	cost   int
	logger *logging.Service
}

func NewHasher(cost int, logger *logging.Service) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		logger.Warn("bcrypt cost out of range, using default",
			zap.Int("configured", cost),
			zap.Int("default", DefaultCost))
		cost = DefaultCost
	}
	return &Hasher{cost: cost, logger: logger}
}

func ProvideHasher(cfg *config.Config, logger *logging.Service) *Hasher {
	return NewHasher(cfg.Auth.BcryptCost, logger)
}

func (h *Hasher) Cost() int {
	return h.cost
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		h.logger.Error("password hashing failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrHashingFailed, err)
	}
	return string(hash), nil
}

// Verify returns (false, nil) on a mismatch, including input too long to
// ever have been hashed. A non-nil error means the stored
// hash could not be compared at all.
func (h *Hasher) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		h.logger.Error("password comparison failed", zap.Error(err))
		return false, fmt.Errorf("failed to compare password hash: %w", err)
	}
}
