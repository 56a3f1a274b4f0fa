package recipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/tech-arch1tect/recipemanager/services/logging"
	"github.com/tech-arch1tect/recipemanager/services/metrics"
	"go.uber.org/zap"
)

var ErrOwnerMissing = errors.New("recipe owner does not exist")

type Service struct {
	store   *Store
	logger  *logging.Service
	metrics *metrics.Collector
}

func NewService(store *Store, logger *logging.Service, collector *metrics.Collector) *Service {
	return &Service{store: store, logger: logger, metrics: collector}
}

func (s *Service) List(ctx context.Context) ([]Recipe, error) {
	return s.store.List(ctx)
}

func (s *Service) ListByUser(ctx context.Context, userID uint) ([]Recipe, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, id uint) (*WithOwner, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if r.User.ID == 0 {
		s.logger.Error("found recipe owned by a user that does not exist",
			zap.Uint("recipe_id", r.ID),
			zap.Uint("user_id", r.UserID))
		return nil, fmt.Errorf("recipe %d: %w", r.ID, ErrOwnerMissing)
	}

	return &WithOwner{Recipe: *r, Owner: r.User.Public()}, nil
}

func (s *Service) Create(ctx context.Context, userID uint, title string, cookingTimeMinutes int) (*Recipe, error) {
	r := &Recipe{
		UserID:             userID,
		Title:              title,
		CookingTimeMinutes: cookingTimeMinutes,
	}
	if err := s.store.Insert(ctx, r); err != nil {
		return nil, err
	}

	s.metrics.RecordRecipeMutation("create", "success")
	s.logger.Info("recipe created", zap.Uint("recipe_id", r.ID), zap.Uint("user_id", userID))
	return r, nil
}

// Update applies patch to a recipe owned by userID. A recipe that does not
// exist yields ErrNotFound and one owned by someone else ErrForbidden.
func (s *Service) Update(ctx context.Context, userID, id uint, patch Patch) (*Recipe, error) {
	matched := false
	if !patch.Empty() {
		var err error
		matched, err = s.store.UpdateOwned(ctx, id, userID, patch)
		if err != nil {
			return nil, err
		}
	}

	// mysql reports zero affected rows when the values did not change
	if !matched {
		if err := s.checkOwner(ctx, "update", id, userID); err != nil {
			return nil, err
		}
	}

	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRecipeMutation("update", "success")
	return r, nil
}

// Delete removes a recipe owned by userID. Deleting a recipe that does not
// exist succeeds; one owned by someone else yields ErrForbidden.
func (s *Service) Delete(ctx context.Context, userID, id uint) error {
	matched, err := s.store.DeleteOwned(ctx, id, userID)
	if err != nil {
		return err
	}
	if !matched {
		err := s.checkOwner(ctx, "delete", id, userID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	s.metrics.RecordRecipeMutation("delete", "success")
	s.logger.Info("recipe deleted", zap.Uint("recipe_id", id), zap.Uint("user_id", userID))
	return nil
}

// checkOwner runs after an owner-scoped statement matched nothing and tells a
// missing recipe (ErrNotFound) apart from one owned by somebody else
// (ErrForbidden).
func (s *Service) checkOwner(ctx context.Context, op string, id, userID uint) error {
	owner, err := s.store.OwnerOf(ctx, id)
	if errors.Is(err, ErrNotFound) {
		s.metrics.RecordRecipeMutation(op, "not_found")
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner == userID {
		return nil
	}

	s.metrics.RecordRecipeMutation(op, "forbidden")
	s.logger.Warn("recipe mutation by non-owner rejected",
		zap.String("op", op),
		zap.Uint("recipe_id", id),
		zap.Uint("user_id", userID))
	return ErrForbidden
}
