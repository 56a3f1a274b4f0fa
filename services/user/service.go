package user

import (
	"context"
)

// Service exposes read-only lookups to callers that are not the account owner.
type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) GetPublic(ctx context.Context, id uint) (Public, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Public{}, err
	}
	return u.Public(), nil
}
