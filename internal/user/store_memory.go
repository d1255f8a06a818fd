package user

import (
	"context"
	"sync"

	"verilist/internal/domain"
	"verilist/pkg/platform/sentinel"
)

// InMemory is a map-backed Store for unit tests and local development.
type InMemory struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[string]domain.User)}
}

func (s *InMemory) Create(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; exists {
		return sentinel.ErrConflict
	}
	if user.VerificationStatus == "" {
		user.VerificationStatus = domain.UserStatusNotSubmitted
	}
	s.users[user.ID] = user
	return nil
}

func (s *InMemory) Get(_ context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.User{}, sentinel.ErrNotFound
	}
	return u, nil
}

func (s *InMemory) SetVerificationStatus(_ context.Context, userID string, status domain.UserVerificationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.VerificationStatus = status
	s.users[userID] = u
	return nil
}
