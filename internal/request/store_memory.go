package request

import (
	"context"
	"sort"
	"sync"

	"verilist/internal/domain"
	"verilist/pkg/platform/sentinel"
)

// InMemory is a map-backed Store for unit tests and local development. It
// mirrors the PostgreSQL uniqueness and compare-and-set semantics under a
// single lock: one request per user, and per-column uniqueness for each
// identity number, exactly as the schema constrains them.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[string]domain.VerificationRequest
	byUser map[string]string // userID -> requestID
	byA    map[string]string // normalized identity number A -> requestID
	byB    map[string]string // normalized identity number B -> requestID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[string]domain.VerificationRequest),
		byUser: make(map[string]string),
		byA:    make(map[string]string),
		byB:    make(map[string]string),
	}
}

func (s *InMemory) Create(_ context.Context, req domain.VerificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byUser[req.UserID]; exists {
		return sentinel.ErrConflict
	}
	if err := s.checkNumbersLocked(req); err != nil {
		return err
	}
	s.byID[req.ID] = req
	s.byUser[req.UserID] = req.ID
	s.byA[req.IdentityNumberA] = req.ID
	s.byB[req.IdentityNumberB] = req.ID
	return nil
}

func (s *InMemory) Overwrite(_ context.Context, req domain.VerificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.byID[req.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if err := s.checkNumbersLocked(req); err != nil {
		return err
	}
	delete(s.byA, prev.IdentityNumberA)
	delete(s.byB, prev.IdentityNumberB)
	s.byID[req.ID] = req
	s.byA[req.IdentityNumberA] = req.ID
	s.byB[req.IdentityNumberB] = req.ID
	return nil
}

func (s *InMemory) TransitionFromPending(_ context.Context, req domain.VerificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[req.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != domain.StatusPending {
		return sentinel.ErrInvalidState
	}
	current.Status = req.Status
	current.PendingToken = req.PendingToken
	current.RejectionReason = req.RejectionReason
	current.DecidedAt = req.DecidedAt
	s.byID[req.ID] = current
	return nil
}

func (s *InMemory) GetByUser(_ context.Context, userID string) (domain.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUser[userID]
	if !ok {
		return domain.VerificationRequest{}, sentinel.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *InMemory) GetByID(_ context.Context, id string) (domain.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.byID[id]
	if !ok {
		return domain.VerificationRequest{}, sentinel.ErrNotFound
	}
	return req, nil
}

func (s *InMemory) ListByStatus(_ context.Context, status domain.RequestStatus) ([]domain.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.VerificationRequest
	for _, req := range s.byID {
		if req.Status == status {
			out = append(out, req)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemory) ListAll(_ context.Context) ([]domain.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.VerificationRequest, 0, len(s.byID))
	for _, req := range s.byID {
		out = append(out, req)
	}
	sortNewestFirst(out)
	return out, nil
}

// checkNumbersLocked rejects identity numbers owned by a different request.
// Each column is its own uniqueness domain, as in the schema.
func (s *InMemory) checkNumbersLocked(req domain.VerificationRequest) error {
	if owner, taken := s.byA[req.IdentityNumberA]; taken && owner != req.ID {
		return sentinel.ErrConflict
	}
	if owner, taken := s.byB[req.IdentityNumberB]; taken && owner != req.ID {
		return sentinel.ErrConflict
	}
	return nil
}

func sortNewestFirst(reqs []domain.VerificationRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].SubmittedAt.After(reqs[j].SubmittedAt)
	})
}
