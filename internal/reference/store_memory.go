package reference

import (
	"context"
	"sync"

	"verilist/internal/domain"
	"verilist/pkg/platform/sentinel"
)

// InMemory is a map-backed Store for unit tests and local development.
type InMemory struct {
	mu      sync.RWMutex
	byA     map[string]domain.ReferenceRecord
	byB     map[string]domain.ReferenceRecord
	records []domain.ReferenceRecord
}

func NewInMemory() *InMemory {
	return &InMemory{
		byA: make(map[string]domain.ReferenceRecord),
		byB: make(map[string]domain.ReferenceRecord),
	}
}

func (s *InMemory) FindByIdentityNumbers(_ context.Context, a, b string) (domain.ReferenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.byA[domain.NormalizeIdentityNumber(a)]; ok {
		return rec, nil
	}
	if rec, ok := s.byB[domain.NormalizeIdentityNumber(b)]; ok {
		return rec, nil
	}
	return domain.ReferenceRecord{}, sentinel.ErrNotFound
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *InMemory) InsertIgnoreDuplicates(_ context.Context, records []domain.ReferenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		a := domain.NormalizeIdentityNumber(rec.IdentityNumberA)
		b := domain.NormalizeIdentityNumber(rec.IdentityNumberB)
		// An absent number is not a value; only present numbers are unique.
		if _, dup := s.byA[a]; dup && a != "" {
			continue
		}
		if _, dup := s.byB[b]; dup && b != "" {
			continue
		}
		rec.IdentityNumberA = a
		rec.IdentityNumberB = b
		if a != "" {
			s.byA[a] = rec
		}
		if b != "" {
			s.byB[b] = rec
		}
		s.records = append(s.records, rec)
	}
	return nil
}
