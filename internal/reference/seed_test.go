package reference

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"verilist/internal/domain"
)

type SeedSuite struct {
	suite.Suite
	store *InMemory
}

func TestSeedSuite(t *testing.T) {
	suite.Run(t, new(SeedSuite))
}

func (s *SeedSuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *SeedSuite) records() []domain.ReferenceRecord {
	return []domain.ReferenceRecord{
		{IdentityNumberA: "1111", IdentityNumberB: "PAN1", Name: "A. Sharma", Phone: "9990001111"},
		{IdentityNumberA: "2222", IdentityNumberB: "PAN2", Name: "R. Iyer"},
	}
}

func (s *SeedSuite) TestSeedIfEmpty() {
	ctx := context.Background()

	s.Run("seeds an empty directory", func() {
		inserted, err := SeedIfEmpty(ctx, s.store, s.records())
		s.Require().NoError(err)
		s.Equal(2, inserted)

		count, err := s.store.Count(ctx)
		s.Require().NoError(err)
		s.Equal(2, count)
	})

	s.Run("is a no-op when records already exist", func() {
		inserted, err := SeedIfEmpty(ctx, s.store, s.records())
		s.Require().NoError(err)
		s.Zero(inserted)

		count, err := s.store.Count(ctx)
		s.Require().NoError(err)
		s.Equal(2, count)
	})
}

func (s *SeedSuite) TestFindByIdentityNumbers() {
	ctx := context.Background()
	_, err := SeedIfEmpty(ctx, s.store, s.records())
	s.Require().NoError(err)

	s.Run("matches on the first number alone", func() {
		rec, err := s.store.FindByIdentityNumbers(ctx, "1111", "WRONG")
		s.Require().NoError(err)
		s.Equal("A. Sharma", rec.Name)
	})

	s.Run("matches on the second number alone", func() {
		rec, err := s.store.FindByIdentityNumbers(ctx, "WRONG", "PAN2")
		s.Require().NoError(err)
		s.Equal("R. Iyer", rec.Name)
	})

	s.Run("no match returns not found", func() {
		_, err := s.store.FindByIdentityNumbers(ctx, "WRONG", "WRONG")
		s.Error(err)
	})
}

func (s *SeedSuite) TestEnsureSeeded() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.Run("embedded seed populates an empty directory", func() {
		err := EnsureSeeded(ctx, s.store, "", logger)
		s.Require().NoError(err)

		count, err := s.store.Count(ctx)
		s.Require().NoError(err)
		s.Positive(count)
	})

	s.Run("load failure on an empty directory is fatal", func() {
		err := EnsureSeeded(ctx, NewInMemory(), "/nonexistent/seed.json", logger)
		s.Require().Error(err)
		s.Contains(err.Error(), "reference directory empty")
	})

	s.Run("load failure with existing records is tolerated", func() {
		err := EnsureSeeded(ctx, s.store, "/nonexistent/seed.json", logger)
		s.NoError(err)
	})
}

func (s *SeedSuite) TestLoadSeedEmbedded() {
	records, err := LoadSeed("")
	s.Require().NoError(err)
	s.NotEmpty(records)
	for _, r := range records {
		s.NotEmpty(r.IdentityNumberA)
		s.NotEmpty(r.IdentityNumberB)
		s.NotEmpty(r.Name)
	}
}

func (s *SeedSuite) TestPartialRecords() {
	ctx := context.Background()

	// Records missing a second identity number must all survive; an absent
	// number is not a value and never collides with another absent number.
	partial := []domain.ReferenceRecord{
		{IdentityNumberA: "5678", Name: "A. Sharma"},
		{IdentityNumberA: "4444", Name: "R. Iyer"},
		{IdentityNumberB: "PAN7", Name: "K. Rao"},
	}
	s.Require().NoError(s.store.InsertIgnoreDuplicates(ctx, partial))

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(3, count)

	rec, err := s.store.FindByIdentityNumbers(ctx, "4444", "PAN4")
	s.Require().NoError(err)
	s.Equal("R. Iyer", rec.Name)

	rec, err = s.store.FindByIdentityNumbers(ctx, "9999", "PAN7")
	s.Require().NoError(err)
	s.Equal("K. Rao", rec.Name)

	// An empty lookup side never matches a record's absent number.
	_, err = s.store.FindByIdentityNumbers(ctx, "9999", "")
	s.Error(err)
}

func (s *SeedSuite) TestInsertIgnoreDuplicates() {
	ctx := context.Background()
	s.Require().NoError(s.store.InsertIgnoreDuplicates(ctx, s.records()))

	// A replayed batch with one overlapping number inserts only the new record.
	batch := []domain.ReferenceRecord{
		{IdentityNumberA: "1111", IdentityNumberB: "PANX", Name: "Duplicate"},
		{IdentityNumberA: "3333", IdentityNumberB: "PAN3", Name: "K. Rao"},
	}
	s.Require().NoError(s.store.InsertIgnoreDuplicates(ctx, batch))

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(3, count)
}
