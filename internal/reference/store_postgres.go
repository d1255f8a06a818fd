package reference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"verilist/internal/domain"
	"verilist/pkg/platform/sentinel"
)

// Postgres persists reference records in PostgreSQL. Lookups never join a
// transaction; the directory is read-only during request handling.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) FindByIdentityNumbers(ctx context.Context, a, b string) (domain.ReferenceRecord, error) {
	var (
		rec        domain.ReferenceRecord
		numA, numB sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT identity_number_a, identity_number_b, name, date_of_birth, address, phone
		FROM reference_records
		WHERE identity_number_a = $1 OR identity_number_b = $2
		LIMIT 1
	`, domain.NormalizeIdentityNumber(a), domain.NormalizeIdentityNumber(b)).Scan(
		&numA,
		&numB,
		&rec.Name,
		&rec.DateOfBirth,
		&rec.Address,
		&rec.Phone,
	)
	rec.IdentityNumberA = numA.String
	rec.IdentityNumberB = numB.String
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ReferenceRecord{}, sentinel.ErrNotFound
		}
		return domain.ReferenceRecord{}, fmt.Errorf("query reference record: %w", err)
	}
	return rec, nil
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM reference_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reference records: %w", err)
	}
	return count, nil
}

func (s *Postgres) InsertIgnoreDuplicates(ctx context.Context, records []domain.ReferenceRecord) error {
	// ON CONFLICT DO NOTHING absorbs the benign seeding race across
	// processes: the uniqueness constraints dedupe, nothing crashes.
	const query = `
		INSERT INTO reference_records (identity_number_a, identity_number_b, name, date_of_birth, address, phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
	`
	for _, rec := range records {
		_, err := s.db.ExecContext(ctx, query,
			nullIfAbsent(domain.NormalizeIdentityNumber(rec.IdentityNumberA)),
			nullIfAbsent(domain.NormalizeIdentityNumber(rec.IdentityNumberB)),
			rec.Name,
			rec.DateOfBirth,
			rec.Address,
			rec.Phone,
		)
		if err != nil {
			return fmt.Errorf("insert reference record: %w", err)
		}
	}
	return nil
}

// nullIfAbsent maps a missing identity number to NULL so partial records
// never collide on the uniqueness constraints.
func nullIfAbsent(n string) sql.NullString {
	return sql.NullString{String: n, Valid: n != ""}
}
