package reference

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"verilist/internal/domain"
)

//go:embed seed.json
var defaultSeed []byte

// SeedIfEmpty inserts records only when the directory holds none. The
// count-then-insert is intentionally not an upsert: the directory is
// populated out-of-band in production, and seeding must never overwrite it.
// Concurrent seeders race benignly; duplicate inserts are dropped by the
// identity-number uniqueness constraints.
func SeedIfEmpty(ctx context.Context, store Store, records []domain.ReferenceRecord) (int, error) {
	count, err := store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count directory: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	if err := store.InsertIgnoreDuplicates(ctx, records); err != nil {
		return 0, fmt.Errorf("seed directory: %w", err)
	}
	inserted, err := store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count directory after seed: %w", err)
	}
	return inserted, nil
}

// EnsureSeeded loads the seed set and seeds an empty directory at startup.
// A load or seed failure is an error only when the directory stays empty:
// without reference records every approval would fail, so the process must
// not serve. With existing records the failure is logged and startup
// proceeds.
func EnsureSeeded(ctx context.Context, store Store, path string, logger *slog.Logger) error {
	records, err := LoadSeed(path)
	if err != nil {
		return failUnlessPopulated(ctx, store, logger, err)
	}

	inserted, err := SeedIfEmpty(ctx, store, records)
	if err != nil {
		return failUnlessPopulated(ctx, store, logger, err)
	}
	if inserted > 0 {
		logger.InfoContext(ctx, "reference directory seeded", "records", inserted)
	}
	return nil
}

func failUnlessPopulated(ctx context.Context, store Store, logger *slog.Logger, cause error) error {
	count, err := store.Count(ctx)
	if err != nil || count == 0 {
		return fmt.Errorf("reference directory empty after seed failure: %w", cause)
	}
	logger.WarnContext(ctx, "reference seeding failed, existing records remain", "error", cause)
	return nil
}

// LoadSeed reads seed records from path, or from the embedded default set
// when path is empty.
func LoadSeed(path string) ([]domain.ReferenceRecord, error) {
	data := defaultSeed
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
	}
	var records []domain.ReferenceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return records, nil
}
