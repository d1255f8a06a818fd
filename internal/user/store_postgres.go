package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"verilist/internal/domain"
	"verilist/pkg/platform/sentinel"
	txcontext "verilist/pkg/platform/tx"
)

// Postgres persists users in PostgreSQL. Writes join the transaction carried
// on the context when one is present, so projection updates commit atomically
// with the request/audit writes that caused them.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) executor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, user domain.User) error {
	status := user.VerificationStatus
	if status == "" {
		status = domain.UserStatusNotSubmitted
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO users (id, verification_status)
		VALUES ($1, $2)
	`, user.ID, string(status))
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, userID string) (domain.User, error) {
	var u domain.User
	var status string
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, verification_status FROM users WHERE id = $1
	`, userID).Scan(&u.ID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, sentinel.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("query user: %w", err)
	}
	u.VerificationStatus = domain.UserVerificationStatus(status)
	return u, nil
}

func (s *Postgres) SetVerificationStatus(ctx context.Context, userID string, status domain.UserVerificationStatus) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE users SET verification_status = $2, updated_at = now() WHERE id = $1
	`, userID, string(status))
	if err != nil {
		return fmt.Errorf("update verification status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update verification status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
