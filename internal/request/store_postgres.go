package request

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

// Postgres persists verification requests in PostgreSQL. Uniqueness is
// enforced by constraints (user_id, identity_number_a, identity_number_b),
// so concurrent conflicting submissions resolve to exactly one success at the
// storage layer. Writes join the transaction carried on the context.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) execer(ctx context.Context) executor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const requestColumns = `
	id, user_id, identity_number_a, identity_number_b, name,
	contact_phone, address, status, pending_token, rejection_reason,
	submitted_at, decided_at
`

func (s *Postgres) Create(ctx context.Context, req domain.VerificationRequest) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO verification_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, requestArgs(req)...)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert verification request: %w", err)
	}
	return nil
}

func (s *Postgres) Overwrite(ctx context.Context, req domain.VerificationRequest) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE verification_requests SET
			identity_number_a = $3,
			identity_number_b = $4,
			name = $5,
			contact_phone = $6,
			address = $7,
			status = $8,
			pending_token = $9,
			rejection_reason = $10,
			submitted_at = $11,
			decided_at = $12
		WHERE id = $1 AND user_id = $2
	`, requestArgs(req)...)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("overwrite verification request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("overwrite verification request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) TransitionFromPending(ctx context.Context, req domain.VerificationRequest) error {
	// Compare-and-set keyed on status=pending: of two concurrent decisions
	// exactly one sees a row here, the other gets ErrInvalidState.
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE verification_requests SET
			status = $2,
			pending_token = $3,
			rejection_reason = $4,
			decided_at = $5
		WHERE id = $1 AND status = 'pending'
	`, req.ID, string(req.Status), req.PendingToken, req.RejectionReason, req.DecidedAt)
	if err != nil {
		return fmt.Errorf("transition verification request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition verification request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *Postgres) GetByUser(ctx context.Context, userID string) (domain.VerificationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM verification_requests WHERE user_id = $1`
	if _, inTx := txcontext.From(ctx); inTx {
		// Inside a write unit the row is locked so concurrent resubmissions
		// for the same user serialize.
		query += ` FOR UPDATE`
	}
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, userID))
}

func (s *Postgres) GetByID(ctx context.Context, id string) (domain.VerificationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM verification_requests WHERE id = $1`
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, id))
}

func (s *Postgres) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.VerificationRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM verification_requests
		WHERE status = $1
		ORDER BY submitted_at DESC
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("query verification requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (s *Postgres) ListAll(ctx context.Context) ([]domain.VerificationRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM verification_requests
		ORDER BY submitted_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query verification requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func requestArgs(req domain.VerificationRequest) []any {
	return []any{
		req.ID,
		req.UserID,
		req.IdentityNumberA,
		req.IdentityNumberB,
		req.Name,
		req.ContactPhone,
		req.Address,
		string(req.Status),
		req.PendingToken,
		req.RejectionReason,
		req.SubmittedAt,
		req.DecidedAt,
	}
}

func (s *Postgres) scanOne(row *sql.Row) (domain.VerificationRequest, error) {
	var (
		req    domain.VerificationRequest
		status string
	)
	err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.IdentityNumberA,
		&req.IdentityNumberB,
		&req.Name,
		&req.ContactPhone,
		&req.Address,
		&status,
		&req.PendingToken,
		&req.RejectionReason,
		&req.SubmittedAt,
		&req.DecidedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.VerificationRequest{}, sentinel.ErrNotFound
		}
		return domain.VerificationRequest{}, fmt.Errorf("scan verification request: %w", err)
	}
	req.Status = domain.RequestStatus(status)
	return req, nil
}

func scanRequests(rows *sql.Rows) ([]domain.VerificationRequest, error) {
	var out []domain.VerificationRequest
	for rows.Next() {
		var (
			req    domain.VerificationRequest
			status string
		)
		err := rows.Scan(
			&req.ID,
			&req.UserID,
			&req.IdentityNumberA,
			&req.IdentityNumberB,
			&req.Name,
			&req.ContactPhone,
			&req.Address,
			&status,
			&req.PendingToken,
			&req.RejectionReason,
			&req.SubmittedAt,
			&req.DecidedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan verification request: %w", err)
		}
		req.Status = domain.RequestStatus(status)
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification requests: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
