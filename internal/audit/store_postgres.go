package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"verilist/internal/domain"
	txcontext "verilist/pkg/platform/tx"
)

// Postgres persists audit entries in PostgreSQL. Append joins the decision
// transaction carried on the context, so a decision can never commit without
// its audit entry or vice versa. There is deliberately no UPDATE or DELETE.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) execer(ctx context.Context) executor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Append(ctx context.Context, entry domain.AuditEntry) error {
	matched, err := json.Marshal(entry.MatchedFields)
	if err != nil {
		return fmt.Errorf("marshal matched fields: %w", err)
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, request_id, reviewer_id, action, reason,
			matched_fields, reference_record_found, decided_at, client_ip, user_agent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		entry.ID,
		entry.RequestID,
		entry.ReviewerID,
		string(entry.Action),
		entry.Reason,
		matched,
		entry.ReferenceRecordFound,
		entry.DecidedAt,
		entry.ClientIP,
		entry.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Postgres) ListByRequest(ctx context.Context, requestID string) ([]domain.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, reviewer_id, action, reason,
		       matched_fields, reference_record_found, decided_at, client_ip, user_agent
		FROM audit_entries
		WHERE request_id = $1
		ORDER BY decided_at ASC
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Postgres) ListAll(ctx context.Context) ([]domain.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, reviewer_id, action, reason,
		       matched_fields, reference_record_found, decided_at, client_ip, user_agent
		FROM audit_entries
		ORDER BY decided_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			entry   domain.AuditEntry
			action  string
			matched []byte
		)
		err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.ReviewerID,
			&action,
			&entry.Reason,
			&matched,
			&entry.ReferenceRecordFound,
			&entry.DecidedAt,
			&entry.ClientIP,
			&entry.UserAgent,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Action = domain.AuditAction(action)
		if err := json.Unmarshal(matched, &entry.MatchedFields); err != nil {
			return nil, fmt.Errorf("unmarshal matched fields: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
