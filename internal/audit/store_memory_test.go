package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verilist/internal/domain"
	"verilist/pkg/requestcontext"
)

func entry(id, requestID string, decidedAt time.Time) domain.AuditEntry {
	return domain.AuditEntry{
		ID:        id,
		RequestID: requestID,
		Action:    domain.ActionRejected,
		Reason:    "incomplete",
		DecidedAt: decidedAt,
	}
}

func TestInMemoryListByRequest(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, entry("e1", "r1", base)))
	require.NoError(t, store.Append(ctx, entry("e2", "r2", base.Add(time.Minute))))
	require.NoError(t, store.Append(ctx, entry("e3", "r1", base.Add(2*time.Minute))))

	got, err := store.ListByRequest(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID, "per-request history stays in append order")
	assert.Equal(t, "e3", got[1].ID)
}

func TestInMemoryListAllNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, entry("old", "r1", base)))
	require.NoError(t, store.Append(ctx, entry("new", "r2", base.Add(time.Hour))))

	got, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "old", got[1].ID)
}

func TestPublisherStampsContextMetadata(t *testing.T) {
	store := NewInMemory()
	pub := NewPublisher(store)

	frozen := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), frozen)
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.7", "Chrome/120 Linux")

	require.NoError(t, pub.Emit(ctx, domain.AuditEntry{ID: "e1", RequestID: "r1", Action: domain.ActionVerified}))

	got, err := store.ListByRequest(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, frozen, got[0].DecidedAt)
	assert.Equal(t, "203.0.113.7", got[0].ClientIP)
	assert.Equal(t, "Chrome/120 Linux", got[0].UserAgent)
}

func TestPublisherKeepsExplicitFields(t *testing.T) {
	store := NewInMemory()
	pub := NewPublisher(store)

	decided := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), domain.AuditEntry{
		ID:        "e1",
		RequestID: "r1",
		Action:    domain.ActionVerified,
		DecidedAt: decided,
		ClientIP:  "198.51.100.4",
	}))

	got, err := store.ListByRequest(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, decided, got[0].DecidedAt)
	assert.Equal(t, "198.51.100.4", got[0].ClientIP)
}
