//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/pkg/domain"
	"tradedesk/pkg/testutil/containers"
)

func TestPostgresStore_Integration(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	ctx := context.Background()

	store := NewPostgresStore(pc.DB)
	require.NoError(t, store.Migrate(ctx))
	// Migrate must be idempotent across restarts.
	require.NoError(t, store.Migrate(ctx))

	now := time.Now().Truncate(time.Millisecond)
	events := []Event{
		{
			ID:        uuid.NewString(),
			Timestamp: now.Add(-2 * time.Minute),
			ActorRole: domain.RoleAdmin,
			Action:    ActionRequestApproved,
			Kind:      domain.KindDeposit,
			SubjectID: "dr-1",
		},
		{
			ID:        uuid.NewString(),
			Timestamp: now.Add(-time.Minute),
			ActorRole: domain.RoleAdmin,
			Action:    ActionRequestRejected,
			Kind:      domain.KindWithdrawal,
			SubjectID: "wr-2",
			Reason:    "No reason provided",
		},
		{
			ID:        uuid.NewString(),
			Timestamp: now,
			ActorRole: domain.RoleMediator,
			Action:    ActionUserApproved,
			SubjectID: "u-3",
		},
	}
	for _, event := range events {
		require.NoError(t, store.Append(ctx, event))
	}

	t.Run("newest first with limit", func(t *testing.T) {
		got, err := store.ListRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "u-3", got[0].SubjectID)
		assert.Equal(t, "wr-2", got[1].SubjectID)
		assert.Equal(t, "No reason provided", got[1].Reason)
	})

	t.Run("round-trips roles, kinds and actions", func(t *testing.T) {
		got, err := store.ListRecent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, domain.RoleMediator, got[0].ActorRole)
		assert.Equal(t, ActionUserApproved, got[0].Action)
		assert.Empty(t, string(got[0].Kind))
		assert.Equal(t, domain.KindWithdrawal, got[1].Kind)
	})
}
