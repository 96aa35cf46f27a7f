package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/pkg/domain"
)

func TestPublisher_EmitStampsIdentityAndTime(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	err := pub.Emit(context.Background(), Event{
		ActorRole: domain.RoleAdmin,
		Action:    ActionRequestApproved,
		Kind:      domain.KindDeposit,
		SubjectID: "dr-1",
	})
	require.NoError(t, err)

	events, err := pub.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, ActionRequestApproved, events[0].Action)
}

func TestPublisher_ListRecentNewestFirst(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"dr-1", "dr-2", "dr-3"} {
		require.NoError(t, pub.Emit(ctx, Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			ActorRole: domain.RoleAdmin,
			Action:    ActionRequestRejected,
			Kind:      domain.KindWithdrawal,
			SubjectID: id,
			Reason:    "No reason provided",
		}))
	}

	events, err := pub.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "dr-3", events[0].SubjectID)
	assert.Equal(t, "dr-2", events[1].SubjectID)
}
