package entities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdb/pkg/models"
)

func TestSetVoteRequiresMessage(t *testing.T) {
	s := newTestService(t)
	c := mustChat(t, s, 1, "v")
	_, err := s.SetVote(context.Background(), models.Vote{ChatID: c.ID, MessageID: 99, IsUpvoted: true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetVoteUpsertsByChatAndMessage(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	c := mustChat(t, s, 1, "v")
	m, err := s.AppendMessage(ctx, c.ID, models.Message{Role: models.RoleAssistant})
	require.NoError(t, err)

	_, err = s.SetVote(ctx, models.Vote{ChatID: c.ID, MessageID: m.ID, IsUpvoted: true})
	require.NoError(t, err)

	// a second vote on the same message replaces the first
	_, err = s.SetVote(ctx, models.Vote{ChatID: c.ID, MessageID: m.ID, IsUpvoted: false})
	require.NoError(t, err)

	got, err := s.GetVote(ctx, c.ID, m.ID)
	require.NoError(t, err)
	assert.False(t, got.IsUpvoted)

	votes, err := s.ListVotes(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.False(t, votes[0].IsUpvoted)
}

func TestListVotesDoesNotLeakIntoMessages(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	c := mustChat(t, s, 1, "v")
	m, err := s.AppendMessage(ctx, c.ID, models.Message{Role: models.RoleAssistant})
	require.NoError(t, err)
	_, err = s.SetVote(ctx, models.Vote{ChatID: c.ID, MessageID: m.ID, IsUpvoted: true})
	require.NoError(t, err)

	// vote keys live under a separate segment, so message scans stay clean
	msgs, err := s.ListMessages(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestGetVoteMissing(t *testing.T) {
	s := newTestService(t)
	c := mustChat(t, s, 1, "v")
	_, err := s.GetVote(context.Background(), c.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
