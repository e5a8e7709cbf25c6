package entities

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdb/pkg/models"
)

func TestAppendMessageSequencesFromOne(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	c := mustChat(t, s, 1, "seq")

	for want := uint64(1); want <= 3; want++ {
		m, err := s.AppendMessage(ctx, c.ID, models.Message{
			Role:  models.RoleUser,
			Parts: []models.MessagePart{{Type: "text", Content: "hi"}},
		})
		require.NoError(t, err)
		assert.Equal(t, want, m.ID)
		assert.Equal(t, c.ID, m.ChatID)
		assert.NotZero(t, m.CreatedAtVersion)
	}

	// the chat cursor advanced with the appends
	got, err := s.GetChat(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.LastSeq)
}

func TestAppendMessageMissingChat(t *testing.T) {
	s := newTestService(t)
	_, err := s.AppendMessage(context.Background(), 12345, models.Message{Role: models.RoleUser})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentAppendsGapless(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	c := mustChat(t, s, 1, "race")

	const n = 24
	ids := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := s.AppendMessage(ctx, c.ID, models.Message{Role: models.RoleAssistant})
			assert.NoError(t, err)
			ids[i] = m.ID
		}(i)
	}
	wg.Wait()

	// every sequence id in 1..n assigned exactly once
	seen := make(map[uint64]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "sequence %d assigned twice", id)
		seen[id] = true
	}
	for seq := uint64(1); seq <= n; seq++ {
		assert.True(t, seen[seq], "sequence %d never assigned", seq)
	}

	msgs, err := s.ListMessages(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, n)
	for i, m := range msgs {
		assert.Equal(t, uint64(i+1), m.ID)
	}
}

func TestListMessagesSequenceOrderAndLimit(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	c := mustChat(t, s, 1, "order")
	for i := 0; i < 5; i++ {
		_, err := s.AppendMessage(ctx, c.ID, models.Message{Role: models.RoleUser})
		require.NoError(t, err)
	}

	msgs, err := s.ListMessages(ctx, c.ID, 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, uint64(1), msgs[0].ID)
	assert.Equal(t, uint64(3), msgs[2].ID)
}

func TestMessagesScopedPerChat(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	a := mustChat(t, s, 1, "a")
	b := mustChat(t, s, 1, "b")

	ma, err := s.AppendMessage(ctx, a.ID, models.Message{Role: models.RoleUser})
	require.NoError(t, err)
	mb, err := s.AppendMessage(ctx, b.ID, models.Message{Role: models.RoleUser})
	require.NoError(t, err)

	// independent sequences, same starting id
	assert.Equal(t, uint64(1), ma.ID)
	assert.Equal(t, uint64(1), mb.ID)

	msgs, err := s.ListMessages(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, a.ID, msgs[0].ChatID)
}
