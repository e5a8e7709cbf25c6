package entities

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStreamRequiresChat(t *testing.T) {
	s := newTestService(t)
	_, err := s.CreateStream(context.Background(), 777)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStreamExpiresAfterADay(t *testing.T) {
	s := newTestService(t)
	clk := newTestClock()
	s.Store().SetClock(clk.now)
	ctx := context.Background()
	c := mustChat(t, s, 1, "live")

	st, err := s.CreateStream(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, st.Active)

	// visible right up to the deadline
	clk.advance(23 * time.Hour)
	got, err := s.GetStream(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.ID, got.ID)
	live, err := s.ListChatStreams(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, live, 1)

	// gone once 24h have elapsed, with no delete issued
	clk.advance(2 * time.Hour)
	_, err = s.GetStream(ctx, st.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	live, err = s.ListChatStreams(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestStreamDeadlineNotExtendedByNewStreams(t *testing.T) {
	s := newTestService(t)
	clk := newTestClock()
	s.Store().SetClock(clk.now)
	ctx := context.Background()
	c := mustChat(t, s, 1, "live")

	first, err := s.CreateStream(ctx, c.ID)
	require.NoError(t, err)
	clk.advance(20 * time.Hour)
	second, err := s.CreateStream(ctx, c.ID)
	require.NoError(t, err)

	// the first stream keeps its original deadline
	clk.advance(5 * time.Hour)
	_, err = s.GetStream(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetStream(ctx, second.ID)
	assert.NoError(t, err)
}
