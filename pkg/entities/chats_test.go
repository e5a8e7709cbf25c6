package entities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdb/pkg/models"
)

func mustChat(t *testing.T, s *Service, userID uint64, title string) models.Chat {
	t.Helper()
	c, err := s.CreateChat(context.Background(), models.Chat{UserID: userID, Title: title})
	require.NoError(t, err)
	return c
}

func TestCreateChatDefaultsToPrivate(t *testing.T) {
	s := newTestService(t)
	c := mustChat(t, s, 42, "hello")
	assert.Equal(t, models.VisibilityPrivate, c.Visibility)
	assert.NotZero(t, c.ID)
	assert.Zero(t, c.LastSeq)

	got, err := s.GetChat(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestCreateChatRequiresOwner(t *testing.T) {
	s := newTestService(t)
	_, err := s.CreateChat(context.Background(), models.Chat{Title: "orphan"})
	require.Error(t, err)
}

func TestListUserChats(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a := mustChat(t, s, 1, "a")
	b := mustChat(t, s, 1, "b")
	mustChat(t, s, 2, "other owner")

	chats, err := s.ListUserChats(ctx, 1)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	got := map[uint64]bool{chats[0].ID: true, chats[1].ID: true}
	assert.True(t, got[a.ID])
	assert.True(t, got[b.ID])
}

func TestUpdateChatVisibilityReKeys(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	c := mustChat(t, s, 7, "shared")

	priv, err := s.ListUserChatsByVisibility(ctx, 7, models.VisibilityPrivate)
	require.NoError(t, err)
	require.Len(t, priv, 1)

	updated, err := s.UpdateChatVisibility(ctx, c.ID, models.VisibilityPublic)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPublic, updated.Visibility)

	// the old visibility path no longer lists the chat
	priv, err = s.ListUserChatsByVisibility(ctx, 7, models.VisibilityPrivate)
	require.NoError(t, err)
	assert.Empty(t, priv)

	pub, err := s.ListUserChatsByVisibility(ctx, 7, models.VisibilityPublic)
	require.NoError(t, err)
	require.Len(t, pub, 1)
	assert.Equal(t, c.ID, pub[0].ID)

	// primary path reflects the change too
	got, err := s.GetChat(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPublic, got.Visibility)
}

func TestUpdateChatVisibilityRejectsUnknownValue(t *testing.T) {
	s := newTestService(t)
	c := mustChat(t, s, 7, "x")
	_, err := s.UpdateChatVisibility(context.Background(), c.ID, models.Visibility("friends"))
	require.Error(t, err)
}

func TestUpdateChatVisibilityMissingChat(t *testing.T) {
	s := newTestService(t)
	_, err := s.UpdateChatVisibility(context.Background(), 999, models.VisibilityPublic)
	assert.ErrorIs(t, err, ErrNotFound)
}
