package entities

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdb/pkg/models"
)

func TestSaveDocumentEditsAppendVersions(t *testing.T) {
	s := newTestService(t)
	clk := newTestClock()
	s.Store().SetClock(clk.now)
	ctx := context.Background()

	d1, err := s.SaveDocument(ctx, models.Document{UserID: 5, Title: "notes", Content: "v1"})
	require.NoError(t, err)
	require.NotZero(t, d1.ID)
	assert.Equal(t, models.DocText, d1.Kind)

	clk.advance(time.Minute)
	d2, err := s.SaveDocument(ctx, models.Document{ID: d1.ID, UserID: 5, Title: "notes", Content: "v2"})
	require.NoError(t, err)
	assert.Equal(t, d1.ID, d2.ID)
	assert.Greater(t, d2.CreatedTS, d1.CreatedTS)

	clk.advance(time.Minute)
	d3, err := s.SaveDocument(ctx, models.Document{ID: d1.ID, UserID: 5, Title: "notes", Content: "v3"})
	require.NoError(t, err)

	vers, err := s.ListDocumentVersions(ctx, d1.ID)
	require.NoError(t, err)
	require.Len(t, vers, 3)
	assert.Equal(t, "v1", vers[0].Content)
	assert.Equal(t, "v2", vers[1].Content)
	assert.Equal(t, "v3", vers[2].Content)

	// current version is the one with the maximum CreatedTS
	cur, err := s.GetDocument(ctx, d1.ID)
	require.NoError(t, err)
	assert.Equal(t, d3.CreatedTS, cur.CreatedTS)
	assert.Equal(t, "v3", cur.Content)

	// earlier versions remain intact and individually addressable
	old, err := s.GetDocumentVersion(ctx, d1.ID, d1.CreatedTS)
	require.NoError(t, err)
	assert.Equal(t, "v1", old.Content)
}

func TestSaveDocumentRequiresOwner(t *testing.T) {
	s := newTestService(t)
	_, err := s.SaveDocument(context.Background(), models.Document{Title: "ownerless"})
	require.Error(t, err)
}

func TestGetDocumentMissing(t *testing.T) {
	s := newTestService(t)
	_, err := s.GetDocument(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListUserDocumentsLatestVersionOnly(t *testing.T) {
	s := newTestService(t)
	clk := newTestClock()
	s.Store().SetClock(clk.now)
	ctx := context.Background()

	a, err := s.SaveDocument(ctx, models.Document{UserID: 9, Title: "a", Content: "a1"})
	require.NoError(t, err)
	clk.advance(time.Second)
	_, err = s.SaveDocument(ctx, models.Document{ID: a.ID, UserID: 9, Title: "a", Content: "a2"})
	require.NoError(t, err)
	clk.advance(time.Second)
	_, err = s.SaveDocument(ctx, models.Document{UserID: 9, Title: "b", Content: "b1"})
	require.NoError(t, err)

	docs, err := s.ListUserDocuments(ctx, 9)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	byID := map[uint64]string{}
	for _, d := range docs {
		byID[d.ID] = d.Content
	}
	assert.Equal(t, "a2", byID[a.ID])
}

func TestSuggestionBindsToOneVersion(t *testing.T) {
	s := newTestService(t)
	clk := newTestClock()
	s.Store().SetClock(clk.now)
	ctx := context.Background()

	d1, err := s.SaveDocument(ctx, models.Document{UserID: 3, Title: "draft", Content: "v1"})
	require.NoError(t, err)
	clk.advance(time.Second)
	d2, err := s.SaveDocument(ctx, models.Document{ID: d1.ID, UserID: 3, Title: "draft", Content: "v2"})
	require.NoError(t, err)

	sg, err := s.CreateSuggestion(ctx, models.Suggestion{
		DocumentID:      d1.ID,
		DocumentVersion: d1.CreatedTS,
		UserID:          3,
		OriginalText:    "v1",
		SuggestedText:   "v1 fixed",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionPending, sg.ResolutionStatus)

	// listed under the bound version only
	got, err := s.ListSuggestions(ctx, d1.ID, d1.CreatedTS)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sg.ID, got[0].ID)

	later, err := s.ListSuggestions(ctx, d1.ID, d2.CreatedTS)
	require.NoError(t, err)
	assert.Empty(t, later)
}

func TestCreateSuggestionUnknownVersion(t *testing.T) {
	s := newTestService(t)
	_, err := s.CreateSuggestion(context.Background(), models.Suggestion{
		DocumentID:      1,
		DocumentVersion: 123,
		UserID:          3,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveSuggestion(t *testing.T) {
	s := newTestService(t)
	clk := newTestClock()
	s.Store().SetClock(clk.now)
	ctx := context.Background()

	d, err := s.SaveDocument(ctx, models.Document{UserID: 3, Title: "draft", Content: "v1"})
	require.NoError(t, err)
	sg, err := s.CreateSuggestion(ctx, models.Suggestion{
		DocumentID:      d.ID,
		DocumentVersion: d.CreatedTS,
		UserID:          3,
	})
	require.NoError(t, err)

	clk.advance(time.Minute)
	resolved, err := s.ResolveSuggestion(ctx, 3, sg.ID, models.ResolutionResolved)
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionResolved, resolved.ResolutionStatus)
	assert.NotZero(t, resolved.ResolvedTS)

	// both key paths reflect the resolution
	got, err := s.GetSuggestion(ctx, 3, sg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionResolved, got.ResolutionStatus)
	listed, err := s.ListSuggestions(ctx, d.ID, d.CreatedTS)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, models.ResolutionResolved, listed[0].ResolutionStatus)

	_, err = s.ResolveSuggestion(ctx, 3, sg.ID, models.ResolutionStatus("maybe"))
	require.Error(t, err)
}
