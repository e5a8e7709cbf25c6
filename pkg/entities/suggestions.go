package entities

import (
	"context"
	"encoding/json"
	"fmt"

	"chatdb/pkg/logger"
	"chatdb/pkg/models"
	"chatdb/pkg/schema"
	"chatdb/pkg/store"
	"chatdb/pkg/utils"
)

func suggestionKeyFields(sg models.Suggestion) map[string]string {
	return map[string]string{
		"id":               utils.FormatID(sg.ID),
		"document_id":      utils.FormatID(sg.DocumentID),
		"document_version": fmt.Sprintf("%020d", sg.DocumentVersion),
		"user_id":          utils.FormatID(sg.UserID),
	}
}

// CreateSuggestion persists a suggestion bound to one immutable document
// version. The referenced version must exist.
func (s *Service) CreateSuggestion(ctx context.Context, sg models.Suggestion) (models.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return models.Suggestion{}, err
	}
	if sg.UserID == 0 {
		return models.Suggestion{}, fmt.Errorf("suggestion requires an author")
	}
	if _, err := s.GetDocumentVersion(ctx, sg.DocumentID, sg.DocumentVersion); err != nil {
		return models.Suggestion{}, fmt.Errorf("document version %d/%d: %w", sg.DocumentID, sg.DocumentVersion, err)
	}
	sg.ID = utils.GenID()
	if sg.ResolutionStatus == "" {
		sg.ResolutionStatus = models.ResolutionPending
	}
	sg.ResolvedTS = 0

	keys, err := schema.RenderAll(schema.MustLookup(schema.KindSuggestion), suggestionKeyFields(sg))
	if err != nil {
		return models.Suggestion{}, err
	}
	b, err := json.Marshal(sg)
	if err != nil {
		return models.Suggestion{}, err
	}
	if _, err := s.store.Put(b, keys); err != nil {
		return models.Suggestion{}, err
	}
	logger.Info("suggestion_created", "id", sg.ID, "document", sg.DocumentID)
	return sg, nil
}

// GetSuggestion returns one suggestion through the owner key path.
func (s *Service) GetSuggestion(ctx context.Context, userID, id uint64) (models.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return models.Suggestion{}, err
	}
	key := "user:" + utils.FormatID(userID) + ":sugg:" + utils.FormatID(id)
	v, err := s.store.Get(key)
	if err != nil {
		return models.Suggestion{}, err
	}
	var sg models.Suggestion
	if err := json.Unmarshal(v, &sg); err != nil {
		return models.Suggestion{}, fmt.Errorf("invalid suggestion record at %s: %w", key, err)
	}
	return sg, nil
}

// ListSuggestions returns all suggestions bound to one document version.
func (s *Service) ListSuggestions(ctx context.Context, documentID uint64, documentVersion int64) ([]models.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := "doc:" + utils.FormatID(documentID) + ":ver:" + fmt.Sprintf("%020d", documentVersion) + ":sugg:"
	vals, err := s.store.ScanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.Suggestion, 0, len(vals))
	for _, v := range vals {
		var sg models.Suggestion
		if err := json.Unmarshal(v, &sg); err != nil {
			return nil, fmt.Errorf("invalid suggestion record under %s: %w", prefix, err)
		}
		out = append(out, sg)
	}
	return out, nil
}

// ResolveSuggestion sets a suggestion's resolution status and stamps
// ResolvedTS, rewriting both key paths atomically.
func (s *Service) ResolveSuggestion(ctx context.Context, userID, id uint64, status models.ResolutionStatus) (models.Suggestion, error) {
	if status != models.ResolutionResolved && status != models.ResolutionRejected {
		return models.Suggestion{}, fmt.Errorf("unknown resolution status %q", status)
	}
	sg, err := s.GetSuggestion(ctx, userID, id)
	if err != nil {
		return models.Suggestion{}, err
	}
	sg.ResolutionStatus = status
	sg.ResolvedTS = s.store.Now().UTC().UnixNano()

	keys, err := schema.RenderAll(schema.MustLookup(schema.KindSuggestion), suggestionKeyFields(sg))
	if err != nil {
		return models.Suggestion{}, err
	}
	b, err := json.Marshal(sg)
	if err != nil {
		return models.Suggestion{}, err
	}
	muts := make([]store.Mutation, 0, len(keys))
	for _, k := range keys {
		muts = append(muts, store.Mutation{Key: k, Value: b})
	}
	if err := s.store.Commit(muts); err != nil {
		return models.Suggestion{}, err
	}
	logger.Info("suggestion_resolved", "id", sg.ID, "status", status)
	return sg, nil
}
