package entities

import (
	"context"
	"encoding/json"
	"fmt"

	"chatdb/pkg/logger"
	"chatdb/pkg/models"
	"chatdb/pkg/schema"
	"chatdb/pkg/utils"
)

func documentKeyFields(d models.Document) map[string]string {
	return map[string]string{
		"id":         utils.FormatID(d.ID),
		"user_id":    utils.FormatID(d.UserID),
		"created_ts": fmt.Sprintf("%020d", d.CreatedTS),
	}
}

// SaveDocument writes a document version. A zero ID starts a new document;
// a non-zero ID appends a new version to that document's chain. Either way
// this is a fresh item under a fresh CreatedTS key, never an in-place
// mutation: earlier versions stay byte-for-byte intact, which is what lets
// suggestions bind to one immutable version. CreatedTS is taken from the
// store clock (the same clock behind write metadata) because key paths
// cannot reference metadata fields.
func (s *Service) SaveDocument(ctx context.Context, d models.Document) (models.Document, error) {
	if err := ctx.Err(); err != nil {
		return models.Document{}, err
	}
	if d.UserID == 0 {
		return models.Document{}, fmt.Errorf("document requires an owner")
	}
	if d.ID == 0 {
		d.ID = utils.GenID()
	}
	if d.Kind == "" {
		d.Kind = models.DocText
	}
	now := s.store.Now().UTC().UnixNano()
	d.CreatedTS = now
	d.UpdatedTS = now

	keys, err := schema.RenderAll(schema.MustLookup(schema.KindDocument), documentKeyFields(d))
	if err != nil {
		return models.Document{}, err
	}
	b, err := json.Marshal(d)
	if err != nil {
		return models.Document{}, err
	}
	if _, err := s.store.Put(b, keys); err != nil {
		return models.Document{}, err
	}
	logger.Info("document_version_saved", "id", d.ID, "version", d.CreatedTS)
	return d, nil
}

// GetDocument returns the current version of a document: the item with the
// maximum CreatedTS for the id.
func (s *Service) GetDocument(ctx context.Context, id uint64) (models.Document, error) {
	vers, err := s.ListDocumentVersions(ctx, id)
	if err != nil {
		return models.Document{}, err
	}
	if len(vers) == 0 {
		return models.Document{}, ErrNotFound
	}
	return vers[len(vers)-1], nil
}

// GetDocumentVersion returns one exact version of a document.
func (s *Service) GetDocumentVersion(ctx context.Context, id uint64, createdTS int64) (models.Document, error) {
	if err := ctx.Err(); err != nil {
		return models.Document{}, err
	}
	key := "doc:" + utils.FormatID(id) + ":ver:" + fmt.Sprintf("%020d", createdTS)
	v, err := s.store.Get(key)
	if err != nil {
		return models.Document{}, err
	}
	var d models.Document
	if err := json.Unmarshal(v, &d); err != nil {
		return models.Document{}, fmt.Errorf("invalid document record at %s: %w", key, err)
	}
	return d, nil
}

// ListDocumentVersions returns a document's version chain in chronological
// order (the key embeds CreatedTS fixed-width, so key order is time order).
func (s *Service) ListDocumentVersions(ctx context.Context, id uint64) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := "doc:" + utils.FormatID(id) + ":ver:"
	vals, err := s.store.ScanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.Document, 0, len(vals))
	for _, v := range vals {
		var d models.Document
		if err := json.Unmarshal(v, &d); err != nil {
			return nil, fmt.Errorf("invalid document record under %s: %w", prefix, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// ListUserDocuments returns the latest version of each document owned by a
// user, scanned through the owner-qualified key path.
func (s *Service) ListUserDocuments(ctx context.Context, userID uint64) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := "user:" + utils.FormatID(userID) + ":doc:"
	vals, err := s.store.ScanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	// versions of one id are adjacent and ascending; keep the last seen
	var out []models.Document
	for _, v := range vals {
		var d models.Document
		if err := json.Unmarshal(v, &d); err != nil {
			return nil, fmt.Errorf("invalid document record under %s: %w", prefix, err)
		}
		if n := len(out); n > 0 && out[n-1].ID == d.ID {
			out[n-1] = d
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
