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

func streamKeyFields(st models.Stream) map[string]string {
	return map[string]string{
		"id":      utils.FormatID(st.ID),
		"chat_id": utils.FormatID(st.ChatID),
	}
}

// CreateStream persists a live stream marker for a chat. The store expires
// it StreamTTL after creation; liveness is store-enforced, nothing in the
// application polls or extends it. Callers needing a longer-lived stream
// create a new one.
func (s *Service) CreateStream(ctx context.Context, chatID uint64) (models.Stream, error) {
	if err := ctx.Err(); err != nil {
		return models.Stream{}, err
	}
	if _, err := s.GetChat(ctx, chatID); err != nil {
		return models.Stream{}, err
	}
	now := s.store.Now().UTC().UnixNano()
	st := models.Stream{
		ID:             utils.GenID(),
		ChatID:         chatID,
		Active:         true,
		CreatedTS:      now,
		LastActivityTS: now,
	}
	desc := schema.MustLookup(schema.KindStream)
	keys, err := schema.RenderAll(desc, streamKeyFields(st))
	if err != nil {
		return models.Stream{}, err
	}
	b, err := json.Marshal(st)
	if err != nil {
		return models.Stream{}, err
	}
	if _, err := s.store.PutWithTTL(b, keys, desc.TTL); err != nil {
		return models.Stream{}, err
	}
	logger.Info("stream_created", "id", st.ID, "chat", chatID)
	return st, nil
}

// GetStream returns a stream by id; expired streams read as not found.
func (s *Service) GetStream(ctx context.Context, id uint64) (models.Stream, error) {
	if err := ctx.Err(); err != nil {
		return models.Stream{}, err
	}
	key := "stream:" + utils.FormatID(id)
	v, err := s.store.Get(key)
	if err != nil {
		return models.Stream{}, err
	}
	var st models.Stream
	if err := json.Unmarshal(v, &st); err != nil {
		return models.Stream{}, fmt.Errorf("invalid stream record at %s: %w", key, err)
	}
	return st, nil
}

// ListChatStreams returns the live streams of a chat.
func (s *Service) ListChatStreams(ctx context.Context, chatID uint64) ([]models.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := "chat:" + utils.FormatID(chatID) + ":stream:"
	vals, err := s.store.ScanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.Stream, 0, len(vals))
	for _, v := range vals {
		var st models.Stream
		if err := json.Unmarshal(v, &st); err != nil {
			return nil, fmt.Errorf("invalid stream record under %s: %w", prefix, err)
		}
		out = append(out, st)
	}
	return out, nil
}
