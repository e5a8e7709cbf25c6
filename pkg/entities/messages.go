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

// AppendMessage appends a message to a chat under the next per-chat
// sequence id. Sequence allocation is serialized per chat: the next value
// is read from the chat's LastSeq cursor and the message plus the advanced
// cursor are committed in one batch, so no two messages in a chat can
// observe the same sequence even under concurrent appends. Ordering within
// a chat is defined by this sequence, not by timestamps.
func (s *Service) AppendMessage(ctx context.Context, chatID uint64, m models.Message) (models.Message, error) {
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}
	lock := s.lockChat(chatID)
	lock.Lock()
	defer lock.Unlock()

	c, err := s.getChat("chat:" + utils.FormatID(chatID))
	if err != nil {
		return models.Message{}, err
	}

	now := s.store.Now().UTC().UnixNano()
	m.ID = c.LastSeq + 1
	m.ChatID = chatID
	m.CreatedTS = now
	m.CreatedAtVersion = s.store.NextVersion()
	if m.Parts == nil {
		m.Parts = []models.MessagePart{}
	}

	c.LastSeq = m.ID
	c.UpdatedTS = now

	msgKey := "chat:" + utils.FormatID(chatID) + ":msg:" + utils.FormatID(m.ID)
	mb, err := json.Marshal(m)
	if err != nil {
		return models.Message{}, err
	}
	chatKeys, err := schema.RenderAll(schema.MustLookup(schema.KindChat), chatKeyFields(c))
	if err != nil {
		return models.Message{}, err
	}
	cb, err := json.Marshal(c)
	if err != nil {
		return models.Message{}, err
	}
	muts := []store.Mutation{{Key: msgKey, Value: mb}}
	for _, k := range chatKeys {
		muts = append(muts, store.Mutation{Key: k, Value: cb})
	}
	if err := s.store.Commit(muts); err != nil {
		return models.Message{}, err
	}
	logger.Debug("message_appended", "chat", chatID, "seq", m.ID)
	return m, nil
}

// ListMessages returns a chat's messages in sequence order. An optional
// limit caps the result count.
func (s *Service) ListMessages(ctx context.Context, chatID uint64, limit ...int) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := "chat:" + utils.FormatID(chatID) + ":msg:"
	vals, err := s.store.ScanPrefix(prefix, limit...)
	if err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(vals))
	for _, v := range vals {
		var m models.Message
		if err := json.Unmarshal(v, &m); err != nil {
			return nil, fmt.Errorf("invalid message record in chat %d: %w", chatID, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// GetMessage returns one message by chat and sequence id.
func (s *Service) GetMessage(ctx context.Context, chatID, seq uint64) (models.Message, error) {
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}
	key := "chat:" + utils.FormatID(chatID) + ":msg:" + utils.FormatID(seq)
	v, err := s.store.Get(key)
	if err != nil {
		return models.Message{}, err
	}
	var m models.Message
	if err := json.Unmarshal(v, &m); err != nil {
		return models.Message{}, fmt.Errorf("invalid message record at %s: %w", key, err)
	}
	return m, nil
}

