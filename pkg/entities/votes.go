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

func voteKeyFields(v models.Vote) map[string]string {
	return map[string]string{
		"chat_id":    utils.FormatID(v.ChatID),
		"message_id": utils.FormatID(v.MessageID),
	}
}

// SetVote records a vote on a message. The (chat, message) pair is the
// vote's identity, so a later vote on the same message overwrites the
// earlier one: at most one vote per message ever exists.
func (s *Service) SetVote(ctx context.Context, v models.Vote) (models.Vote, error) {
	if err := ctx.Err(); err != nil {
		return models.Vote{}, err
	}
	if _, err := s.GetMessage(ctx, v.ChatID, v.MessageID); err != nil {
		return models.Vote{}, err
	}
	v.VotedTS = s.store.Now().UTC().UnixNano()
	keys, err := schema.RenderAll(schema.MustLookup(schema.KindVote), voteKeyFields(v))
	if err != nil {
		return models.Vote{}, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return models.Vote{}, err
	}
	if _, err := s.store.Put(b, keys); err != nil {
		return models.Vote{}, err
	}
	logger.Debug("vote_set", "chat", v.ChatID, "message", v.MessageID, "upvoted", v.IsUpvoted)
	return v, nil
}

// GetVote returns the vote on a message, if any.
func (s *Service) GetVote(ctx context.Context, chatID, messageID uint64) (models.Vote, error) {
	if err := ctx.Err(); err != nil {
		return models.Vote{}, err
	}
	key := "chat:" + utils.FormatID(chatID) + ":vote:" + utils.FormatID(messageID)
	raw, err := s.store.Get(key)
	if err != nil {
		return models.Vote{}, err
	}
	var v models.Vote
	if err := json.Unmarshal(raw, &v); err != nil {
		return models.Vote{}, fmt.Errorf("invalid vote record at %s: %w", key, err)
	}
	return v, nil
}

// ListVotes returns all votes in a chat, in message order.
func (s *Service) ListVotes(ctx context.Context, chatID uint64) ([]models.Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := "chat:" + utils.FormatID(chatID) + ":vote:"
	vals, err := s.store.ScanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.Vote, 0, len(vals))
	for _, raw := range vals {
		var v models.Vote
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("invalid vote record under %s: %w", prefix, err)
		}
		out = append(out, v)
	}
	return out, nil
}
