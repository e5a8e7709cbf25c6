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

func chatKeyFields(c models.Chat) map[string]string {
	return map[string]string{
		"id":         utils.FormatID(c.ID),
		"user_id":    utils.FormatID(c.UserID),
		"visibility": string(c.Visibility),
	}
}

// CreateChat persists a new chat under its three key paths (by id, by
// owner, by owner+visibility). Visibility defaults to private.
func (s *Service) CreateChat(ctx context.Context, c models.Chat) (models.Chat, error) {
	if err := ctx.Err(); err != nil {
		return models.Chat{}, err
	}
	if c.UserID == 0 {
		return models.Chat{}, fmt.Errorf("chat requires an owner")
	}
	if c.Visibility == "" {
		c.Visibility = models.VisibilityPrivate
	}
	now := s.store.Now().UTC().UnixNano()
	c.ID = utils.GenID()
	c.CreatedTS = now
	c.UpdatedTS = now
	c.LastSeq = 0
	if err := s.writeChat(c); err != nil {
		return models.Chat{}, err
	}
	logger.Info("chat_created", "id", c.ID, "user", c.UserID)
	return c, nil
}

// GetChat returns a chat by id.
func (s *Service) GetChat(ctx context.Context, id uint64) (models.Chat, error) {
	if err := ctx.Err(); err != nil {
		return models.Chat{}, err
	}
	return s.getChat("chat:" + utils.FormatID(id))
}

// ListUserChats returns all chats owned by a user, in id order.
func (s *Service) ListUserChats(ctx context.Context, userID uint64) ([]models.Chat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := "user:" + utils.FormatID(userID) + ":chat:"
	return s.scanChats(prefix)
}

// ListUserChatsByVisibility lists a user's chats of one visibility using
// the visibility-qualified key path, without scan-side filtering.
func (s *Service) ListUserChatsByVisibility(ctx context.Context, userID uint64, vis models.Visibility) ([]models.Chat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := "user:" + utils.FormatID(userID) + ":vis:" + string(vis) + ":chat:"
	return s.scanChats(prefix)
}

// UpdateChatVisibility moves a chat between visibility-qualified key paths.
// The old alternate key is deleted and all current paths rewritten in one
// atomic commit.
func (s *Service) UpdateChatVisibility(ctx context.Context, id uint64, vis models.Visibility) (models.Chat, error) {
	if err := ctx.Err(); err != nil {
		return models.Chat{}, err
	}
	if vis != models.VisibilityPrivate && vis != models.VisibilityPublic {
		return models.Chat{}, fmt.Errorf("unknown visibility %q", vis)
	}
	lock := s.lockChat(id)
	lock.Lock()
	defer lock.Unlock()

	c, err := s.getChat("chat:" + utils.FormatID(id))
	if err != nil {
		return models.Chat{}, err
	}
	if c.Visibility == vis {
		return c, nil
	}
	oldKey, err := schema.Render("user:{user_id}:vis:{visibility}:chat:{id}", chatKeyFields(c))
	if err != nil {
		return models.Chat{}, err
	}
	c.Visibility = vis
	c.UpdatedTS = s.store.Now().UTC().UnixNano()
	keys, err := schema.RenderAll(schema.MustLookup(schema.KindChat), chatKeyFields(c))
	if err != nil {
		return models.Chat{}, err
	}
	b, err := json.Marshal(c)
	if err != nil {
		return models.Chat{}, err
	}
	muts := []store.Mutation{{Key: oldKey, Delete: true}}
	for _, k := range keys {
		muts = append(muts, store.Mutation{Key: k, Value: b})
	}
	if err := s.store.Commit(muts); err != nil {
		return models.Chat{}, err
	}
	logger.Info("chat_visibility_updated", "id", c.ID, "visibility", vis)
	return c, nil
}

func (s *Service) writeChat(c models.Chat) error {
	keys, err := schema.RenderAll(schema.MustLookup(schema.KindChat), chatKeyFields(c))
	if err != nil {
		return err
	}
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = s.store.Put(b, keys)
	return err
}

func (s *Service) getChat(key string) (models.Chat, error) {
	v, err := s.store.Get(key)
	if err != nil {
		return models.Chat{}, err
	}
	var c models.Chat
	if err := json.Unmarshal(v, &c); err != nil {
		return models.Chat{}, fmt.Errorf("invalid chat record at %s: %w", key, err)
	}
	return c, nil
}

func (s *Service) scanChats(prefix string) ([]models.Chat, error) {
	vals, err := s.store.ScanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.Chat, 0, len(vals))
	for _, v := range vals {
		var c models.Chat
		if err := json.Unmarshal(v, &c); err != nil {
			return nil, fmt.Errorf("invalid chat record under %s: %w", prefix, err)
		}
		out = append(out, c)
	}
	return out, nil
}
