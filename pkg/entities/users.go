package entities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"chatdb/pkg/logger"
	"chatdb/pkg/models"
	"chatdb/pkg/schema"
	"chatdb/pkg/utils"
)

func userKeyFields(u models.User) map[string]string {
	return map[string]string{
		"id":    utils.FormatID(u.ID),
		"email": u.Email,
	}
}

// CreateUser persists a new user addressable by id and by email. The email
// must match the local@domain shape; a duplicate email fails with
// ErrConflict before anything is written. Concurrent registrations of the
// same email race the store's own last-write-wins consistency.
func (s *Service) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	if err := schema.ValidateEmail(email); err != nil {
		return models.User{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	if _, err := s.GetUserByEmail(ctx, email); err == nil {
		return models.User{}, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}

	now := s.store.Now().UTC().UnixNano()
	u := models.User{
		ID:             utils.GenID(),
		Email:          email,
		PasswordHash:   passwordHash,
		CreatedTS:      now,
		LastModifiedTS: now,
	}
	keys, err := schema.RenderAll(schema.MustLookup(schema.KindUser), userKeyFields(u))
	if err != nil {
		return models.User{}, err
	}
	b, err := json.Marshal(u)
	if err != nil {
		return models.User{}, err
	}
	if _, err := s.store.Put(b, keys); err != nil {
		return models.User{}, err
	}
	logger.Info("user_created", "id", u.ID)
	return u, nil
}

// CreateGuestUser provisions an anonymous passwordless user with a
// generated handle. Concurrent guest requests each create a distinct
// identity on purpose; there is no deduplication. The write is a single
// atomic batch, so an abandoned call either fully persists the identity or
// persists nothing.
func (s *Service) CreateGuestUser(ctx context.Context) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	now := s.store.Now().UTC().UnixNano()
	u := models.User{
		ID:             utils.GenID(),
		Email:          "guest-" + uuid.NewString() + "@guest.local",
		CreatedTS:      now,
		LastModifiedTS: now,
	}
	keys, err := schema.RenderAll(schema.MustLookup(schema.KindUser), userKeyFields(u))
	if err != nil {
		return models.User{}, err
	}
	b, err := json.Marshal(u)
	if err != nil {
		return models.User{}, err
	}
	if _, err := s.store.Put(b, keys); err != nil {
		return models.User{}, err
	}
	logger.Info("guest_user_created", "id", u.ID)
	return u, nil
}

// GetUserByEmail looks a user up through the email key path.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	key, err := schema.Render("email:{email}", map[string]string{"email": email})
	if err != nil {
		return models.User{}, err
	}
	return s.getUser(key)
}

// GetUserByID looks a user up through the primary key path.
func (s *Service) GetUserByID(ctx context.Context, id uint64) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	return s.getUser("user:" + utils.FormatID(id))
}

func (s *Service) getUser(key string) (models.User, error) {
	v, err := s.store.Get(key)
	if err != nil {
		return models.User{}, err
	}
	var u models.User
	if err := json.Unmarshal(v, &u); err != nil {
		return models.User{}, fmt.Errorf("invalid user record at %s: %w", key, err)
	}
	return u, nil
}
