package entities

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdb/pkg/schema"
)

func TestCreateUserAndLookup(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "alice@example.com", "hash")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.NotZero(t, u.CreatedTS)

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)
}

func TestCreateUserRejectsMalformedEmail(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for _, email := range []string{"", "no-at-sign", "@example.com", "alice@"} {
		_, err := s.CreateUser(ctx, email, "hash")
		var ve *schema.ValidationError
		assert.ErrorAs(t, err, &ve, email)
	}

	// nothing was persisted under any key path
	_, err := s.GetUserByEmail(ctx, "no-at-sign")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateUserDuplicateEmailConflicts(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	first, err := s.CreateUser(ctx, "bob@example.com", "hash1")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "bob@example.com", "hash2")
	assert.ErrorIs(t, err, ErrConflict)

	// the original record is untouched
	got, err := s.GetUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "hash1", got.PasswordHash)
}

func TestConcurrentGuestsAreDistinct(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	const n = 16
	ids := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := s.CreateGuestUser(ctx)
			assert.NoError(t, err)
			ids[i] = u.ID
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, n)
	for _, id := range ids {
		assert.NotZero(t, id)
		assert.False(t, seen[id], "duplicate guest id %d", id)
		seen[id] = true
	}
}

func TestGuestUserHasNoPasswordHash(t *testing.T) {
	s := newTestService(t)
	u, err := s.CreateGuestUser(context.Background())
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
	assert.NoError(t, schema.ValidateEmail(u.Email))
}
