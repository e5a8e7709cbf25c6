package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesAllPlaceholders(t *testing.T) {
	got, err := Render("user:{user_id}:chat:{id}", map[string]string{
		"user_id": "00000000000000000007",
		"id":      "00000000000000000042",
	})
	require.NoError(t, err)
	assert.Equal(t, "user:00000000000000000007:chat:00000000000000000042", got)
}

func TestRenderMissingFieldFails(t *testing.T) {
	_, err := Render("chat:{id}", map[string]string{})
	require.Error(t, err)
}

func TestRenderAllPopulatesEveryTemplate(t *testing.T) {
	d := MustLookup(KindChat)
	keys, err := RenderAll(d, map[string]string{
		"id":         "00000000000000000001",
		"user_id":    "00000000000000000002",
		"visibility": "private",
	})
	require.NoError(t, err)
	require.Len(t, keys, 3)
	assert.Equal(t, "chat:00000000000000000001", keys[0])
	assert.Equal(t, "user:00000000000000000002:chat:00000000000000000001", keys[1])
	assert.Equal(t, "user:00000000000000000002:vis:private:chat:00000000000000000001", keys[2])
}

func TestRenderPrefixStopsAtUnboundField(t *testing.T) {
	got := RenderPrefix("chat:{chat_id}:msg:{id}", map[string]string{
		"chat_id": "00000000000000000009",
	})
	assert.Equal(t, "chat:00000000000000000009:msg:", got)
}

func TestDescriptorPolicies(t *testing.T) {
	assert.Equal(t, IDSequence, MustLookup(KindMessage).ID)
	assert.Equal(t, IDNone, MustLookup(KindVote).ID)
	assert.Equal(t, IDRandom63, MustLookup(KindUser).ID)

	st := MustLookup(KindStream)
	assert.Equal(t, 24*time.Hour, st.TTL)
	for _, kind := range []string{KindUser, KindChat, KindMessage, KindDocument, KindSuggestion, KindVote} {
		assert.Zero(t, MustLookup(kind).TTL, "only streams expire")
	}
}

func TestValidateEmail(t *testing.T) {
	for _, ok := range []string{"a@b.com", "guest-123@guest.local", "x@y"} {
		assert.NoError(t, ValidateEmail(ok), ok)
	}
	for _, bad := range []string{"", "a", "@b", "a@", "a@@b", "a@b@c"} {
		err := ValidateEmail(bad)
		require.Error(t, err, bad)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve, bad)
	}
}
