package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateContent(t *testing.T) {
	got, err := ValidateContent("  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	for _, c := range []string{"", "   ", "\n\t"} {
		_, err := ValidateContent(c)
		assert.ErrorIs(t, err, ErrInvalidContent)
	}
}

func TestNormalizeAuthor(t *testing.T) {
	assert.Equal(t, "Alice", NormalizeAuthor(" Alice "))
	assert.Equal(t, AnonymousAuthor, NormalizeAuthor(""))
	assert.Equal(t, AnonymousAuthor, NormalizeAuthor("   "))
}

func TestMessagesSince(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msgs := []ChatMessage{
		{ID: "m3", CreatedAt: base.Add(2 * time.Second)},
		{ID: "m1", CreatedAt: base},
		{ID: "m2a", CreatedAt: base.Add(time.Second)},
		{ID: "m2b", CreatedAt: base.Add(time.Second)},
	}

	ids := func(ms []ChatMessage) []MessageID {
		out := make([]MessageID, len(ms))
		for i, m := range ms {
			out[i] = m.ID
		}
		return out
	}

	t.Run("zero since returns all sorted", func(t *testing.T) {
		assert.Equal(t, []MessageID{"m1", "m2a", "m2b", "m3"}, ids(MessagesSince(msgs, time.Time{})))
	})

	t.Run("filter is strictly greater", func(t *testing.T) {
		assert.Equal(t, []MessageID{"m3"}, ids(MessagesSince(msgs, base.Add(time.Second))))
	})

	t.Run("since after last returns empty", func(t *testing.T) {
		assert.Empty(t, MessagesSince(msgs, base.Add(time.Hour)))
	})

	t.Run("input is not reordered", func(t *testing.T) {
		_ = MessagesSince(msgs, time.Time{})
		assert.Equal(t, MessageID("m3"), msgs[0].ID)
	})
}
