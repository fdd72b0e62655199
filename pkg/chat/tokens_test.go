package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	t.Run("should scale word count by the BPE factor", func(t *testing.T) {
		assert.Equal(t, 0, EstimateTokens(""))
		assert.Equal(t, 0, EstimateTokens("   "))
		assert.Equal(t, 2, EstimateTokens("hello"))
		assert.Equal(t, 13, EstimateTokens("one two three four five six seven eight nine ten"))
	})
}

func TestUsage(t *testing.T) {
	t.Run("should total tokens across the transcript", func(t *testing.T) {
		tr := NewTranscript()
		tr.Append(NewUserMessage("one two three four five"))
		tr.Append(NewAssistantMessage("six seven eight nine ten"))

		usage := Usage(tr, 100)

		assert.Equal(t, 14, usage.TotalTokens)
		assert.Equal(t, 100, usage.Limit)
		assert.InDelta(t, 14.0, usage.PercentUsed, 0.01)
		assert.False(t, usage.Warning())
	})

	t.Run("should warn above eighty percent", func(t *testing.T) {
		tr := NewTranscript()
		tr.Append(NewAssistantMessage("one two three four five six seven eight nine"))

		usage := Usage(tr, 14)

		assert.True(t, usage.Warning())
	})

	t.Run("should fall back to the default limit", func(t *testing.T) {
		usage := Usage(NewTranscript(), 0)
		assert.Equal(t, DefaultTokenLimit, usage.Limit)
	})
}
