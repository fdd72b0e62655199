package chat

import (
	"math"
	"strings"
)

// DefaultTokenLimit is the context window assumed when config does not
// override it
const DefaultTokenLimit = 4000

// EstimateTokens approximates the token count of a text. Whitespace-split
// words times 1.3 tracks typical BPE output closely enough for a usage
// meter.
func EstimateTokens(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	words := len(strings.Fields(trimmed))
	return int(math.Ceil(float64(words) * 1.3))
}

// ContextUsage summarizes how much of the context window a transcript
// consumes
type ContextUsage struct {
	TotalTokens int
	Limit       int
	PercentUsed float64
}

// Warning reports whether the transcript is close enough to the limit that
// the user should consider a new conversation
func (u ContextUsage) Warning() bool {
	return u.PercentUsed > 80
}

// Usage computes context usage for a transcript against a token limit
func Usage(t *Transcript, limit int) ContextUsage {
	if limit <= 0 {
		limit = DefaultTokenLimit
	}

	total := 0
	for _, msg := range t.Messages() {
		total += EstimateTokens(msg.Text)
	}

	return ContextUsage{
		TotalTokens: total,
		Limit:       limit,
		PercentUsed: float64(total) / float64(limit) * 100,
	}
}
