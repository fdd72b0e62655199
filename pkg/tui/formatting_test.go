package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapText(t *testing.T) {
	t.Run("should wrap at word boundaries", func(t *testing.T) {
		lines := wrapText("the quick brown fox jumps over the lazy dog", 15)

		require.NotEmpty(t, lines)
		for _, line := range lines {
			assert.LessOrEqual(t, len(line), 15)
		}
		assert.Equal(t, "the quick brown fox jumps over the lazy dog",
			strings.Join(lines, " "))
	})

	t.Run("should preserve paragraph breaks", func(t *testing.T) {
		lines := wrapText("first paragraph\n\nsecond paragraph", 40)

		require.Len(t, lines, 3)
		assert.Equal(t, "first paragraph", lines[0])
		assert.Empty(t, lines[1])
		assert.Equal(t, "second paragraph", lines[2])
	})
}

func TestMessageFormatter(t *testing.T) {
	t.Run("should render plain text as wrapped lines", func(t *testing.T) {
		mf := NewMessageFormatter(40)

		lines := mf.Format("a short answer")

		assert.Equal(t, []string{"a short answer"}, lines)
	})

	t.Run("should render fenced code distinctly from prose", func(t *testing.T) {
		mf := NewMessageFormatter(60)

		lines := mf.Format("Use this:\n```go\nfmt.Println(\"hi\")\n```\nDone.")
		joined := strings.Join(lines, "\n")

		assert.Contains(t, joined, "Use this:")
		assert.Contains(t, joined, "Println")
		assert.Contains(t, joined, "Done.")
	})

	t.Run("should render an unterminated fence without losing text", func(t *testing.T) {
		mf := NewMessageFormatter(60)

		// Mid-stream a fence may not be closed yet
		lines := mf.Format("Starting:\n```python\nprint('partial")
		joined := strings.Join(lines, "\n")

		assert.Contains(t, joined, "Starting:")
		assert.Contains(t, joined, "partial")
	})
}
