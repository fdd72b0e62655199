package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/marchholm/sage/pkg/logger"
)

// MessageFormatter renders assistant message bodies for the terminal:
// fenced code blocks get syntax highlighting, everything else is wrapped
// to the view width.
type MessageFormatter struct {
	width           int
	chromaFormatter chroma.Formatter
	codeBlockStyle  lipgloss.Style
	inlineCodeStyle lipgloss.Style
}

// NewMessageFormatter creates a formatter for the given render width
func NewMessageFormatter(width int) *MessageFormatter {
	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	return &MessageFormatter{
		width:           width,
		chromaFormatter: formatter,
		codeBlockStyle: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(0, 1),
		inlineCodeStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FFB000")),
	}
}

// SetWidth updates the render width after a terminal resize
func (mf *MessageFormatter) SetWidth(width int) {
	mf.width = width
}

// Format renders one message body. Text is split on fenced code blocks;
// each block is highlighted, the rest is word-wrapped.
func (mf *MessageFormatter) Format(text string) []string {
	var out []string

	remaining := text
	for {
		start := strings.Index(remaining, "```")
		if start < 0 {
			out = append(out, wrapText(remaining, mf.width)...)
			break
		}

		out = append(out, wrapText(remaining[:start], mf.width)...)
		rest := remaining[start+3:]

		end := strings.Index(rest, "```")
		if end < 0 {
			// Unterminated fence, common mid-stream; render it raw
			out = append(out, wrapText(rest, mf.width)...)
			break
		}

		block := rest[:end]
		language := ""
		if i := strings.IndexByte(block, '\n'); i >= 0 {
			language = strings.TrimSpace(block[:i])
			block = block[i+1:]
		}
		out = append(out, strings.Split(mf.formatCodeBlock(block, language), "\n")...)

		remaining = rest[end+3:]
	}

	return out
}

// formatCodeBlock applies syntax highlighting and a bordered box to code
func (mf *MessageFormatter) formatCodeBlock(content, language string) string {
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return ""
	}

	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	highlighted := content
	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		logger.Debug("Failed to tokenize code block: %v", err)
	} else {
		var buf strings.Builder
		if err := mf.chromaFormatter.Format(&buf, styles.Get("monokai"), iterator); err != nil {
			logger.Debug("Failed to highlight code block: %v", err)
		} else {
			highlighted = buf.String()
		}
	}

	boxWidth := mf.width - 4
	if boxWidth < 10 {
		boxWidth = 10
	}
	return mf.codeBlockStyle.Width(boxWidth).Render(highlighted)
}

// wrapText word-wraps plain text to the given width, preserving paragraph
// breaks
func wrapText(text string, width int) []string {
	if width < 1 {
		width = 1
	}

	var lines []string
	for _, paragraph := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if strings.TrimSpace(paragraph) == "" {
			lines = append(lines, "")
			continue
		}

		var line strings.Builder
		for _, word := range strings.Fields(paragraph) {
			if line.Len() > 0 && line.Len()+1+len(word) > width {
				lines = append(lines, line.String())
				line.Reset()
			}
			if line.Len() > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(word)
		}
		if line.Len() > 0 {
			lines = append(lines, line.String())
		}
	}

	// Drop a single leading blank produced by a leading newline
	if len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return lines
}
