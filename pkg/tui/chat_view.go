package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/marchholm/sage/pkg/attachments"
	"github.com/marchholm/sage/pkg/chat"
	"github.com/marchholm/sage/pkg/controllers"
)

// ChatView renders one conversation: transcript, context meter, error
// banner, attachment strip, and the input line. All state it paints is
// read from the controller; the view holds only presentation state.
type ChatView struct {
	controller  *controllers.ChatController
	attachments *attachments.Manager
	formatter   *MessageFormatter

	input      InputField
	scrollback int // lines scrolled up from the tail
	tokenLimit int
	width      int
	height     int
}

// NewChatView creates a chat view over the given controller
func NewChatView(controller *controllers.ChatController, attach *attachments.Manager, tokenLimit int) *ChatView {
	return &ChatView{
		controller:  controller,
		attachments: attach,
		formatter:   NewMessageFormatter(80),
		input:       NewInputField(80),
		tokenLimit:  tokenLimit,
	}
}

// Resize updates layout dimensions
func (cv *ChatView) Resize(width, height int) {
	cv.width = width
	cv.height = height
	cv.formatter.SetWidth(width - 2)
	cv.input = cv.input.WithWidth(width - 4)
}

// ScrollUp moves the viewport toward older messages
func (cv *ChatView) ScrollUp(lines int) {
	cv.scrollback += lines
}

// ScrollDown moves the viewport toward the tail
func (cv *ChatView) ScrollDown(lines int) {
	cv.scrollback -= lines
	if cv.scrollback < 0 {
		cv.scrollback = 0
	}
}

// Draw paints the whole view
func (cv *ChatView) Draw(screen tcell.Screen) {
	screen.Clear()

	if cv.width == 0 || cv.height == 0 {
		return
	}

	transcriptBottom := cv.height - 3
	bannerRow := cv.height - 3
	inputRow := cv.height - 1

	// Error banner or status line directly above the input separator
	banner, bannerStyle := cv.statusLine()
	if banner != "" {
		transcriptBottom--
		drawText(screen, 1, bannerRow, bannerStyle, truncate(banner, cv.width-2))
	}

	cv.drawHeader(screen)
	cv.drawTranscript(screen, 1, transcriptBottom)

	for x := 0; x < cv.width; x++ {
		screen.SetContent(x, cv.height-2, '─', nil, StyleBorder)
	}

	cv.drawInput(screen, inputRow)
}

func (cv *ChatView) drawHeader(screen tcell.Screen) {
	title := "new conversation"
	if id := cv.controller.ConversationID(); id != nil {
		title = fmt.Sprintf("conversation #%d", *id)
	}
	drawText(screen, 1, 0, StyleDimText, truncate(title, cv.width/2))

	usage := chat.Usage(cv.controller.Transcript(), cv.tokenLimit)
	meterStyle := StyleDefault.Foreground(ColorMeterOK)
	switch {
	case usage.PercentUsed > 95:
		meterStyle = StyleDefault.Foreground(ColorMeterFull)
	case usage.Warning():
		meterStyle = StyleDefault.Foreground(ColorMeterWarn)
	}
	meter := fmt.Sprintf("context %3.0f%%", minFloat(usage.PercentUsed, 100))
	drawText(screen, cv.width-len(meter)-1, 0, meterStyle, meter)
}

// drawTranscript paints messages bottom-up so the newest lines hug the
// input area, honoring scrollback
func (cv *ChatView) drawTranscript(screen tcell.Screen, top, bottom int) {
	type renderedLine struct {
		text  string
		style tcell.Style
	}

	var lines []renderedLine
	for _, msg := range cv.controller.Transcript().Messages() {
		style := cv.styleFor(msg)
		prefix, body := cv.layoutFor(msg)
		for i, line := range cv.formatter.Format(body) {
			if i == 0 {
				line = prefix + line
			} else {
				line = strings.Repeat(" ", len(prefix)) + line
			}
			lines = append(lines, renderedLine{text: line, style: style})
		}
		if msg.IsStreaming && msg.Text == "" {
			lines = append(lines, renderedLine{text: prefix + "…", style: StyleDimText})
		}
		lines = append(lines, renderedLine{})
	}

	visible := bottom - top + 1
	if visible < 1 {
		return
	}

	maxScroll := len(lines) - visible
	if maxScroll < 0 {
		maxScroll = 0
	}
	if cv.scrollback > maxScroll {
		cv.scrollback = maxScroll
	}

	start := len(lines) - visible - cv.scrollback
	if start < 0 {
		start = 0
	}

	row := top
	for _, line := range lines[start:] {
		if row > bottom {
			break
		}
		drawText(screen, 1, row, line.style, line.text)
		row++
	}
}

func (cv *ChatView) drawInput(screen tcell.Screen, row int) {
	drawText(screen, 0, row, StylePrompt, "> ")
	drawText(screen, 2, row, StyleDefault, cv.input.String())
	screen.ShowCursor(2+cv.input.Cursor, row)
}

// statusLine picks what sits above the input: a surfaced error, the stop
// indicator, upload progress, or a truncation note
func (cv *ChatView) statusLine() (string, tcell.Style) {
	if err := cv.controller.LastError(); err != "" {
		return err, StyleErrorText
	}
	if cv.controller.Stopping() {
		return "Stopping…", StyleDimText
	}
	if cv.controller.State().Active() {
		return "Thinking… (Esc to stop)", StyleDimText
	}
	if cv.attachments != nil && cv.attachments.Len() > 0 {
		names := make([]string, 0, cv.attachments.Len())
		for _, att := range cv.attachments.List() {
			name := att.Filename
			if att.Status == attachments.StatusUploading {
				name += " (uploading)"
			}
			names = append(names, name)
		}
		return "Attached: " + strings.Join(names, ", "), StyleSystemText
	}
	if cv.controller.LastTruncated() {
		return "Response may be incomplete.", StyleDimText
	}
	return "", StyleDefault
}

func (cv *ChatView) styleFor(msg chat.Message) tcell.Style {
	switch msg.Sender {
	case chat.SenderUser:
		return StyleUserText
	case chat.SenderSystem:
		return StyleSystemText
	case chat.SenderError:
		return StyleErrorText
	default:
		return StyleAssistantText
	}
}

func (cv *ChatView) layoutFor(msg chat.Message) (prefix, body string) {
	switch msg.Sender {
	case chat.SenderUser:
		return "you  │ ", msg.Text
	case chat.SenderError:
		return "  !  │ ", msg.Text
	default:
		return "sage │ ", msg.Text
	}
}

// Input returns the current input field state
func (cv *ChatView) Input() InputField {
	return cv.input
}

// SetInput replaces the input field state
func (cv *ChatView) SetInput(input InputField) {
	cv.input = input
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	col := x
	for _, r := range text {
		screen.SetContent(col, y, r, nil, style)
		col++
	}
}

func truncate(s string, max int) string {
	if max < 1 || len(s) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return s[:max-1] + "…"
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
