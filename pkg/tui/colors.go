package tui

import "github.com/gdamore/tcell/v2"

// Color constants for the chat surface
var (
	ColorUserText      = tcell.NewRGBColor(135, 175, 255) // Soft blue - user messages
	ColorAssistantText = tcell.NewRGBColor(220, 220, 220) // Light gray - assistant messages
	ColorSystemText    = tcell.NewRGBColor(255, 255, 128) // Pale yellow - system notices
	ColorErrorText     = tcell.NewRGBColor(255, 99, 71)   // Tomato - error banner

	ColorBorder     = tcell.NewRGBColor(100, 100, 100) // Gray - separators
	ColorDimText    = tcell.NewRGBColor(140, 140, 140) // Secondary text
	ColorPrompt     = tcell.NewRGBColor(0, 255, 135)   // Mint green - input prompt
	ColorBackground = tcell.ColorBlack

	ColorMeterOK   = tcell.NewRGBColor(144, 238, 144) // Light green - context meter
	ColorMeterWarn = tcell.NewRGBColor(255, 191, 0)   // Amber - above warn threshold
	ColorMeterFull = tcell.NewRGBColor(255, 99, 71)   // Tomato - near the limit
)

// Style presets combining colors with text attributes
var (
	StyleDefault       = tcell.StyleDefault.Background(ColorBackground)
	StyleUserText      = StyleDefault.Foreground(ColorUserText)
	StyleAssistantText = StyleDefault.Foreground(ColorAssistantText)
	StyleSystemText    = StyleDefault.Foreground(ColorSystemText).Italic(true)
	StyleErrorText     = StyleDefault.Foreground(ColorErrorText).Bold(true)
	StyleDimText       = StyleDefault.Foreground(ColorDimText)
	StyleBorder        = StyleDefault.Foreground(ColorBorder)
	StylePrompt        = StyleDefault.Foreground(ColorPrompt).Bold(true)
)
