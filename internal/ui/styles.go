package ui

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
	dark "github.com/thiagokokada/dark-mode-go"

	"github.com/tchow/watchdeck/internal/status"
)

// Theme represents the active color scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

var currentTheme Theme = ThemeDark

// Dark palette (Tokyo Night)
var darkColors = struct {
	Border, Text, TextDim               lipgloss.Color
	Accent, Green, Yellow, Red, Comment lipgloss.Color
}{
	Border:  lipgloss.Color("#414868"),
	Text:    lipgloss.Color("#c0caf5"),
	TextDim: lipgloss.Color("#787fa0"),
	Accent:  lipgloss.Color("#7aa2f7"),
	Green:   lipgloss.Color("#9ece6a"),
	Yellow:  lipgloss.Color("#e0af68"),
	Red:     lipgloss.Color("#f7768e"),
	Comment: lipgloss.Color("#787fa0"),
}

// Light palette (Tokyo Night Light)
var lightColors = struct {
	Border, Text, TextDim               lipgloss.Color
	Accent, Green, Yellow, Red, Comment lipgloss.Color
}{
	Border:  lipgloss.Color("#9699a3"),
	Text:    lipgloss.Color("#343b58"),
	TextDim: lipgloss.Color("#6a6d7c"),
	Accent:  lipgloss.Color("#34548a"),
	Green:   lipgloss.Color("#485e30"),
	Yellow:  lipgloss.Color("#8f5e15"),
	Red:     lipgloss.Color("#8c4351"),
	Comment: lipgloss.Color("#6a6d7c"),
}

var (
	ColorBorder  lipgloss.Color
	ColorText    lipgloss.Color
	ColorTextDim lipgloss.Color
	ColorAccent  lipgloss.Color
	ColorGreen   lipgloss.Color
	ColorYellow  lipgloss.Color
	ColorRed     lipgloss.Color
	ColorComment lipgloss.Color
)

var (
	TitleStyle    lipgloss.Style
	DimStyle      lipgloss.Style
	SelectedStyle lipgloss.Style
	ErrorStyle    lipgloss.Style
	HelpKeyStyle  lipgloss.Style
	HelpDescStyle lipgloss.Style

	RunningStyle lipgloss.Style
	IdleStyle    lipgloss.Style
	DoneStyle    lipgloss.Style
	FailedStyle  lipgloss.Style
	UnknownStyle lipgloss.Style
)

// themeMu protects the global color and style variables during live
// theme switches.
var themeMu sync.RWMutex

// InitTheme sets the active palette. Must run before any rendering.
func InitTheme(theme string) {
	themeMu.Lock()
	defer themeMu.Unlock()

	c := darkColors
	currentTheme = ThemeDark
	if theme == "light" {
		c = lightColors
		currentTheme = ThemeLight
	}

	ColorBorder = c.Border
	ColorText = c.Text
	ColorTextDim = c.TextDim
	ColorAccent = c.Accent
	ColorGreen = c.Green
	ColorYellow = c.Yellow
	ColorRed = c.Red
	ColorComment = c.Comment

	initStyles()
}

func initStyles() {
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	DimStyle = lipgloss.NewStyle().Foreground(ColorTextDim)
	SelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed)
	HelpKeyStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	HelpDescStyle = lipgloss.NewStyle().Foreground(ColorComment)

	RunningStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	IdleStyle = lipgloss.NewStyle().Foreground(ColorYellow)
	DoneStyle = lipgloss.NewStyle().Foreground(ColorTextDim)
	FailedStyle = lipgloss.NewStyle().Foreground(ColorRed)
	UnknownStyle = lipgloss.NewStyle().Foreground(ColorComment)
}

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

func init() {
	InitTheme("dark")
}

// ResolveTheme maps a configured theme name to "dark" or "light".
// "system" consults the OS dark mode setting, falling back to dark when
// detection fails.
func ResolveTheme(configured string) string {
	switch configured {
	case "dark", "light":
		return configured
	case "system":
		isDark, err := dark.IsDarkMode()
		if err != nil || isDark {
			return "dark"
		}
		return "light"
	default:
		return "dark"
	}
}

// StatusIcon returns the glyph and style for a session status.
func StatusIcon(st status.Status) (string, lipgloss.Style) {
	themeMu.RLock()
	defer themeMu.RUnlock()
	switch st {
	case status.StatusRunning:
		return "●", RunningStyle
	case status.StatusIdle:
		return "○", IdleStyle
	case status.StatusDone:
		return "✓", DoneStyle
	case status.StatusError:
		return "✗", FailedStyle
	default:
		return "?", UnknownStyle
	}
}
