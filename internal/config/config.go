package config

import (
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Config holds the application configuration
type Config struct {
	Theme        Theme
	ThemePreset  ThemePreset
	HighContrast bool
	ShowLineNo   bool
	TabSize      int
	Spacing      SpacingOptions
	Keybindings  Keybindings
}

// ThemePreset describes a named theme configuration.
type ThemePreset string

const (
	PresetDefault  ThemePreset = "default"
	PresetSolarize ThemePreset = "solarized"
	PresetDracula  ThemePreset = "dracula"
)

// SpacingOptions controls the widths of the metadata columns.
type SpacingOptions struct {
	AuthorWidth     int
	AgeWidth        int
	LineNumberWidth int
}

// Keybindings maps semantic actions to one or more key sequences.
type Keybindings map[string][]string

// Theme defines the color scheme for the application
type Theme struct {
	HashFg       lipgloss.Color
	AuthorFg     lipgloss.Color
	AgeFg        lipgloss.Color
	LineNumberFg lipgloss.Color
	TextFg       lipgloss.Color
	BoundaryFg   lipgloss.Color
	CursorFg     lipgloss.Color
	CursorBg     lipgloss.Color
	BorderFg     lipgloss.Color
	TitleFg      lipgloss.Color
	TitleBg      lipgloss.Color
	HelpFg       lipgloss.Color
	NoticeFg     lipgloss.Color
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ThemePreset:  PresetDefault,
		Theme:        ThemeForPreset(PresetDefault, false),
		HighContrast: false,
		ShowLineNo:   true,
		TabSize:      4,
		Spacing:      DefaultSpacing(),
		Keybindings:  DefaultKeybindings(),
	}
}

// DefaultTheme returns the default color theme
func DefaultTheme() Theme {
	return Theme{
		HashFg:       lipgloss.Color("#D7AF5F"),
		AuthorFg:     lipgloss.Color("#87AFAF"),
		AgeFg:        lipgloss.Color("#8787AF"),
		LineNumberFg: lipgloss.Color("#666666"),
		TextFg:       lipgloss.Color("#B0B0B0"),
		BoundaryFg:   lipgloss.Color("#6C6C6C"),
		CursorFg:     lipgloss.Color("#FFFFFF"),
		CursorBg:     lipgloss.Color("#3A3A5F"),
		BorderFg:     lipgloss.Color("#3A3A3A"),
		TitleFg:      lipgloss.Color("#FFFFFF"),
		TitleBg:      lipgloss.Color("#5F5FAF"),
		HelpFg:       lipgloss.Color("#888888"),
		NoticeFg:     lipgloss.Color("#D78700"),
	}
}

// ThemeForPreset resolves a preset name to a concrete Theme, optionally
// applying a high-contrast variation. Unknown presets fall back to the
// default theme.
func ThemeForPreset(preset ThemePreset, highContrast bool) Theme {
	switch preset {
	case PresetSolarize:
		return applyContrast(Theme{
			HashFg:       lipgloss.Color("#B58900"),
			AuthorFg:     lipgloss.Color("#2AA198"),
			AgeFg:        lipgloss.Color("#6C71C4"),
			LineNumberFg: lipgloss.Color("#586E75"),
			TextFg:       lipgloss.Color("#93A1A1"),
			BoundaryFg:   lipgloss.Color("#586E75"),
			CursorFg:     lipgloss.Color("#FDF6E3"),
			CursorBg:     lipgloss.Color("#073642"),
			BorderFg:     lipgloss.Color("#657B83"),
			TitleFg:      lipgloss.Color("#EEE8D5"),
			TitleBg:      lipgloss.Color("#586E75"),
			HelpFg:       lipgloss.Color("#93A1A1"),
			NoticeFg:     lipgloss.Color("#CB4B16"),
		}, highContrast)
	case PresetDracula:
		return applyContrast(Theme{
			HashFg:       lipgloss.Color("#F1FA8C"),
			AuthorFg:     lipgloss.Color("#8BE9FD"),
			AgeFg:        lipgloss.Color("#BD93F9"),
			LineNumberFg: lipgloss.Color("#6272A4"),
			TextFg:       lipgloss.Color("#F8F8F2"),
			BoundaryFg:   lipgloss.Color("#6272A4"),
			CursorFg:     lipgloss.Color("#F8F8F2"),
			CursorBg:     lipgloss.Color("#44475A"),
			BorderFg:     lipgloss.Color("#44475A"),
			TitleFg:      lipgloss.Color("#F8F8F2"),
			TitleBg:      lipgloss.Color("#6272A4"),
			HelpFg:       lipgloss.Color("#BD93F9"),
			NoticeFg:     lipgloss.Color("#FFB86C"),
		}, highContrast)
	default:
		return applyContrast(DefaultTheme(), highContrast)
	}
}

// DefaultSpacing returns the default column width configuration.
func DefaultSpacing() SpacingOptions {
	return SpacingOptions{AuthorWidth: 12, AgeWidth: 6, LineNumberWidth: 4}
}

// DefaultKeybindings returns the built-in keybinding map.
func DefaultKeybindings() Keybindings {
	return Keybindings{
		"quit":           {"q", "esc", "ctrl+c"},
		"follow":         {"enter"},
		"back":           {"b"},
		"back_to_start":  {"B"},
		"cursor_up":      {"k", "up"},
		"cursor_down":    {"j", "down"},
		"page_up":        {"u"},
		"page_down":      {"d"},
		"go_top":         {"g"},
		"go_bottom":      {"G"},
		"toggle_help":    {"h", "?"},
		"toggle_history": {"l"},
		"yank":           {"y"},
	}
}

// MergeKeybindings overlays user overrides onto defaults.
func MergeKeybindings(overrides Keybindings) Keybindings {
	defaults := DefaultKeybindings()
	for action, keys := range overrides {
		if len(keys) == 0 {
			continue
		}
		defaults[action] = keys
	}
	return defaults
}

func applyContrast(theme Theme, highContrast bool) Theme {
	if !highContrast {
		return theme
	}

	return Theme{
		HashFg:       lighten(theme.HashFg, 0.25),
		AuthorFg:     lighten(theme.AuthorFg, 0.25),
		AgeFg:        lighten(theme.AgeFg, 0.25),
		LineNumberFg: lighten(theme.LineNumberFg, 0.2),
		TextFg:       lighten(theme.TextFg, 0.2),
		BoundaryFg:   lighten(theme.BoundaryFg, 0.2),
		CursorFg:     lighten(theme.CursorFg, 0.2),
		CursorBg:     lighten(theme.CursorBg, 0.15),
		BorderFg:     lighten(theme.BorderFg, 0.2),
		TitleFg:      lighten(theme.TitleFg, 0.2),
		TitleBg:      lighten(theme.TitleBg, 0.15),
		HelpFg:       lighten(theme.HelpFg, 0.2),
		NoticeFg:     lighten(theme.NoticeFg, 0.25),
	}
}

// lighten moves a hex color's lightness towards white by factor, leaving
// values it cannot parse untouched.
func lighten(c lipgloss.Color, factor float64) lipgloss.Color {
	parsed, err := colorful.Hex(string(c))
	if err != nil {
		return c
	}
	h, s, l := parsed.Hsl()
	l += (1 - l) * factor
	return lipgloss.Color(colorful.Hsl(h, s, l).Hex())
}
