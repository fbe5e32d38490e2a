package picker

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors used by the thread picker.
type Theme struct {
	Primary   lipgloss.Color // title, cursor
	Secondary lipgloss.Color // selected row
	Function  lipgloss.Color // function signatures
	Location  lipgloss.Color // file:line
	Library   lipgloss.Color // shared objects
	Text      lipgloss.Color
	TextMuted lipgloss.Color // hints, pruned-frame counts
	Elem      lipgloss.Color // selected row background
	Border    lipgloss.Color
}

// DarkTheme returns the default theme.
func DarkTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#fab283"),
		Secondary: lipgloss.Color("#5c9cf5"),
		Function:  lipgloss.Color("#7fd88f"),
		Location:  lipgloss.Color("#56b6c2"),
		Library:   lipgloss.Color("#9d7cd8"),
		Text:      lipgloss.Color("#eeeeee"),
		TextMuted: lipgloss.Color("#808080"),
		Elem:      lipgloss.Color("#1e1e1e"),
		Border:    lipgloss.Color("#484848"),
	}
}

// LightTheme returns a theme for bright terminal backgrounds.
func LightTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#b35c00"),
		Secondary: lipgloss.Color("#0550ae"),
		Function:  lipgloss.Color("#116329"),
		Location:  lipgloss.Color("#0969da"),
		Library:   lipgloss.Color("#6639ba"),
		Text:      lipgloss.Color("#1f2328"),
		TextMuted: lipgloss.Color("#656d76"),
		Elem:      lipgloss.Color("#f6f8fa"),
		Border:    lipgloss.Color("#d0d7de"),
	}
}

// ThemeByName returns a theme by name. Defaults to dark.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	default:
		return DarkTheme()
	}
}

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	selected lipgloss.Style
	text     lipgloss.Style
	function lipgloss.Style
	location lipgloss.Style
	library  lipgloss.Style
	dim      lipgloss.Style

	hintKey  lipgloss.Style
	hintDesc lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		header:   lipgloss.NewStyle().Foreground(t.Border),
		selected: lipgloss.NewStyle().Bold(true).Foreground(t.Secondary).Background(t.Elem),
		text:     lipgloss.NewStyle().Foreground(t.Text),
		function: lipgloss.NewStyle().Foreground(t.Function),
		location: lipgloss.NewStyle().Foreground(t.Location),
		library:  lipgloss.NewStyle().Foreground(t.Library),
		dim:      lipgloss.NewStyle().Foreground(t.TextMuted),

		hintKey:  lipgloss.NewStyle().Foreground(t.Text),
		hintDesc: lipgloss.NewStyle().Foreground(t.TextMuted),
	}
}
