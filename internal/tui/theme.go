package tui

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/verte-zerg/keysprint/internal/model"
)

// Theme is a color scheme for the typing screen.
type Theme struct {
	Name      string
	Correct   string // Typed correctly
	Completed string // Words finished without mistakes
	Incorrect string // Typed incorrectly
	Pending   string // Not typed yet
	Current   string // Untyped part of the active word
	Accent    string // Timer, titles
	Label     string // Footer, help
}

// Themes are the built-in color schemes.
var Themes = map[string]Theme{
	"default": {
		Name:      "Default",
		Correct:   "#F0F0F0",
		Completed: "#BFBFBF",
		Incorrect: "#FF4D4F",
		Pending:   "#8C8C8C",
		Current:   "#C89A3A",
		Accent:    "#C89A3A",
		Label:     "#6E6E6E",
	},
	"gruvbox": {
		Name:      "Gruvbox",
		Correct:   "#ebdbb2",
		Completed: "#98971a",
		Incorrect: "#cc241d",
		Pending:   "#a89984",
		Current:   "#d65d0e",
		Accent:    "#d65d0e",
		Label:     "#928374",
	},
	"tokyonight": {
		Name:      "Tokyo Night",
		Correct:   "#c0caf5",
		Completed: "#9ece6a",
		Incorrect: "#f7768e",
		Pending:   "#565f89",
		Current:   "#7aa2f7",
		Accent:    "#bb9af7",
		Label:     "#565f89",
	},
	"catppuccin": {
		Name:      "Catppuccin",
		Correct:   "#cdd6f4",
		Completed: "#a6e3a1",
		Incorrect: "#f38ba8",
		Pending:   "#9399b2",
		Current:   "#cba6f7",
		Accent:    "#f5c2e7",
		Label:     "#6c7086",
	},
	"nord": {
		Name:      "Nord",
		Correct:   "#eceff4",
		Completed: "#a3be8c",
		Incorrect: "#bf616a",
		Pending:   "#4c566a",
		Current:   "#88c0d0",
		Accent:    "#81a1c1",
		Label:     "#616e88",
	},
	"dracula": {
		Name:      "Dracula",
		Correct:   "#f8f8f2",
		Completed: "#50fa7b",
		Incorrect: "#ff5555",
		Pending:   "#6272a4",
		Current:   "#bd93f9",
		Accent:    "#ff79c6",
		Label:     "#6272a4",
	},
}

// ThemeNames returns the built-in theme keys in cycle order.
func ThemeNames() []string {
	names := make([]string, 0, len(Themes))
	for name := range Themes {
		if name != model.DefaultTheme {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{model.DefaultTheme}, names...)
}

// MatchThemes returns theme keys matching query, best match first. An empty
// query returns every theme.
func MatchThemes(query string) []string {
	names := ThemeNames()
	if query == "" {
		return names
	}
	matches := fuzzy.Find(query, names)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return out
}

// ResolveTheme returns the theme key for name: the exact key, else the best
// fuzzy match, else the default. exact is false when name was not a key.
func ResolveTheme(name string) (key string, exact bool) {
	if _, ok := Themes[name]; ok {
		return name, true
	}
	if name != "" {
		if matches := MatchThemes(name); len(matches) > 0 {
			return matches[0], false
		}
	}
	return model.DefaultTheme, false
}

// NextTheme returns the theme after key in cycle order.
func NextTheme(key string) string {
	names := ThemeNames()
	for i, name := range names {
		if name == key {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

type styles struct {
	correct   lipgloss.Style
	completed lipgloss.Style
	incorrect lipgloss.Style
	pending   lipgloss.Style
	current   lipgloss.Style
	accent    lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	box       lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		correct:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Correct)),
		completed: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Completed)),
		incorrect: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Incorrect)),
		pending:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Pending)),
		current:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Current)),
		accent:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Accent)),
		label:     lipgloss.NewStyle().Foreground(lipgloss.Color(t.Label)),
		value:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Correct)),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Accent)).
			Padding(1, 3),
	}
}
