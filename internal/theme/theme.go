package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/reminder/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// Styles shared by every view. Rebuilt by Apply.
var (
	// HeaderStyle is used for the application title bar.
	HeaderStyle lipgloss.Style

	// StatusBarStyle is used for the bottom status bar.
	StatusBarStyle lipgloss.Style

	// PanelStyle wraps overlays such as help and forms.
	PanelStyle lipgloss.Style

	ListItemStyle     lipgloss.Style
	SelectedItemStyle lipgloss.Style

	// HelpStyle is used for keyboard hints and secondary text.
	HelpStyle lipgloss.Style

	// SeenStyle dims rows the user already looked at.
	SeenStyle lipgloss.Style

	// UpdatedBadgeStyle marks rows changed after the account's last read.
	UpdatedBadgeStyle lipgloss.Style

	SectionStyle            lipgloss.Style
	HighlightedSectionStyle lipgloss.Style

	ErrorStyle lipgloss.Style

	TabStyle       lipgloss.Style
	ActiveTabStyle lipgloss.Style
)

// Names lists the selectable themes.
var Names = []string{"default", "mono"}

func init() {
	build()
}

// Apply switches to the named theme.
func Apply(name string) error {
	switch name {
	case "", "default":
		ColorBlue = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
		ColorGreen = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
		ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
		ColorRed = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
		ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
		ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	case "mono":
		// Everything but gray collapses onto the foreground color.
		ColorBlue = ColorWhite
		ColorGreen = ColorWhite
		ColorYellow = ColorWhite
		ColorRed = ColorWhite
		ColorOrange = ColorWhite
		ColorMagenta = ColorWhite
	default:
		return fmt.Errorf("unknown theme %q", name)
	}
	build()
	return nil
}

func build() {
	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWhite).
		Background(ColorBlue).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(ColorWhite).
		Background(ColorSubtle).
		Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	ListItemStyle = lipgloss.NewStyle().
		PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(ColorBlue).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(ColorBlue)

	HelpStyle = lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true)

	SeenStyle = lipgloss.NewStyle().
		Foreground(ColorGray).
		Faint(true)

	UpdatedBadgeStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorOrange)

	SectionStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWhite).
		MarginTop(1)

	HighlightedSectionStyle = SectionStyle.
		Foreground(ColorYellow).
		Underline(true)

	ErrorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorRed)

	TabStyle = lipgloss.NewStyle().
		Foreground(ColorGray).
		Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWhite).
		Background(ColorSubtle).
		Padding(0, 1)
}

// ReasonStyle returns a color-coded style for a notification reason.
func ReasonStyle(r model.Reason) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch r {
	case model.ReasonReviewRequested:
		return base.Foreground(ColorMagenta)
	case model.ReasonMention:
		return base.Foreground(ColorYellow)
	case model.ReasonReview:
		return base.Foreground(ColorGreen)
	case model.ReasonSubscribed:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}
