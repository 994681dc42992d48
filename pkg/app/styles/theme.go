package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mangaread/pkg/reader"
)

var (
	// Color palette
	Primary    = lipgloss.Color("#FF6B9D")
	Secondary  = lipgloss.Color("#C792EA")
	Success    = lipgloss.Color("#C3E88D")
	Warning    = lipgloss.Color("#FFCB6B")
	Error      = lipgloss.Color("#F07178")
	Info       = lipgloss.Color("#82AAFF")
	Muted      = lipgloss.Color("#546E7A")
	Background = lipgloss.Color("#263238")
	Foreground = lipgloss.Color("#EEFFFF")

	RoundedBorder = lipgloss.RoundedBorder()
	ThickBorder   = lipgloss.ThickBorder()
)

var (
	TitleStyle = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true).
		MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(Secondary).
		Italic(true)

	TextStyle = lipgloss.NewStyle().
		Foreground(Foreground)

	MutedStyle = lipgloss.NewStyle().
		Foreground(Muted)

	SelectedStyle = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	CardStyle = lipgloss.NewStyle().
		Border(RoundedBorder).
		BorderForeground(Secondary).
		Padding(1, 2).
		MarginBottom(1)

	ActiveCardStyle = lipgloss.NewStyle().
		Border(ThickBorder).
		BorderForeground(Primary).
		Padding(1, 2).
		MarginBottom(1)

	StatusDownloading = lipgloss.NewStyle().
		Foreground(Info).
		Bold(true)

	StatusCompleted = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	StatusError = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	ProgressBarStyle = lipgloss.NewStyle().
		Foreground(Primary)

	ActiveTabStyle = lipgloss.NewStyle().
		Foreground(Primary).
		Background(lipgloss.Color("#37474F")).
		Padding(0, 2).
		Bold(true)

	InactiveTabStyle = lipgloss.NewStyle().
		Foreground(Muted).
		Padding(0, 2)

	HelpStyle = lipgloss.NewStyle().
		Foreground(Muted).
		Italic(true).
		MarginTop(1)

	FocusedInputStyle = lipgloss.NewStyle().
		Border(RoundedBorder).
		BorderForeground(Primary).
		Padding(0, 1)

	// Reader
	PageFrameStyle = lipgloss.NewStyle().
		Border(RoundedBorder).
		BorderForeground(Secondary)

	WarningStyle = lipgloss.NewStyle().
		Foreground(Warning).
		Bold(true)
)

func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "downloading", "processing":
		return StatusDownloading
	case "completed", "complete":
		return StatusCompleted
	case "error", "partial":
		return StatusError
	default:
		return MutedStyle
	}
}

// PageStateStyle colors a page cell of the reader strip.
func PageStateStyle(state reader.PageState) lipgloss.Style {
	switch state {
	case reader.Loading:
		return StatusDownloading
	case reader.Loaded:
		return StatusCompleted
	case reader.Failed:
		return StatusError
	default:
		return MutedStyle
	}
}
