package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mangaread/pkg/app/styles"
	"github.com/kerbaras/mangaread/pkg/data"
)

// cardHeight is the rendered height of one library card including margins.
const cardHeight = 10

type MangaListItem struct {
	Manga           *data.Manga
	ChapterCount    int
	DownloadedCount int
}

// MangaList is the scrollable card list of the library screen.
type MangaList struct {
	Items         []MangaListItem
	SelectedIndex int
	Width         int
	Height        int
}

func NewMangaList() *MangaList {
	return &MangaList{
		Items:  []MangaListItem{},
		Width:  80,
		Height: 20,
	}
}

// SetItems replaces the list, keeping the selection in range.
func (m *MangaList) SetItems(items []MangaListItem) {
	m.Items = items
	m.SelectedIndex = min(m.SelectedIndex, max(len(items)-1, 0))
}

func (m *MangaList) Next() {
	if len(m.Items) == 0 {
		return
	}
	m.SelectedIndex = (m.SelectedIndex + 1) % len(m.Items)
}

func (m *MangaList) Prev() {
	if len(m.Items) == 0 {
		return
	}
	m.SelectedIndex = (m.SelectedIndex - 1 + len(m.Items)) % len(m.Items)
}

func (m *MangaList) Selected() *MangaListItem {
	if len(m.Items) == 0 || m.SelectedIndex >= len(m.Items) {
		return nil
	}
	return &m.Items[m.SelectedIndex]
}

// visible returns the half-open range of items that fit in Height while
// keeping the selection on screen.
func (m *MangaList) visible() (int, int) {
	fit := max(m.Height/cardHeight, 1)
	start := max(m.SelectedIndex-fit+1, 0)
	end := min(start+fit, len(m.Items))
	return start, end
}

func (m *MangaList) View() string {
	if len(m.Items) == 0 {
		emptyMsg := styles.MutedStyle.Render("No manga in library. Press tab to search.")
		return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, emptyMsg)
	}

	var b strings.Builder
	start, end := m.visible()
	for i := start; i < end; i++ {
		b.WriteString(m.renderCard(m.Items[i], i == m.SelectedIndex))
		b.WriteString("\n")
	}
	if end-start < len(m.Items) {
		b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("%d-%d of %d", start+1, end, len(m.Items))))
	}
	return b.String()
}

func (m *MangaList) renderCard(item MangaListItem, selected bool) string {
	cardStyle := styles.CardStyle
	if selected {
		cardStyle = styles.ActiveCardStyle
	}

	statusText := fmt.Sprintf("Status: %s", item.Manga.Status)
	if item.Manga.Status == "" {
		statusText = "Status: Ready"
	}

	cardContent := lipgloss.JoinVertical(
		lipgloss.Left,
		styles.TitleStyle.Render(item.Manga.Name),
		styles.TextStyle.Render(truncate(item.Manga.Description, 80)),
		"",
		styles.MutedStyle.Render(fmt.Sprintf("Chapters: %d / %d downloaded", item.DownloadedCount, item.ChapterCount)),
		styles.StatusStyle(item.Manga.Status).Render(statusText),
		styles.MutedStyle.Render(fmt.Sprintf("Source: %s", item.Manga.Source)),
	)
	return cardStyle.Width(m.Width - 4).Render(cardContent)
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
