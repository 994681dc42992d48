package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mangaread/pkg/app/components"
	"github.com/kerbaras/mangaread/pkg/app/styles"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/services"
)

const chaptersShown = 10

type DetailsScreen struct {
	svc             *Services
	mangaID         string
	manga           *data.Manga
	chapters        []*data.Chapter
	selectedChapter int
	progressTracker *components.ProgressTracker
	width           int
	height          int
	err             error
}

func NewDetailsScreen(svc *Services, mangaID string) *DetailsScreen {
	return &DetailsScreen{
		svc:             svc,
		mangaID:         mangaID,
		progressTracker: components.NewProgressTracker(80),
	}
}

func (s *DetailsScreen) Init() tea.Cmd {
	return s.loadDetails
}

func (s *DetailsScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.progressTracker.SetWidth(msg.Width - 4)

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.selectedChapter > 0 {
				s.selectedChapter--
			}
		case "down", "j":
			if s.selectedChapter < len(s.chapters)-1 {
				s.selectedChapter++
			}
		case "r":
			return s, s.loadDetails
		case "enter":
			if ch := s.selected(); ch != nil {
				target := OpenChapter{Manga: s.manga, ChapterID: ch.ID}
				return s, func() tea.Msg {
					return SwitchScreenMsg{Screen: screenReader, Data: target}
				}
			}
		case "d":
			if ch := s.selected(); ch != nil && !ch.Downloaded {
				return s, s.download(ch)
			}
		case "esc", "backspace":
			return s, func() tea.Msg {
				return SwitchScreenMsg{Screen: screenLibrary}
			}
		}

	case detailsLoadedMsg:
		s.manga = msg.manga
		s.chapters = msg.chapters
		s.err = msg.err
		s.selectedChapter = min(s.selectedChapter, max(len(s.chapters)-1, 0))

	case services.DownloadProgress:
		s.progressTracker.Update(msg)
		if msg.Status == services.StatusComplete && msg.ChapterID != "" {
			return s, s.loadDetails
		}

	case chapterDownloadedMsg:
		if msg.err != nil {
			s.err = msg.err
		}
		return s, s.loadDetails
	}

	return s, nil
}

func (s *DetailsScreen) selected() *data.Chapter {
	if s.manga == nil || s.selectedChapter >= len(s.chapters) {
		return nil
	}
	return s.chapters[s.selectedChapter]
}

func (s *DetailsScreen) View() string {
	if s.width == 0 || s.manga == nil {
		if s.err != nil {
			return styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err))
		}
		return "Loading..."
	}

	header := styles.TitleStyle.Render(fmt.Sprintf("📖 %s", s.manga.Name))

	var errorMsg string
	if s.err != nil {
		errorMsg = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err)) + "\n\n"
	}

	help := styles.HelpStyle.Render(
		"↑/k ↓/j: navigate • enter: read • d: download • r: refresh • esc: back • q: quit",
	)

	return fmt.Sprintf("%s\n\n%s%s\n%s\n%s\n%s",
		header,
		errorMsg,
		s.renderMangaInfo(),
		s.renderChaptersList(),
		s.progressTracker.View(),
		help,
	)
}

func (s *DetailsScreen) renderMangaInfo() string {
	status := styles.StatusStyle(s.manga.Status).Render(s.manga.Status)
	if s.manga.Status == "" {
		status = styles.MutedStyle.Render("Ready")
	}

	desc := []rune(s.manga.Description)
	if len(desc) > 200 {
		desc = append(desc[:197], []rune("...")...)
	}

	info := lipgloss.JoinVertical(
		lipgloss.Left,
		styles.TextStyle.Render(string(desc)),
		"",
		styles.MutedStyle.Render(fmt.Sprintf("Source: %s", s.manga.Source)),
		status,
	)
	return styles.CardStyle.Width(s.width - 4).Render(info)
}

// chapterWindow centers the visible chapter range on the selection.
func chapterWindow(selected, count int) (int, int) {
	if count <= chaptersShown {
		return 0, count
	}
	start := min(max(selected-chaptersShown/2, 0), count-chaptersShown)
	return start, start + chaptersShown
}

func (s *DetailsScreen) renderChaptersList() string {
	if len(s.chapters) == 0 {
		return styles.MutedStyle.Render("No chapters available")
	}

	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("Chapters (%d total):", len(s.chapters))))
	b.WriteString("\n\n")

	start, end := chapterWindow(s.selectedChapter, len(s.chapters))
	for i := start; i < end; i++ {
		ch := s.chapters[i]
		chapterText := fmt.Sprintf("Ch. %s", ch.Number)
		if ch.Volume != "" && ch.Volume != "0" {
			chapterText = fmt.Sprintf("Vol. %s, %s", ch.Volume, chapterText)
		}
		if ch.Title != "" {
			chapterText = fmt.Sprintf("%s: %s", chapterText, ch.Title)
		}

		statusIcon, statusColor := "○", styles.MutedStyle
		if ch.Downloaded {
			statusIcon, statusColor = "●", styles.StatusCompleted
		}

		line := fmt.Sprintf("%s %s", statusIcon, chapterText)
		if i == s.selectedChapter {
			line = styles.SelectedStyle.Render("› " + line)
		} else {
			line = statusColor.Render("  " + line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(s.chapters) > chaptersShown {
		b.WriteString("\n")
		b.WriteString(styles.MutedStyle.Render(
			fmt.Sprintf("Showing %d-%d of %d chapters", start+1, end, len(s.chapters)),
		))
	}
	return b.String()
}

type detailsLoadedMsg struct {
	manga    *data.Manga
	chapters []*data.Chapter
	err      error
}

type chapterDownloadedMsg struct {
	err error
}

func (s *DetailsScreen) loadDetails() tea.Msg {
	manga, err := s.svc.Controller.GetMangaFromLibrary(s.mangaID)
	if err != nil {
		return detailsLoadedMsg{err: err}
	}
	chapters, err := s.svc.Library.GetChapters(s.mangaID)
	if err != nil {
		return detailsLoadedMsg{manga: manga, err: err}
	}
	return detailsLoadedMsg{manga: manga, chapters: chapters}
}

func (s *DetailsScreen) download(ch *data.Chapter) tea.Cmd {
	manga := s.manga
	return func() tea.Msg {
		return chapterDownloadedMsg{err: s.svc.Controller.DownloadChapter(s.svc.ctx(), manga, ch)}
	}
}
