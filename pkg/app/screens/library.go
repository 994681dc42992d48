package screens

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kerbaras/mangaread/pkg/app/components"
	"github.com/kerbaras/mangaread/pkg/app/styles"
)

type LibraryScreen struct {
	svc       *Services
	mangaList *components.MangaList
	width     int
	height    int
	err       error
}

func NewLibraryScreen(svc *Services) *LibraryScreen {
	return &LibraryScreen{
		svc:       svc,
		mangaList: components.NewMangaList(),
	}
}

func (s *LibraryScreen) Init() tea.Cmd {
	return s.loadLibrary
}

func (s *LibraryScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.mangaList.Width = msg.Width - 4
		s.mangaList.Height = msg.Height - 10

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			s.mangaList.Prev()
		case "down", "j":
			s.mangaList.Next()
		case "r":
			return s, s.loadLibrary
		case "d":
			if selected := s.mangaList.Selected(); selected != nil {
				return s, s.deleteManga(selected.Manga.ID)
			}
		case "enter":
			if selected := s.mangaList.Selected(); selected != nil {
				id := selected.Manga.ID
				return s, func() tea.Msg {
					return SwitchScreenMsg{Screen: screenDetails, Data: id}
				}
			}
		}

	case libraryLoadedMsg:
		s.mangaList.SetItems(msg.items)
		s.err = msg.err

	case mangaDeletedMsg:
		s.err = msg.err
		return s, s.loadLibrary
	}

	return s, nil
}

func (s *LibraryScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}

	header := styles.TitleStyle.Render("📚 Manga Library")

	var errorMsg string
	if s.err != nil {
		errorMsg = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err)) + "\n\n"
	}

	help := styles.HelpStyle.Render(
		"↑/k: up • ↓/j: down • enter: details • d: delete • r: refresh • tab: switch view • q: quit",
	)

	return fmt.Sprintf("%s\n\n%s%s\n%s", header, errorMsg, s.mangaList.View(), help)
}

type libraryLoadedMsg struct {
	items []components.MangaListItem
	err   error
}

type mangaDeletedMsg struct {
	err error
}

func (s *LibraryScreen) loadLibrary() tea.Msg {
	mangas, err := s.svc.Controller.ListLibrary()
	if err != nil {
		return libraryLoadedMsg{err: err}
	}

	items := make([]components.MangaListItem, len(mangas))
	for i, manga := range mangas {
		items[i] = components.MangaListItem{Manga: manga}
		if _, total, downloaded, err := s.svc.Library.GetMangaWithChapterCount(manga.ID); err == nil {
			items[i].ChapterCount = total
			items[i].DownloadedCount = downloaded
		}
	}
	return libraryLoadedMsg{items: items}
}

func (s *LibraryScreen) deleteManga(mangaID string) tea.Cmd {
	return func() tea.Msg {
		return mangaDeletedMsg{err: s.svc.Controller.RemoveFromLibrary(mangaID)}
	}
}
