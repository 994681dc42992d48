package screens

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mangaread/pkg/app/styles"
	"github.com/kerbaras/mangaread/pkg/data"
)

type SearchScreen struct {
	svc      *Services
	input    textinput.Model
	spinner  spinner.Model
	results  []*data.Manga
	selected int
	busy     bool
	width    int
	height   int
	err      error
}

func NewSearchScreen(svc *Services) *SearchScreen {
	ti := textinput.New()
	ti.Placeholder = "Search manga..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StatusDownloading

	return &SearchScreen{
		svc:     svc,
		input:   ti,
		spinner: sp,
	}
}

func (s *SearchScreen) Init() tea.Cmd {
	return textinput.Blink
}

func (s *SearchScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height

	case spinner.TickMsg:
		if !s.busy {
			return s, nil
		}
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}

		switch msg.String() {
		case "enter":
			if s.input.Focused() {
				if query := strings.TrimSpace(s.input.Value()); query != "" {
					s.busy = true
					return s, tea.Batch(s.performSearch(query), s.spinner.Tick)
				}
			} else if len(s.results) > 0 {
				s.busy = true
				return s, tea.Batch(s.addToLibrary(s.results[s.selected]), s.spinner.Tick)
			}
			return s, nil

		case "esc":
			if s.input.Focused() {
				s.input.Blur()
			} else {
				s.input.Focus()
				cmd = textinput.Blink
			}
			return s, cmd

		case "up", "k":
			if !s.input.Focused() && len(s.results) > 0 {
				s.selected = (s.selected - 1 + len(s.results)) % len(s.results)
				return s, nil
			}

		case "down", "j":
			if !s.input.Focused() && len(s.results) > 0 {
				s.selected = (s.selected + 1) % len(s.results)
				return s, nil
			}
		}

	case searchResultMsg:
		s.busy = false
		s.results = msg.results
		s.selected = 0
		s.err = msg.err
		if len(s.results) > 0 {
			s.input.Blur()
		}
		return s, nil

	case mangaAddedMsg:
		s.busy = false
		if msg.err != nil {
			s.err = msg.err
			return s, nil
		}
		id := msg.mangaID
		return s, func() tea.Msg {
			return SwitchScreenMsg{Screen: screenDetails, Data: id}
		}
	}

	if s.input.Focused() {
		s.input, cmd = s.input.Update(msg)
	}
	return s, cmd
}

func (s *SearchScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}

	header := styles.TitleStyle.Render("🔍 Search Manga")
	inputView := styles.FocusedInputStyle.Render(s.input.View())
	if !s.input.Focused() {
		inputView = styles.CardStyle.Padding(0, 1).MarginBottom(0).Render(s.input.View())
	}

	var errorMsg string
	if s.err != nil {
		errorMsg = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err)) + "\n\n"
	}

	var resultsView string
	switch {
	case s.busy:
		resultsView = s.spinner.View() + styles.StatusDownloading.Render(" Working...")
	case len(s.results) > 0:
		resultsView = s.renderResults()
	case s.input.Value() != "":
		resultsView = styles.MutedStyle.Render("No results found")
	}

	help := styles.HelpStyle.Render(
		"enter: search/add to library • esc: switch focus • ↑/k ↓/j: navigate • tab: switch view • q: quit",
	)

	return fmt.Sprintf("%s\n\n%s\n\n%s%s\n\n%s", header, inputView, errorMsg, resultsView, help)
}

func (s *SearchScreen) renderResults() string {
	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("Found %d results:", len(s.results))))
	b.WriteString("\n\n")

	for i, manga := range s.results {
		cardStyle := styles.CardStyle
		if i == s.selected && !s.input.Focused() {
			cardStyle = styles.ActiveCardStyle
		}

		desc := []rune(manga.Description)
		if len(desc) > 120 {
			desc = append(desc[:117], []rune("...")...)
		}

		cardContent := lipgloss.JoinVertical(
			lipgloss.Left,
			styles.TitleStyle.Render(manga.Name),
			styles.TextStyle.Render(string(desc)),
			styles.MutedStyle.Render(fmt.Sprintf("Source: %s • ID: %s", manga.Source, manga.ID)),
		)
		b.WriteString(cardStyle.Width(s.width - 6).Render(cardContent))
		b.WriteString("\n")
	}
	return b.String()
}

type searchResultMsg struct {
	results []*data.Manga
	err     error
}

type mangaAddedMsg struct {
	mangaID string
	err     error
}

func (s *SearchScreen) performSearch(query string) tea.Cmd {
	return func() tea.Msg {
		results, err := s.svc.Controller.SearchManga(s.svc.ctx(), query)
		return searchResultMsg{results: results, err: err}
	}
}

func (s *SearchScreen) addToLibrary(manga *data.Manga) tea.Cmd {
	return func() tea.Msg {
		err := s.svc.Controller.AddMangaToLibrary(s.svc.ctx(), manga)
		return mangaAddedMsg{mangaID: manga.ID, err: err}
	}
}
