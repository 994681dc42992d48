package screens

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mangaread/pkg/app/components"
	"github.com/kerbaras/mangaread/pkg/app/styles"
	"github.com/kerbaras/mangaread/pkg/catalog"
	"github.com/kerbaras/mangaread/pkg/imaging"
	"github.com/kerbaras/mangaread/pkg/reader"
)

const pollInterval = 50 * time.Millisecond

// Both messages carry the screen they belong to so results that arrive
// after the user left are not picked up by a newer reader screen.
type pollMsg struct {
	screen *ReaderScreen
}

type readerOpenedMsg struct {
	screen *ReaderScreen
	reader *reader.Reader
	err    error
}

type frameKey struct {
	chapterID  string
	page       int
	cols, rows int
}

// ReaderScreen drives a reader.Reader. Background results are applied on
// every poll tick, so navigation keys never wait on the network.
type ReaderScreen struct {
	svc     *Services
	target  OpenChapter
	reader  *reader.Reader
	strip   *components.PageStrip
	spinner spinner.Model

	frame    string
	frameFor frameKey

	width  int
	height int
	closed bool
	err    error
}

func NewReaderScreen(svc *Services, target OpenChapter) *ReaderScreen {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.StatusDownloading

	return &ReaderScreen{
		svc:     svc,
		target:  target,
		strip:   components.NewPageStrip(80),
		spinner: sp,
	}
}

func (s *ReaderScreen) Init() tea.Cmd {
	return tea.Batch(s.open, s.spinner.Tick)
}

func (s *ReaderScreen) open() tea.Msg {
	r, err := s.svc.Reading.OpenReader(s.svc.ctx(), s.svc.Reader, s.target.Manga, s.target.ChapterID, s.svc.Language)
	return readerOpenedMsg{screen: s, reader: r, err: err}
}

func (s *ReaderScreen) poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{screen: s} })
}

func (s *ReaderScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.strip.Width = msg.Width - 4

	case readerOpenedMsg:
		if msg.screen != s {
			return s, nil
		}
		if msg.err != nil {
			s.err = msg.err
			return s, nil
		}
		if s.closed {
			msg.reader.Close()
			return s, nil
		}
		s.reader = msg.reader
		return s, s.poll()

	case pollMsg:
		if msg.screen != s || s.reader == nil {
			return s, nil
		}
		s.reader.Poll()
		return s, s.poll()

	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		return s, s.handleKey(msg.String())
	}

	return s, nil
}

func (s *ReaderScreen) handleKey(key string) tea.Cmd {
	if key == "esc" || key == "backspace" {
		s.Close()
		id := s.target.Manga.ID
		return func() tea.Msg {
			return SwitchScreenMsg{Screen: screenDetails, Data: id}
		}
	}
	if s.reader == nil {
		return nil
	}

	switch key {
	case "right", "l", "j", " ":
		s.reader.NextPage()
	case "left", "h", "k":
		s.reader.PreviousPage()
	case "n":
		s.reader.NextChapter()
	case "p":
		s.reader.PreviousChapter()
	case "g":
		s.reader.GoToPage(0)
	case "G":
		s.reader.GoToPage(s.reader.PageCount() - 1)
	case "r":
		s.reader.ReloadCurrentPage()
	case "b":
		s.reader.BookmarkCurrent()
	}
	return nil
}

// Close stops the reader and its in-flight fetches.
func (s *ReaderScreen) Close() {
	s.closed = true
	if s.reader != nil {
		s.reader.Close()
		s.reader = nil
	}
}

func (s *ReaderScreen) View() string {
	if s.err != nil {
		return styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err)) + "\n\n" +
			styles.HelpStyle.Render("esc: back")
	}
	if s.reader == nil || s.width == 0 {
		return s.spinner.View() + " Opening chapter..."
	}

	ch := s.reader.Chapter()
	header := styles.TitleStyle.Render(chapterHeading(ch))
	status := styles.MutedStyle.Render(s.reader.State().String())
	switch s.reader.State() {
	case reader.SearchingChapter:
		status = s.spinner.View() + " " + styles.StatusDownloading.Render("searching chapter")
	case reader.ChapterNotFound:
		status = styles.WarningStyle.Render("no more chapters in that direction")
	case reader.ErrorSearchingChapter:
		status = styles.StatusError.Render("could not load the chapter")
	case reader.ManualBookmark:
		status = styles.StatusCompleted.Render("bookmarked")
	}
	if err := s.reader.Err(); err != nil && s.reader.State() != reader.ManualBookmark {
		status += "  " + styles.StatusError.Render(err.Error())
	}

	strip := s.strip.View(s.reader.Pages(), s.reader.CurrentIndex())

	help := styles.HelpStyle.Render(
		"←/h →/l: page • n/p: chapter • g/G: first/last • r: reload • b: bookmark • esc: back",
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, status, "", s.renderPage(), strip, help)
}

func (s *ReaderScreen) renderPage() string {
	cols := max(s.width-4, 1)
	rows := max(s.height-12, 1)

	page, ok := s.reader.Page(s.reader.CurrentIndex())
	var body string
	switch {
	case !ok:
		body = styles.MutedStyle.Render("this chapter has no pages")
	case page.State == reader.Loaded:
		key := frameKey{chapterID: s.reader.Chapter().ID, page: page.Index, cols: cols, rows: rows}
		if key != s.frameFor {
			s.frame = imaging.HalfBlocks(page.Image, cols, rows)
			s.frameFor = key
		}
		body = s.frame
	case page.State == reader.Failed:
		body = styles.StatusError.Render(fmt.Sprintf("page %d failed: %v", page.Index+1, page.Err)) +
			"\n" + styles.MutedStyle.Render("press r to retry")
	default:
		body = s.spinner.View() + " " + styles.MutedStyle.Render(fmt.Sprintf("loading page %d", page.Index+1))
	}

	return styles.PageFrameStyle.Width(cols).Height(rows).Render(body)
}

func chapterHeading(ch reader.Chapter) string {
	heading := fmt.Sprintf("Ch. %s", ch.Number)
	if ch.Volume != "" && ch.Volume != catalog.NoVolume {
		heading = fmt.Sprintf("Vol. %s, %s", ch.Volume, heading)
	}
	if ch.Title != "" {
		heading += ": " + ch.Title
	}
	return heading
}
