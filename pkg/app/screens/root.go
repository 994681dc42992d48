package screens

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mangaread/pkg/app/styles"
	"github.com/kerbaras/mangaread/pkg/services"
)

type screenType int

const (
	libraryView screenType = iota
	searchView
	detailsView
	readerView
)

type RootScreen struct {
	svc *Services

	currentView screenType
	library     *LibraryScreen
	search      *SearchScreen
	details     *DetailsScreen
	reader      *ReaderScreen
	start       *OpenChapter

	width  int
	height int
}

func NewRootScreen(svc *Services) *RootScreen {
	return &RootScreen{
		svc:         svc,
		currentView: libraryView,
		library:     NewLibraryScreen(svc),
		search:      NewSearchScreen(svc),
	}
}

// StartReading makes the program open target right away instead of the
// library.
func (r *RootScreen) StartReading(target OpenChapter) {
	r.start = &target
}

func (r *RootScreen) Init() tea.Cmd {
	cmds := []tea.Cmd{r.library.Init(), r.listenForProgress}
	if r.start != nil {
		target := *r.start
		cmds = append(cmds, func() tea.Msg {
			return SwitchScreenMsg{Screen: screenReader, Data: target}
		})
	}
	return tea.Batch(cmds...)
}

// listenForProgress is the single consumer of the download progress
// channel. Events are routed to the details screen when it is open.
func (r *RootScreen) listenForProgress() tea.Msg {
	p, ok := <-r.svc.Controller.GetProgressChannel()
	if !ok {
		return nil
	}
	return p
}

func (r *RootScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height
		r.broadcast(msg)
		return r, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			r.closeReader()
			return r, tea.Quit
		case "q":
			if r.currentView != searchView {
				r.closeReader()
				return r, tea.Quit
			}
		case "tab":
			if r.currentView == detailsView || r.currentView == readerView {
				break
			}
			if r.currentView == libraryView {
				r.currentView = searchView
				return r, r.search.Init()
			}
			r.currentView = libraryView
			return r, r.library.Init()
		}

	case services.DownloadProgress:
		if r.details != nil {
			r.details.Update(msg)
		}
		return r, r.listenForProgress

	case readerOpenedMsg:
		// the owning screen closes readers that arrive too late
		_, cmd = msg.screen.Update(msg)
		return r, cmd

	case SwitchScreenMsg:
		return r, r.switchTo(msg)
	}

	switch r.currentView {
	case libraryView:
		_, cmd = r.library.Update(msg)
	case searchView:
		_, cmd = r.search.Update(msg)
	case detailsView:
		if r.details != nil {
			_, cmd = r.details.Update(msg)
		}
	case readerView:
		if r.reader != nil {
			_, cmd = r.reader.Update(msg)
		}
	}
	return r, cmd
}

func (r *RootScreen) switchTo(msg SwitchScreenMsg) tea.Cmd {
	size := tea.WindowSizeMsg{Width: r.width, Height: r.height}

	switch msg.Screen {
	case screenLibrary:
		r.currentView = libraryView
		return r.library.Init()
	case screenSearch:
		r.currentView = searchView
		return r.search.Init()
	case screenDetails:
		mangaID, ok := msg.Data.(string)
		if !ok {
			return nil
		}
		r.closeReader()
		r.details = NewDetailsScreen(r.svc, mangaID)
		r.details.Update(size)
		r.currentView = detailsView
		return r.details.Init()
	case screenReader:
		target, ok := msg.Data.(OpenChapter)
		if !ok {
			return nil
		}
		r.closeReader()
		r.reader = NewReaderScreen(r.svc, target)
		r.reader.Update(size)
		r.currentView = readerView
		return r.reader.Init()
	}
	return nil
}

func (r *RootScreen) closeReader() {
	if r.reader != nil {
		r.reader.Close()
		r.reader = nil
	}
}

// broadcast resizes every live screen, not only the visible one.
func (r *RootScreen) broadcast(msg tea.WindowSizeMsg) {
	r.library.Update(msg)
	r.search.Update(msg)
	if r.details != nil {
		r.details.Update(msg)
	}
	if r.reader != nil {
		r.reader.Update(msg)
	}
}

func (r *RootScreen) View() string {
	var content string
	switch r.currentView {
	case libraryView:
		content = r.library.View()
	case searchView:
		content = r.search.View()
	case detailsView:
		if r.details != nil {
			content = r.details.View()
		}
	case readerView:
		if r.reader != nil {
			content = r.reader.View()
		}
	}

	if tabs := r.renderTabs(); tabs != "" {
		return fmt.Sprintf("%s\n\n%s", tabs, content)
	}
	return content
}

func (r *RootScreen) renderTabs() string {
	if r.currentView != libraryView && r.currentView != searchView {
		return ""
	}

	libraryTab := styles.InactiveTabStyle.Render("Library")
	searchTab := styles.InactiveTabStyle.Render("Search")
	if r.currentView == libraryView {
		libraryTab = styles.ActiveTabStyle.Render("Library")
	} else {
		searchTab = styles.ActiveTabStyle.Render("Search")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, libraryTab, searchTab)
}
