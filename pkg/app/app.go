package app

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kerbaras/mangaread/pkg/app/screens"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/reader"
	"github.com/kerbaras/mangaread/pkg/services"
)

type App struct {
	controller *services.MangaController
	library    *data.Repository
	reading    *services.ReadingBackend
	readerCfg  reader.Config
	language   string
	log        *slog.Logger
}

func NewApp(controller *services.MangaController, library *data.Repository, reading *services.ReadingBackend, readerCfg reader.Config, language string, log *slog.Logger) *App {
	return &App{
		controller: controller,
		library:    library,
		reading:    reading,
		readerCfg:  readerCfg,
		language:   language,
		log:        log,
	}
}

// Run blocks until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.run(ctx, a.root(ctx))
}

// Read starts the program straight on the reader for chapterID.
func (a *App) Read(ctx context.Context, manga *data.Manga, chapterID string) error {
	root := a.root(ctx)
	root.StartReading(screens.OpenChapter{Manga: manga, ChapterID: chapterID})
	return a.run(ctx, root)
}

func (a *App) root(ctx context.Context) *screens.RootScreen {
	return screens.NewRootScreen(&screens.Services{
		Context:    ctx,
		Controller: a.controller,
		Library:    a.library,
		Reading:    a.reading,
		Reader:     a.readerCfg,
		Language:   a.language,
		Log:        a.log,
	})
}

func (a *App) run(ctx context.Context, model tea.Model) error {
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	a.log.Info("tui stopped", slog.Any("error", err))
	return err
}
