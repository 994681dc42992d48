package screens

import (
	"context"
	"log/slog"

	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/reader"
	"github.com/kerbaras/mangaread/pkg/services"
)

// LibraryStore is the read side of the local library.
type LibraryStore interface {
	GetChapters(mangaID string) ([]*data.Chapter, error)
	GetMangaWithChapterCount(mangaID string) (*data.Manga, int, int, error)
}

// Services bundles what the screens talk to.
type Services struct {
	Context    context.Context
	Controller *services.MangaController
	Library    LibraryStore
	Reading    *services.ReadingBackend
	Reader     reader.Config
	Language   string
	Log        *slog.Logger
}

func (s *Services) ctx() context.Context {
	if s.Context == nil {
		return context.Background()
	}
	return s.Context
}

const (
	screenLibrary = "library"
	screenSearch  = "search"
	screenDetails = "details"
	screenReader  = "reader"
)

// SwitchScreenMsg asks the root screen to change view. Data carries the
// manga id for details, or an OpenChapter for the reader.
type SwitchScreenMsg struct {
	Screen string
	Data   any
}

// OpenChapter is the reader target.
type OpenChapter struct {
	Manga     *data.Manga
	ChapterID string
}
