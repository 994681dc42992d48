package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/kerbaras/mangaread/pkg/catalog"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/imaging"
	"github.com/kerbaras/mangaread/pkg/reader"
	"github.com/kerbaras/mangaread/pkg/sources"
)

// BookmarkStore persists the page a chapter was left at.
type BookmarkStore interface {
	SaveBookmark(ctx context.Context, b *data.Bookmark) error
	GetBookmark(ctx context.Context, chapterID string) (*data.Bookmark, error)
}

// ReadingBackend adapts a source and a bookmark store to the capabilities
// the reader consumes.
type ReadingBackend struct {
	source    sources.Source
	bookmarks BookmarkStore
	log       *slog.Logger

	mu     sync.Mutex
	mangas map[string]string // chapter id -> manga id
}

// NewReadingBackend builds a backend. bookmarks may be nil.
func NewReadingBackend(source sources.Source, bookmarks BookmarkStore, log *slog.Logger) *ReadingBackend {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ReadingBackend{source: source, bookmarks: bookmarks, log: log, mangas: map[string]string{}}
}

func (b *ReadingBackend) FetchPage(ctx context.Context, url string) ([]byte, error) {
	return b.source.FetchImage(ctx, url)
}

// FetchChapter resolves a chapter and restores its bookmarked page.
func (b *ReadingBackend) FetchChapter(ctx context.Context, id string) (*reader.Chapter, error) {
	ch, err := b.source.GetChapter(ctx, id)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	if ch.MangaID != "" {
		b.mangas[ch.ID] = ch.MangaID
	}
	b.mu.Unlock()

	if b.bookmarks != nil {
		bm, err := b.bookmarks.GetBookmark(ctx, id)
		switch {
		case err != nil:
			b.log.Warn("failed to read bookmark", slog.String("chapter_id", id), slog.Any("error", err))
		case bm != nil:
			ch.BookmarkedPage = bm.Page
		}
	}
	return ch, nil
}

func (b *ReadingBackend) Bookmark(ctx context.Context, chapterID string, page int) error {
	if b.bookmarks == nil {
		return reader.ErrNoBookmarker
	}
	b.mu.Lock()
	mangaID := b.mangas[chapterID]
	b.mu.Unlock()
	return b.bookmarks.SaveBookmark(ctx, &data.Bookmark{ChapterID: chapterID, MangaID: mangaID, Page: page})
}

// Catalog lists the manga's chapters in language as a navigation catalog.
func (b *ReadingBackend) Catalog(ctx context.Context, manga *data.Manga, language string) (*catalog.Catalog, error) {
	chapters, err := b.source.GetChapters(ctx, manga, language)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	entries := make([]catalog.Entry, len(chapters))
	for i, ch := range chapters {
		entries[i] = catalog.Entry{ID: ch.ID, Number: ch.Number, Volume: ch.Volume}
	}
	return catalog.New(entries), nil
}

// OpenReader resolves chapterID and its catalog and starts a reader on it.
func (b *ReadingBackend) OpenReader(ctx context.Context, cfg reader.Config, manga *data.Manga, chapterID, language string) (*reader.Reader, error) {
	cat, err := b.Catalog(ctx, manga, language)
	if err != nil {
		return nil, err
	}
	ch, err := b.FetchChapter(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to open chapter %s: %w", chapterID, err)
	}

	deps := reader.Deps{
		Fetcher:  b,
		Decoder:  imaging.NewDecoder(),
		Chapters: b,
		Logger:   b.log,
	}
	if b.bookmarks != nil {
		deps.Bookmarks = b
	}
	return reader.New(cfg, deps, cat, ch)
}
