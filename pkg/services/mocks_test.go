package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"sync"

	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/reader"
)

// Mock implementations for testing

type mockSource struct {
	searchFunc           func(query string) ([]*data.Manga, error)
	getMangaFunc         func(id string) (*data.Manga, error)
	getChaptersFunc      func(manga *data.Manga, language string) ([]*data.Chapter, error)
	getChapterFunc       func(id string) (*reader.Chapter, error)
	getPagesFunc         func(chapterID string) ([]string, error)
	getMangaCoverURLFunc func(manga *data.Manga) (string, error)
	fetchImageFunc       func(url string) ([]byte, error)
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) Search(_ context.Context, query string) ([]*data.Manga, error) {
	if m.searchFunc != nil {
		return m.searchFunc(query)
	}
	return nil, nil
}

func (m *mockSource) GetManga(_ context.Context, id string) (*data.Manga, error) {
	if m.getMangaFunc != nil {
		return m.getMangaFunc(id)
	}
	return nil, nil
}

func (m *mockSource) GetChapters(_ context.Context, manga *data.Manga, language string) ([]*data.Chapter, error) {
	if m.getChaptersFunc != nil {
		return m.getChaptersFunc(manga, language)
	}
	return nil, nil
}

func (m *mockSource) GetChapter(_ context.Context, id string) (*reader.Chapter, error) {
	if m.getChapterFunc != nil {
		return m.getChapterFunc(id)
	}
	return nil, nil
}

func (m *mockSource) GetPages(_ context.Context, chapterID string) ([]string, error) {
	if m.getPagesFunc != nil {
		return m.getPagesFunc(chapterID)
	}
	return nil, nil
}

func (m *mockSource) GetMangaCoverURL(_ context.Context, manga *data.Manga) (string, error) {
	if m.getMangaCoverURLFunc != nil {
		return m.getMangaCoverURLFunc(manga)
	}
	return "", nil
}

func (m *mockSource) FetchImage(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.fetchImageFunc != nil {
		return m.fetchImageFunc(url)
	}
	return nil, nil
}

type mockRepository struct {
	saveMangaFunc           func(manga *data.Manga) error
	getMangaFunc            func(id string) (*data.Manga, error)
	getChaptersFunc         func(mangaID string) ([]*data.Chapter, error)
	saveChapterFunc         func(chapter *data.Chapter) error
	updateChapterStatusFunc func(chapterID string, downloaded bool, filePath string) error
	listMangasFunc          func() ([]*data.Manga, error)
	deleteMangaFunc         func(mangaID string) error
}

func (m *mockRepository) SaveManga(manga *data.Manga) error {
	if m.saveMangaFunc != nil {
		return m.saveMangaFunc(manga)
	}
	return nil
}

func (m *mockRepository) GetManga(id string) (*data.Manga, error) {
	if m.getMangaFunc != nil {
		return m.getMangaFunc(id)
	}
	return nil, nil
}

func (m *mockRepository) GetChapters(mangaID string) ([]*data.Chapter, error) {
	if m.getChaptersFunc != nil {
		return m.getChaptersFunc(mangaID)
	}
	return nil, nil
}

func (m *mockRepository) SaveChapter(chapter *data.Chapter) error {
	if m.saveChapterFunc != nil {
		return m.saveChapterFunc(chapter)
	}
	return nil
}

func (m *mockRepository) UpdateChapterStatus(chapterID string, downloaded bool, filePath string) error {
	if m.updateChapterStatusFunc != nil {
		return m.updateChapterStatusFunc(chapterID, downloaded, filePath)
	}
	return nil
}

func (m *mockRepository) ListMangas() ([]*data.Manga, error) {
	if m.listMangasFunc != nil {
		return m.listMangasFunc()
	}
	return nil, nil
}

func (m *mockRepository) DeleteManga(mangaID string) error {
	if m.deleteMangaFunc != nil {
		return m.deleteMangaFunc(mangaID)
	}
	return nil
}

type mockBookmarks struct {
	mu    sync.Mutex
	saved map[string]*data.Bookmark
	err   error
}

func newMockBookmarks() *mockBookmarks {
	return &mockBookmarks{saved: map[string]*data.Bookmark{}}
}

func (m *mockBookmarks) SaveBookmark(_ context.Context, b *data.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved[b.ChapterID] = b
	return nil
}

func (m *mockBookmarks) GetBookmark(_ context.Context, chapterID string) (*data.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.saved[chapterID], nil
}

// Test helpers

func createTestPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
