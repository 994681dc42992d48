package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/kerbaras/mangaread/pkg/catalog"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/sources"
)

// ControllerConfig wires a MangaController. Source and Repo are required.
type ControllerConfig struct {
	Source      sources.Source
	Repo        Repository
	DownloadDir string
	Language    string
	Logger      *slog.Logger
	Downloader  []DownloaderOption
}

// DownloadOptions narrows which chapters of a manga get downloaded.
type DownloadOptions struct {
	Language     string
	ChapterIDs   []string
	ChapterRange string // "from-to", inclusive
}

// MangaController is the facade the CLI and TUI use for library and
// download operations.
type MangaController struct {
	source      sources.Source
	repo        Repository
	downloader  *Downloader
	downloadDir string
	language    string
	log         *slog.Logger
}

func NewMangaController(cfg ControllerConfig) (*MangaController, error) {
	if cfg.Source == nil || cfg.Repo == nil {
		return nil, fmt.Errorf("controller needs a source and a repository")
	}
	if cfg.DownloadDir != "" {
		if err := os.MkdirAll(cfg.DownloadDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create download directory: %w", err)
		}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	opts := append([]DownloaderOption{WithLanguage(cfg.Language), WithDownloaderLogger(log)}, cfg.Downloader...)
	return &MangaController{
		source:      cfg.Source,
		repo:        cfg.Repo,
		downloader:  NewDownloader(cfg.Source, cfg.Repo, cfg.DownloadDir, opts...),
		downloadDir: cfg.DownloadDir,
		language:    cfg.Language,
		log:         log,
	}, nil
}

func (c *MangaController) Source() sources.Source { return c.source }

func (c *MangaController) SearchManga(ctx context.Context, query string) ([]*data.Manga, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	return c.source.Search(ctx, query)
}

func (c *MangaController) GetManga(ctx context.Context, id string) (*data.Manga, error) {
	if id == "" {
		return nil, fmt.Errorf("manga id cannot be empty")
	}
	return c.source.GetManga(ctx, id)
}

// GetMangaFromLibrary returns an error when the manga was never added.
func (c *MangaController) GetMangaFromLibrary(id string) (*data.Manga, error) {
	manga, err := c.repo.GetManga(id)
	if err != nil {
		return nil, err
	}
	if manga == nil {
		return nil, fmt.Errorf("manga %s is not in the library", id)
	}
	return manga, nil
}

func (c *MangaController) ListLibrary() ([]*data.Manga, error) {
	return c.repo.ListMangas()
}

// FindMangaByName matches library entries case-insensitively.
func (c *MangaController) FindMangaByName(name string) (*data.Manga, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("manga name cannot be empty")
	}
	mangas, err := c.repo.ListMangas()
	if err != nil {
		return nil, err
	}
	for _, m := range mangas {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("manga %q not found in library", name)
}

func (c *MangaController) GetChapters(ctx context.Context, manga *data.Manga) ([]*data.Chapter, error) {
	if manga == nil {
		return nil, fmt.Errorf("manga cannot be nil")
	}
	return c.source.GetChapters(ctx, manga, c.language)
}

// AddMangaToLibrary saves the manga and its current chapter list.
func (c *MangaController) AddMangaToLibrary(ctx context.Context, manga *data.Manga) error {
	if manga == nil {
		return fmt.Errorf("manga cannot be nil")
	}
	if err := c.repo.SaveManga(manga); err != nil {
		return err
	}
	chapters, err := c.GetChapters(ctx, manga)
	if err != nil {
		return fmt.Errorf("failed to get chapters: %w", err)
	}
	for _, ch := range chapters {
		if ch.MangaID == "" {
			ch.MangaID = manga.ID
		}
		if err := c.repo.SaveChapter(ch); err != nil {
			return err
		}
	}
	c.log.Info("manga added to library", slog.String("manga_id", manga.ID), slog.Int("chapters", len(chapters)))
	return nil
}

func (c *MangaController) RemoveFromLibrary(id string) error {
	if id == "" {
		return fmt.Errorf("manga id cannot be empty")
	}
	return c.repo.DeleteManga(id)
}

// DownloadManga fetches the chapter list, applies options and downloads
// what remains.
func (c *MangaController) DownloadManga(ctx context.Context, manga *data.Manga, options DownloadOptions) error {
	if manga == nil {
		return fmt.Errorf("manga cannot be nil")
	}
	chapters, err := c.GetChapters(ctx, manga)
	if err != nil {
		return fmt.Errorf("failed to get chapters: %w", err)
	}
	chapters = c.filterChapters(chapters, options)
	if len(chapters) == 0 {
		return fmt.Errorf("no chapters match the given filters")
	}
	return c.downloader.DownloadManga(ctx, manga, chapters)
}

func (c *MangaController) DownloadChapter(ctx context.Context, manga *data.Manga, chapter *data.Chapter) error {
	return c.downloader.DownloadChapter(ctx, manga, chapter)
}

func (c *MangaController) filterChapters(chapters []*data.Chapter, options DownloadOptions) []*data.Chapter {
	filtered := chapters
	if options.Language != "" {
		filtered = nil
		for _, ch := range chapters {
			if ch.Language == options.Language {
				filtered = append(filtered, ch)
			}
		}
	}
	if len(options.ChapterIDs) > 0 {
		wanted := make(map[string]bool, len(options.ChapterIDs))
		for _, id := range options.ChapterIDs {
			wanted[id] = true
		}
		var byID []*data.Chapter
		for _, ch := range filtered {
			if wanted[ch.ID] {
				byID = append(byID, ch)
			}
		}
		filtered = byID
	}
	if options.ChapterRange != "" {
		filtered = c.filterByRange(filtered, options.ChapterRange)
	}
	return filtered
}

// filterByRange keeps chapters numbered within "from-to". A malformed range
// keeps everything.
func (c *MangaController) filterByRange(chapters []*data.Chapter, rangeStr string) []*data.Chapter {
	from, to, ok := strings.Cut(rangeStr, "-")
	if !ok {
		return chapters
	}
	lo, err1 := strconv.ParseFloat(strings.TrimSpace(from), 64)
	hi, err2 := strconv.ParseFloat(strings.TrimSpace(to), 64)
	if err1 != nil || err2 != nil {
		return chapters
	}

	var out []*data.Chapter
	for _, ch := range chapters {
		n := catalog.ParseNumber(ch.Number)
		if n >= lo && n <= hi {
			out = append(out, ch)
		}
	}
	return out
}

func (c *MangaController) GetProgressChannel() <-chan DownloadProgress {
	return c.downloader.GetProgressChannel()
}

func (c *MangaController) GetDownloadDirectory() string {
	return c.downloadDir
}

func (c *MangaController) SaveManga(manga *data.Manga) error {
	if manga == nil {
		return fmt.Errorf("manga cannot be nil")
	}
	return c.repo.SaveManga(manga)
}

func (c *MangaController) SaveChapter(chapter *data.Chapter) error {
	if chapter == nil {
		return fmt.Errorf("chapter cannot be nil")
	}
	return c.repo.SaveChapter(chapter)
}

func (c *MangaController) UpdateChapterStatus(chapterID string, downloaded bool, filePath string) error {
	if chapterID == "" {
		return fmt.Errorf("chapter id cannot be empty")
	}
	return c.repo.UpdateChapterStatus(chapterID, downloaded, filePath)
}

func (c *MangaController) Close() error {
	if c.downloader != nil {
		c.downloader.Close()
	}
	return nil
}
