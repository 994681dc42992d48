package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/integrations"
	"github.com/kerbaras/mangaread/pkg/sources"
)

const (
	StatusDownloading = "downloading"
	StatusProcessing  = "processing"
	StatusComplete    = "complete"
	StatusError       = "error"
)

// DownloadProgress represents the progress of a download operation
type DownloadProgress struct {
	JobID         uuid.UUID
	MangaID       string
	ChapterID     string
	ChapterNumber string
	CurrentPage   int
	TotalPages    int
	Status        string
	Error         error
}

// Repository interface needed by downloader
type Repository interface {
	SaveManga(manga *data.Manga) error
	GetManga(id string) (*data.Manga, error)
	GetChapters(mangaID string) ([]*data.Chapter, error)
	SaveChapter(chapter *data.Chapter) error
	UpdateChapterStatus(chapterID string, downloaded bool, filePath string) error
	ListMangas() ([]*data.Manga, error)
	DeleteManga(mangaID string) error
}

// Downloader turns chapters into EPUB files, streaming pages from the
// source straight into the builder.
type Downloader struct {
	source       sources.Source
	repo         Repository
	downloadDir  string
	language     string
	concurrency  int
	limiter      *rate.Limiter
	log          *slog.Logger
	progressMu   sync.Mutex
	progressChan chan DownloadProgress
	closed       bool
}

type DownloaderOption func(*Downloader)

// WithConcurrency sets how many chapters download at once.
func WithConcurrency(n int) DownloaderOption {
	return func(d *Downloader) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithPageRate caps page requests per second across all chapters.
func WithPageRate(rps float64) DownloaderOption {
	return func(d *Downloader) {
		if rps > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithLanguage(language string) DownloaderOption {
	return func(d *Downloader) { d.language = language }
}

func WithDownloaderLogger(l *slog.Logger) DownloaderOption {
	return func(d *Downloader) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDownloader creates a new Downloader instance
func NewDownloader(source sources.Source, repo Repository, downloadDir string, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		source:       source,
		repo:         repo,
		downloadDir:  downloadDir,
		concurrency:  3,
		limiter:      rate.NewLimiter(2, 1),
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		progressChan: make(chan DownloadProgress, 100),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// GetProgressChannel returns the channel for receiving download progress updates
func (d *Downloader) GetProgressChannel() <-chan DownloadProgress {
	return d.progressChan
}

// DownloadManga downloads chapters of a manga, all of them when chapters is
// empty. Chapters that fail are reported and the manga is marked partial.
func (d *Downloader) DownloadManga(ctx context.Context, manga *data.Manga, chapters []*data.Chapter) error {
	if manga == nil {
		return fmt.Errorf("manga cannot be nil")
	}

	manga.Status = "downloading"
	if err := d.repo.SaveManga(manga); err != nil {
		return fmt.Errorf("failed to save manga: %w", err)
	}

	if len(chapters) == 0 {
		var err error
		chapters, err = d.source.GetChapters(ctx, manga, d.language)
		if err != nil {
			return fmt.Errorf("failed to get chapters: %w", err)
		}
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for _, chapter := range chapters {
		g.Go(func() error {
			if err := d.DownloadChapter(ctx, manga, chapter); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("chapter %s: %w", chapter.Number, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	manga.Status = "completed"
	if len(errs) > 0 {
		manga.Status = "partial"
	}
	if err := d.repo.SaveManga(manga); err != nil {
		errs = append(errs, fmt.Errorf("failed to save manga: %w", err))
	}
	return errors.Join(errs...)
}

// DownloadChapter downloads a single chapter and streams it to an EPUB
func (d *Downloader) DownloadChapter(ctx context.Context, manga *data.Manga, chapter *data.Chapter) (err error) {
	if manga == nil {
		return fmt.Errorf("manga cannot be nil")
	}
	if chapter == nil {
		return fmt.Errorf("chapter cannot be nil")
	}

	progress := DownloadProgress{
		JobID:         uuid.New(),
		MangaID:       manga.ID,
		ChapterID:     chapter.ID,
		ChapterNumber: chapter.Number,
		Status:        StatusDownloading,
	}
	defer func() {
		if err != nil {
			progress.Status = StatusError
			progress.Error = err
			d.sendProgress(progress)
			d.log.Warn("chapter download failed",
				slog.String("job_id", progress.JobID.String()),
				slog.String("chapter_id", chapter.ID),
				slog.Any("error", err))
		}
	}()
	d.sendProgress(progress)

	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	pages, err := d.source.GetPages(ctx, chapter.ID)
	if err != nil {
		return fmt.Errorf("failed to get pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no pages found for chapter")
	}
	progress.TotalPages = len(pages)

	builder := integrations.NewEPubBuilder(d.downloadDir)
	if err := builder.Init(manga, chapter); err != nil {
		return fmt.Errorf("failed to initialize EPUB builder: %w", err)
	}
	defer builder.Abort()

	// Covers are best effort.
	if coverURL, err := d.source.GetMangaCoverURL(ctx, manga); err == nil && coverURL != "" {
		if content, err := d.fetch(ctx, coverURL); err == nil {
			builder.SetMangaCover(integrations.CoverData{Content: content, ContentType: http.DetectContentType(content)})
		}
	}

	for i, pageURL := range pages {
		progress.CurrentPage = i + 1
		d.sendProgress(progress)

		content, err := d.fetch(ctx, pageURL)
		if err != nil {
			return fmt.Errorf("failed to download page %d: %w", i, err)
		}
		img := integrations.ImageData{Content: content, ContentType: http.DetectContentType(content), Index: i}
		if err := builder.Next(img); err != nil {
			return fmt.Errorf("failed to add page %d to EPUB: %w", i, err)
		}
	}

	progress.Status = StatusProcessing
	d.sendProgress(progress)

	epubPath, err := builder.Done()
	if err != nil {
		return fmt.Errorf("failed to finalize EPUB: %w", err)
	}

	chapter.Downloaded = true
	chapter.FilePath = epubPath
	if err := d.repo.SaveChapter(chapter); err != nil {
		return fmt.Errorf("failed to update chapter status: %w", err)
	}

	progress.Status = StatusComplete
	d.sendProgress(progress)
	d.log.Info("chapter downloaded",
		slog.String("job_id", progress.JobID.String()),
		slog.String("chapter_id", chapter.ID),
		slog.String("path", epubPath))
	return nil
}

func (d *Downloader) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return d.source.FetchImage(ctx, url)
}

// sendProgress sends a progress update (non-blocking)
func (d *Downloader) sendProgress(progress DownloadProgress) {
	d.progressMu.Lock()
	defer d.progressMu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.progressChan <- progress:
	default:
	}
}

// Close closes the progress channel. It is safe to call more than once.
func (d *Downloader) Close() {
	d.progressMu.Lock()
	defer d.progressMu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.progressChan)
	}
}
