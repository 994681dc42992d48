// Package reader drives the on-screen chapter reader: it keeps a window of
// pages around the current one fetched and decoded, and moves between
// chapters using a catalog.
//
// All state is owned by a single consumer goroutine (the UI loop). Fetches
// run in background tasks and report back through one intake channel that
// the consumer drains with Poll.
package reader

import (
	"context"
	"errors"
	"image"
	"log/slog"
)

// PageState tracks one page through NotLoaded -> Loading -> Loaded|Failed.
// A failed page may go back to Loading when the user reloads it.
type PageState int

const (
	NotLoaded PageState = iota
	Loading
	Loaded
	Failed
)

func (s PageState) String() string {
	switch s {
	case NotLoaded:
		return "not loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is what the reader is doing as a whole.
type State int

const (
	SearchingPages State = iota
	SearchingChapter
	ChapterNotFound
	ErrorSearchingChapter
	ManualBookmark
)

func (s State) String() string {
	switch s {
	case SearchingPages:
		return "reading"
	case SearchingChapter:
		return "searching chapter"
	case ChapterNotFound:
		return "no more chapters"
	case ErrorSearchingChapter:
		return "error searching chapter"
	case ManualBookmark:
		return "bookmarked"
	default:
		return "unknown"
	}
}

type Page struct {
	Index int
	URL   string
	State PageState
	Image image.Image
	// Dimensions is the decoded size in pixels.
	Dimensions image.Point
	Err        error
}

// Chapter is everything the reader needs to show a chapter.
type Chapter struct {
	ID       string
	MangaID  string
	Title    string
	Number   string
	Volume   string
	Language string
	PageURLs []string
	// BookmarkedPage is where reading resumes, 0 for the first page.
	BookmarkedPage int
}

type PageFetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

type Decoder interface {
	Decode(data []byte) (image.Image, image.Point, error)
}

type ChapterLookup interface {
	FetchChapter(ctx context.Context, id string) (*Chapter, error)
}

type Bookmarker interface {
	Bookmark(ctx context.Context, chapterID string, page int) error
}

// Config tunes the prefetch window.
type Config struct {
	// Radius is how many pages ahead and behind the current one are kept fetched.
	Radius int
	// MaxConcurrentFetches bounds the page fetches running at once.
	MaxConcurrentFetches int
}

func DefaultConfig() Config {
	return Config{Radius: 2, MaxConcurrentFetches: 4}
}

// Deps are the collaborators the reader calls into. Bookmarks and Logger
// may be nil.
type Deps struct {
	Fetcher   PageFetcher
	Decoder   Decoder
	Chapters  ChapterLookup
	Bookmarks Bookmarker
	Logger    *slog.Logger
}

var (
	ErrNoChapter    = errors.New("reader: no chapter to open")
	ErrMissingDeps  = errors.New("reader: fetcher, decoder and chapter lookup are required")
	ErrNoPages      = errors.New("reader: chapter has no pages")
	ErrNoBookmarker = errors.New("reader: bookmarks are not available")
)
