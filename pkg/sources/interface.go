package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/kerbaras/mangaread/pkg/cache"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/reader"
)

var (
	ErrUnknownSource = errors.New("sources: unknown source")
	ErrNotFound      = errors.New("sources: not found")
)

// Source is a manga provider. Every call is bounded by ctx.
type Source interface {
	Name() string
	Search(ctx context.Context, query string) ([]*data.Manga, error)
	GetManga(ctx context.Context, id string) (*data.Manga, error)
	// GetChapters lists the chapters translated to language, following the
	// provider's paging until the feed is exhausted.
	GetChapters(ctx context.Context, manga *data.Manga, language string) ([]*data.Chapter, error)
	// GetChapter resolves one chapter with its page URLs.
	GetChapter(ctx context.Context, chapterID string) (*reader.Chapter, error)
	GetPages(ctx context.Context, chapterID string) ([]string, error)
	GetMangaCoverURL(ctx context.Context, manga *data.Manga) (string, error)
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// Options are shared by every provider.
type Options struct {
	// BaseURL overrides the provider's API endpoint, for mirrors and tests.
	BaseURL string

	Quality           string
	RequestsPerSecond float64
	Timeout           time.Duration
	Cache             cache.Cacher
	Logger            *slog.Logger
}

type constructor func(Options) Source

var registry = map[string]constructor{
	"mangadex": func(o Options) Source { return NewMangaDex(o) },
}

// New returns the provider registered under name.
func New(name string, opts Options) (Source, error) {
	ctor, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownSource, name, strings.Join(Names(), ", "))
	}
	return ctor(opts), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
