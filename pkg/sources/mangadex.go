package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kerbaras/mangaread/pkg/cache"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/reader"
	"github.com/kerbaras/mangaread/pkg/utils"
)

const (
	mangaDexAPI    = "https://api.mangadex.org"
	mangaDexCovers = "https://uploads.mangadex.org/covers"
	feedPageSize   = 300
	searchLimit    = 20
)

var contentRatings = []string{"safe", "suggestive", "erotica"}

type relationship struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		FileName string `json:"fileName"`
	} `json:"attributes"`
}

type Manga struct {
	ID         string `json:"id"`
	Attributes struct {
		Title       map[string]string `json:"title"`
		Description map[string]string `json:"description"`
		Status      string            `json:"status"`
	} `json:"attributes"`
	Relationships []relationship `json:"relationships"`
}

func (m *Manga) ToManga() *data.Manga {
	out := &data.Manga{
		ID:          m.ID,
		Name:        localized(m.Attributes.Title),
		Description: localized(m.Attributes.Description),
		Source:      "mangadex",
	}
	for _, rel := range m.Relationships {
		if rel.Type == "cover_art" && rel.Attributes.FileName != "" {
			out.CoverURL = fmt.Sprintf("%s/%s/%s.512.jpg", mangaDexCovers, m.ID, rel.Attributes.FileName)
		}
	}
	return out
}

// localized prefers English and falls back to any available title.
func localized(values map[string]string) string {
	if v, ok := values["en"]; ok {
		return v
	}
	for _, v := range values {
		return v
	}
	return ""
}

type Chapter struct {
	ID         string `json:"id"`
	Attributes struct {
		Title    string `json:"title"`
		Language string `json:"translatedLanguage"`
		Volume   string `json:"volume"`
		Number   string `json:"chapter"`
		Pages    int    `json:"pages"`
	} `json:"attributes"`
	Relationships []relationship `json:"relationships"`
}

func (c *Chapter) ToChapter(mangaID string) *data.Chapter {
	if mangaID == "" {
		mangaID = c.mangaID()
	}
	return &data.Chapter{
		ID:       c.ID,
		MangaID:  mangaID,
		Title:    c.Attributes.Title,
		Language: c.Attributes.Language,
		Volume:   c.Attributes.Volume,
		Number:   c.Attributes.Number,
	}
}

func (c *Chapter) mangaID() string {
	for _, rel := range c.Relationships {
		if rel.Type == "manga" {
			return rel.ID
		}
	}
	return ""
}

type atHome struct {
	BaseURL string `json:"baseUrl"`
	Chapter struct {
		Hash      string   `json:"hash"`
		Data      []string `json:"data"`
		DataSaver []string `json:"dataSaver"`
	} `json:"chapter"`
}

// urls builds page links as baseUrl/{data|data-saver}/hash/file.
func (a atHome) urls(quality string) []string {
	files := a.Chapter.Data
	if quality == "data-saver" {
		files = a.Chapter.DataSaver
	} else {
		quality = "data"
	}
	pages := make([]string, len(files))
	for i, file := range files {
		pages[i] = fmt.Sprintf("%s/%s/%s/%s", a.BaseURL, quality, a.Chapter.Hash, file)
	}
	return pages
}

type MangaDex struct {
	api     *utils.API
	quality string
}

func NewMangaDex(opts Options) *MangaDex {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = mangaDexAPI
	}
	return newMangaDex(baseURL, opts)
}

func newMangaDex(baseURL string, opts Options) *MangaDex {
	quality := opts.Quality
	if quality == "" {
		quality = "data"
	}
	api := utils.NewAPI(baseURL,
		utils.WithCache(opts.Cache),
		utils.WithRateLimit(opts.RequestsPerSecond),
		utils.WithTimeout(opts.Timeout),
		utils.WithLogger(opts.Logger),
	)
	return &MangaDex{api: api, quality: quality}
}

func (m *MangaDex) Name() string { return "mangadex" }

func (m *MangaDex) get(ctx context.Context, path string, params url.Values, ttl cache.Duration, v any) error {
	err := m.api.Get(ctx, path, params, ttl, v)
	if utils.IsNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return err
}

func (m *MangaDex) Search(ctx context.Context, query string) ([]*data.Manga, error) {
	params := url.Values{
		"title":           {query},
		"limit":           {strconv.Itoa(searchLimit)},
		"includes[]":      {"cover_art"},
		"contentRating[]": contentRatings,
	}
	var mangas struct {
		Data []Manga `json:"data"`
	}
	if err := m.get(ctx, "/manga", params, cache.Short, &mangas); err != nil {
		return nil, err
	}
	out := make([]*data.Manga, len(mangas.Data))
	for i := range mangas.Data {
		out[i] = mangas.Data[i].ToManga()
	}
	return out, nil
}

func (m *MangaDex) GetManga(ctx context.Context, id string) (*data.Manga, error) {
	var manga struct {
		Data Manga `json:"data"`
	}
	params := url.Values{"includes[]": {"cover_art"}}
	if err := m.get(ctx, "/manga/"+url.PathEscape(id), params, cache.Long, &manga); err != nil {
		return nil, err
	}
	return manga.Data.ToManga(), nil
}

func (m *MangaDex) GetChapters(ctx context.Context, manga *data.Manga, language string) ([]*data.Chapter, error) {
	if manga == nil {
		return nil, fmt.Errorf("manga cannot be nil")
	}

	var out []*data.Chapter
	for offset := 0; ; offset += feedPageSize {
		params := url.Values{
			"limit":           {strconv.Itoa(feedPageSize)},
			"offset":          {strconv.Itoa(offset)},
			"order[volume]":   {"asc"},
			"order[chapter]":  {"asc"},
			"contentRating[]": contentRatings,
		}
		if language != "" {
			params.Set("translatedLanguage[]", language)
		}

		var feed struct {
			Data  []Chapter `json:"data"`
			Total int       `json:"total"`
		}
		if err := m.get(ctx, "/manga/"+url.PathEscape(manga.ID)+"/feed", params, cache.Medium, &feed); err != nil {
			return nil, err
		}
		for i := range feed.Data {
			out = append(out, feed.Data[i].ToChapter(manga.ID))
		}
		if len(feed.Data) == 0 || offset+len(feed.Data) >= feed.Total {
			return out, nil
		}
	}
}

func (m *MangaDex) GetChapter(ctx context.Context, chapterID string) (*reader.Chapter, error) {
	var resp struct {
		Data Chapter `json:"data"`
	}
	if err := m.get(ctx, "/chapter/"+url.PathEscape(chapterID), nil, cache.Long, &resp); err != nil {
		return nil, err
	}
	pages, err := m.GetPages(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	ch := resp.Data
	title := ch.Attributes.Title
	if title == "" {
		title = "No title"
	}
	return &reader.Chapter{
		ID:       ch.ID,
		MangaID:  ch.mangaID(),
		Title:    title,
		Number:   ch.Attributes.Number,
		Volume:   ch.Attributes.Volume,
		Language: ch.Attributes.Language,
		PageURLs: pages,
	}, nil
}

func (m *MangaDex) GetPages(ctx context.Context, chapterID string) ([]string, error) {
	var server atHome
	if err := m.get(ctx, "/at-home/server/"+url.PathEscape(chapterID), nil, cache.VeryShort, &server); err != nil {
		return nil, err
	}
	return server.urls(m.quality), nil
}

func (m *MangaDex) GetMangaCoverURL(ctx context.Context, manga *data.Manga) (string, error) {
	if manga == nil {
		return "", fmt.Errorf("manga cannot be nil")
	}
	if manga.CoverURL != "" {
		return manga.CoverURL, nil
	}
	full, err := m.GetManga(ctx, manga.ID)
	if err != nil {
		return "", err
	}
	return full.CoverURL, nil
}

func (m *MangaDex) FetchImage(ctx context.Context, url string) ([]byte, error) {
	return m.api.FetchBytes(ctx, url, cache.Short)
}
