package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerbaras/mangaread/pkg/data"
)

const narutoID = "6b1eb93e-473a-4ab3-9922-1a66d2a29a4a"

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func newTestMangaDex(t *testing.T, quality string, handler http.HandlerFunc) *MangaDex {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return newMangaDex(srv.URL, Options{Quality: quality})
}

func mangaJSON(id, title string) map[string]any {
	return map[string]any{
		"id": id,
		"attributes": map[string]any{
			"title":       map[string]string{"en": title},
			"description": map[string]string{"en": "ninja"},
		},
		"relationships": []map[string]any{
			{"id": "c1", "type": "cover_art", "attributes": map[string]string{"fileName": "cover.png"}},
		},
	}
}

func TestMangaDex_Search(t *testing.T) {
	md := newTestMangaDex(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manga", r.URL.Path)
		assert.Equal(t, "naruto", r.URL.Query().Get("title"))
		writeJSON(t, w, map[string]any{"data": []any{mangaJSON(narutoID, "Naruto")}})
	})

	mangas, err := md.Search(context.Background(), "naruto")
	require.NoError(t, err)
	require.Len(t, mangas, 1)
	assert.Equal(t, narutoID, mangas[0].ID)
	assert.Equal(t, "Naruto", mangas[0].Name)
	assert.Equal(t, "ninja", mangas[0].Description)
	assert.Equal(t, "mangadex", mangas[0].Source)
	assert.Contains(t, mangas[0].CoverURL, narutoID+"/cover.png.512.jpg")
}

func TestMangaDex_GetManga(t *testing.T) {
	md := newTestMangaDex(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manga/"+narutoID, r.URL.Path)
		writeJSON(t, w, map[string]any{"data": mangaJSON(narutoID, "Naruto")})
	})

	manga, err := md.GetManga(context.Background(), narutoID)
	require.NoError(t, err)
	assert.Equal(t, narutoID, manga.ID)
	assert.Equal(t, "Naruto", manga.Name)
}

func TestMangaDex_GetMangaNotFound(t *testing.T) {
	md := newTestMangaDex(t, "", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := md.GetManga(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMangaDex_GetChaptersPages(t *testing.T) {
	const total = feedPageSize + 2
	var offsets []int
	md := newTestMangaDex(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manga/"+narutoID+"/feed", r.URL.Path)
		assert.Equal(t, "es", r.URL.Query().Get("translatedLanguage[]"))

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		offsets = append(offsets, offset)

		var items []any
		for i := offset; i < total && i < offset+feedPageSize; i++ {
			items = append(items, map[string]any{
				"id": fmt.Sprintf("ch-%d", i),
				"attributes": map[string]any{
					"chapter":            strconv.Itoa(i + 1),
					"volume":             "1",
					"translatedLanguage": "es",
				},
			})
		}
		writeJSON(t, w, map[string]any{"data": items, "total": total})
	})

	chapters, err := md.GetChapters(context.Background(), &data.Manga{ID: narutoID}, "es")
	require.NoError(t, err)
	assert.Len(t, chapters, total)
	assert.Equal(t, []int{0, feedPageSize}, offsets)
	assert.Equal(t, narutoID, chapters[0].MangaID)
	assert.Equal(t, "1", chapters[0].Number)
	assert.Equal(t, "es", chapters[0].Language)
}

func TestMangaDex_GetChaptersNilManga(t *testing.T) {
	md := newMangaDex("http://127.0.0.1:0", Options{})
	_, err := md.GetChapters(context.Background(), nil, "en")
	assert.Error(t, err)
}

func chapterServer(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chapter/ch-1":
			writeJSON(t, w, map[string]any{"data": map[string]any{
				"id": "ch-1",
				"attributes": map[string]any{
					"chapter":            "3",
					"volume":             "",
					"translatedLanguage": "en",
				},
				"relationships": []map[string]any{{"id": narutoID, "type": "manga"}},
			}})
		case "/at-home/server/ch-1":
			writeJSON(t, w, map[string]any{
				"baseUrl": "https://node.example",
				"chapter": map[string]any{
					"hash":      "abc",
					"data":      []string{"1.png", "2.png"},
					"dataSaver": []string{"1.jpg", "2.jpg"},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}
}

func TestMangaDex_GetChapter(t *testing.T) {
	md := newTestMangaDex(t, "data", chapterServer(t))

	ch, err := md.GetChapter(context.Background(), "ch-1")
	require.NoError(t, err)
	assert.Equal(t, "ch-1", ch.ID)
	assert.Equal(t, narutoID, ch.MangaID)
	assert.Equal(t, "No title", ch.Title)
	assert.Equal(t, "3", ch.Number)
	assert.Equal(t, "", ch.Volume)
	assert.Equal(t, []string{
		"https://node.example/data/abc/1.png",
		"https://node.example/data/abc/2.png",
	}, ch.PageURLs)
}

func TestMangaDex_GetPagesDataSaver(t *testing.T) {
	md := newTestMangaDex(t, "data-saver", chapterServer(t))

	pages, err := md.GetPages(context.Background(), "ch-1")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://node.example/data-saver/abc/1.jpg",
		"https://node.example/data-saver/abc/2.jpg",
	}, pages)
}

func TestMangaDex_GetMangaCoverURL(t *testing.T) {
	var calls int
	md := newTestMangaDex(t, "", func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(t, w, map[string]any{"data": mangaJSON(narutoID, "Naruto")})
	})

	url, err := md.GetMangaCoverURL(context.Background(), &data.Manga{ID: narutoID, CoverURL: "https://known/cover.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "https://known/cover.jpg", url)
	assert.Zero(t, calls)

	url, err = md.GetMangaCoverURL(context.Background(), &data.Manga{ID: narutoID})
	require.NoError(t, err)
	assert.Contains(t, url, "cover.png.512.jpg")
	assert.Equal(t, 1, calls)
}

func TestMangaDex_FetchImage(t *testing.T) {
	md := newTestMangaDex(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png"))
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("page"))
	}))
	defer srv.Close()

	b, err := md.FetchImage(context.Background(), srv.URL+"/data/abc/1.png")
	require.NoError(t, err)
	assert.Equal(t, "page", string(b))
}

func TestNew(t *testing.T) {
	src, err := New("MangaDex", Options{})
	require.NoError(t, err)
	assert.Equal(t, "mangadex", src.Name())

	_, err = New("weebcentral", Options{})
	assert.ErrorIs(t, err, ErrUnknownSource)
	assert.Contains(t, err.Error(), "mangadex")
}
