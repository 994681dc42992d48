package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	repo, err := NewDuckDBRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to init DB: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

func TestSaveAndGetManga(t *testing.T) {
	repo := setupTestDB(t)

	manga := &Manga{
		ID:          "test-manga-1",
		Name:        "Test Manga",
		Description: "A test manga description",
		CoverURL:    "https://example.com/cover.jpg",
		Source:      "mangadex",
		Status:      "completed",
	}

	// Save manga
	err := repo.SaveManga(manga)
	if err != nil {
		t.Fatalf("Failed to save manga: %v", err)
	}

	// Get manga
	retrieved, err := repo.GetManga("test-manga-1")
	if err != nil {
		t.Fatalf("Failed to get manga: %v", err)
	}

	if retrieved == nil {
		t.Fatal("Expected manga to be found")
	}

	if retrieved.ID != manga.ID {
		t.Errorf("Expected ID %s, got %s", manga.ID, retrieved.ID)
	}

	if retrieved.Name != manga.Name {
		t.Errorf("Expected Name %s, got %s", manga.Name, retrieved.Name)
	}

	if retrieved.Status != manga.Status {
		t.Errorf("Expected Status %s, got %s", manga.Status, retrieved.Status)
	}
}

func TestListMangas(t *testing.T) {
	repo := setupTestDB(t)

	// Initially empty
	mangas, err := repo.ListMangas()
	if err != nil {
		t.Fatalf("Failed to list mangas: %v", err)
	}

	if len(mangas) != 0 {
		t.Errorf("Expected 0 mangas, got %d", len(mangas))
	}

	// Add some mangas
	for i := 1; i <= 3; i++ {
		manga := &Manga{
			ID:     string(rune('a' + i - 1)),
			Name:   string(rune('A' + i - 1)) + " Manga",
			Source: "mangadex",
		}
		err := repo.SaveManga(manga)
		if err != nil {
			t.Fatalf("Failed to save manga %d: %v", i, err)
		}
	}

	// List all
	mangas, err = repo.ListMangas()
	if err != nil {
		t.Fatalf("Failed to list mangas: %v", err)
	}

	if len(mangas) != 3 {
		t.Errorf("Expected 3 mangas, got %d", len(mangas))
	}
}

func TestSaveAndGetChapters(t *testing.T) {
	repo := setupTestDB(t)

	// First save a manga
	manga := &Manga{
		ID:     "manga-1",
		Name:   "Test Manga",
		Source: "mangadex",
	}
	repo.SaveManga(manga)

	// Save chapters
	chapters := []*Chapter{
		{
			ID:       "ch-1",
			MangaID:  "manga-1",
			Title:    "Chapter 1",
			Language: "en",
			Volume:   "1",
			Number:   "1",
		},
		{
			ID:       "ch-2",
			MangaID:  "manga-1",
			Title:    "Chapter 2",
			Language: "en",
			Volume:   "1",
			Number:   "2",
		},
	}

	for _, ch := range chapters {
		err := repo.SaveChapter(ch)
		if err != nil {
			t.Fatalf("Failed to save chapter: %v", err)
		}
	}

	// Get chapters
	retrieved, err := repo.GetChapters("manga-1")
	if err != nil {
		t.Fatalf("Failed to get chapters: %v", err)
	}

	if len(retrieved) != 2 {
		t.Errorf("Expected 2 chapters, got %d", len(retrieved))
	}

	// Verify ordering (should be by volume, then number)
	if len(retrieved) >= 2 {
		if retrieved[0].Number != "1" {
			t.Errorf("Expected first chapter number '1', got '%s'", retrieved[0].Number)
		}
		if retrieved[1].Number != "2" {
			t.Errorf("Expected second chapter number '2', got '%s'", retrieved[1].Number)
		}
	}
}

func TestUpdateChapterStatus(t *testing.T) {
	repo := setupTestDB(t)

	manga := &Manga{ID: "manga-1", Name: "Test", Source: "test"}
	repo.SaveManga(manga)

	chapter := &Chapter{
		ID:         "ch-1",
		MangaID:    "manga-1",
		Number:     "1",
		Volume:     "1",
		Language:   "en",
		Downloaded: false,
	}
	err := repo.SaveChapter(chapter)
	if err != nil {
		t.Fatalf("Failed to save chapter: %v", err)
	}

	// Update status
	err = repo.UpdateChapterStatus("ch-1", true, "/path/to/chapter")
	if err != nil {
		t.Fatalf("Failed to update chapter status: %v", err)
	}

	// Verify
	chapters, err := repo.GetChapters("manga-1")
	if err != nil {
		t.Fatalf("Failed to get chapters: %v", err)
	}
	
	if len(chapters) == 0 {
		t.Fatal("No chapters found")
	}

	if !chapters[0].Downloaded {
		t.Error("Expected chapter to be marked as downloaded")
	}

	if chapters[0].FilePath != "/path/to/chapter" {
		t.Errorf("Expected FilePath '/path/to/chapter', got '%s'", chapters[0].FilePath)
	}
}

func TestDeleteManga(t *testing.T) {
	repo := setupTestDB(t)

	manga := &Manga{ID: "manga-1", Name: "Test", Source: "test"}
	repo.SaveManga(manga)

	chapter := &Chapter{ID: "ch-1", MangaID: "manga-1", Number: "1"}
	repo.SaveChapter(chapter)

	// Delete manga
	err := repo.DeleteManga("manga-1")
	if err != nil {
		t.Fatalf("Failed to delete manga: %v", err)
	}

	// Verify manga is gone
	retrieved, _ := repo.GetManga("manga-1")
	if retrieved != nil {
		t.Error("Expected manga to be deleted")
	}

	// Verify chapters are gone too
	chapters, _ := repo.GetChapters("manga-1")
	if len(chapters) != 0 {
		t.Errorf("Expected 0 chapters, got %d", len(chapters))
	}
}

func TestGetMangaWithChapterCount(t *testing.T) {
	repo := setupTestDB(t)

	manga := &Manga{ID: "manga-1", Name: "Test", Source: "test"}
	repo.SaveManga(manga)

	// Add 3 chapters, 2 downloaded
	chapters := []*Chapter{
		{ID: "ch-1", MangaID: "manga-1", Number: "1", Downloaded: true},
		{ID: "ch-2", MangaID: "manga-1", Number: "2", Downloaded: true},
		{ID: "ch-3", MangaID: "manga-1", Number: "3", Downloaded: false},
	}

	for _, ch := range chapters {
		repo.SaveChapter(ch)
	}

	// Get stats
	retrievedManga, total, downloaded, err := repo.GetMangaWithChapterCount("manga-1")
	if err != nil {
		t.Fatalf("Failed to get manga with chapter count: %v", err)
	}

	if retrievedManga == nil {
		t.Fatal("Expected manga to be found")
	}

	if total != 3 {
		t.Errorf("Expected 3 total chapters, got %d", total)
	}

	if downloaded != 2 {
		t.Errorf("Expected 2 downloaded chapters, got %d", downloaded)
	}
}

func TestGetNonExistentManga(t *testing.T) {
	repo := setupTestDB(t)

	manga, err := repo.GetManga("non-existent")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if manga != nil {
		t.Error("Expected manga to be nil for non-existent ID")
	}
}

func TestSaveMangaUpsert(t *testing.T) {
	repo := setupTestDB(t)

	manga := &Manga{
		ID:     "manga-1",
		Name:   "Original Name",
		Source: "test",
		Status: "downloading",
	}
	repo.SaveManga(manga)

	// Update same manga
	manga.Name = "Updated Name"
	manga.Status = "completed"
	err := repo.SaveManga(manga)
	if err != nil {
		t.Fatalf("Failed to update manga: %v", err)
	}

	// Verify update
	retrieved, _ := repo.GetManga("manga-1")
	if retrieved.Name != "Updated Name" {
		t.Errorf("Expected Name 'Updated Name', got '%s'", retrieved.Name)
	}

	if retrieved.Status != "completed" {
		t.Errorf("Expected Status 'completed', got '%s'", retrieved.Status)
	}
}

func TestSaveAndGetBookmark(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	bookmark, err := repo.GetBookmark(ctx, "ch-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if bookmark != nil {
		t.Fatal("Expected no bookmark before saving one")
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.SaveBookmark(ctx, &Bookmark{ChapterID: "ch-1", MangaID: "manga-1", Page: 4, UpdatedAt: at}); err != nil {
		t.Fatalf("Failed to save bookmark: %v", err)
	}

	// Bookmarking again moves it
	if err := repo.SaveBookmark(ctx, &Bookmark{ChapterID: "ch-1", MangaID: "manga-1", Page: 7, UpdatedAt: at.Add(time.Minute)}); err != nil {
		t.Fatalf("Failed to update bookmark: %v", err)
	}

	bookmark, err = repo.GetBookmark(ctx, "ch-1")
	if err != nil {
		t.Fatalf("Failed to get bookmark: %v", err)
	}
	if bookmark == nil {
		t.Fatal("Expected bookmark to be found")
	}
	if bookmark.Page != 7 {
		t.Errorf("Expected page 7, got %d", bookmark.Page)
	}
	if bookmark.MangaID != "manga-1" {
		t.Errorf("Expected MangaID 'manga-1', got '%s'", bookmark.MangaID)
	}
}

func TestListBookmarks(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"ch-1", "ch-2", "ch-3"} {
		b := &Bookmark{ChapterID: id, MangaID: "manga-1", Page: i, UpdatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := repo.SaveBookmark(ctx, b); err != nil {
			t.Fatalf("Failed to save bookmark: %v", err)
		}
	}

	bookmarks, err := repo.ListBookmarks(ctx)
	if err != nil {
		t.Fatalf("Failed to list bookmarks: %v", err)
	}
	if len(bookmarks) != 3 {
		t.Fatalf("Expected 3 bookmarks, got %d", len(bookmarks))
	}
	if bookmarks[0].ChapterID != "ch-3" {
		t.Errorf("Expected most recent bookmark first, got '%s'", bookmarks[0].ChapterID)
	}
}

func TestDeleteMangaRemovesBookmarks(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	repo.SaveManga(&Manga{ID: "manga-1", Name: "Test", Source: "test"})
	repo.SaveBookmark(ctx, &Bookmark{ChapterID: "ch-1", MangaID: "manga-1", Page: 2})

	if err := repo.DeleteManga("manga-1"); err != nil {
		t.Fatalf("Failed to delete manga: %v", err)
	}

	bookmark, _ := repo.GetBookmark(ctx, "ch-1")
	if bookmark != nil {
		t.Error("Expected bookmark to be deleted with its manga")
	}
}

func TestGetChaptersNumericOrder(t *testing.T) {
	repo := setupTestDB(t)

	for _, ch := range []*Chapter{
		{ID: "c", MangaID: "m", Volume: "2", Number: "10"},
		{ID: "a", MangaID: "m", Volume: "10", Number: "100"},
		{ID: "b", MangaID: "m", Volume: "2", Number: "9.5"},
		{ID: "d", MangaID: "m", Volume: "", Number: "1"},
	} {
		if err := repo.SaveChapter(ch); err != nil {
			t.Fatalf("Failed to save chapter: %v", err)
		}
	}

	chapters, err := repo.GetChapters("m")
	if err != nil {
		t.Fatalf("Failed to get chapters: %v", err)
	}

	var got []string
	for _, ch := range chapters {
		got = append(got, ch.ID)
	}
	want := []string{"b", "c", "a", "d"}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, got)
		}
	}
}
