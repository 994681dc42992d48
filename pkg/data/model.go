package data

import "time"

type Manga struct {
	ID          string
	Name        string
	Description string
	CoverURL    string
	Source      string
	Status      string // "downloading", "completed", "partial"
}

type Chapter struct {
	ID         string
	MangaID    string
	Title      string
	Language   string
	Volume     string
	Number     string
	Downloaded bool
	FilePath   string // Path to the generated EPUB
}

// Bookmark is the last page the user marked in a chapter.
type Bookmark struct {
	ChapterID string
	MangaID   string
	Page      int
	UpdatedAt time.Time
}
