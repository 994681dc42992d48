package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS mangas (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL,
		description VARCHAR,
		cover_url VARCHAR,
		source VARCHAR,
		status VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS chapters (
		id VARCHAR PRIMARY KEY,
		manga_id VARCHAR NOT NULL,
		title VARCHAR,
		language VARCHAR,
		volume VARCHAR,
		number VARCHAR,
		downloaded BOOLEAN DEFAULT false,
		file_path VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS bookmarks (
		chapter_id VARCHAR PRIMARY KEY,
		manga_id VARCHAR,
		page INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// InitDuckDB opens the database at path, creating its directory and tables.
func InitDuckDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return db, nil
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// NewDuckDBRepository opens path and wraps it in a Repository.
func NewDuckDBRepository(path string) (*Repository, error) {
	db, err := InitDuckDB(path)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) SaveManga(manga *Manga) error {
	_, err := r.db.Exec(`INSERT OR REPLACE INTO mangas (id, name, description, cover_url, source, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		manga.ID, manga.Name, manga.Description, manga.CoverURL, manga.Source, manga.Status)
	if err != nil {
		return fmt.Errorf("failed to save manga %s: %w", manga.ID, err)
	}
	return nil
}

// GetManga returns nil without error when the manga is not in the library.
func (r *Repository) GetManga(id string) (*Manga, error) {
	m := &Manga{}
	var description, coverURL, source, status sql.NullString
	err := r.db.QueryRow(`SELECT id, name, description, cover_url, source, status FROM mangas WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &description, &coverURL, &source, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get manga %s: %w", id, err)
	}
	m.Description = description.String
	m.CoverURL = coverURL.String
	m.Source = source.String
	m.Status = status.String
	return m, nil
}

func (r *Repository) ListMangas() ([]*Manga, error) {
	rows, err := r.db.Query(`SELECT id, name, description, cover_url, source, status FROM mangas ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list mangas: %w", err)
	}
	defer rows.Close()

	var mangas []*Manga
	for rows.Next() {
		m := &Manga{}
		var description, coverURL, source, status sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &description, &coverURL, &source, &status); err != nil {
			return nil, err
		}
		m.Description = description.String
		m.CoverURL = coverURL.String
		m.Source = source.String
		m.Status = status.String
		mangas = append(mangas, m)
	}
	return mangas, rows.Err()
}

// DeleteManga removes the manga with its chapters and bookmarks.
func (r *Repository) DeleteManga(mangaID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM bookmarks WHERE manga_id = ?`,
		`DELETE FROM chapters WHERE manga_id = ?`,
		`DELETE FROM mangas WHERE id = ?`,
	} {
		if _, err := tx.Exec(stmt, mangaID); err != nil {
			return fmt.Errorf("failed to delete manga %s: %w", mangaID, err)
		}
	}
	return tx.Commit()
}

func (r *Repository) SaveChapter(chapter *Chapter) error {
	_, err := r.db.Exec(`INSERT OR REPLACE INTO chapters (id, manga_id, title, language, volume, number, downloaded, file_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		chapter.ID, chapter.MangaID, chapter.Title, chapter.Language, chapter.Volume, chapter.Number,
		chapter.Downloaded, chapter.FilePath)
	if err != nil {
		return fmt.Errorf("failed to save chapter %s: %w", chapter.ID, err)
	}
	return nil
}

// GetChapters returns the chapters of a manga ordered by volume, then number.
func (r *Repository) GetChapters(mangaID string) ([]*Chapter, error) {
	rows, err := r.db.Query(`SELECT id, manga_id, title, language, volume, number, downloaded, file_path
		FROM chapters WHERE manga_id = ?
		ORDER BY TRY_CAST(volume AS DOUBLE) NULLS LAST, TRY_CAST(number AS DOUBLE) NULLS FIRST, id`, mangaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chapters: %w", err)
	}
	defer rows.Close()

	var chapters []*Chapter
	for rows.Next() {
		c := &Chapter{}
		var title, language, volume, number, filePath sql.NullString
		var downloaded sql.NullBool
		if err := rows.Scan(&c.ID, &c.MangaID, &title, &language, &volume, &number, &downloaded, &filePath); err != nil {
			return nil, err
		}
		c.Title = title.String
		c.Language = language.String
		c.Volume = volume.String
		c.Number = number.String
		c.Downloaded = downloaded.Bool
		c.FilePath = filePath.String
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

func (r *Repository) UpdateChapterStatus(chapterID string, downloaded bool, filePath string) error {
	_, err := r.db.Exec(`UPDATE chapters SET downloaded = ?, file_path = ? WHERE id = ?`, downloaded, filePath, chapterID)
	if err != nil {
		return fmt.Errorf("failed to update chapter %s: %w", chapterID, err)
	}
	return nil
}

// GetMangaWithChapterCount returns the manga with its total and downloaded
// chapter counts. The manga is nil when it is not in the library.
func (r *Repository) GetMangaWithChapterCount(mangaID string) (*Manga, int, int, error) {
	manga, err := r.GetManga(mangaID)
	if err != nil || manga == nil {
		return manga, 0, 0, err
	}

	var total, downloaded int
	err = r.db.QueryRow(`SELECT COUNT(*), COUNT(*) FILTER (WHERE downloaded) FROM chapters WHERE manga_id = ?`, mangaID).
		Scan(&total, &downloaded)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to count chapters: %w", err)
	}
	return manga, total, downloaded, nil
}

func (r *Repository) SaveBookmark(ctx context.Context, b *Bookmark) error {
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO bookmarks (chapter_id, manga_id, page, updated_at)
		VALUES (?, ?, ?, ?)`, b.ChapterID, b.MangaID, b.Page, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save bookmark for %s: %w", b.ChapterID, err)
	}
	return nil
}

// GetBookmark returns nil without error when the chapter has no bookmark.
func (r *Repository) GetBookmark(ctx context.Context, chapterID string) (*Bookmark, error) {
	b := &Bookmark{}
	var mangaID sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT chapter_id, manga_id, page, updated_at FROM bookmarks WHERE chapter_id = ?`, chapterID).
		Scan(&b.ChapterID, &mangaID, &b.Page, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark for %s: %w", chapterID, err)
	}
	b.MangaID = mangaID.String
	return b, nil
}

// ListBookmarks returns bookmarks, most recent first.
func (r *Repository) ListBookmarks(ctx context.Context) ([]*Bookmark, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT chapter_id, manga_id, page, updated_at FROM bookmarks ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	var out []*Bookmark
	for rows.Next() {
		b := &Bookmark{}
		var mangaID sql.NullString
		if err := rows.Scan(&b.ChapterID, &mangaID, &b.Page, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.MangaID = mangaID.String
		out = append(out, b)
	}
	return out, rows.Err()
}
