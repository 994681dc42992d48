package integrations

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-epub"
	"github.com/kerbaras/mangaread/pkg/data"
)

// ImageData is one page streamed into the builder.
type ImageData struct {
	Content     []byte
	ContentType string
	Index       int
}

type CoverData struct {
	Content     []byte
	ContentType string
}

// PageData is a page as referenced from the chapter XHTML.
type PageData struct {
	Path  string
	Index int
	Alt   string
}

const chapterTemplate = `<h1>{{.Title}}</h1>
{{range .Pages}}<div class="page"><img src="{{.Path}}" alt="{{.Alt}}" style="width:100%;height:auto;"/></div>
{{end}}`

// EPubBuilder writes one chapter as an EPUB. Pages are streamed with Next
// and spooled to a scratch directory until Done assembles the book.
type EPubBuilder struct {
	outputDir string
	templates *template.Template

	manga        *data.Manga
	chapter      *data.Chapter
	book         *epub.Epub
	scratch      string
	pages        []PageData
	mangaCover   *CoverData
	chapterCover *CoverData
}

var errNotInitialized = errors.New("epub builder not initialized")

func NewEPubBuilder(outputDir string) *EPubBuilder {
	tmpl, err := template.New("chapter").Parse(chapterTemplate)
	if err != nil {
		tmpl = nil
	}
	return &EPubBuilder{outputDir: outputDir, templates: tmpl}
}

// Init starts a new book for chapter. Any previous unfinished book is dropped.
func (b *EPubBuilder) Init(manga *data.Manga, chapter *data.Chapter) error {
	if manga == nil || chapter == nil {
		return fmt.Errorf("manga and chapter are required")
	}
	b.cleanup()

	book, err := epub.NewEpub(chapterTitle(manga, chapter))
	if err != nil {
		return fmt.Errorf("failed to create EPub: %w", err)
	}
	book.SetAuthor(manga.Source)
	if manga.Description != "" {
		book.SetDescription(manga.Description)
	}
	if chapter.Language != "" {
		book.SetLang(chapter.Language)
	}

	scratch, err := os.MkdirTemp("", "mangas-epub-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}

	b.manga = manga
	b.chapter = chapter
	b.book = book
	b.scratch = scratch
	b.pages = nil
	b.mangaCover = nil
	b.chapterCover = nil
	return nil
}

func (b *EPubBuilder) SetMangaCover(cover CoverData) error {
	if b.book == nil {
		return errNotInitialized
	}
	if len(cover.Content) == 0 {
		return fmt.Errorf("cover image is empty")
	}
	b.mangaCover = &cover
	return nil
}

func (b *EPubBuilder) SetChapterCover(cover CoverData) error {
	if b.book == nil {
		return errNotInitialized
	}
	if len(cover.Content) == 0 {
		return fmt.Errorf("cover image is empty")
	}
	b.chapterCover = &cover
	return nil
}

// Next adds the next page of the chapter.
func (b *EPubBuilder) Next(img ImageData) error {
	if b.book == nil {
		return errNotInitialized
	}
	if len(img.Content) == 0 {
		return fmt.Errorf("page %d is empty", img.Index)
	}

	name := fmt.Sprintf("page_%04d%s", img.Index, getExtensionFromContentType(img.ContentType))
	internal, err := b.addImage(name, img.Content)
	if err != nil {
		return fmt.Errorf("failed to add page %d: %w", img.Index, err)
	}
	b.pages = append(b.pages, PageData{Path: internal, Index: img.Index + 1, Alt: fmt.Sprintf("Page %d", img.Index+1)})
	return nil
}

// Done writes the book to the output directory and returns its path.
func (b *EPubBuilder) Done() (string, error) {
	if b.book == nil {
		return "", errNotInitialized
	}
	defer b.cleanup()

	if len(b.pages) == 0 {
		return "", fmt.Errorf("no pages added")
	}

	cover := b.chapterCover
	if cover == nil {
		cover = b.mangaCover
	}
	if cover != nil {
		internal, err := b.addImage("cover"+getExtensionFromContentType(cover.ContentType), cover.Content)
		if err != nil {
			return "", fmt.Errorf("failed to add cover: %w", err)
		}
		b.book.SetCover(internal, "")
	}

	title := chapterTitle(b.manga, b.chapter)
	html, err := b.renderChapterHTML(title, b.pages)
	if err != nil {
		html = b.generateSimpleHTML(title, b.pages)
	}
	if _, err := b.book.AddSection(html, title, "", ""); err != nil {
		return "", fmt.Errorf("failed to add section: %w", err)
	}

	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(b.outputDir, sanitizeFilename(title)+".epub")
	if err := b.book.Write(outputPath); err != nil {
		return "", fmt.Errorf("failed to write EPub: %w", err)
	}
	return outputPath, nil
}

func (b *EPubBuilder) addImage(name string, content []byte) (string, error) {
	path := filepath.Join(b.scratch, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", err
	}
	return b.book.AddImage(path, name)
}

func (b *EPubBuilder) renderChapterHTML(title string, pages []PageData) (string, error) {
	if b.templates == nil {
		return "", fmt.Errorf("no chapter template")
	}
	var buf bytes.Buffer
	err := b.templates.Execute(&buf, struct {
		Title string
		Pages []PageData
	}{title, pages})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (b *EPubBuilder) generateSimpleHTML(title string, pages []PageData) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", template.HTMLEscapeString(title))
	for _, p := range pages {
		fmt.Fprintf(&sb, `<div class="page"><img src="%s" alt="%s"/></div>`+"\n",
			template.HTMLEscapeString(p.Path), template.HTMLEscapeString(p.Alt))
	}
	return sb.String()
}

// Abort drops an unfinished book and its scratch files. It is safe to call
// after Done or more than once.
func (b *EPubBuilder) Abort() {
	b.cleanup()
}

func (b *EPubBuilder) cleanup() {
	if b.scratch != "" {
		os.RemoveAll(b.scratch)
	}
	b.scratch = ""
	b.book = nil
}

func chapterTitle(manga *data.Manga, chapter *data.Chapter) string {
	title := fmt.Sprintf("Chapter %s", chapter.Number)
	if chapter.Volume != "" && chapter.Volume != "0" {
		title = fmt.Sprintf("Vol. %s, %s", chapter.Volume, title)
	}
	if chapter.Title != "" {
		title = fmt.Sprintf("%s: %s", title, chapter.Title)
	}
	if manga.Name != "" {
		title = fmt.Sprintf("%s - %s", manga.Name, title)
	}
	return title
}

func getExtensionFromContentType(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// sanitizeFilename removes characters that are invalid in filenames
func sanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")
	return result
}
