package integrations

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerbaras/mangaread/pkg/data"
)

func createTestPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 6))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testChapter() (*data.Manga, *data.Chapter) {
	manga := &data.Manga{ID: "manga-1", Name: "Test Manga", Description: "Test with covers", Source: "mangadex"}
	chapter := &data.Chapter{ID: "ch-1", MangaID: "manga-1", Number: "5", Volume: "2", Title: "Epic Battle", Language: "en"}
	return manga, chapter
}

func epubEntries(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	entries := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		entries[f.Name] = string(b)
	}
	return entries
}

func TestEPubBuilder_RequiresInit(t *testing.T) {
	builder := NewEPubBuilder(t.TempDir())

	assert.ErrorIs(t, builder.Next(ImageData{Content: []byte("x")}), errNotInitialized)
	assert.ErrorIs(t, builder.SetMangaCover(CoverData{Content: []byte("x")}), errNotInitialized)
	_, err := builder.Done()
	assert.ErrorIs(t, err, errNotInitialized)
	assert.Error(t, builder.Init(nil, nil))
}

func TestEPubBuilder_Covers(t *testing.T) {
	builder := NewEPubBuilder(t.TempDir())
	manga, chapter := testChapter()
	require.NoError(t, builder.Init(manga, chapter))

	assert.Error(t, builder.SetMangaCover(CoverData{ContentType: "image/jpeg"}), "empty cover")
	require.NoError(t, builder.SetMangaCover(CoverData{Content: []byte("cover"), ContentType: "image/jpeg"}))
	require.NoError(t, builder.SetChapterCover(CoverData{Content: []byte("chapter"), ContentType: "image/jpeg"}))
	assert.NotNil(t, builder.mangaCover)
	assert.NotNil(t, builder.chapterCover)
}

func TestEPubBuilder_StreamsPagesToBook(t *testing.T) {
	outputDir := t.TempDir()
	builder := NewEPubBuilder(outputDir)
	manga, chapter := testChapter()
	require.NoError(t, builder.Init(manga, chapter))

	pngData := createTestPNG(t)
	require.NoError(t, builder.SetMangaCover(CoverData{Content: pngData, ContentType: "image/png"}))
	for i := 0; i < 3; i++ {
		require.NoError(t, builder.Next(ImageData{Content: pngData, ContentType: "image/png", Index: i}))
	}
	scratch := builder.scratch

	path, err := builder.Done()
	require.NoError(t, err)
	assert.Equal(t, outputDir, filepath.Dir(path))
	assert.Equal(t, "Test Manga - Vol. 2, Chapter 5_ Epic Battle.epub", filepath.Base(path))

	_, err = os.Stat(scratch)
	assert.True(t, os.IsNotExist(err), "scratch directory should be removed")

	var images, xhtml int
	for name, content := range epubEntries(t, path) {
		if strings.Contains(name, "page_") {
			images++
		}
		if strings.HasSuffix(name, ".xhtml") && strings.Contains(content, `class="page"`) {
			xhtml++
			assert.Contains(t, content, "Epic Battle")
			assert.Contains(t, content, "page_0002.png")
		}
	}
	assert.Equal(t, 3, images)
	assert.Equal(t, 1, xhtml)
}

func TestEPubBuilder_NoPages(t *testing.T) {
	builder := NewEPubBuilder(t.TempDir())
	manga, chapter := testChapter()
	require.NoError(t, builder.Init(manga, chapter))

	_, err := builder.Done()
	assert.Error(t, err)
}

func TestEPubBuilder_TemplateRendering(t *testing.T) {
	builder := NewEPubBuilder(t.TempDir())
	require.NotNil(t, builder.templates)

	pages := []PageData{
		{Path: "../images/page1.jpg", Index: 1, Alt: "Page 1"},
		{Path: "../images/page2.jpg", Index: 2, Alt: "Page 2"},
	}
	html, err := builder.renderChapterHTML("Vol. 2, Chapter 5: <Epic>", pages)
	require.NoError(t, err)
	assert.Contains(t, html, "Vol. 2, Chapter 5: &lt;Epic&gt;")
	assert.Contains(t, html, "page1.jpg")
	assert.Equal(t, 2, strings.Count(html, `class="page"`))
}

func TestEPubBuilder_SimpleFallback(t *testing.T) {
	builder := NewEPubBuilder(t.TempDir())
	builder.templates = nil

	pages := []PageData{{Path: "../images/test.jpg", Index: 1, Alt: "Test"}}
	_, err := builder.renderChapterHTML("Test Chapter", pages)
	assert.Error(t, err)

	html := builder.generateSimpleHTML("Test Chapter", pages)
	assert.Contains(t, html, "Test Chapter")
	assert.Contains(t, html, "test.jpg")
}

func TestGetExtensionFromContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/jpeg", ".jpg"},
		{"image/png", ".png"},
		{"image/gif", ".gif"},
		{"image/webp", ".webp"},
		{"IMAGE/PNG; charset=binary", ".png"},
		{"", ".jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, getExtensionFromContentType(tt.contentType))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Normal Title", "Normal Title"},
		{"Title: With Colon", "Title_ With Colon"},
		{"Title/With/Slashes", "Title_With_Slashes"},
		{"  ..Dots and spaces..  ", "Dots and spaces"},
		{`a*b?c"d<e>f|g\h`, "a_b_c_d_e_f_g_h"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, sanitizeFilename(tt.input), tt.input)
	}
}

func TestEPubBuilder_AbortRemovesScratch(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	builder := NewEPubBuilder(t.TempDir())
	manga, chapter := testChapter()
	require.NoError(t, builder.Init(manga, chapter))
	require.NoError(t, builder.Next(ImageData{Content: createTestPNG(t), ContentType: "image/png", Index: 0}))

	leftovers, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Len(t, leftovers, 1)

	builder.Abort()
	leftovers, err = os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	_, err = builder.Done()
	assert.ErrorIs(t, err, errNotInitialized)
	builder.Abort()
}

