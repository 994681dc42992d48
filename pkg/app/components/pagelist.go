package components

import (
	"fmt"
	"strings"

	"github.com/kerbaras/mangaread/pkg/app/styles"
	"github.com/kerbaras/mangaread/pkg/reader"
)

var pageGlyphs = map[reader.PageState]string{
	reader.NotLoaded: "·",
	reader.Loading:   "○",
	reader.Loaded:    "●",
	reader.Failed:    "✗",
}

// PageStrip renders one glyph per page of the open chapter, centered on the
// current page when the chapter is wider than the strip.
type PageStrip struct {
	Width int
}

func NewPageStrip(width int) *PageStrip {
	return &PageStrip{Width: width}
}

// Window returns the half-open range of page indexes the strip shows.
func (s *PageStrip) Window(current, count int) (int, int) {
	// each cell is a glyph and a space
	fit := max(s.Width/2, 1)
	if count <= fit {
		return 0, count
	}
	start := min(max(current-fit/2, 0), count-fit)
	return start, start + fit
}

func (s *PageStrip) View(pages []reader.Page, current int) string {
	if len(pages) == 0 {
		return styles.MutedStyle.Render("no pages")
	}

	var b strings.Builder
	start, end := s.Window(current, len(pages))
	if start > 0 {
		b.WriteString(styles.MutedStyle.Render("‹"))
	}
	for i := start; i < end; i++ {
		glyph := pageGlyphs[pages[i].State]
		if i == current {
			b.WriteString(styles.SelectedStyle.Render(glyph))
		} else {
			b.WriteString(styles.PageStateStyle(pages[i].State).Render(glyph))
		}
		b.WriteString(" ")
	}
	if end < len(pages) {
		b.WriteString(styles.MutedStyle.Render("›"))
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("page %d/%d", current+1, len(pages))))
	return b.String()
}
