package components

import (
	"strings"
	"testing"

	"github.com/kerbaras/mangaread/pkg/reader"
	"github.com/stretchr/testify/assert"
)

func pages(states ...reader.PageState) []reader.Page {
	out := make([]reader.Page, len(states))
	for i, s := range states {
		out[i] = reader.Page{Index: i, State: s}
	}
	return out
}

func TestPageStripWindow(t *testing.T) {
	strip := NewPageStrip(10) // five cells

	tests := []struct {
		name       string
		current    int
		count      int
		start, end int
	}{
		{"fits", 1, 3, 0, 3},
		{"start", 0, 20, 0, 5},
		{"middle", 10, 20, 8, 13},
		{"end", 19, 20, 15, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := strip.Window(tt.current, tt.count)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestPageStripView(t *testing.T) {
	strip := NewPageStrip(80)
	view := strip.View(pages(reader.Loaded, reader.Loading, reader.Failed, reader.NotLoaded), 1)

	assert.Contains(t, view, "●")
	assert.Contains(t, view, "○")
	assert.Contains(t, view, "✗")
	assert.Contains(t, view, "·")
	assert.Contains(t, view, "page 2/4")
	assert.NotContains(t, view, "‹")
}

func TestPageStripViewScrolled(t *testing.T) {
	strip := NewPageStrip(6)
	states := make([]reader.PageState, 10)
	view := strip.View(pages(states...), 5)

	assert.Contains(t, view, "‹")
	assert.Contains(t, view, "›")
	assert.Equal(t, 3, strings.Count(view, "·"))
}

func TestPageStripEmpty(t *testing.T) {
	assert.Contains(t, NewPageStrip(10).View(nil, 0), "no pages")
}
