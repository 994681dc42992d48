package reader

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// session is one opened chapter. Its pages never outlive it: switching
// chapters cancels the session's tasks and builds a new one.
type session struct {
	chapter *Chapter
	pages   []*Page
	current int

	ctx    context.Context
	cancel context.CancelFunc
	tasks  errgroup.Group
}

func newSession(parent context.Context, ch *Chapter) *session {
	ctx, cancel := context.WithCancel(parent)
	s := &session{
		chapter: ch,
		pages:   make([]*Page, len(ch.PageURLs)),
		ctx:     ctx,
		cancel:  cancel,
	}
	for i, url := range ch.PageURLs {
		s.pages[i] = &Page{Index: i, URL: url}
	}
	if n := len(s.pages); n > 0 {
		s.current = min(max(ch.BookmarkedPage, 0), n-1)
	}
	return s
}

// window returns the inclusive page range to keep fetched around current.
// A chapter with a single page always targets that page.
func window(current, count, radius int) (lo, hi int) {
	switch {
	case count == 0:
		return 0, -1
	case count == 1:
		return 0, 0
	}
	lo = max(0, current-radius)
	hi = min(count-1, current+radius)
	return lo, hi
}

// pending lists the pages in the window that have not been requested yet.
func (s *session) pending(radius int) []*Page {
	lo, hi := window(s.current, len(s.pages), radius)
	var out []*Page
	for i := lo; i <= hi; i++ {
		if s.pages[i].State == NotLoaded {
			out = append(out, s.pages[i])
		}
	}
	return out
}

func (s *session) close() {
	s.cancel()
}
