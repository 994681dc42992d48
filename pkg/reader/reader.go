package reader

import (
	"context"
	"image"
	"io"
	"log/slog"

	"github.com/kerbaras/mangaread/pkg/catalog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const intakeSize = 64

type pageResult struct {
	session *session
	index   int
	image   image.Image
	size    image.Point
	err     error
}

type chapterResult struct {
	session *session
	target  catalog.Entry
	chapter *Chapter
	err     error
}

type bookmarkResult struct {
	session   *session
	chapterID string
	page      int
	err       error
}

// Reader is the state machine behind the reader view. Its methods must be
// called from a single goroutine; background work only talks back through
// the intake channel drained by Poll.
type Reader struct {
	cfg     Config
	deps    Deps
	log     *slog.Logger
	catalog *catalog.Catalog

	session *session
	state   State
	err     error

	intake chan any
	sem    *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	// background holds tasks that are not scoped to a session, such as
	// bookmark writes.
	background errgroup.Group
}

// New opens ch and starts fetching the pages around its first (or
// bookmarked) page. cat may be nil, in which case chapter navigation always
// reports ChapterNotFound.
func New(cfg Config, deps Deps, cat *catalog.Catalog, ch *Chapter) (*Reader, error) {
	if ch == nil {
		return nil, ErrNoChapter
	}
	if deps.Fetcher == nil || deps.Decoder == nil || deps.Chapters == nil {
		return nil, ErrMissingDeps
	}
	if cfg.Radius < 0 {
		cfg.Radius = 0
	}
	if cfg.MaxConcurrentFetches <= 0 {
		cfg.MaxConcurrentFetches = DefaultConfig().MaxConcurrentFetches
	}
	if cat == nil {
		cat = catalog.New(nil)
	}

	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Reader{
		cfg:     cfg,
		deps:    deps,
		log:     log,
		catalog: cat,
		intake:  make(chan any, intakeSize),
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrentFetches)),
		ctx:     ctx,
		cancel:  cancel,
	}
	r.install(ch)
	return r, nil
}

func (r *Reader) State() State { return r.state }

// Err is the last failure worth showing to the user.
func (r *Reader) Err() error { return r.err }

func (r *Reader) Catalog() *catalog.Catalog { return r.catalog }

func (r *Reader) Chapter() Chapter {
	ch := *r.session.chapter
	return ch
}

func (r *Reader) CurrentIndex() int { return r.session.current }

func (r *Reader) PageCount() int { return len(r.session.pages) }

// Page returns a snapshot of page i.
func (r *Reader) Page(i int) (Page, bool) {
	if i < 0 || i >= len(r.session.pages) {
		return Page{}, false
	}
	return *r.session.pages[i], true
}

// Pages returns a snapshot of every page of the current chapter.
func (r *Reader) Pages() []Page {
	out := make([]Page, len(r.session.pages))
	for i, p := range r.session.pages {
		out[i] = *p
	}
	return out
}

func (r *Reader) NextPage() {
	r.GoToPage(r.session.current + 1)
}

func (r *Reader) PreviousPage() {
	r.GoToPage(r.session.current - 1)
}

// GoToPage moves to page i and refreshes the prefetch window. Out of range
// indexes are ignored.
func (r *Reader) GoToPage(i int) {
	s := r.session
	if i < 0 || i >= len(s.pages) {
		return
	}
	s.current = i
	switch r.state {
	case ManualBookmark, ChapterNotFound, ErrorSearchingChapter:
		r.state = SearchingPages
	}
	r.Prefetch()
}

// Prefetch dispatches every page in the window that has not been requested.
// Pages already loading are skipped, so calling it repeatedly is harmless.
func (r *Reader) Prefetch() {
	for _, p := range r.session.pending(r.cfg.Radius) {
		r.dispatch(r.session, p)
	}
}

// ReloadCurrentPage retries the current page if its last fetch failed.
func (r *Reader) ReloadCurrentPage() {
	s := r.session
	if len(s.pages) == 0 {
		return
	}
	if p := s.pages[s.current]; p.State == Failed {
		r.dispatch(s, p)
	}
}

func (r *Reader) NextChapter() {
	r.navigate(r.catalog.Next)
}

func (r *Reader) PreviousChapter() {
	r.navigate(r.catalog.Previous)
}

func (r *Reader) navigate(lookup func(volume, number string) (catalog.Entry, bool)) {
	if r.state == SearchingChapter {
		return
	}
	ch := r.session.chapter
	target, ok := lookup(ch.Volume, ch.Number)
	if !ok {
		r.state = ChapterNotFound
		return
	}

	r.state = SearchingChapter
	r.err = nil
	s := r.session
	s.tasks.Go(func() error {
		next, err := r.deps.Chapters.FetchChapter(s.ctx, target.ID)
		r.deliver(s.ctx, chapterResult{session: s, target: target, chapter: next, err: err})
		return nil
	})
}

// BookmarkCurrent records the current page. The write happens in the
// background and never holds up page fetching.
func (r *Reader) BookmarkCurrent() {
	if r.deps.Bookmarks == nil {
		r.err = ErrNoBookmarker
		return
	}
	s := r.session
	chapterID, page := s.chapter.ID, s.current
	r.background.Go(func() error {
		err := r.deps.Bookmarks.Bookmark(r.ctx, chapterID, page)
		r.deliver(r.ctx, bookmarkResult{session: s, chapterID: chapterID, page: page, err: err})
		return nil
	})
}

// Poll applies every result that has arrived since the last call and
// returns how many there were. It never blocks.
func (r *Reader) Poll() int {
	n := 0
	for {
		select {
		case res := <-r.intake:
			r.apply(res)
			n++
		default:
			return n
		}
	}
}

// Close cancels all outstanding work and waits for it to stop.
func (r *Reader) Close() {
	r.cancel()
	r.session.close()
	r.session.tasks.Wait()
	r.background.Wait()
}

func (r *Reader) install(ch *Chapter) {
	if r.session != nil {
		r.session.close()
	}
	r.session = newSession(r.ctx, ch)
	r.state = SearchingPages
	if len(ch.PageURLs) == 0 {
		r.err = ErrNoPages
	}
	r.log.Debug("chapter opened",
		slog.String("chapter_id", ch.ID),
		slog.String("number", ch.Number),
		slog.Int("pages", len(ch.PageURLs)),
	)
	r.Prefetch()
}

// dispatch marks p as loading before the task starts so a later window
// computation cannot request it again.
func (r *Reader) dispatch(s *session, p *Page) {
	p.State = Loading
	p.Err = nil
	index, url := p.Index, p.URL

	s.tasks.Go(func() error {
		if err := r.sem.Acquire(s.ctx, 1); err != nil {
			return nil
		}
		defer r.sem.Release(1)

		res := pageResult{session: s, index: index}
		data, err := r.deps.Fetcher.FetchPage(s.ctx, url)
		if err == nil {
			res.image, res.size, err = r.deps.Decoder.Decode(data)
		}
		res.err = err
		r.deliver(s.ctx, res)
		return nil
	})
}

func (r *Reader) deliver(ctx context.Context, res any) {
	if ctx.Err() != nil {
		return
	}
	select {
	case r.intake <- res:
	case <-ctx.Done():
	}
}

func (r *Reader) apply(res any) {
	switch res := res.(type) {
	case pageResult:
		r.applyPage(res)
	case chapterResult:
		r.applyChapter(res)
	case bookmarkResult:
		r.applyBookmark(res)
	}
}

func (r *Reader) applyPage(res pageResult) {
	if res.session != r.session {
		return
	}
	p := r.session.pages[res.index]
	if p.State != Loading {
		return
	}
	if res.err != nil {
		p.State = Failed
		p.Err = res.err
		r.log.Warn("failed to load page",
			slog.String("chapter_id", r.session.chapter.ID),
			slog.Int("page", res.index),
			slog.Any("error", res.err),
		)
		return
	}
	p.State = Loaded
	p.Image = res.image
	p.Dimensions = res.size
}

func (r *Reader) applyChapter(res chapterResult) {
	if res.session != r.session {
		return
	}
	if res.err != nil || res.chapter == nil {
		r.state = ErrorSearchingChapter
		r.err = res.err
		if r.err == nil {
			r.err = ErrNoChapter
		}
		r.log.Warn("failed to search chapter",
			slog.String("chapter_id", res.target.ID),
			slog.Any("error", r.err),
		)
		return
	}
	r.err = nil
	r.install(res.chapter)
}

func (r *Reader) applyBookmark(res bookmarkResult) {
	if res.err != nil {
		r.err = res.err
		r.log.Warn("failed to bookmark page",
			slog.String("chapter_id", res.chapterID),
			slog.Int("page", res.page),
			slog.Any("error", res.err),
		)
		return
	}
	if res.session == r.session && r.state == SearchingPages {
		r.state = ManualBookmark
	}
}
