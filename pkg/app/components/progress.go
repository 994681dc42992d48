package components

import (
	"fmt"
	"strings"

	"github.com/kerbaras/mangaread/pkg/app/styles"
	"github.com/kerbaras/mangaread/pkg/services"
)

// ProgressTracker shows chapter downloads that are still running or failed.
type ProgressTracker struct {
	downloads map[string]*services.DownloadProgress
	order     []string
	width     int
}

func NewProgressTracker(width int) *ProgressTracker {
	return &ProgressTracker{
		downloads: make(map[string]*services.DownloadProgress),
		width:     width,
	}
}

func (p *ProgressTracker) SetWidth(width int) {
	p.width = width
}

func (p *ProgressTracker) Update(progress services.DownloadProgress) {
	key := progress.MangaID + ":" + progress.ChapterID
	if progress.Status == services.StatusComplete && progress.ChapterID != "" {
		p.remove(key)
		return
	}
	if _, ok := p.downloads[key]; !ok {
		p.order = append(p.order, key)
	}
	prog := progress
	p.downloads[key] = &prog
}

func (p *ProgressTracker) remove(key string) {
	delete(p.downloads, key)
	for i, k := range p.order {
		if k == key {
			p.order = append(p.order[:i], p.order[i+1:]...)
			return
		}
	}
}

func (p *ProgressTracker) Clear() {
	p.downloads = make(map[string]*services.DownloadProgress)
	p.order = nil
}

func (p *ProgressTracker) HasActive() bool {
	return len(p.downloads) > 0
}

func (p *ProgressTracker) View() string {
	if len(p.downloads) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Active Downloads"))
	b.WriteString("\n\n")

	for _, key := range p.order {
		progress := p.downloads[key]

		chapterText := fmt.Sprintf("Chapter %s", progress.ChapterNumber)
		if progress.ChapterNumber == "" {
			chapterText = "Processing manga"
		}
		b.WriteString(styles.TextStyle.Render(chapterText))
		b.WriteString("\n")

		statusText := progress.Status
		if progress.TotalPages > 0 {
			percentage := float64(progress.CurrentPage) / float64(progress.TotalPages) * 100
			statusText = fmt.Sprintf("%s (%d/%d pages - %.0f%%)",
				progress.Status, progress.CurrentPage, progress.TotalPages, percentage)

			b.WriteString(renderProgressBar(progress.CurrentPage, progress.TotalPages, p.width-4))
			b.WriteString("\n")
		}
		b.WriteString(styles.StatusStyle(progress.Status).Render(statusText))
		b.WriteString("\n")

		if progress.Error != nil {
			b.WriteString(styles.StatusError.Render(fmt.Sprintf("Error: %s", progress.Error)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func renderProgressBar(current, total, width int) string {
	if total == 0 || width <= 0 {
		return ""
	}
	filled := min(int(float64(current)/float64(total)*float64(width)), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return styles.ProgressBarStyle.Render(bar)
}
