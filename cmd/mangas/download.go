package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/services"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var downloadCmd = &cobra.Command{
	Use:   "download [manga-name or manga-id]",
	Short: "Download manga chapters as EPUB",
	Long:  "Download chapters of a manga from your library or by source ID. Each chapter becomes one EPUB.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		chapters, _ := cmd.Flags().GetString("chapters")

		manga, err := resolveManga(cmd.Context(), rt, args[0])
		if err != nil {
			return err
		}

		if chapters != "" {
			fmt.Printf("📥 Downloading chapters %s of '%s' (language: %s)\n", chapters, manga.Name, rt.cfg.Language)
		} else {
			fmt.Printf("📥 Downloading all chapters of '%s' (language: %s)\n", manga.Name, rt.cfg.Language)
		}

		bars := newChapterBars()
		done := make(chan struct{})
		go func() {
			defer close(done)
			for progress := range rt.controller.GetProgressChannel() {
				bars.update(progress)
			}
		}()

		err = rt.controller.DownloadManga(cmd.Context(), manga, services.DownloadOptions{ChapterRange: chapters})
		rt.controller.Close()
		<-done
		bars.wait()

		if err != nil {
			return fmt.Errorf("download failed: %w", err)
		}
		fmt.Printf("\n✅ Download complete! EPUBs are in %s\n", rt.controller.GetDownloadDirectory())
		return nil
	},
}

// resolveManga looks the identifier up by library name, then library id,
// then asks the source.
func resolveManga(ctx context.Context, rt *runtime, identifier string) (*data.Manga, error) {
	if manga, err := rt.controller.FindMangaByName(identifier); err == nil {
		fmt.Printf("📚 Found '%s' in library\n", manga.Name)
		return manga, nil
	}
	if manga, err := rt.controller.GetMangaFromLibrary(identifier); err == nil {
		return manga, nil
	}
	fmt.Printf("🔍 Looking up manga ID: %s\n", identifier)
	return rt.controller.GetManga(ctx, identifier)
}

// chapterBars draws one mpb bar per chapter download job.
type chapterBars struct {
	p    *mpb.Progress
	mu   sync.Mutex
	bars map[string]*mpb.Bar
}

func newChapterBars() *chapterBars {
	return &chapterBars{
		p: mpb.New(
			mpb.WithWidth(40),
			mpb.WithOutput(os.Stdout),
			mpb.WithRefreshRate(120*time.Millisecond),
		),
		bars: map[string]*mpb.Bar{},
	}
}

func (c *chapterBars) update(progress services.DownloadProgress) {
	if progress.ChapterID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	bar, ok := c.bars[progress.ChapterID]
	if !ok {
		bar = c.p.AddBar(0,
			mpb.BarRemoveOnComplete(),
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("Chapter %-6s", progress.ChapterNumber)),
			),
			mpb.AppendDecorators(
				decor.CountersNoUnit("%d/%d pages", decor.WCSyncWidth),
				decor.OnAbort(decor.Percentage(decor.WCSyncSpace), " failed"),
			),
		)
		c.bars[progress.ChapterID] = bar
	}

	switch progress.Status {
	case services.StatusError:
		bar.Abort(false)
	case services.StatusComplete:
		bar.SetTotal(int64(progress.TotalPages), true)
	default:
		if progress.TotalPages > 0 {
			bar.SetTotal(int64(progress.TotalPages), false)
			bar.SetCurrent(int64(progress.CurrentPage))
		}
	}
}

// wait finishes any bar whose final event was dropped and flushes output.
func (c *chapterBars) wait() {
	c.mu.Lock()
	for _, bar := range c.bars {
		if !bar.Completed() && !bar.Aborted() {
			bar.Abort(false)
		}
	}
	c.mu.Unlock()
	c.p.Wait()
}

func init() {
	downloadCmd.Flags().StringP("chapters", "c", "", "Chapter range (e.g., 1-10)")
	rootCmd.AddCommand(downloadCmd)
}
