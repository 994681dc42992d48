package cmd

import (
	"context"
	"fmt"

	"github.com/kerbaras/mangaread/pkg/app"
	"github.com/kerbaras/mangaread/pkg/catalog"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read [manga-name or manga-id]",
	Short: "Read a manga in the terminal",
	Long: "Open the reader on a chapter. Without --chapter it resumes at the most " +
		"recently bookmarked chapter, or starts from the first one.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		number, _ := cmd.Flags().GetString("chapter")

		manga, err := resolveManga(cmd.Context(), rt, args[0])
		if err != nil {
			return err
		}
		cat, err := rt.reading.Catalog(cmd.Context(), manga, rt.cfg.Language)
		if err != nil {
			return err
		}
		chapterID, err := pickChapter(cmd.Context(), rt.repo, cat, manga.ID, number)
		if err != nil {
			return err
		}

		a := app.NewApp(rt.controller, rt.repo, rt.reading, rt.readerConfig(), rt.cfg.Language, rt.log)
		return a.Read(cmd.Context(), manga, chapterID)
	},
}

type bookmarkLister interface {
	ListBookmarks(ctx context.Context) ([]*data.Bookmark, error)
}

// pickChapter resolves a chapter number to an id. An empty number picks the
// last bookmarked chapter of the manga, falling back to the first chapter.
func pickChapter(ctx context.Context, bookmarks bookmarkLister, cat *catalog.Catalog, mangaID, number string) (string, error) {
	if cat.Len() == 0 {
		return "", fmt.Errorf("manga has no chapters in this language")
	}

	if number != "" {
		want := catalog.ParseNumber(number)
		for _, vol := range cat.Volumes() {
			for _, e := range vol.Chapters {
				if e.Number == number || (want != 0 && catalog.ParseNumber(e.Number) == want) {
					return e.ID, nil
				}
			}
		}
		return "", fmt.Errorf("chapter %s not found", number)
	}

	if bookmarks != nil {
		marks, err := bookmarks.ListBookmarks(ctx)
		if err != nil {
			return "", err
		}
		// newest first
		for _, bm := range marks {
			if bm.MangaID != mangaID {
				continue
			}
			if _, ok := cat.Find(bm.ChapterID); ok {
				return bm.ChapterID, nil
			}
		}
	}

	return cat.Volumes()[0].Chapters[0].ID, nil
}

func init() {
	readCmd.Flags().StringP("chapter", "c", "", "Chapter number to open")
	rootCmd.AddCommand(readCmd)
}
