package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "List bookmarked chapters",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		marks, err := rt.repo.ListBookmarks(cmd.Context())
		if err != nil {
			return err
		}
		if len(marks) == 0 {
			fmt.Println("🔖 No bookmarks yet. Press b while reading to add one.")
			return nil
		}

		names := map[string]string{}
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("Manga", "Chapter", "Page", "Saved")
		for _, bm := range marks {
			name, ok := names[bm.MangaID]
			if !ok {
				name = bm.MangaID
				if manga, err := rt.repo.GetManga(bm.MangaID); err == nil && manga != nil {
					name = manga.Name
				}
				names[bm.MangaID] = name
			}
			t.Row(truncateString(name, 40), bm.ChapterID, fmt.Sprintf("%d", bm.Page+1), bm.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}

		fmt.Println(t)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bookmarksCmd)
}
