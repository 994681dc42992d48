package cmd

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all manga in your library",
	Long:  "Display all manga in your library in a formatted table",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		mangas, err := rt.controller.ListLibrary()
		if err != nil {
			return err
		}
		if len(mangas) == 0 {
			fmt.Println("📚 No manga in library. Use 'mangas add' to add one.")
			return nil
		}

		columns := []table.Column{
			{Title: "Name", Width: 40},
			{Title: "ID", Width: 36},
			{Title: "Status", Width: 12},
			{Title: "Chapters", Width: 10},
			{Title: "Downloaded", Width: 12},
		}

		rows := []table.Row{}
		for _, manga := range mangas {
			_, total, downloaded, _ := rt.repo.GetMangaWithChapterCount(manga.ID)
			status := manga.Status
			if status == "" {
				status = "ready"
			}

			rows = append(rows, table.Row{
				truncateString(manga.Name, 38),
				manga.ID,
				status,
				fmt.Sprintf("%d", total),
				fmt.Sprintf("%d", downloaded),
			})
		}

		t := table.New(
			table.WithColumns(columns),
			table.WithRows(rows),
			table.WithFocused(false),
			table.WithHeight(len(rows)),
		)

		s := table.DefaultStyles()
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
		s.Selected = s.Selected.
			Foreground(lipgloss.NoColor{}).
			Bold(false)
		t.SetStyles(s)

		fmt.Printf("\n📚 Library (%d manga)\n\n", len(mangas))
		fmt.Println(t.View())
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove [manga-name or manga-id]",
	Short: "Remove a manga from your library",
	Long:  "Remove a manga, its chapters and its bookmarks from the library. Downloaded EPUBs are kept.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		manga, err := rt.controller.FindMangaByName(args[0])
		if err != nil {
			manga, err = rt.controller.GetMangaFromLibrary(args[0])
			if err != nil {
				return err
			}
		}
		if err := rt.controller.RemoveFromLibrary(manga.ID); err != nil {
			return err
		}
		fmt.Printf("🗑️  Removed '%s' from library\n", manga.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
}
