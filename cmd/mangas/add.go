package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [manga-name]",
	Short: "Add a manga to your library",
	Long:  "Search for a manga and add its first match to your library (metadata only)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		query := strings.Join(args, " ")
		fmt.Printf("🔍 Searching for '%s'...\n", query)

		results, err := rt.controller.SearchManga(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if len(results) == 0 {
			fmt.Println("❌ No results found.")
			return nil
		}

		manga := results[0]
		fmt.Printf("✅ Found: %s (ID: %s)\n", manga.Name, manga.ID)

		if err := rt.controller.AddMangaToLibrary(cmd.Context(), manga); err != nil {
			return err
		}
		_, total, _, err := rt.repo.GetMangaWithChapterCount(manga.ID)
		if err != nil {
			return err
		}

		fmt.Printf("✅ Added '%s' to library with %d chapters\n", manga.Name, total)
		fmt.Printf("💡 Read it with: mangas read \"%s\"\n", manga.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
