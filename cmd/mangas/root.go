package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kerbaras/mangaread/pkg/app"
	"github.com/kerbaras/mangaread/pkg/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "mangas",
	Short:         "A terminal manga reader and bookshelf",
	Long:          "Browse, read and download manga from your terminal",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		a := app.NewApp(rt.controller, rt.repo, rt.reading, rt.readerConfig(), rt.cfg.Language, rt.log)
		return a.Run(cmd.Context())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultPath(), "Path to the config file")
	flags.String("source", "", "Manga source (default from config)")
	flags.StringP("language", "l", "", "Chapter language (default from config)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
