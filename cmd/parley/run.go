package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/internal/tui"
	"github.com/parleyhq/parley/pkg/chapter"
	"github.com/parleyhq/parley/pkg/runner"
)

var runCmd = &cobra.Command{
	Use:   "run [chapter-id]",
	Short: "Run a conversation in the terminal",
	Long:  `Starts an interactive chat session from the given chapter (default: the first chapter in the directory).`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runConversation(cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("no-banner", false, "Suppress the startup banner")
}

func runConversation(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("chapters")
	logger := newLogger(cmd)
	loader := chapter.NewDir(dir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chapterID := ""
	if len(args) > 0 {
		chapterID = args[0]
	} else {
		ids, err := loader.List(ctx)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return fmt.Errorf("no chapter files in %s", dir)
		}
		chapterID = ids[0]
	}

	ch, err := loader.Load(ctx, chapterID)
	if err != nil {
		return err
	}

	sess, err := parley.New(ch,
		parley.WithLogger(logger),
		parley.WithChapterLoader(loader),
		parley.WithSleep(tui.TypingIndicator(os.Stdout)),
	)
	if err != nil {
		return err
	}

	if noBanner, _ := cmd.Flags().GetBool("no-banner"); !noBanner {
		tui.PrintBanner(os.Stdout)
	}

	r := runner.NewRunner()
	r.Logger = logger
	err = r.Run(ctx, sess)
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		fmt.Println()
		return nil
	}
	return err
}
