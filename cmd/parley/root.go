package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley is a branching dialogue engine",
	Long:  `Parley runs scripted, branching conversations authored as chapter files: AI messages, inputs, choices, and forms, with variables and conditional navigation.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("chapters", ".", "Directory containing chapter files")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
}

// newLogger builds the process logger from the persistent log-level flag.
func newLogger(cmd *cobra.Command) *slog.Logger {
	levelName, _ := cmd.Flags().GetString("log-level")

	var level slog.Level
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	return logging.New(level)
}
