package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/validator"
	"github.com/parleyhq/parley/pkg/chapter"
)

var validateCmd = &cobra.Command{
	Use:   "validate [chapter-id...]",
	Short: "Check chapter files for consistency",
	Long:  `Validates chapter documents against the schema, then crawls each node graph and reports dangling references, broken expressions, and unreachable nodes.`,
	Run: func(cmd *cobra.Command, args []string) {
		failed, err := runValidate(cmd, args)
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		if failed {
			os.Exit(1)
		}
		fmt.Println("All chapters are valid.")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) (failed bool, err error) {
	dir, _ := cmd.Flags().GetString("chapters")
	loader := chapter.NewDir(dir)
	ctx := context.Background()

	ids := args
	if len(ids) == 0 {
		ids, err = loader.List(ctx)
		if err != nil {
			return false, err
		}
		if len(ids) == 0 {
			return false, fmt.Errorf("no chapter files in %s", dir)
		}
	}

	for _, id := range ids {
		ch, err := loader.Load(ctx, id)
		if err != nil {
			// Schema violations surface here; report and keep going.
			fmt.Printf("%s: %v\n", id, err)
			failed = true
			continue
		}

		issues := validator.Check(ch)
		for _, issue := range issues {
			fmt.Printf("%s: %s\n", id, issue)
		}
		if validator.HasErrors(issues) {
			failed = true
		}
	}
	return failed, nil
}
