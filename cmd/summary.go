package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/gdbdrive/internal/model"
)

var flagSummaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary <binary> [core]",
	Short: "Print one line per thread: where it started and where it is now",
	Long: `Select every thread, take its backtrace and strip runtime frames (futex
waits, thread start trampolines) from both ends. Prints a table with the
thread number, kernel thread id, outermost and innermost remaining frame.
The last listed thread is printed first.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		binary, core := targetArgs(args)
		s, err := openSession(ctx, cmd, binary, core)
		if err != nil {
			return err
		}
		defer s.Close()

		if !flagSummaryJSON {
			return s.gdb.PrintThreadsSummary(ctx, os.Stdout, nil)
		}

		var threads []model.ThreadInfo
		for info, err := range s.gdb.ThreadSummary(ctx) {
			if err != nil {
				return fmt.Errorf("failed to summarize threads: %w", err)
			}
			threads = append(threads, info)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(threads)
	},
}

func init() {
	summaryCmd.Flags().BoolVar(&flagSummaryJSON, "json", false, "print summaries as JSON, in listing order")
	rootCmd.AddCommand(summaryCmd)
}
