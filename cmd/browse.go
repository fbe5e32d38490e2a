package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/gdbdrive/internal/model"
	"github.com/timvw/gdbdrive/internal/picker"
)

var flagTheme string

var browseCmd = &cobra.Command{
	Use:   "browse <binary> [core]",
	Short: "Pick a thread in a terminal UI and debug it",
	Long: `Summarize every thread, show them in a list with the selected thread's
stack, and hand the gdb session over at the thread you pick. After you
leave gdb with Ctrl-] the list comes back, so you can look at another
thread. Quit the list with q.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		binary, core := targetArgs(args)
		s, err := openSession(ctx, cmd, binary, core)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.sourceMapping(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: source mapping: %v\n", err)
		}

		var threads []model.ThreadInfo
		for info, err := range s.gdb.ThreadSummary(ctx) {
			if err != nil {
				return fmt.Errorf("failed to summarize threads: %w", err)
			}
			threads = append(threads, info)
		}
		if len(threads) == 0 {
			return fmt.Errorf("no threads found")
		}

		p := &picker.Picker{Threads: threads, Theme: picker.ThemeByName(flagTheme)}
		for {
			chosen, err := p.Run()
			if err != nil {
				return err
			}
			if chosen == nil {
				return nil
			}
			loc := model.Location{Thread: chosen.Num}
			if len(chosen.Stack) > 0 {
				loc.Frame = chosen.Stack.Innermost().Num
			}
			if err := handoff(cmd, s, &loc); err != nil {
				return err
			}
		}
	},
}

func init() {
	browseCmd.Flags().StringVar(&flagTheme, "theme", "dark", "Color theme: dark, light")
	rootCmd.AddCommand(browseCmd)
}
